package regs

import (
	"errors"
	"fmt"
)

var (
	ErrTimeout        = errors.New("timed out")
	ErrInvalidAddress = errors.New("invalid register window address")
)

// Window is a block of 32-bit registers addressed by byte offset from its base.
// Offsets are not checked: reading or writing one that isn't a register does
// whatever the hardware does.
type Window interface {
	Read32(offset uint32) uint32
	Write32(offset uint32, val uint32)
}

func SetBits(w Window, offset uint32, mask uint32) {
	w.Write32(offset, w.Read32(offset)|mask)
}

func ClearBits(w Window, offset uint32, mask uint32) {
	w.Write32(offset, w.Read32(offset)&^mask)
}

// WaitBit polls the register at offset until the bits in mask are all set
// (set == true) or all clear (set == false). It gives up after iterations reads.
func WaitBit(w Window, offset uint32, mask uint32, set bool, iterations int) error {
	var v uint32
	for i := 0; i < iterations; i++ {
		v = w.Read32(offset)
		if set && v&mask == mask {
			return nil
		}
		if !set && v&mask == 0 {
			return nil
		}
	}
	want := "clear"
	if set {
		want = "set"
	}
	return fmt.Errorf("waiting for %08X %s at offset %03X, last %08X: %w", mask, want, offset, v, ErrTimeout)
}
