// Package regdump saves register windows as Intel HEX images and loads them
// back, so a board's clock manager state can be captured once and examined
// offline.
package regdump

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/Jon-Bright/agxclk/regs"
	"github.com/marcinbor85/gohex"
)

const LINE_LENGTH = 16

// Dump reads every register in offsets from w and writes them as little
// endian words at base+offset. Adjacent registers share a data segment.
func Dump(w regs.Window, base uint32, offsets []uint32, out io.Writer) error {
	sorted := append([]uint32(nil), offsets...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	mem := gohex.NewMemory()
	var run []byte
	var start uint32
	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		err := mem.AddBinary(base+start, run)
		if err != nil {
			return fmt.Errorf("couldn't add registers at %08X: %v", base+start, err)
		}
		run = nil
		return nil
	}
	for i, o := range sorted {
		if o&3 != 0 {
			return fmt.Errorf("offset %03X: %w", o, regs.ErrInvalidAddress)
		}
		if i > 0 && o == sorted[i-1] {
			continue
		}
		if len(run) == 0 || start+uint32(len(run)) != o {
			if err := flush(); err != nil {
				return err
			}
			start = o
		}
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], w.Read32(o))
		run = append(run, b[:]...)
	}
	if err := flush(); err != nil {
		return err
	}
	return mem.DumpIntelHex(out, LINE_LENGTH)
}

// Load parses an image written by Dump into a memory window whose offsets are
// relative to base.
func Load(r io.Reader, base uint32) (*regs.Mem, error) {
	mem := gohex.NewMemory()
	err := mem.ParseIntelHex(r)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse register image: %v", err)
	}
	m := regs.NewMem()
	for _, seg := range mem.GetDataSegments() {
		if seg.Address < base || (seg.Address-base)&3 != 0 || len(seg.Data)&3 != 0 {
			return nil, fmt.Errorf("segment at %08X+%d with base %08X: %w", seg.Address, len(seg.Data), base, regs.ErrInvalidAddress)
		}
		o := seg.Address - base
		for i := 0; i < len(seg.Data); i += 4 {
			m.Write32(o+uint32(i), binary.LittleEndian.Uint32(seg.Data[i:]))
		}
	}
	return m, nil
}
