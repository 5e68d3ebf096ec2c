// Package uartbridge reaches clock manager registers on a remote board
// through a small register-access agent on its debug UART.
package uartbridge

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/Jon-Bright/agxclk/regs"
	"github.com/jacobsa/go-serial/serial"
)

// MAX_IDLE_READS bounds how many empty reads (each one inter-character
// timeout long) are tolerated while waiting for a reply.
const MAX_IDLE_READS = 20

// Bridge is a regs.Window whose accesses are frames on a serial link. Window
// methods cannot return errors, so the first failure is kept: every later
// access is skipped and reads return 0 until Err is checked.
type Bridge struct {
	rw    io.ReadWriter
	base  uint32
	mu    sync.Mutex
	seq   uint8
	err   error
	Debug bool
}

// New wraps an open link. Register offsets are sent as base+offset.
func New(rw io.ReadWriter, base uint32) *Bridge {
	return &Bridge{rw: rw, base: base}
}

// Open opens a serial port at baud, 8N1, for a Bridge.
func Open(path string, baud uint) (io.ReadWriteCloser, error) {
	p, err := serial.Open(serial.OpenOptions{
		PortName:              path,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              1,
		InterCharacterTimeout: 100,
		MinimumReadSize:       0,
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't open %s: %v", path, err)
	}
	log.Printf("Opened %s at %d baud", path, baud)
	return p, nil
}

// Err returns the first error any access hit.
func (b *Bridge) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *Bridge) Read32(offset uint32) uint32 {
	var req [4]byte
	binary.BigEndian.PutUint32(req[:], b.base+offset)
	data := b.request(FRAME_READ, req[:])
	if len(data) != 4 {
		b.fail(fmt.Errorf("read %08X: %d byte reply: %w", b.base+offset, len(data), ErrBadFrame))
		return 0
	}
	return binary.BigEndian.Uint32(data)
}

func (b *Bridge) Write32(offset uint32, val uint32) {
	var req [8]byte
	binary.BigEndian.PutUint32(req[:], b.base+offset)
	binary.BigEndian.PutUint32(req[4:], val)
	b.request(FRAME_WRITE, req[:])
}

func (b *Bridge) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err == nil {
		log.Printf("uart bridge: %v", err)
		b.err = err
	}
}

// request sends one frame and returns the reply's data. It returns nil after
// an error, including one from an earlier request.
func (b *Bridge) request(typ uint8, data []byte) []byte {
	b.mu.Lock()
	if b.err != nil {
		b.mu.Unlock()
		return nil
	}
	b.seq++
	seq := b.seq
	rep, err := b.exchange(&frame{Type: typ, Seq: seq, Data: data})
	b.mu.Unlock()
	if err != nil {
		b.fail(err)
		return nil
	}
	switch {
	case rep.Type == FRAME_ERROR:
		b.fail(fmt.Errorf("board: %s", rep.Data))
		return nil
	case rep.Type != typ|FRAME_REPLY || rep.Seq != seq:
		b.fail(fmt.Errorf("reply type %02X seq %d to type %02X seq %d: %w", rep.Type, rep.Seq, typ, seq, ErrBadFrame))
		return nil
	}
	return rep.Data
}

func (b *Bridge) exchange(f *frame) (*frame, error) {
	p, err := pack(f)
	if err != nil {
		return nil, err
	}
	if b.Debug {
		log.Printf("Write: %x", p)
	}
	n, err := b.rw.Write(p)
	if err != nil {
		return nil, fmt.Errorf("couldn't write frame: %v", err)
	}
	if n != len(p) {
		return nil, fmt.Errorf("short frame write, %d of %d bytes", n, len(p))
	}
	return b.readFrame()
}

func (b *Bridge) readByte(c []byte) error {
	for idle := 0; idle < MAX_IDLE_READS; idle++ {
		n, err := b.rw.Read(c)
		if n == 1 {
			return nil
		}
		if err != nil && err != io.EOF {
			return fmt.Errorf("couldn't read reply: %v", err)
		}
	}
	return fmt.Errorf("waiting for reply: %w", regs.ErrTimeout)
}

func (b *Bridge) readFrame() (*frame, error) {
	var buf bytes.Buffer
	started := false
	c := make([]byte, 1)
	for {
		if err := b.readByte(c); err != nil {
			return nil, err
		}
		switch c[0] {
		case STX:
			buf.Reset()
			started = true
		case ETX:
			if !started {
				continue
			}
			if b.Debug {
				log.Printf("Received: %x", buf.Bytes())
			}
			return unpack(buf.Bytes())
		case ESC:
			if err := b.readByte(c); err != nil {
				return nil, err
			}
			fallthrough
		default:
			if started {
				buf.WriteByte(c[0])
			}
		}
	}
}

var errClosed = errors.New("bridge closed")

// Close closes the link if it can be closed. Later accesses fail.
func (b *Bridge) Close() error {
	b.fail(errClosed)
	if c, ok := b.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
