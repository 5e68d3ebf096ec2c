package uartbridge

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/Jon-Bright/agxclk/regs"
)

// board answers frames against a memory window. Replies are queued for the
// next reads.
type board struct {
	mem     *regs.Mem
	out     bytes.Buffer
	corrupt bool
	silent  bool
	frames  int
}

func newBoard() *board {
	return &board{mem: regs.NewMem()}
}

func (b *board) Write(p []byte) (int, error) {
	b.frames++
	if len(p) < 2 || p[0] != STX || p[len(p)-1] != ETX {
		return 0, errors.New("not a frame")
	}
	body := unescape(p[1 : len(p)-1])
	f, err := unpack(body)
	if err != nil {
		return 0, err
	}
	if b.silent {
		return len(p), nil
	}
	rep := &frame{Type: f.Type | FRAME_REPLY, Seq: f.Seq}
	switch {
	case f.Type == FRAME_READ && len(f.Data) == 4:
		rep.Data = make([]byte, 4)
		binary.BigEndian.PutUint32(rep.Data, b.mem.Read32(binary.BigEndian.Uint32(f.Data)))
	case f.Type == FRAME_WRITE && len(f.Data) == 8:
		b.mem.Write32(binary.BigEndian.Uint32(f.Data), binary.BigEndian.Uint32(f.Data[4:]))
	default:
		rep = &frame{Type: FRAME_ERROR, Seq: f.Seq, Data: []byte("bad request")}
	}
	out, err := pack(rep)
	if err != nil {
		return 0, err
	}
	if b.corrupt {
		out[1] ^= 0x10
	}
	// Noise before the frame is skipped
	b.out.WriteByte(0x00)
	b.out.Write(out)
	return len(p), nil
}

func (b *board) Read(p []byte) (int, error) {
	return b.out.Read(p)
}

func unescape(p []byte) []byte {
	var buf bytes.Buffer
	for i := 0; i < len(p); i++ {
		if p[i] == ESC {
			i++
		}
		buf.WriteByte(p[i])
	}
	return buf.Bytes()
}

func TestPackUnpack(t *testing.T) {
	// Every special byte shows up in the data and must survive escaping
	f := &frame{Type: FRAME_WRITE, Seq: 3, Data: []byte{STX, ETX, ESC, 0x00, 0xff}}
	p, err := pack(f)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if p[0] != STX || p[len(p)-1] != ETX || bytes.IndexByte(p[1:], STX) == -1 {
		t.Errorf("escaping, got: %x", p)
	}
	got, err := unpack(unescape(p[1 : len(p)-1]))
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if got.Type != f.Type || got.Seq != f.Seq || !bytes.Equal(got.Data, f.Data) {
		t.Errorf("got: %+v, want %+v", got, f)
	}
}

func TestUnpackErrors(t *testing.T) {
	p, err := pack(&frame{Type: FRAME_READ, Seq: 1, Data: []byte{1, 2, 3, 4}})
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	good := unescape(p[1 : len(p)-1])
	badCRC := append([]byte(nil), good...)
	badCRC[len(badCRC)-1] ^= 1
	badLen := append([]byte(nil), good...)
	badLen[4]++
	tests := [][]byte{nil, good[:4], badCRC}
	for _, p := range tests {
		if _, err := unpack(p); !errors.Is(err, ErrBadFrame) {
			t.Errorf("unpack(%x), got: %v, want %v", p, err, ErrBadFrame)
		}
	}
	// A wrong length with a matching CRC
	n := len(badLen) - PACKET_CHECKSUM_LENGTH
	copy(badLen[n:], checksum(badLen[:n]))
	if _, err := unpack(badLen); !errors.Is(err, ErrBadFrame) {
		t.Errorf("wrong length, got: %v, want %v", err, ErrBadFrame)
	}
}

func TestPackTooLong(t *testing.T) {
	_, err := pack(&frame{Type: FRAME_WRITE, Data: make([]byte, 1<<16)})
	if err == nil {
		t.Errorf("packed %d bytes of data with a 16-bit length", 1<<16)
	}
}

func TestBridgeReadWrite(t *testing.T) {
	bd := newBoard()
	bd.mem.Write32(0x10d10048, 0x20000103)
	br := New(bd, 0x10d10000)

	if got := br.Read32(0x48); got != 0x20000103 {
		t.Errorf("Read32, got: %08X, want %08X", got, 0x20000103)
	}
	regs.SetBits(br, 0x6c, 0x50)
	if got := bd.mem.Read32(0x10d1006c); got != 0x50 {
		t.Errorf("board register, got: %08X, want %08X", got, 0x50)
	}
	if err := br.Err(); err != nil {
		t.Errorf("Err: %v", err)
	}
}

func TestBridgeStickyError(t *testing.T) {
	tests := []struct {
		desc   string
		setup  func(*board)
		target error
	}{
		{"corrupt", func(b *board) { b.corrupt = true }, ErrBadFrame},
		{"silent", func(b *board) { b.silent = true }, regs.ErrTimeout},
	}
	for _, test := range tests {
		bd := newBoard()
		test.setup(bd)
		br := New(bd, 0)
		if got := br.Read32(0); got != 0 {
			t.Errorf("%s: Read32, got: %08X, want 0", test.desc, got)
		}
		if err := br.Err(); !errors.Is(err, test.target) {
			t.Errorf("%s: got: %v, want %v", test.desc, err, test.target)
		}
		br.Write32(0, 1)
		br.Read32(0)
		if bd.frames != 1 {
			t.Errorf("%s: %d frames sent after the error, want none", test.desc, bd.frames-1)
		}
	}
}

func TestBridgeBoardError(t *testing.T) {
	bd := newBoard()
	br := New(bd, 0)
	br.request(0x10, nil)
	if br.Err() == nil {
		t.Errorf("want error for unknown request type")
	}
}

func TestBridgeClose(t *testing.T) {
	bd := newBoard()
	br := New(bd, 0)
	if err := br.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	br.Read32(0)
	if bd.frames != 0 {
		t.Errorf("%d frames sent after Close", bd.frames)
	}
}
