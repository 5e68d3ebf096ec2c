package uartbridge

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/sigurn/crc16"
)

const (
	STX byte = 0x02
	ETX byte = 0x03
	ESC byte = 0x1B

	PACKET_HEADER_LENGTH   = 5
	PACKET_CHECKSUM_LENGTH = 2
	PROTOCOL_VERSION       = 1
)

// Frame types. A reply carries the request type with FRAME_REPLY set, or
// FRAME_ERROR with the board's message as data.
const (
	FRAME_READ  uint8 = 0x01
	FRAME_WRITE uint8 = 0x02
	FRAME_REPLY uint8 = 0x80
	FRAME_ERROR uint8 = 0xff
)

var ErrBadFrame = errors.New("invalid frame")

var crcTable = crc16.MakeTable(crc16.CRC16_ARC)

type frame struct {
	Type uint8
	Seq  uint8
	Data []byte
}

type frameHeader struct {
	Version uint8
	Type    uint8
	Seq     uint8
	Length  uint16
}

func checksum(data []byte) []byte {
	b := make([]byte, PACKET_CHECKSUM_LENGTH)
	binary.BigEndian.PutUint16(b, crc16.Checksum(data, crcTable))
	return b
}

func escape(data []byte) []byte {
	var buf bytes.Buffer
	for _, b := range data {
		switch b {
		case STX, ETX, ESC:
			buf.WriteByte(ESC)
		}
		buf.WriteByte(b)
	}
	return buf.Bytes()
}

// pack frames f as STX, escaped header+data+CRC, ETX.
func pack(f *frame) ([]byte, error) {
	if len(f.Data) > math.MaxUint16 {
		return nil, fmt.Errorf("%d bytes of frame data, at most %d fit", len(f.Data), math.MaxUint16)
	}
	h := frameHeader{
		Version: PROTOCOL_VERSION,
		Type:    f.Type,
		Seq:     f.Seq,
		Length:  uint16(len(f.Data)),
	}
	var payload bytes.Buffer
	err := binary.Write(&payload, binary.BigEndian, &h)
	if err != nil {
		return nil, fmt.Errorf("couldn't encode frame header: %w", err)
	}
	payload.Write(f.Data)
	payload.Write(checksum(payload.Bytes()))

	var res bytes.Buffer
	res.WriteByte(STX)
	res.Write(escape(payload.Bytes()))
	res.WriteByte(ETX)
	return res.Bytes(), nil
}

// unpack checks and decodes an unescaped frame body, the bytes between STX
// and ETX.
func unpack(p []byte) (*frame, error) {
	if len(p) < PACKET_HEADER_LENGTH+PACKET_CHECKSUM_LENGTH {
		return nil, ErrBadFrame
	}
	n := len(p) - PACKET_CHECKSUM_LENGTH
	if !bytes.Equal(p[n:], checksum(p[:n])) {
		return nil, ErrBadFrame
	}
	var h frameHeader
	err := binary.Read(bytes.NewReader(p[:PACKET_HEADER_LENGTH]), binary.BigEndian, &h)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrBadFrame)
	}
	data := p[PACKET_HEADER_LENGTH:n]
	if h.Version != PROTOCOL_VERSION || len(data) != int(h.Length) {
		return nil, ErrBadFrame
	}
	return &frame{Type: h.Type, Seq: h.Seq, Data: data}, nil
}
