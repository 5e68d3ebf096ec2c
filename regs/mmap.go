package regs

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"unsafe"

	mmap "github.com/edsrzf/mmap-go"
)

const (
	PAGE_SIZE = 4096
	MEM_FILE  = "/dev/mem"
)

// MMapWindow is a Window onto physical memory, mapped through /dev/mem.
type MMapWindow struct {
	buf  mmap.MMap
	offs uintptr
	size int
}

// Map maps size bytes of physical memory starting at base. Since the mapping
// has to start at a page boundary, base is rounded down and the in-page offset
// is remembered for register accesses.
func Map(base uintptr, size int) (*MMapWindow, error) {
	if base == 0 || base&3 != 0 {
		return nil, fmt.Errorf("base %08X: %w", base, ErrInvalidAddress)
	}
	f, err := os.OpenFile(MEM_FILE, os.O_RDWR|os.O_SYNC, os.ModePerm)
	if err != nil {
		return nil, fmt.Errorf("couldn't open %s: %v", MEM_FILE, err)
	}
	defer f.Close() // Ignore error, the mapping survives it

	pagemask := ^uintptr(PAGE_SIZE - 1)
	mapAddr := base & pagemask
	mapSize := size + int(base-mapAddr)
	log.Printf("MapRegion(f, %d, RDWR, 0, %08X), base %08X\n", mapSize, mapAddr, base)
	mm, err := mmap.MapRegion(f, mapSize, mmap.RDWR, 0, int64(mapAddr))
	if err != nil {
		return nil, fmt.Errorf("couldn't map region (%08X, %d): %v", base, size, err)
	}
	return &MMapWindow{buf: mm, offs: base - mapAddr, size: size}, nil
}

func (m *MMapWindow) reg(offset uint32) *uint32 {
	return (*uint32)(unsafe.Pointer(&m.buf[m.offs+uintptr(offset)]))
}

// Read32 and Write32 go through sync/atomic so that every call is exactly one
// 32-bit bus access.
func (m *MMapWindow) Read32(offset uint32) uint32 {
	return atomic.LoadUint32(m.reg(offset))
}

func (m *MMapWindow) Write32(offset uint32, val uint32) {
	atomic.StoreUint32(m.reg(offset), val)
}

func (m *MMapWindow) Size() int {
	return m.size
}

func (m *MMapWindow) Close() error {
	if m.buf == nil {
		return nil
	}
	err := m.buf.Unmap()
	m.buf = nil
	return err
}
