package regs

import "sort"

// Mem is a Window backed by ordinary memory. Registers that were never
// written read as zero.
type Mem struct {
	r map[uint32]uint32
}

func NewMem() *Mem {
	return &Mem{r: make(map[uint32]uint32)}
}

func (m *Mem) Read32(offset uint32) uint32 {
	return m.r[offset]
}

func (m *Mem) Write32(offset uint32, val uint32) {
	m.r[offset] = val
}

// Snapshot returns a copy of every register written so far.
func (m *Mem) Snapshot() map[uint32]uint32 {
	s := make(map[uint32]uint32, len(m.r))
	for k, v := range m.r {
		s[k] = v
	}
	return s
}

// Offsets returns the offsets of all written registers, in ascending order.
func (m *Mem) Offsets() []uint32 {
	o := make([]uint32, 0, len(m.r))
	for k := range m.r {
		o = append(o, k)
	}
	sort.Slice(o, func(i, j int) bool { return o[i] < o[j] })
	return o
}
