package clkmgr

// Cores are numbered by MPIDR affinity level 1.
const (
	MPIDR_AFF1_OFFSET = 8
	MPIDR_AFF1_MASK   = 0xff

	CORE0 = 0
	CORE1 = 1
	CORE2 = 2
	CORE3 = 3
)

// Affinity reports the MPIDR of the core asking for a rate. The MPU clock
// differs between core pairs.
type Affinity interface {
	MPIDR() uint64
}

// Core is a fixed core number.
type Core int

func (c Core) MPIDR() uint64 {
	return uint64(c) << MPIDR_AFF1_OFFSET
}

func coreOf(mpidr uint64) uint32 {
	return uint32(mpidr>>MPIDR_AFF1_OFFSET) & MPIDR_AFF1_MASK
}
