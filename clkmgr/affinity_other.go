//go:build !linux
// +build !linux

package clkmgr

// CurrentCPU always reports core 0 where the affinity mask can't be read.
type CurrentCPU struct{}

func (CurrentCPU) MPIDR() uint64 {
	return Core(CORE0).MPIDR()
}
