package clkmgr

import (
	"log"

	"golang.org/x/sys/unix"
)

// CurrentCPU reads the calling thread's CPU affinity mask and reports the
// lowest CPU in it. Pin the thread (taskset, or SchedSetaffinity after
// runtime.LockOSThread) for the answer to be the core actually running.
type CurrentCPU struct{}

func (CurrentCPU) MPIDR() uint64 {
	var set unix.CPUSet
	err := unix.SchedGetaffinity(0, &set)
	if err != nil {
		log.Printf("couldn't get CPU affinity, assuming core 0: %v", err)
		return Core(CORE0).MPIDR()
	}
	for cpu := 0; cpu <= MPIDR_AFF1_MASK; cpu++ {
		if set.IsSet(cpu) {
			return Core(cpu).MPIDR()
		}
	}
	return Core(CORE0).MPIDR()
}
