// Package clkmgr drives the Agilex5 HPS clock manager: it brings up the main
// and peripheral PLLs and derives downstream clock rates from the live
// register state.
//
// A Manager is not safe for concurrent use. Bring-up and rate queries share
// the register window and assume nothing else touches it meanwhile.
package clkmgr

import (
	"github.com/Jon-Bright/agxclk/regs"
)

const (
	WAIT_ITERATIONS   = 20000
	MEMBUS_ITERATIONS = 1000
)

// RefClocks reports the rates of the clock manager's reference inputs.
type RefClocks interface {
	OscHz() uint64    // external oscillator (EOSC1)
	IntOscHz() uint64 // HPS internal oscillator
	FPGAHz() uint64   // FPGA-to-HPS free clock
}

type FixedRefClocks struct {
	Osc    uint64
	IntOsc uint64
	FPGA   uint64
}

func (f FixedRefClocks) OscHz() uint64    { return f.Osc }
func (f FixedRefClocks) IntOscHz() uint64 { return f.IntOsc }
func (f FixedRefClocks) FPGAHz() uint64   { return f.FPGA }

type Manager struct {
	w   regs.Window
	ref RefClocks
	cpu Affinity

	// WaitIterations bounds every busy/lock poll during bring-up.
	WaitIterations int
	// MembusIterations bounds each calibration mailbox request.
	MembusIterations int
	// Verbose logs every membus transfer and the VCO calibration inputs.
	Verbose bool
}

func New(w regs.Window, ref RefClocks, cpu Affinity) *Manager {
	return &Manager{
		w:                w,
		ref:              ref,
		cpu:              cpu,
		WaitIterations:   WAIT_ITERATIONS,
		MembusIterations: MEMBUS_ITERATIONS,
	}
}

func (m *Manager) read(offset uint32) uint32 {
	return m.w.Read32(offset)
}

// Status is a snapshot of the PLL state bits.
type Status struct {
	BootMode bool
	Locked   [2]bool // indexed by Bank
	Bypass   [2]uint32
	LostLock [2]bool
	PLLGlob  [2]uint32
}

func (m *Manager) Status() Status {
	stat := m.read(CLKMGR_STAT)
	s := Status{BootMode: stat&CLKMGR_STAT_BOOTMODE != 0}
	for _, b := range []Bank{MainPLL, PerPLL} {
		r := banks[b]
		s.Locked[b] = stat&r.lockBit != 0
		s.Bypass[b] = m.read(r.bypass)
		s.LostLock[b] = m.read(r.lostlock)&CLKMGR_LOSTLOCK_SET != 0
		s.PLLGlob[b] = m.read(r.pllglob)
	}
	return s
}

// Running reports whether b is powered, out of reset, locked and not bypassed.
func (s Status) Running(b Bank) bool {
	g := pllGlob(s.PLLGlob[b])
	return g&pllGlobPD != 0 && g&pllGlobRST != 0 && s.Locked[b] && s.Bypass[b] == 0
}
