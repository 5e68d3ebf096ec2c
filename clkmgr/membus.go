package clkmgr

import (
	"fmt"
	"log"

	"github.com/Jon-Bright/agxclk/regs"
)

// The membus is a mailbox into each PLL's internal calibration memory. A
// request goes into the bank's MEM register and is complete once the
// hardware clears REQ; read data then shows up in MEMSTAT.
const (
	CLKMGR_MEM_REQ             = 1 << 24
	CLKMGR_MEM_WR              = 1 << 25
	CLKMGR_MEM_WDAT_LSB_OFFSET = 16
	CLKMGR_MEM_ADDR_MASK       = 0xffff
	CLKMGR_MEM_ADDR_START      = 0x4000

	MEMBUS_SYNTHCALFOSC_INIT_CENTERFREQ_REG = 0xb3
	MEMBUS_SYNTHPPM_WATCHDOGTMR_VF01_REG    = 0xe6
	MEMBUS_CALCLKSLICE0_DUTY_LOCOVR_REG     = 0x3e8
	MEMBUS_CALCLKSLICE1_DUTY_LOCOVR_REG     = 0x3ec
)

type CalibrationEntry struct {
	Reg  uint32
	Val  uint32
	Mask uint32
}

// CalibrationTable is applied to both PLLs once they are powered up.
var CalibrationTable = []CalibrationEntry{
	// Start the calibration oscillator at its centre frequency to limit overshoot during lock
	{MEMBUS_SYNTHCALFOSC_INIT_CENTERFREQ_REG, 1 << 0, 1 << 0},
	// Give the PLL more time to settle before lock is asserted
	{MEMBUS_SYNTHPPM_WATCHDOGTMR_VF01_REG, 1 << 0, 1 << 0},
	// Centre the duty cycle of clkslice0 and clkslice1
	{MEMBUS_CALCLKSLICE0_DUTY_LOCOVR_REG, 0x4a, 0x7f},
	{MEMBUS_CALCLKSLICE1_DUTY_LOCOVR_REG, 0x4a, 0x7f},
}

func membusAddr(offset uint32) uint32 {
	return (offset | CLKMGR_MEM_ADDR_START) & CLKMGR_MEM_ADDR_MASK
}

func (m *Manager) membusWait(b Bank) error {
	err := regs.WaitBit(m.w, banks[b].mem, CLKMGR_MEM_REQ, false, m.MembusIterations)
	if err != nil {
		return fmt.Errorf("%v membus request: %w", b, err)
	}
	return nil
}

func (m *Manager) MembusWrite(b Bank, offset uint32, wdat uint32) error {
	addr := membusAddr(offset)
	m.w.Write32(banks[b].mem, CLKMGR_MEM_REQ|CLKMGR_MEM_WR|(wdat<<CLKMGR_MEM_WDAT_LSB_OFFSET)|addr)
	if m.Verbose {
		log.Printf("MEMBUS %v: write %08X to %04X\n", b, wdat, addr)
	}
	return m.membusWait(b)
}

func (m *Manager) MembusRead(b Bank, offset uint32) (uint32, error) {
	addr := membusAddr(offset)
	m.w.Write32(banks[b].mem, CLKMGR_MEM_REQ|addr)
	err := m.membusWait(b)
	if err != nil {
		return 0, err
	}
	rdata := m.w.Read32(banks[b].memstat)
	if m.Verbose {
		log.Printf("MEMBUS %v: read %08X from %04X\n", b, rdata, addr)
	}
	return rdata, nil
}

// ApplyCalibration read-modify-writes every CalibrationTable entry into the
// bank's calibration memory, leaving bits outside each mask alone. It stops
// at the first mailbox timeout.
func (m *Manager) ApplyCalibration(b Bank) error {
	for _, e := range CalibrationTable {
		old, err := m.MembusRead(b, e.Reg)
		if err != nil {
			return fmt.Errorf("couldn't read calibration %03X: %w", e.Reg, err)
		}
		err = m.MembusWrite(b, e.Reg, (old&^e.Mask)|e.Val)
		if err != nil {
			return fmt.Errorf("couldn't write calibration %03X: %w", e.Reg, err)
		}
	}
	return nil
}
