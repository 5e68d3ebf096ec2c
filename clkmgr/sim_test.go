package clkmgr

import (
	"github.com/Jon-Bright/agxclk/regs"
)

type access struct {
	offset uint32
	val    uint32
	read   bool
}

// sim models the parts of the clock manager that react to writes: STAT
// reports lock for every powered, out-of-reset PLL and mirrors boot mode,
// the MEM mailboxes service requests against per-bank calibration memory,
// and LOSTLOCK is write-one-to-clear. With busy set, STAT.BUSY never drops.
type sim struct {
	*regs.Mem
	calib       [2]map[uint32]uint32
	stuckMembus bool
	noLock      bool
	busy        bool
	writes      []access
	// ops holds every write and every STAT read, in order
	ops []access
}

func newSim() *sim {
	s := &sim{Mem: regs.NewMem()}
	for b := range s.calib {
		s.calib[b] = map[uint32]uint32{
			membusAddr(MEMBUS_SYNTHCALFOSC_INIT_CENTERFREQ_REG): 0x30,
			membusAddr(MEMBUS_SYNTHPPM_WATCHDOGTMR_VF01_REG):    0x52,
			membusAddr(MEMBUS_CALCLKSLICE0_DUTY_LOCOVR_REG):     0x91,
			membusAddr(MEMBUS_CALCLKSLICE1_DUTY_LOCOVR_REG):     0xff,
		}
	}
	return s
}

func (s *sim) Read32(offset uint32) uint32 {
	if offset != CLKMGR_STAT {
		return s.Mem.Read32(offset)
	}
	var v uint32
	if s.Mem.Read32(CLKMGR_CTRL)&CLKMGR_CTRL_BOOTMODE != 0 {
		v |= CLKMGR_STAT_BOOTMODE
	}
	if s.busy {
		v |= CLKMGR_STAT_BUSY
	}
	if !s.noLock {
		for _, r := range banks {
			if pllGlob(s.Mem.Read32(r.pllglob))&(pllGlobPD|pllGlobRST) == pllGlobPD|pllGlobRST {
				v |= r.lockBit
			}
		}
	}
	s.ops = append(s.ops, access{offset: offset, val: v, read: true})
	return v
}

func (s *sim) Write32(offset uint32, val uint32) {
	s.writes = append(s.writes, access{offset: offset, val: val})
	s.ops = append(s.ops, access{offset: offset, val: val})
	for b, r := range banks {
		if offset == r.lostlock {
			val = s.Mem.Read32(offset) &^ (val & CLKMGR_LOSTLOCK_SET)
		}
		if offset != r.mem || s.stuckMembus || val&CLKMGR_MEM_REQ == 0 {
			continue
		}
		addr := val & CLKMGR_MEM_ADDR_MASK
		if val&CLKMGR_MEM_WR != 0 {
			s.calib[b][addr] = (val >> CLKMGR_MEM_WDAT_LSB_OFFSET) & 0xff
		} else {
			s.Mem.Write32(r.memstat, s.calib[b][addr])
		}
		val &^= CLKMGR_MEM_REQ
	}
	s.Mem.Write32(offset, val)
}

func (s *sim) calibCopy() [2]map[uint32]uint32 {
	var c [2]map[uint32]uint32
	for b := range s.calib {
		c[b] = make(map[uint32]uint32)
		for k, v := range s.calib[b] {
			c[b][k] = v
		}
	}
	return c
}

// writesTo returns the indexes in s.writes of every write to offset.
func (s *sim) writesTo(offset uint32) []int {
	var idx []int
	for i, a := range s.writes {
		if a.offset == offset {
			idx = append(idx, i)
		}
	}
	return idx
}

var testRefs = FixedRefClocks{Osc: 25000000, IntOsc: 200000000, FPGA: 50000000}

func newTestManager(w regs.Window, core int) *Manager {
	m := New(w, testRefs, Core(core))
	m.WaitIterations = 50
	m.MembusIterations = 10
	return m
}

// testConfig gives a 2000MHz main VCO and a 1600MHz peripheral VCO from the
// 25MHz oscillator.
func testConfig() *Config {
	return &Config{
		FirstStage: true,
		Main: PLLConfig{
			PLLGlob: 0x101,
			PLLM:    80,
			Fdbck:   0,
			PLLC:    [4]Reg{0, 1, 3, 4},
		},
		NocClk: clkSrcMain << 16,
		NocDiv: 1<<nocDivL4MPOffset | 2<<nocDivL4SPOffset | 1<<nocDivSoftPhyOffset,
		Per: PLLConfig{
			PLLGlob: 0x101,
			PLLM:    64,
			PLLC:    [4]Reg{0, 3, 1, 7},
		},
		EmacCtl: 1 << 27, // EMAC1 uses the B counter
		GPIODiv: 0x10,
		Ctl: Counters{
			EmacA:   clkSrcPer<<16 | 7,
			EmacB:   clkSrcPer<<16 | 1,
			EmacPTP: clkSrcMain<<16 | 4,
			GPIODB:  0x1f,
			Core01:  clkSrcMain<<16 | 3,
			Core23:  clkSrcMain<<16 | 0,
			Core2:   1,
			Core3:   3,
		},
	}
}
