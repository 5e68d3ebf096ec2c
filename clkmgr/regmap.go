package clkmgr

import (
	"fmt"
	"strings"
)

// Register offsets from the clock manager base. See the Agilex5 HPS clock
// manager address map.
const (
	CLKMGR_CTRL    = 0x00
	CLKMGR_STAT    = 0x04
	CLKMGR_INTRCLR = 0x14

	CLKMGR_MAINPLL_EN       = 0x24
	CLKMGR_MAINPLL_BYPASS   = 0x30
	CLKMGR_MAINPLL_NOCCLK   = 0x40
	CLKMGR_MAINPLL_NOCDIV   = 0x44
	CLKMGR_MAINPLL_PLLGLOB  = 0x48
	CLKMGR_MAINPLL_FDBCK    = 0x4c
	CLKMGR_MAINPLL_MEM      = 0x50
	CLKMGR_MAINPLL_MEMSTAT  = 0x54
	CLKMGR_MAINPLL_VCOCALIB = 0x58
	CLKMGR_MAINPLL_PLLC0    = 0x5c
	CLKMGR_MAINPLL_PLLC1    = 0x60
	CLKMGR_MAINPLL_PLLC2    = 0x64
	CLKMGR_MAINPLL_PLLC3    = 0x68
	CLKMGR_MAINPLL_PLLM     = 0x6c
	CLKMGR_MAINPLL_LOSTLOCK = 0x78

	CLKMGR_PERPLL_EN       = 0x7c
	CLKMGR_PERPLL_BYPASS   = 0x88
	CLKMGR_PERPLL_EMACCTL  = 0x94
	CLKMGR_PERPLL_GPIODIV  = 0x98
	CLKMGR_PERPLL_PLLGLOB  = 0x9c
	CLKMGR_PERPLL_FDBCK    = 0xa0
	CLKMGR_PERPLL_MEM      = 0xa4
	CLKMGR_PERPLL_MEMSTAT  = 0xa8
	CLKMGR_PERPLL_VCOCALIB = 0xac
	CLKMGR_PERPLL_PLLC0    = 0xb0
	CLKMGR_PERPLL_PLLC1    = 0xb4
	CLKMGR_PERPLL_PLLC2    = 0xb8
	CLKMGR_PERPLL_PLLC3    = 0xbc
	CLKMGR_PERPLL_PLLM     = 0xc0
	CLKMGR_PERPLL_LOSTLOCK = 0xcc

	CLKMGR_CTL_EMACACTR    = 0xd4
	CLKMGR_CTL_EMACBCTR    = 0xd8
	CLKMGR_CTL_EMACPTPCTR  = 0xdc
	CLKMGR_CTL_GPIODBCTR   = 0xe0
	CLKMGR_CTL_S2FUSER0CTR = 0xe8
	CLKMGR_CTL_S2FUSER1CTR = 0xec
	CLKMGR_CTL_PSIREFCTR   = 0xf0
	CLKMGR_CTL_EXTCNTRST   = 0xf4
	CLKMGR_CTL_USB31CTR    = 0xf8
	CLKMGR_CTL_DSUCTR      = 0xfc
	CLKMGR_CTL_CORE01CTR   = 0x100
	CLKMGR_CTL_CORE23CTR   = 0x104
	CLKMGR_CTL_CORE2CTR    = 0x108
	CLKMGR_CTL_CORE3CTR    = 0x10c

	// Bytes covered by the window
	CLKMGR_SIZE = 0x200
)

const (
	CLKMGR_CTRL_BOOTMODE       = 1 << 0
	CLKMGR_CTRL_SWCTRLBTCLKEN  = 1 << 8
	CLKMGR_CTRL_SWCTRLBTCLKSEL = 1 << 9

	CLKMGR_STAT_BUSY               = 1 << 0
	CLKMGR_STAT_MAINPLLLOCK        = 1 << 8
	CLKMGR_STAT_PERPLLLOCK         = 1 << 16
	CLKMGR_STAT_BOOTMODE           = 1 << 24
	CLKMGR_STAT_ALLPLL_LOCKED_MASK = CLKMGR_STAT_MAINPLLLOCK | CLKMGR_STAT_PERPLLLOCK

	CLKMGR_INTER_MAINPLLLOST = 1 << 2
	CLKMGR_INTER_PERPLLLOST  = 1 << 3

	CLKMGR_BYPASS_MAINPLL_ALL = 0xf6
	CLKMGR_BYPASS_PERPLL_ALL  = 0xef

	CLKMGR_LOSTLOCK_SET = 1 << 0

	CLKMGR_PLLCX_EN = 1 << 27

	// All ping pong counters: EMAC A/B/PTP, GPIO debounce, S2F user 0/1,
	// PSI ref, USB31, DSU, core01/2/3.
	CLKMGR_CTL_EXTCNTRST_ALLCNTRST = 0x3def
)

// pllGlob is a PLLGLOB register.
//
//	0     PD, 1 = powered up
//	1     RST, 1 = out of reset
//	11:8  A-ref clock divider
//	13:12 D-ref clock divider (power of two)
//	13:8  ref clock divider, as seen by VCO calibration
//	17:16 VCO source
//	29    clear lost-lock bypass
type pllGlob uint32

const (
	pllGlobPD                pllGlob = 1 << 0
	pllGlobRST               pllGlob = 1 << 1
	pllGlobClrLostLockBypass pllGlob = 1 << 29
)

const (
	vcoSrcEOSC1  = 0
	vcoSrcIntOsc = 1
	vcoSrcF2S    = 2
)

func (g pllGlob) arefClkDiv() uint32 {
	return (uint32(g) >> 8) & 0xf
}

func (g pllGlob) drefClkDiv() uint32 {
	return (uint32(g) >> 12) & 0x3
}

func (g pllGlob) refClkDiv() uint32 {
	return (uint32(g) >> 8) & 0x3f
}

func (g pllGlob) vcoSrc() uint32 {
	return (uint32(g) >> 16) & 0x3
}

func (g pllGlob) GoString() string {
	var out []string
	if g&pllGlobPD != 0 {
		out = append(out, "PU")
	}
	if g&pllGlobRST != 0 {
		out = append(out, "NRST")
	}
	if g&pllGlobClrLostLockBypass != 0 {
		out = append(out, "ClrLLB")
	}
	out = append(out, fmt.Sprintf("src=%d aref=%d dref=%d", g.vcoSrc(), g.arefClkDiv(), g.drefClkDiv()))
	return strings.Join(out, "|")
}

// pllM is a PLLM register; bits 9:0 are the feedback multiplier.
type pllM uint32

func (m pllM) mdiv() uint32 {
	return uint32(m) & 0x3ff
}

// counter is any register with a 5-way source select in 18:16 and a count in
// 10:0: the PLL output slices, NOCCLK and the control group counters.
type counter uint32

const (
	clkSrcMain   = 0
	clkSrcPer    = 1
	clkSrcOsc1   = 2
	clkSrcIntOsc = 3
	clkSrcFPGA   = 4
)

func (c counter) src() uint32 {
	return (uint32(c) >> 16) & 0x7
}

func (c counter) count() uint32 {
	return uint32(c) & 0x7ff
}

// div is the divisor a counter applies. A count of 0 divides by one.
func (c counter) div() uint64 {
	return 1 + uint64(c.count())
}

// nocDiv holds 2-bit power-of-two dividers for the NoC derived clocks.
type nocDiv uint32

const (
	nocDivL4MainOffset  = 0
	nocDivL4MPOffset    = 4
	nocDivL4SPOffset    = 6
	nocDivSoftPhyOffset = 16
)

func (n nocDiv) shift(offset uint) uint {
	return uint(uint32(n)>>offset) & 0x3
}

// emacCtl selects, per EMAC, between the A (0) and B (1) counter.
type emacCtl uint32

func (e emacCtl) selB(emac int) bool {
	return uint32(e)&(1<<uint(26+emac)) != 0
}

// vcoCalib packs the VCO calibration counters: hscnt 9:0, mscnt 23:16.
type vcoCalib uint32

const (
	vcoCalibMSCNTConst = 100
	vcoCalibHSCNTConst = 4
)

func makeVCOCalib(hscnt, mscnt uint32) vcoCalib {
	return vcoCalib((hscnt & 0x3ff) | ((mscnt << 16) & 0xff0000))
}

func (v vcoCalib) hscnt() uint32 {
	return uint32(v) & 0x3ff
}

func (v vcoCalib) mscnt() uint32 {
	return (uint32(v) >> 16) & 0xff
}

// Bank is one of the two PLLs.
type Bank int

const (
	MainPLL Bank = iota
	PerPLL
)

func (b Bank) String() string {
	switch b {
	case MainPLL:
		return "mainpll"
	case PerPLL:
		return "perpll"
	}
	return fmt.Sprintf("Bank(%d)", int(b))
}

type bankRegs struct {
	pllglob   uint32
	pllm      uint32
	fdbck     uint32
	vcocalib  uint32
	pllc      [4]uint32
	mem       uint32
	memstat   uint32
	lostlock  uint32
	bypass    uint32
	bypassAll uint32
	lockBit   uint32
}

var banks = [...]bankRegs{
	MainPLL: {
		pllglob:   CLKMGR_MAINPLL_PLLGLOB,
		pllm:      CLKMGR_MAINPLL_PLLM,
		fdbck:     CLKMGR_MAINPLL_FDBCK,
		vcocalib:  CLKMGR_MAINPLL_VCOCALIB,
		pllc:      [4]uint32{CLKMGR_MAINPLL_PLLC0, CLKMGR_MAINPLL_PLLC1, CLKMGR_MAINPLL_PLLC2, CLKMGR_MAINPLL_PLLC3},
		mem:       CLKMGR_MAINPLL_MEM,
		memstat:   CLKMGR_MAINPLL_MEMSTAT,
		lostlock:  CLKMGR_MAINPLL_LOSTLOCK,
		bypass:    CLKMGR_MAINPLL_BYPASS,
		bypassAll: CLKMGR_BYPASS_MAINPLL_ALL,
		lockBit:   CLKMGR_STAT_MAINPLLLOCK,
	},
	PerPLL: {
		pllglob:   CLKMGR_PERPLL_PLLGLOB,
		pllm:      CLKMGR_PERPLL_PLLM,
		fdbck:     CLKMGR_PERPLL_FDBCK,
		vcocalib:  CLKMGR_PERPLL_VCOCALIB,
		pllc:      [4]uint32{CLKMGR_PERPLL_PLLC0, CLKMGR_PERPLL_PLLC1, CLKMGR_PERPLL_PLLC2, CLKMGR_PERPLL_PLLC3},
		mem:       CLKMGR_PERPLL_MEM,
		memstat:   CLKMGR_PERPLL_MEMSTAT,
		lostlock:  CLKMGR_PERPLL_LOSTLOCK,
		bypass:    CLKMGR_PERPLL_BYPASS,
		bypassAll: CLKMGR_BYPASS_PERPLL_ALL,
		lockBit:   CLKMGR_STAT_PERPLLLOCK,
	},
}

// Register names a clock manager register, for dumps.
type Register struct {
	Name   string
	Offset uint32
}

var Registers = []Register{
	{"CTRL", CLKMGR_CTRL},
	{"STAT", CLKMGR_STAT},
	{"INTRCLR", CLKMGR_INTRCLR},
	{"MAINPLL_EN", CLKMGR_MAINPLL_EN},
	{"MAINPLL_BYPASS", CLKMGR_MAINPLL_BYPASS},
	{"MAINPLL_NOCCLK", CLKMGR_MAINPLL_NOCCLK},
	{"MAINPLL_NOCDIV", CLKMGR_MAINPLL_NOCDIV},
	{"MAINPLL_PLLGLOB", CLKMGR_MAINPLL_PLLGLOB},
	{"MAINPLL_FDBCK", CLKMGR_MAINPLL_FDBCK},
	{"MAINPLL_MEM", CLKMGR_MAINPLL_MEM},
	{"MAINPLL_MEMSTAT", CLKMGR_MAINPLL_MEMSTAT},
	{"MAINPLL_VCOCALIB", CLKMGR_MAINPLL_VCOCALIB},
	{"MAINPLL_PLLC0", CLKMGR_MAINPLL_PLLC0},
	{"MAINPLL_PLLC1", CLKMGR_MAINPLL_PLLC1},
	{"MAINPLL_PLLC2", CLKMGR_MAINPLL_PLLC2},
	{"MAINPLL_PLLC3", CLKMGR_MAINPLL_PLLC3},
	{"MAINPLL_PLLM", CLKMGR_MAINPLL_PLLM},
	{"MAINPLL_LOSTLOCK", CLKMGR_MAINPLL_LOSTLOCK},
	{"PERPLL_EN", CLKMGR_PERPLL_EN},
	{"PERPLL_BYPASS", CLKMGR_PERPLL_BYPASS},
	{"PERPLL_EMACCTL", CLKMGR_PERPLL_EMACCTL},
	{"PERPLL_GPIODIV", CLKMGR_PERPLL_GPIODIV},
	{"PERPLL_PLLGLOB", CLKMGR_PERPLL_PLLGLOB},
	{"PERPLL_FDBCK", CLKMGR_PERPLL_FDBCK},
	{"PERPLL_MEM", CLKMGR_PERPLL_MEM},
	{"PERPLL_MEMSTAT", CLKMGR_PERPLL_MEMSTAT},
	{"PERPLL_VCOCALIB", CLKMGR_PERPLL_VCOCALIB},
	{"PERPLL_PLLC0", CLKMGR_PERPLL_PLLC0},
	{"PERPLL_PLLC1", CLKMGR_PERPLL_PLLC1},
	{"PERPLL_PLLC2", CLKMGR_PERPLL_PLLC2},
	{"PERPLL_PLLC3", CLKMGR_PERPLL_PLLC3},
	{"PERPLL_PLLM", CLKMGR_PERPLL_PLLM},
	{"PERPLL_LOSTLOCK", CLKMGR_PERPLL_LOSTLOCK},
	{"CTL_EMACACTR", CLKMGR_CTL_EMACACTR},
	{"CTL_EMACBCTR", CLKMGR_CTL_EMACBCTR},
	{"CTL_EMACPTPCTR", CLKMGR_CTL_EMACPTPCTR},
	{"CTL_GPIODBCTR", CLKMGR_CTL_GPIODBCTR},
	{"CTL_S2FUSER0CTR", CLKMGR_CTL_S2FUSER0CTR},
	{"CTL_S2FUSER1CTR", CLKMGR_CTL_S2FUSER1CTR},
	{"CTL_PSIREFCTR", CLKMGR_CTL_PSIREFCTR},
	{"CTL_EXTCNTRST", CLKMGR_CTL_EXTCNTRST},
	{"CTL_USB31CTR", CLKMGR_CTL_USB31CTR},
	{"CTL_DSUCTR", CLKMGR_CTL_DSUCTR},
	{"CTL_CORE01CTR", CLKMGR_CTL_CORE01CTR},
	{"CTL_CORE23CTR", CLKMGR_CTL_CORE23CTR},
	{"CTL_CORE2CTR", CLKMGR_CTL_CORE2CTR},
	{"CTL_CORE3CTR", CLKMGR_CTL_CORE3CTR},
}

// RegisterOffsets returns the offset of every named register.
func RegisterOffsets() []uint32 {
	o := make([]uint32, len(Registers))
	for i, r := range Registers {
		o[i] = r.Offset
	}
	return o
}
