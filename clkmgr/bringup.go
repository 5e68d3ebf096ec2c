package clkmgr

import (
	"fmt"
	"log"

	"github.com/Jon-Bright/agxclk/regs"
)

// bringUp carries one Init run. Waits that time out are logged and
// collected, never fatal: slow-locking hardware still gets configured.
type bringUp struct {
	m    *Manager
	errs []error
}

func (b *bringUp) note(step string, err error) {
	if err == nil {
		return
	}
	err = fmt.Errorf("%s: %w", step, err)
	log.Printf("clock init: %v", err)
	b.errs = append(b.errs, err)
}

func (b *bringUp) waitNotBusy(step string) {
	b.note(step, regs.WaitBit(b.m.w, CLKMGR_STAT, CLKMGR_STAT_BUSY, false, b.m.WaitIterations))
}

func (b *bringUp) waitLocked() {
	b.note("PLL lock", regs.WaitBit(b.m.w, CLKMGR_STAT, CLKMGR_STAT_ALLPLL_LOCKED_MASK, true, b.m.WaitIterations))
}

// Bypass and control writes take effect asynchronously; nothing else may be
// touched until STAT.BUSY drops.
func (b *bringUp) writeBypass(bank Bank, val uint32) {
	b.m.w.Write32(banks[bank].bypass, val)
	b.waitNotBusy(fmt.Sprintf("%v bypass %02X", bank, val))
}

func (b *bringUp) writeCtrl(val uint32) {
	b.m.w.Write32(CLKMGR_CTRL, val)
	b.waitNotBusy(fmt.Sprintf("ctrl %08X", val))
}

func (b *bringUp) exitBootMode() {
	b.writeCtrl(b.m.read(CLKMGR_CTRL) &^ CLKMGR_CTRL_BOOTMODE)
}

// Init brings both PLLs from whatever state they are in to locked and out of
// bypass, using the values in cfg. It always runs to the end; the returned
// errors are the waits that timed out along the way. A nil cfg does nothing.
func (m *Manager) Init(cfg *Config) []error {
	if cfg == nil {
		return nil
	}
	b := &bringUp{m: m}
	if cfg.Emulation {
		b.emulation()
	} else {
		b.silicon(cfg)
	}
	if len(b.errs) > 0 {
		log.Printf("clock init finished with %d timeouts", len(b.errs))
	}
	return b.errs
}

func (b *bringUp) emulation() {
	w := b.m.w
	for _, bank := range []Bank{MainPLL, PerPLL} {
		regs.SetBits(w, banks[bank].pllglob, uint32(pllGlobPD|pllGlobRST))
	}
	b.waitLocked()

	for _, bank := range []Bank{MainPLL, PerPLL} {
		b.writeBypass(bank, banks[bank].bypassAll)
	}
	for _, bank := range []Bank{MainPLL, PerPLL} {
		b.writeBypass(bank, 0)
	}
	b.exitBootMode()
}

// programBank stages a PLL's dividers while it is held in reset. PLLGLOB goes
// first without RST so the bank stays in reset until every value is in.
func (b *bringUp) programBank(bank Bank, pc *PLLConfig) {
	w := b.m.w
	r := banks[bank]
	vcocalib := VCOCalib(uint32(pc.PLLM), uint32(pc.PLLGlob))
	if b.m.Verbose {
		logVCOCalib(bank, uint32(pc.PLLM), uint32(pc.PLLGlob), vcocalib)
	}
	w.Write32(r.pllglob, uint32(pc.PLLGlob)&^uint32(pllGlobRST))
	w.Write32(r.fdbck, uint32(pc.Fdbck))
	w.Write32(r.vcocalib, vcocalib)
	for i, c := range pc.PLLC {
		w.Write32(r.pllc[i], uint32(c))
	}
	w.Write32(r.pllm, uint32(pc.PLLM))
}

func (b *bringUp) silicon(cfg *Config) {
	w := b.m.w
	both := []Bank{MainPLL, PerPLL}

	if cfg.FirstStage {
		// Run from the internal oscillator in boot mode while the PLLs are unconfigured
		b.writeCtrl(b.m.read(CLKMGR_CTRL) |
			CLKMGR_CTRL_BOOTMODE |
			CLKMGR_CTRL_SWCTRLBTCLKEN |
			CLKMGR_CTRL_SWCTRLBTCLKSEL)
	} else if b.m.read(CLKMGR_CTRL)&CLKMGR_CTRL_BOOTMODE == 0 {
		log.Printf("clock manager not in boot mode, keeping existing configuration")
		return
	}

	for _, bank := range both {
		b.writeBypass(bank, banks[bank].bypassAll)
	}
	for _, bank := range both {
		regs.ClearBits(w, banks[bank].pllglob, uint32(pllGlobPD|pllGlobRST))
	}

	b.programBank(MainPLL, &cfg.Main)
	w.Write32(CLKMGR_MAINPLL_NOCCLK, uint32(cfg.NocClk))
	w.Write32(CLKMGR_MAINPLL_NOCDIV, uint32(cfg.NocDiv))

	b.programBank(PerPLL, &cfg.Per)
	w.Write32(CLKMGR_PERPLL_EMACCTL, uint32(cfg.EmacCtl))
	w.Write32(CLKMGR_PERPLL_GPIODIV, uint32(cfg.GPIODiv))

	for _, c := range cfg.counterValues() {
		w.Write32(c.offset, c.val)
	}

	for _, bank := range both {
		regs.SetBits(w, banks[bank].pllglob, uint32(pllGlobPD|pllGlobRST))
	}

	for _, bank := range both {
		b.note(fmt.Sprintf("%v calibration", bank), b.m.ApplyCalibration(bank))
	}

	for _, bank := range both {
		for _, c := range banks[bank].pllc {
			regs.SetBits(w, c, CLKMGR_PLLCX_EN)
		}
	}

	b.waitLocked()

	for _, bank := range both {
		w.Write32(banks[bank].lostlock, CLKMGR_LOSTLOCK_SET)
	}
	// Losing lock later must not silently put the outputs back into bypass
	for _, bank := range both {
		regs.SetBits(w, banks[bank].pllglob, uint32(pllGlobClrLostLockBypass))
	}

	for _, bank := range both {
		b.writeBypass(bank, 0)
	}

	regs.ClearBits(w, CLKMGR_INTRCLR, CLKMGR_INTER_PERPLLLOST|CLKMGR_INTER_MAINPLLLOST)

	regs.ClearBits(w, CLKMGR_CTL_EXTCNTRST, CLKMGR_CTL_EXTCNTRST_ALLCNTRST)

	b.exitBootMode()
}
