package clkmgr

// vcoHz is the VCO frequency of a PLL: its reference divided by the A-ref
// divider, times the multiplier. An A-ref divider of 0 is taken as 1.
func (m *Manager) vcoHz(b Bank) uint64 {
	g := pllGlob(m.read(banks[b].pllglob))
	var fref uint64
	switch g.vcoSrc() {
	case vcoSrcEOSC1:
		fref = m.ref.OscHz()
	case vcoSrcIntOsc:
		fref = m.ref.IntOscHz()
	case vcoSrcF2S:
		fref = m.ref.FPGAHz()
	}
	arefdiv := uint64(g.arefClkDiv())
	if arefdiv == 0 {
		arefdiv = 1
	}
	mdiv := uint64(pllM(m.read(banks[b].pllm)).mdiv())
	return fref / arefdiv * mdiv
}

// srcHz resolves a 5-way source select. The PLL sources are divided by the
// given output slice counter. Reserved selects give 0.
func (m *Manager) srcHz(src uint32, mainCtr, perCtr uint32) uint64 {
	switch src {
	case clkSrcMain:
		return m.vcoHz(MainPLL) / counter(m.read(mainCtr)).div()
	case clkSrcPer:
		return m.vcoHz(PerPLL) / counter(m.read(perCtr)).div()
	case clkSrcOsc1:
		return m.ref.OscHz()
	case clkSrcIntOsc:
		return m.ref.IntOscHz()
	case clkSrcFPGA:
		return m.ref.FPGAHz()
	}
	return 0
}

func (m *Manager) clkSrcHz(sel, mainCtr, perCtr uint32) uint64 {
	return m.srcHz(counter(m.read(sel)).src(), mainCtr, perCtr)
}

func (m *Manager) l3MainHz() uint64 {
	return m.clkSrcHz(CLKMGR_MAINPLL_NOCCLK, CLKMGR_MAINPLL_PLLC3, CLKMGR_PERPLL_PLLC1)
}

func (m *Manager) nocDiv() nocDiv {
	return nocDiv(m.read(CLKMGR_MAINPLL_NOCDIV))
}

func (m *Manager) l4MainHz() uint64 {
	return m.l3MainHz()
}

func (m *Manager) l4SPHz() uint64 {
	return m.l3MainHz() >> m.nocDiv().shift(nocDivL4SPOffset)
}

func (m *Manager) l4MPHz() uint64 {
	return m.l3MainHz() >> m.nocDiv().shift(nocDivL4MPOffset)
}

func (m *Manager) sdmmcHz() uint64 {
	return m.l4MPHz() >> m.nocDiv().shift(nocDivSoftPhyOffset)
}

func (m *Manager) l4SysFreeHz() uint64 {
	if m.read(CLKMGR_STAT)&CLKMGR_STAT_BOOTMODE != 0 {
		return m.l3MainHz() / 2
	}
	return m.l3MainHz() / 4
}

// mpuHz is the clock of the core asking. Cores 0 and 1 share CORE01CTR for
// both source and divider; cores 2 and 3 take their source from CORE23CTR and
// their divider from their own counter.
func (m *Manager) mpuHz() uint64 {
	cpu := coreOf(m.cpu.MPIDR())

	var hz uint64
	if cpu > CORE1 {
		hz = m.clkSrcHz(CLKMGR_CTL_CORE23CTR, CLKMGR_MAINPLL_PLLC0, CLKMGR_PERPLL_PLLC0)
	} else {
		hz = m.clkSrcHz(CLKMGR_CTL_CORE01CTR, CLKMGR_MAINPLL_PLLC1, CLKMGR_PERPLL_PLLC0)
	}

	var ctr uint32
	switch cpu {
	case CORE3:
		ctr = CLKMGR_CTL_CORE3CTR
	case CORE2:
		ctr = CLKMGR_CTL_CORE2CTR
	default:
		ctr = CLKMGR_CTL_CORE01CTR
	}
	return hz / counter(m.read(ctr)).div()
}

// emacHz handles the three data MACs, which each pick the A or B counter
// through EMACCTL, and the PTP clock with its own counter.
func (m *Manager) emacHz(id ClockID) uint64 {
	var ctr, mainCtr uint32
	if id == EMAC_PTP_CLK {
		ctr = CLKMGR_CTL_EMACPTPCTR
		mainCtr = CLKMGR_MAINPLL_PLLC3
	} else {
		ctr = CLKMGR_CTL_EMACACTR
		if emacCtl(m.read(CLKMGR_PERPLL_EMACCTL)).selB(int(id - EMAC0_CLK)) {
			ctr = CLKMGR_CTL_EMACBCTR
		}
		mainCtr = CLKMGR_MAINPLL_PLLC1
	}
	c := counter(m.read(ctr))
	return m.srcHz(c.src(), mainCtr, CLKMGR_PERPLL_PLLC3) / c.div()
}
