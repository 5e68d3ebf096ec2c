package clkmgr

import "log"

// VCOCalib computes the VCOCALIB register value for a PLL from its PLLM and
// PLLGLOB values. It has to be written before the PLL comes out of reset.
func VCOCalib(pllm, pllglob uint32) uint32 {
	g := pllGlob(pllglob)
	mdiv := pllM(pllm).mdiv()
	drefclkdiv := g.drefClkDiv()
	refclkdiv := g.refClkDiv()
	if refclkdiv == 0 {
		refclkdiv = 1
	}

	var mscnt uint32
	if d := mdiv << drefclkdiv; d != 0 {
		mscnt = vcoCalibMSCNTConst / d
	}
	if mscnt == 0 {
		mscnt = 1
	}
	// Wraps like the hardware's 10-bit field when the product is below the constant
	hscnt := (mdiv*mscnt<<drefclkdiv)/refclkdiv - vcoCalibHSCNTConst
	return uint32(makeVCOCalib(hscnt, mscnt))
}

func logVCOCalib(b Bank, pllm, pllglob, v uint32) {
	g := pllGlob(pllglob)
	c := vcoCalib(v)
	log.Printf("%v: mdiv %d, arefclkdiv %d, drefclkdiv %d, refclkdiv %d, mscnt %d, hscnt %d, vcocalib %08X\n",
		b, pllM(pllm).mdiv(), g.arefClkDiv(), g.drefClkDiv(), g.refClkDiv(), c.mscnt(), c.hscnt(), v)
}
