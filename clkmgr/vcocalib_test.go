package clkmgr

import "testing"

func TestVCOCalib(t *testing.T) {
	tests := []struct {
		pllm    uint32
		pllglob uint32
		want    uint32
	}{
		{80, 0x100, 0x1004c},
		{80, 0x20000103, 0x1004c}, // PD, RST and ClrLLB don't matter
		{25, 0x100, 0x40060},
		{10, 0x1100, 0x50001},        // drefclkdiv 1, refclkdiv 17
		{200, 0x100, 0x100c4},        // mscnt would be 0
		{0x400 | 80, 0x100, 0x1004c}, // bits above mdiv ignored
		{0, 0, 0x103fc},
	}
	for _, test := range tests {
		got := VCOCalib(test.pllm, test.pllglob)
		if got != test.want {
			t.Errorf("VCOCalib(%d, %08X), got: %08X, want %08X", test.pllm, test.pllglob, got, test.want)
		}
	}
}

func TestVCOCalibNeverDividesByZero(t *testing.T) {
	for mdiv := uint32(0); mdiv < 0x400; mdiv += 7 {
		for dref := uint32(0); dref < 4; dref++ {
			for aref := uint32(0); aref < 16; aref++ {
				g := dref<<12 | aref<<8
				v := vcoCalib(VCOCalib(mdiv, g))
				if v.mscnt() < 1 {
					t.Fatalf("VCOCalib(%d, %08X): mscnt %d", mdiv, g, v.mscnt())
				}
			}
		}
	}
}
