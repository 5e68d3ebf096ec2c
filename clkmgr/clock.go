package clkmgr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnsupportedClock = errors.New("no such clock")

// ClockID numbers follow the platform's Agilex5 clock binding.
type ClockID uint32

const (
	MPU_CLK ClockID = iota
	L4_MAIN_CLK
	L4_MP_CLK
	L4_SP_CLK
	CS_AT_CLK
	CS_TRACE_CLK
	CS_PDBG_CLK
	CS_TIMER_CLK
	S2F_USER0_CLK
	EMAC0_CLK
	EMAC1_CLK
	EMAC2_CLK
	EMAC_PTP_CLK
	GPIO_DB_CLK
	NAND_CLK
	PSI_REF_CLK
	S2F_USER1_CLK
	SDMMC_CLK
	SPI_M_CLK
	USB_CLK
	NAND_X_CLK
	NAND_ECC_CLK
	L4_SYS_FREE_CLK
	NUM_CLKS
)

var clockNames = [NUM_CLKS]string{
	MPU_CLK:         "MPU",
	L4_MAIN_CLK:     "L4_MAIN",
	L4_MP_CLK:       "L4_MP",
	L4_SP_CLK:       "L4_SP",
	CS_AT_CLK:       "CS_AT",
	CS_TRACE_CLK:    "CS_TRACE",
	CS_PDBG_CLK:     "CS_PDBG",
	CS_TIMER_CLK:    "CS_TIMER",
	S2F_USER0_CLK:   "S2F_USER0",
	EMAC0_CLK:       "EMAC0",
	EMAC1_CLK:       "EMAC1",
	EMAC2_CLK:       "EMAC2",
	EMAC_PTP_CLK:    "EMAC_PTP",
	GPIO_DB_CLK:     "GPIO_DB",
	NAND_CLK:        "NAND",
	PSI_REF_CLK:     "PSI_REF",
	S2F_USER1_CLK:   "S2F_USER1",
	SDMMC_CLK:       "SDMMC",
	SPI_M_CLK:       "SPI_M",
	USB_CLK:         "USB",
	NAND_X_CLK:      "NAND_X",
	NAND_ECC_CLK:    "NAND_ECC",
	L4_SYS_FREE_CLK: "L4_SYS_FREE",
}

func (id ClockID) String() string {
	if id < NUM_CLKS {
		return clockNames[id]
	}
	return fmt.Sprintf("ClockID(%d)", uint32(id))
}

// ParseClockID accepts a clock name ("emac0", "L4_MP", "l4_mp_clk") or its number.
func ParseClockID(s string) (ClockID, error) {
	n := strings.TrimSuffix(strings.ToUpper(s), "_CLK")
	for i, name := range clockNames {
		if name == n {
			return ClockID(i), nil
		}
	}
	if id, err := strconv.ParseUint(s, 10, 32); err == nil {
		return ClockID(id), nil
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnsupportedClock)
}

// SupportedClocks lists the clocks Rate can derive.
var SupportedClocks = []ClockID{
	MPU_CLK,
	L4_MAIN_CLK,
	L4_SYS_FREE_CLK,
	L4_MP_CLK,
	L4_SP_CLK,
	SDMMC_CLK,
	NAND_CLK,
	EMAC0_CLK,
	EMAC1_CLK,
	EMAC2_CLK,
	EMAC_PTP_CLK,
	USB_CLK,
	NAND_X_CLK,
}

// Enable is a no-op: every clock Rate knows about runs once Init is done.
func (m *Manager) Enable(id ClockID) error {
	return nil
}

// Rate returns the current frequency of id in Hz, computed from the
// registers as they are now.
func (m *Manager) Rate(id ClockID) (uint64, error) {
	switch id {
	case MPU_CLK:
		return m.mpuHz(), nil
	case L4_MAIN_CLK:
		return m.l4MainHz(), nil
	case L4_SYS_FREE_CLK:
		return m.l4SysFreeHz(), nil
	case L4_MP_CLK:
		return m.l4MPHz(), nil
	case L4_SP_CLK:
		return m.l4SPHz(), nil
	case SDMMC_CLK, NAND_CLK:
		return m.sdmmcHz(), nil
	case EMAC0_CLK, EMAC1_CLK, EMAC2_CLK, EMAC_PTP_CLK:
		return m.emacHz(id), nil
	case USB_CLK, NAND_X_CLK:
		return m.l4MPHz(), nil
	}
	return 0, fmt.Errorf("rate of %v: %w", id, ErrUnsupportedClock)
}
