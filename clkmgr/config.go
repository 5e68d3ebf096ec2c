package clkmgr

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Reg is a register value in a Config. In JSON it may be a number or a
// string in any base strconv understands ("0x1004c").
type Reg uint32

func (r *Reg) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n uint32
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("register value %s is neither a string nor a uint32", b)
		}
		*r = Reg(n)
		return nil
	}
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return fmt.Errorf("couldn't parse register value %q: %v", s, err)
	}
	*r = Reg(n)
	return nil
}

type PLLConfig struct {
	PLLGlob Reg    `json:"pllglob"`
	PLLM    Reg    `json:"pllm"`
	Fdbck   Reg    `json:"fdbck"`
	PLLC    [4]Reg `json:"pllc"`
}

// Counters are the control group ping pong counters.
type Counters struct {
	EmacA    Reg `json:"emacactr"`
	EmacB    Reg `json:"emacbctr"`
	EmacPTP  Reg `json:"emacptpctr"`
	GPIODB   Reg `json:"gpiodbctr"`
	S2FUser0 Reg `json:"s2fuser0ctr"`
	S2FUser1 Reg `json:"s2fuser1ctr"`
	PSIRef   Reg `json:"psirefctr"`
	USB31    Reg `json:"usb31ctr"`
	DSU      Reg `json:"dsuctr"`
	Core01   Reg `json:"core01ctr"`
	Core23   Reg `json:"core23ctr"`
	Core2    Reg `json:"core2ctr"`
	Core3    Reg `json:"core3ctr"`
}

// Config holds every value Init writes. Init never modifies it.
type Config struct {
	// Emulation selects the short sequence for emulation platforms, where
	// the PLL defaults are already usable.
	Emulation bool `json:"emulation"`
	// FirstStage forces boot mode before configuring. Without it, Init only
	// configures a clock manager that is still in boot mode.
	FirstStage bool `json:"first_stage"`

	Main    PLLConfig `json:"main_pll"`
	NocClk  Reg       `json:"nocclk"`
	NocDiv  Reg       `json:"nocdiv"`
	Per     PLLConfig `json:"per_pll"`
	EmacCtl Reg       `json:"emacctl"`
	GPIODiv Reg       `json:"gpiodiv"`

	Ctl Counters `json:"ctl"`
}

func LoadConfig(r io.Reader) (*Config, error) {
	d := json.NewDecoder(r)
	d.DisallowUnknownFields()
	var c Config
	err := d.Decode(&c)
	if err != nil {
		return nil, fmt.Errorf("couldn't decode clock config: %v", err)
	}
	return &c, nil
}

// counterValues lists the control group counters in programming order.
func (c *Config) counterValues() []struct{ offset, val uint32 } {
	return []struct{ offset, val uint32 }{
		{CLKMGR_CTL_EMACACTR, uint32(c.Ctl.EmacA)},
		{CLKMGR_CTL_EMACBCTR, uint32(c.Ctl.EmacB)},
		{CLKMGR_CTL_EMACPTPCTR, uint32(c.Ctl.EmacPTP)},
		{CLKMGR_CTL_GPIODBCTR, uint32(c.Ctl.GPIODB)},
		{CLKMGR_CTL_S2FUSER0CTR, uint32(c.Ctl.S2FUser0)},
		{CLKMGR_CTL_S2FUSER1CTR, uint32(c.Ctl.S2FUser1)},
		{CLKMGR_CTL_PSIREFCTR, uint32(c.Ctl.PSIRef)},
		{CLKMGR_CTL_USB31CTR, uint32(c.Ctl.USB31)},
		{CLKMGR_CTL_DSUCTR, uint32(c.Ctl.DSU)},
		{CLKMGR_CTL_CORE01CTR, uint32(c.Ctl.Core01)},
		{CLKMGR_CTL_CORE23CTR, uint32(c.Ctl.Core23)},
		{CLKMGR_CTL_CORE2CTR, uint32(c.Ctl.Core2)},
		{CLKMGR_CTL_CORE3CTR, uint32(c.Ctl.Core3)},
	}
}
