package clkmgr

import (
	"strings"
	"testing"
)

const testConfigJSON = `{
	"first_stage": true,
	"main_pll": {"pllglob": "0x101", "pllm": 80, "fdbck": 0, "pllc": [0, 1, 3, "0x4"]},
	"nocclk": 0,
	"nocdiv": "0x10090",
	"per_pll": {"pllglob": "0x101", "pllm": "64", "pllc": [0, 3, 1, 7]},
	"emacctl": "0x08000000",
	"gpiodiv": 16,
	"ctl": {
		"emacactr": "0x10007",
		"emacbctr": "0x10001",
		"emacptpctr": 4,
		"gpiodbctr": "0x1f",
		"core01ctr": 3,
		"core23ctr": 0,
		"core2ctr": 1,
		"core3ctr": 3
	}
}`

func TestLoadConfig(t *testing.T) {
	c, err := LoadConfig(strings.NewReader(testConfigJSON))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := testConfig()
	if *c != *want {
		t.Errorf("got: %+v\nwant %+v", *c, *want)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []string{
		`{"mainpll": {}}`,
		`{"nocdiv": "0xfffffffff"}`,
		`{"nocdiv": "ten"}`,
		`{"nocdiv": -1}`,
		`{"nocdiv": true}`,
		`[`,
	}
	for _, test := range tests {
		_, err := LoadConfig(strings.NewReader(test))
		if err == nil {
			t.Errorf("LoadConfig(%s), want error", test)
		}
	}
}
