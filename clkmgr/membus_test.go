package clkmgr

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Jon-Bright/agxclk/regs"
)

func TestMembusEncoding(t *testing.T) {
	s := newSim()
	m := newTestManager(s, 0)
	err := m.MembusWrite(PerPLL, MEMBUS_SYNTHCALFOSC_INIT_CENTERFREQ_REG, 0x31)
	if err != nil {
		t.Fatalf("MembusWrite: %v", err)
	}
	want := access{offset: CLKMGR_PERPLL_MEM, val: CLKMGR_MEM_REQ | CLKMGR_MEM_WR | 0x31<<16 | 0x40b3}
	if len(s.writes) != 1 || s.writes[0] != want {
		t.Errorf("got: %v, want [%v]", s.writes, want)
	}

	s.writes = nil
	v, err := m.MembusRead(PerPLL, MEMBUS_CALCLKSLICE0_DUTY_LOCOVR_REG)
	if err != nil {
		t.Fatalf("MembusRead: %v", err)
	}
	if v != 0x91 {
		t.Errorf("MembusRead, got: %02X, want %02X", v, 0x91)
	}
	want = access{offset: CLKMGR_PERPLL_MEM, val: CLKMGR_MEM_REQ | 0x43e8}
	if len(s.writes) != 1 || s.writes[0] != want {
		t.Errorf("got: %v, want [%v]", s.writes, want)
	}
}

func TestApplyCalibration(t *testing.T) {
	s := newSim()
	m := newTestManager(s, 0)
	err := m.ApplyCalibration(MainPLL)
	if err != nil {
		t.Fatalf("ApplyCalibration: %v", err)
	}
	want := map[uint32]uint32{
		0x40b3: 0x31,
		0x40e6: 0x53,
		0x43e8: 0xca,
		0x43ec: 0xca,
	}
	if !reflect.DeepEqual(s.calib[MainPLL], want) {
		t.Errorf("main calibration, got: %v, want %v", s.calib[MainPLL], want)
	}
	if s.calib[PerPLL][0x40b3] != 0x30 {
		t.Errorf("peripheral calibration touched: %v", s.calib[PerPLL])
	}
}

func TestApplyCalibrationIdempotent(t *testing.T) {
	once := newSim()
	twice := newSim()
	for _, s := range []*sim{once, twice} {
		m := newTestManager(s, 0)
		for _, b := range []Bank{MainPLL, PerPLL} {
			if err := m.ApplyCalibration(b); err != nil {
				t.Fatalf("ApplyCalibration(%v): %v", b, err)
			}
		}
	}
	m := newTestManager(twice, 0)
	for _, b := range []Bank{MainPLL, PerPLL} {
		if err := m.ApplyCalibration(b); err != nil {
			t.Fatalf("second ApplyCalibration(%v): %v", b, err)
		}
	}
	if !reflect.DeepEqual(once.calib, twice.calib) {
		t.Errorf("got: %v after two passes, want %v", twice.calib, once.calib)
	}
}

func TestApplyCalibrationTimeout(t *testing.T) {
	s := newSim()
	s.stuckMembus = true
	before := s.calibCopy()
	m := newTestManager(s, 0)
	err := m.ApplyCalibration(MainPLL)
	if !errors.Is(err, regs.ErrTimeout) {
		t.Fatalf("got: %v, want %v", err, regs.ErrTimeout)
	}
	if !reflect.DeepEqual(s.calib, before) {
		t.Errorf("calibration memory changed: got %v, want %v", s.calib, before)
	}
	// The first read request is issued and then nothing else
	if len(s.writes) != 1 || s.writes[0].offset != CLKMGR_MAINPLL_MEM {
		t.Errorf("writes, got: %v, want a single MAINPLL_MEM request", s.writes)
	}
}
