package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/Jon-Bright/agxclk/clkmgr"
	"github.com/Jon-Bright/agxclk/regdump"
	"github.com/Jon-Bright/agxclk/regs"
	"github.com/Jon-Bright/agxclk/uartbridge"
)

var base = flag.Uint64("base", 0x10d10000, "The physical address of the clock manager registers")
var bridgeDev = flag.String("bridge", "", "A serial device with a register bridge on the other end. If set, registers are accessed through it instead of /dev/mem")
var bridgeBaud = flag.Uint("baud", 115200, "The baud rate of the register bridge. Only relevant if bridge is specified.")
var imageFile = flag.String("image", "", "An Intel HEX register image, as written by dump, to use instead of live registers")
var configFile = flag.String("config", "", "The JSON bring-up configuration for init")
var oscHz = flag.Uint64("osc", 25000000, "The external oscillator (EOSC1) frequency, in Hz")
var intOscHz = flag.Uint64("intosc", 200000000, "The HPS internal oscillator frequency, in Hz")
var fpgaHz = flag.Uint64("fpga", 50000000, "The FPGA-to-HPS free clock frequency, in Hz")
var core = flag.Int("core", -1, "The core whose MPU clock is reported. -1 means the lowest core in this process's CPU affinity mask, so pin the process (e.g. with taskset) to get the core it runs on.")
var outFile = flag.String("o", "", "Where dump writes its image. Empty means stdout.")
var verbose = flag.Bool("verbose", false, "Log every membus transfer, VCO calibration and bridge frame")

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] init|rate [clock...]|status|dump|serve\n", os.Args[0])
	flag.PrintDefaults()
}

// openWindow returns the register window the flags select and a function
// releasing it.
func openWindow() (regs.Window, func(), error) {
	switch {
	case *imageFile != "":
		f, err := os.Open(*imageFile)
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't open image: %v", err)
		}
		defer f.Close()
		m, err := regdump.Load(f, uint32(*base))
		if err != nil {
			return nil, nil, err
		}
		return m, func() {}, nil
	case *bridgeDev != "":
		p, err := uartbridge.Open(*bridgeDev, *bridgeBaud)
		if err != nil {
			return nil, nil, err
		}
		b := uartbridge.New(p, uint32(*base))
		b.Debug = *verbose
		return b, func() { b.Close() }, nil
	}
	m, err := regs.Map(uintptr(*base), clkmgr.CLKMGR_SIZE)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't map clock manager: %v", err)
	}
	return m, func() { m.Close() }, nil
}

func newManager(w regs.Window) *clkmgr.Manager {
	ref := clkmgr.FixedRefClocks{Osc: *oscHz, IntOsc: *intOscHz, FPGA: *fpgaHz}
	var cpu clkmgr.Affinity = clkmgr.CurrentCPU{}
	if *core >= 0 {
		cpu = clkmgr.Core(*core)
	}
	m := clkmgr.New(w, ref, cpu)
	m.Verbose = *verbose
	return m
}

func runInit(m *clkmgr.Manager) error {
	if *configFile == "" {
		return fmt.Errorf("init needs -config")
	}
	f, err := os.Open(*configFile)
	if err != nil {
		return fmt.Errorf("couldn't open config: %v", err)
	}
	defer f.Close()
	cfg, err := clkmgr.LoadConfig(f)
	if err != nil {
		return err
	}
	errs := m.Init(cfg)
	for _, e := range errs {
		fmt.Printf("warning: %v\n", e)
	}
	fmt.Println(formatStatus(m.Status()))
	return nil
}

func runRate(m *clkmgr.Manager, args []string) error {
	ids := clkmgr.SupportedClocks
	if len(args) > 0 {
		ids = nil
		for _, a := range args {
			id, err := clkmgr.ParseClockID(a)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		hz, err := m.Rate(id)
		if err != nil {
			return err
		}
		fmt.Printf("%-12s %d\n", id, hz)
	}
	return nil
}

func runDump(w regs.Window) error {
	var out io.Writer = os.Stdout
	if *outFile != "" {
		f, err := os.Create(*outFile)
		if err != nil {
			return fmt.Errorf("couldn't create image: %v", err)
		}
		defer f.Close()
		out = f
	}
	return regdump.Dump(w, uint32(*base), clkmgr.RegisterOffsets(), out)
}

func formatStatus(st clkmgr.Status) string {
	parts := []string{fmt.Sprintf("bootmode=%t", st.BootMode)}
	for _, b := range []clkmgr.Bank{clkmgr.MainPLL, clkmgr.PerPLL} {
		state := "bypassed"
		switch {
		case st.Running(b):
			state = "running"
		case !st.Locked[b]:
			state = "unlocked"
		}
		parts = append(parts, fmt.Sprintf("%v=%s bypass=%02X lostlock=%t", b, state, st.Bypass[b], st.LostLock[b]))
	}
	return strings.Join(parts, " ")
}

func run(cmd string, args []string) error {
	w, release, err := openWindow()
	if err != nil {
		return err
	}
	defer release()
	m := newManager(w)

	switch cmd {
	case "init":
		err = runInit(m)
	case "rate":
		err = runRate(m, args)
	case "status":
		fmt.Println(formatStatus(m.Status()))
	case "dump":
		err = runDump(w)
	case "serve":
		var s *Server
		s, err = NewServer(*port, m)
		if err == nil {
			s.handleConnections()
		}
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		return err
	}
	// Bridge failures only show up here
	if e, ok := w.(interface{ Err() error }); ok {
		return e.Err()
	}
	return nil
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}
	err := run(flag.Arg(0), flag.Args()[1:])
	if err != nil {
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
}
