// Command ossim is the simulator's entry point: it reads a
// configuration file, builds the kernel handle (RAM, swap devices,
// scheduler), and runs the time-slot driver until every process has
// terminated. Grounded on original_source/src/os.c's main(): same
// single-argument contract and exit codes, with the SIGSEGV backtrace
// handler re-expressed as a deferred recover()-based crash logger,
// since Go has no raw signal trap to install for that purpose.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kics223w1/ossim/internal/config"
	"github.com/kics223w1/ossim/internal/kernel"
	"github.com/kics223w1/ossim/internal/memdev"
	"github.com/kics223w1/ossim/internal/obslog"
	"github.com/kics223w1/ossim/internal/pagetable"
	"github.com/kics223w1/ossim/internal/procimg"
	"github.com/kics223w1/ossim/internal/sched"
	"github.com/kics223w1/ossim/internal/timeslot"
)

// Compile-time variant switches, per spec.md's "two compile-time
// variants" language for paging and scheduling. Go has no preprocessor
// switch, so these are the variant point: flip and rebuild.
const (
	useMLQ       = true
	useFiveLevel = false
	configDir    = "input"
	procDir      = "input/proc"
	nullProgSize = 12
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	log := obslog.New(os.Stdout, slog.LevelInfo)

	defer func() {
		if r := recover(); r != nil {
			log.Error("fatal error, recovered", slog.Any("panic", r))
			code = 1
		}
	}()

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: ossim [path to configure file]")
		return 1
	}

	pageSize := pagetable.FlatPageSize
	if useFiveLevel {
		pageSize = pagetable.FiveLevelPageSize
	}

	floorPageSize := 0 // RAM flooring applies only in five-level mode
	if useFiveLevel {
		floorPageSize = pageSize
	}

	cfg, err := config.Load(configDir, os.Args[1], config.Options{
		MLQ:      useMLQ,
		PageSize: floorPageSize,
		ProcDir:  procDir,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ram := memdev.New(cfg.RAMSize, pageSize, true)
	swap := make([]*memdev.Device, config.NumSwapDevices)
	for i := range swap {
		swap[i] = memdev.New(cfg.SwapSizes[i], pageSize, true)
	}

	var scheduler *sched.Scheduler
	if useMLQ {
		scheduler = sched.NewMLQ(log)
	} else {
		scheduler = sched.NewSingle(log)
	}

	ptFactory := func() pagetable.PageTable { return pagetable.NewFlat(pagetable.FlatMaxPages) }
	if useFiveLevel {
		ptFactory = func() pagetable.PageTable { return pagetable.NewFiveLevel() }
	}

	krnl := kernel.New(ram, swap, pageSize, scheduler, log, ptFactory)

	procs := make([]timeslot.Process, len(cfg.Processes))
	for i, p := range cfg.Processes {
		procs[i] = timeslot.Process{StartTime: p.StartTime, Priority: p.Priority, Path: p.Path}
	}

	driver := &timeslot.Driver{
		NumCPUs:  cfg.NumCPUs,
		TimeSlot: cfg.TimeSlot,
		Log:      log,
		Runner:   procimg.NullRunner{},
		Loader:   procimg.NullLoader{Size: nullProgSize},
	}
	if err := driver.Run(krnl, procs); err != nil {
		log.Error("simulation failed", slog.Any("error", err))
		return 1
	}
	return 0
}
