package config

import (
	"strings"
	"testing"
)

func TestParseHeaderAndDefaultsWithoutSizingLine(t *testing.T) {
	src := "100 2 1\n0 p0a\n"
	cfg, err := Parse(strings.NewReader(src), Options{MLQ: false, ProcDir: "input/proc"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.TimeSlot != 100 || cfg.NumCPUs != 2 || cfg.NumProcesses != 1 {
		t.Fatalf("header = %+v, want {100 2 1}", cfg)
	}
	if cfg.RAMSize != DefaultRAMSize || cfg.SwapSizes[0] != DefaultSwap0Size {
		t.Fatalf("defaults not applied: ram=%d swap0=%d", cfg.RAMSize, cfg.SwapSizes[0])
	}
	if len(cfg.Processes) != 1 || cfg.Processes[0].StartTime != 0 {
		t.Fatalf("processes = %+v", cfg.Processes)
	}
	if cfg.Processes[0].Path != "input/proc/p0a" {
		t.Fatalf("path = %q, want input/proc/p0a", cfg.Processes[0].Path)
	}
}

func TestParseWithSizingLine(t *testing.T) {
	src := "100 2 1\n1000 2000 3000 4000 5000\n0 p0a\n"
	cfg, err := Parse(strings.NewReader(src), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.RAMSize != 1000 {
		t.Fatalf("RAMSize = %d, want 1000", cfg.RAMSize)
	}
	want := [NumSwapDevices]int{2000, 3000, 4000, 5000}
	if cfg.SwapSizes != want {
		t.Fatalf("SwapSizes = %v, want %v", cfg.SwapSizes, want)
	}
}

func TestParseFloorsRAMToPageSizeInSizingMode(t *testing.T) {
	src := "100 2 1\n10 2000 3000 4000 5000\n0 p0a\n"
	cfg, err := Parse(strings.NewReader(src), Options{PageSize: 4096})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.RAMSize != 4096 {
		t.Fatalf("RAMSize = %d, want floored to 4096", cfg.RAMSize)
	}
}

func TestParseMLQProcessLineReadsPriority(t *testing.T) {
	src := "100 1 1\n0 p0a 5\n"
	cfg, err := Parse(strings.NewReader(src), Options{MLQ: true})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Processes[0].Priority != 5 {
		t.Fatalf("priority = %d, want 5", cfg.Processes[0].Priority)
	}
}

func TestParseMLQRejectsMissingPriority(t *testing.T) {
	src := "100 1 1\n0 p0a\n"
	if _, err := Parse(strings.NewReader(src), Options{MLQ: true}); err == nil {
		t.Fatal("expected error: MLQ mode requires a priority field")
	}
}

func TestParseRejectsEmptyFile(t *testing.T) {
	if _, err := Parse(strings.NewReader(""), Options{}); err == nil {
		t.Fatal("expected error for empty configuration")
	}
}

func TestParseRejectsShortProcessList(t *testing.T) {
	src := "100 1 2\n0 p0a\n"
	if _, err := Parse(strings.NewReader(src), Options{}); err == nil {
		t.Fatal("expected error: fewer process lines than num_processes")
	}
}

func TestParseRejectsMalformedHeader(t *testing.T) {
	if _, err := Parse(strings.NewReader("only two fields\n"), Options{}); err == nil {
		t.Fatal("expected error for malformed header")
	}
}
