package procimg

import "testing"

type fakeProc struct {
	pc   int
	prog Program
}

func (p *fakeProc) PID() int         { return 1 }
func (p *fakeProc) PC() int          { return p.pc }
func (p *fakeProc) SetPC(pc int)     { p.pc = pc }
func (p *fakeProc) Program() Program { return p.prog }

func TestNullLoaderProducesRequestedSize(t *testing.T) {
	l := NullLoader{Size: 7}
	prog, err := l.Load("anything")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if prog.Size() != 7 {
		t.Fatalf("Size = %d, want 7", prog.Size())
	}
}

func TestNullRunnerAdvancesUntilProgramEnd(t *testing.T) {
	proc := &fakeProc{prog: NewNullProgram(3)}
	r := NullRunner{}
	for i := 0; i < 3; i++ {
		if err := r.Run(proc); err != nil {
			t.Fatalf("Run: %v", err)
		}
	}
	if proc.pc != 3 {
		t.Fatalf("pc = %d, want 3", proc.pc)
	}
	// past the end, PC no longer advances.
	if err := r.Run(proc); err != nil {
		t.Fatalf("Run past end: %v", err)
	}
	if proc.pc != 3 {
		t.Fatalf("pc advanced past program end: %d", proc.pc)
	}
}
