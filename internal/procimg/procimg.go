// Package procimg defines the collaborator boundary spec.md §1 draws
// around the instruction loader and opcode interpreter: this package
// specifies only the interface the core consumes (a process carries a
// code section and executes one instruction per call to Run) and
// ships one trivial implementation, NullProgram/NullLoader/NullRunner,
// so the rest of the simulator is runnable and testable without a
// real interpreter.
package procimg

// Program is an immutable code section: the thing a PCB's program
// counter walks.
type Program interface {
	// Size reports the number of instructions in the program. A
	// process has finished once its PC reaches Size.
	Size() int
}

// Proc is the minimal view of a PCB the instruction runner needs.
type Proc interface {
	PID() int
	PC() int
	SetPC(int)
	Program() Program
}

// Runner executes exactly one instruction of proc's program, advancing
// its program counter. This is the out-of-scope "run" collaborator
// named in spec.md §2's data-flow summary ("dispatch it ... call
// run once").
type Runner interface {
	Run(proc Proc) error
}

// Loader resolves a program name (as found in a config file's process
// line) to a loaded Program. This is the out-of-scope "instruction
// loader" collaborator named in spec.md §1.
type Loader interface {
	Load(name string) (Program, error)
}

// NullProgram is a fixed-size program with no opcodes: every
// instruction is a no-op that merely advances the PC. It exists so a
// complete core (paging + scheduling + time-slot driver) is runnable
// end to end without a real interpreter, per spec.md §1's explicit
// carve-out.
type NullProgram struct {
	size int
}

// NewNullProgram builds a NullProgram of the given instruction count.
func NewNullProgram(size int) NullProgram { return NullProgram{size: size} }

func (p NullProgram) Size() int { return p.size }

// NullLoader loads every program name as a NullProgram of a fixed
// size, ignoring the name entirely (no program file is actually
// read): the real instruction loader is out of scope, per spec.md §1.
type NullLoader struct {
	Size int
}

func (l NullLoader) Load(name string) (Program, error) {
	return NewNullProgram(l.Size), nil
}

// NullRunner executes one no-op instruction per call: it advances
// proc's PC by one, stopping at Program().Size().
type NullRunner struct{}

func (NullRunner) Run(proc Proc) error {
	if proc.PC() < proc.Program().Size() {
		proc.SetPC(proc.PC() + 1)
	}
	return nil
}
