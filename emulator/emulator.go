// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"log"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/io"
)

// CONTEXT_TICKS is how many instructions RunContext executes between
// checks of its context.
const CONTEXT_TICKS = 1024

// Reason describes why a run stopped.
//
//go:generate go tool stringer -linecomment -type=Reason
type Reason int

const (
	HALT_INSTRUCTION = Reason(iota) // halt
	HALT_FAULT                      // fault
	HALT_ERROR                      // error
)

// Report is the outcome of a run.
type Report struct {
	State  cpu.State // Final machine state.
	Reason Reason    // Why the run stopped.
	Fault  error     // Arithmetic fault, if Reason is HALT_FAULT.
}

// Emulator state. CPU + program listing + output tape.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently loaded program listing.
	Limit    int          // Instruction ceiling for Run. Zero is unlimited.

	Tape io.Tape // Default output channel.
}

// NewEmulator creates a new emulator, printing to its Tape.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
	}

	emu.Cpu.Output = &emu.Tape

	return
}

// Load replaces the program, and resets the emulator.
func (emu *Emulator) Load(prog *cpu.Program) (err error) {
	emu.Program = prog
	err = emu.Reset()
	return
}

// Reset the CPU, and load the program image at address 0.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()

	if emu.Program == nil {
		return
	}

	image := emu.Program.Binary()
	err = emu.Cpu.Memory.Load(0, image)
	if err != nil {
		return
	}

	if emu.Verbose {
		log.Printf("emulator: loaded %d bytes", len(image))
	}

	return
}

// LineNo returns the source line number of the instruction at the PC,
// or 0 if the PC is not inside the program listing.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Line == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single instruction of the emulator.
// done is set once the CPU has halted.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	if emu.Cpu.Halted {
		done = true
		return
	}

	lineno := emu.LineNo()
	addr := emu.Cpu.Pc
	defer func() {
		if err != nil {
			err = &ErrRuntime{
				LineNo: lineno,
				Addr:   addr,
				State:  emu.Cpu.Snapshot(),
				Err:    err,
			}
		}
	}()

	if emu.Limit > 0 && emu.Cpu.Ticks >= emu.Limit {
		err = cpu.ErrTickLimit
		return
	}

	err = emu.Cpu.Tick()
	if err != nil {
		return
	}

	done = emu.Cpu.Halted

	return
}

// Run ticks the emulator until the CPU halts, a fatal error occurs,
// or the instruction ceiling is reached.
// The report holds the final state in every case.
func (emu *Emulator) Run() (report Report, err error) {
	return emu.RunContext(context.Background())
}

// RunContext is Run, also stopping with the context error once ctx is done.
// The context is checked every CONTEXT_TICKS instructions.
func (emu *Emulator) RunContext(ctx context.Context) (report Report, err error) {
	defer func() {
		report.State = emu.Cpu.Snapshot()
		if err != nil {
			report.Reason = HALT_ERROR
			report.Fault = nil
		}
	}()

	for n, done := 0, false; !done; n++ {
		if n%CONTEXT_TICKS == 0 && ctx.Err() != nil {
			err = &ErrRuntime{
				LineNo: emu.LineNo(),
				Addr:   emu.Cpu.Pc,
				State:  emu.Cpu.Snapshot(),
				Err:    ctx.Err(),
			}
			return
		}
		done, err = emu.Tick()
		if err != nil {
			return
		}
	}

	report.Reason = HALT_INSTRUCTION
	if emu.Cpu.Fault != nil {
		report.Reason = HALT_FAULT
		report.Fault = emu.Cpu.Fault
	}

	if emu.Verbose {
		log.Printf("emulator: %v after %d instructions", report.Reason, emu.Cpu.Ticks)
	}

	return
}
