package emulator

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/io"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.Equal(0, emu.Limit)
	assert.NotNil(emu.Cpu)
	assert.Equal(cpu.Channel(&emu.Tape), emu.Cpu.Output)
	assert.Equal(byte(cpu.STACK_INIT), emu.Cpu.Register[cpu.REG_SP])
	assert.Equal(0, emu.LineNo())
}

func assemble(t *testing.T, program []string) *cpu.Program {
	asm := &cpu.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}
	return prog
}

func doRunSingle(emu *Emulator, program []string, t *testing.T) (output string) {
	assert := assert.New(t)

	prog := assemble(t, program)
	err := emu.Load(prog)
	assert.NoError(err)

	tape_output := &bytes.Buffer{}
	emu.Tape.Output = tape_output

	// Straight line code: every listed instruction is executed once, in order.
	for _, line := range prog.Lines {
		here := program[line.LineNo-1]
		assert.Equal(line.LineNo, emu.LineNo(), here)
		assert.Equal(line.Addr, emu.Cpu.Pc, here)
		debug := emu.Program.Debug(emu.Cpu.Pc)
		assert.Equal(line.Bytes[0], debug.Bytes[debug.Index], here)

		done, err := emu.Tick()
		if err != nil {
			t.Log(emu.Cpu.String())
			t.Fatalf("%v", err)
		}
		assert.Equal(line.Words[0] == "HLT", done, here)
	}

	done, err := emu.Tick()
	assert.NoError(err)
	assert.True(done)

	output = tape_output.String()
	return
}

func TestEmulator_Single(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	program := []string{
		"LDI R0,8",
		"PRN R0",
		"LDI R1,'!'",
		"PRA R1",
		"LDI R1,'\\n'",
		"PRA R1",
		"HLT",
	}

	output := doRunSingle(emu, program, t)
	assert.Equal("8\n!\n", output)
	assert.Equal(7, emu.Cpu.Ticks)
	assert.Equal(3, emu.Tape.Count)
}

func TestEmulator_Run(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		".equ COUNT 3",
		"        LDI R0,COUNT",
		"        LDI R1,0",
		"        LDI R2,1",
		"        LDI R3,Done",
		"        LDI R4,Loop",
		"Loop:   CMP R0,R1",
		"        JEQ R3",
		"        PRN R0",
		"        SUB R0,R2",
		"        JMP R4",
		"Done:   HLT",
	}

	emu := NewEmulator()
	rec := &io.Record{}
	emu.Cpu.Output = rec

	err := emu.Load(assemble(t, program))
	assert.NoError(err)

	report, err := emu.Run()
	assert.NoError(err)
	assert.Equal(HALT_INSTRUCTION, report.Reason)
	assert.Nil(report.Fault)
	assert.Equal([]byte{3, 2, 1}, rec.Values)

	assert.True(report.State.Halted)
	assert.Equal(5+3*5+3, report.State.Ticks)
	assert.Equal(byte(cpu.STACK_INIT), report.State.Sp())

	// A reset reloads the image, and the run repeats exactly.
	first := report.State

	err = emu.Reset()
	assert.NoError(err)
	assert.Equal(0, rec.Size())

	report, err = emu.Run()
	assert.NoError(err)
	assert.Equal([]byte{3, 2, 1}, rec.Values)
	if diff := cmp.Diff(first, report.State); diff != "" {
		t.Errorf("repeat run mismatch (-first +second):\n%s", diff)
	}
}

func TestEmulator_Subroutine(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"        LDI R0,Double",
		"        LDI R1,21",
		"        CALL R0",
		"        PRN R1",
		"        HLT",
		"Double: PUSH R1",
		"        POP R2",
		"        ADD R1,R2",
		"        RET",
	}

	emu := NewEmulator()
	rec := &io.Record{}
	emu.Cpu.Output = rec

	err := emu.Load(assemble(t, program))
	assert.NoError(err)

	report, err := emu.Run()
	assert.NoError(err)
	assert.Equal(HALT_INSTRUCTION, report.Reason)
	assert.Equal([]byte{42}, rec.Values)
	assert.Equal(byte(cpu.STACK_INIT), report.State.Sp())
}

func TestEmulator_Loader(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"# print8",
		"10000010 # LDI R0,8",
		"00000000",
		"00001000",
		"01000111 # PRN R0",
		"00000000",
		"00000001 # HLT",
	}

	ld := &cpu.Loader{}
	prog, err := ld.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)

	emu := NewEmulator()
	out := &bytes.Buffer{}
	emu.Tape.Output = out

	err = emu.Load(prog)
	assert.NoError(err)
	assert.Equal(2, emu.LineNo())

	report, err := emu.Run()
	assert.NoError(err)
	assert.Equal(HALT_INSTRUCTION, report.Reason)
	assert.Equal("8\n", out.String())
	assert.Equal(3, report.State.Ticks)
}

func TestEmulator_Fault(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"LDI R0,1",
		"LDI R1,0",
		"DIV R0,R1",
		"HLT",
	}

	emu := NewEmulator()
	emu.Cpu.Output = &io.Record{}

	err := emu.Load(assemble(t, program))
	assert.NoError(err)

	report, err := emu.Run()
	assert.NoError(err)
	assert.Equal(HALT_FAULT, report.Reason)
	assert.ErrorIs(report.Fault, cpu.ErrDivideByZero)
	assert.Equal(6, report.State.Pc)
	assert.Equal(3, report.State.Ticks)
	assert.Equal(byte(1), report.State.Register[0])
	assert.Equal(3, emu.LineNo())

	// Once halted, the emulator stays done.
	done, err := emu.Tick()
	assert.NoError(err)
	assert.True(done)
}

func TestEmulator_Limit(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"      LDI R0,Loop",
		"Loop: JMP R0",
	}

	emu := NewEmulator()
	emu.Limit = 10

	err := emu.Load(assemble(t, program))
	assert.NoError(err)

	report, err := emu.Run()
	assert.ErrorIs(err, cpu.ErrTickLimit)
	assert.Equal(HALT_ERROR, report.Reason)
	assert.Nil(report.Fault)
	assert.Equal(10, report.State.Ticks)
	assert.False(report.State.Halted)

	var runtime *ErrRuntime
	if assert.True(errors.As(err, &runtime)) {
		assert.Equal(2, runtime.LineNo)
		assert.Equal(3, runtime.Addr)
		assert.Equal(10, runtime.State.Ticks)
		assert.Equal("line 2 "+cpu.ErrTickLimit.Error(), runtime.Error())
	}
}

func TestEmulator_RunContext(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"      LDI R0,Loop",
		"Loop: JMP R0",
	}

	emu := NewEmulator()

	err := emu.Load(assemble(t, program))
	assert.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := emu.RunContext(ctx)
	assert.ErrorIs(err, context.Canceled)
	assert.Equal(HALT_ERROR, report.Reason)
	assert.Equal(0, report.State.Ticks)

	var runtime *ErrRuntime
	if assert.True(errors.As(err, &runtime)) {
		assert.Equal(1, runtime.LineNo)
		assert.Equal(0, runtime.Addr)
	}

	// An endless loop stops once the deadline passes.
	ctx, cancel = context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	report, err = emu.RunContext(ctx)
	assert.ErrorIs(err, context.DeadlineExceeded)
	assert.Equal(HALT_ERROR, report.Reason)
	assert.False(report.State.Halted)
	assert.Positive(report.State.Ticks)
}

func TestEmulator_DecodeError(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"LDI R0,5",
		"db 0xff",
	}

	emu := NewEmulator()

	err := emu.Load(assemble(t, program))
	assert.NoError(err)

	report, err := emu.Run()
	assert.ErrorIs(err, cpu.ErrOpcodeDecode)
	assert.Equal(HALT_ERROR, report.Reason)
	assert.False(report.State.Halted)
	assert.ErrorIs(err, cpu.ErrOpcode(0xff))

	var runtime *ErrRuntime
	if assert.True(errors.As(err, &runtime)) {
		assert.Equal(2, runtime.LineNo)
		assert.Equal(3, runtime.Addr)

		want := emu.Cpu.Snapshot()
		want.Pc = 3
		want.Ticks = 1
		want.Register[0] = 5
		if diff := cmp.Diff(want, runtime.State); diff != "" {
			t.Errorf("error state mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestEmulator_RunOff(t *testing.T) {
	assert := assert.New(t)

	// Zeroed memory decodes as NOP, until the PC leaves memory.
	emu := NewEmulator()

	err := emu.Load(&cpu.Program{})
	assert.NoError(err)

	report, err := emu.Run()
	assert.ErrorIs(err, cpu.ErrOutOfBounds)
	assert.Equal(HALT_ERROR, report.Reason)
	assert.Equal(cpu.MEMORY_SIZE, report.State.Pc)
	assert.Equal(cpu.MEMORY_SIZE, report.State.Ticks)

	var runtime *ErrRuntime
	if assert.True(errors.As(err, &runtime)) {
		assert.Equal(0, runtime.LineNo)
		assert.Equal(cpu.MEMORY_SIZE, runtime.Addr)
	}
}

func TestEmulator_NoOutput(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	err := emu.Load(assemble(t, []string{"PRN R0"}))
	assert.NoError(err)

	// The default tape has no writer attached.
	_, err = emu.Run()
	assert.ErrorIs(err, io.ErrChannelClosed)
	assert.Equal(0, emu.Cpu.Pc)
}

func TestReason(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("halt", HALT_INSTRUCTION.String())
	assert.Equal("fault", HALT_FAULT.String())
	assert.Equal("error", HALT_ERROR.String())
	assert.Equal("Reason(9)", Reason(9).String())
}
