package cpu

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ezrec/ls8/io"
)

// Channel is the output channel written by PRN and PRA.
type Channel io.Channel

// Cpu is the simulation context for the LS-8 processor.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Memory   Memory    // Main memory.
	Register Registers // Register bank. R7 is the stack pointer.
	Flags    Flags     // Result of the last CMP.
	Pc       int       // Address of the next instruction to fetch.
	Halted   bool      // Set by HLT, or by an arithmetic fault.
	Fault    error     // Arithmetic fault that halted the CPU, if any.

	Ticks int // Instructions executed since reset.

	Output Channel // Output channel for PRN and PRA.
}

// NewCpu creates a new CPU in its reset state.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}
	cpu.Reset()

	return
}

// Reset the CPU state.
// - Clears memory, registers and flags.
// - Points the stack pointer at STACK_INIT and the PC at 0.
// - Zeros the tick counter.
// - Rewinds the output channel, if it supports rewinding.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.Memory.Reset()
	cpu.Register.Reset()
	cpu.Flags = 0
	cpu.Pc = 0
	cpu.Halted = false
	cpu.Fault = nil
	cpu.Ticks = 0

	if rw, ok := cpu.Output.(interface{ Rewind() }); ok {
		rw.Rewind()
	}
}

// Stack returns the stack view addressed by the stack pointer.
func (cpu *Cpu) Stack() Stack {
	return Stack{Memory: &cpu.Memory, Pointer: &cpu.Register[REG_SP]}
}

// String returns the current CPU state as a single trace line:
// the PC, the three bytes at the PC, the flags, and the register bank.
func (cpu *Cpu) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%02X |", cpu.Pc)
	for n := range 3 {
		value, err := cpu.Memory.Read(cpu.Pc + n)
		if err != nil {
			sb.WriteString(" --")
		} else {
			fmt.Fprintf(&sb, " %02X", value)
		}
	}
	fmt.Fprintf(&sb, " | %-3v |", cpu.Flags)
	for _, value := range cpu.Register {
		fmt.Fprintf(&sb, " %02X", value)
	}

	return sb.String()
}

// Fetch reads and decodes the instruction at the PC.
func (cpu *Cpu) Fetch() (in Instruction, err error) {
	code, err := cpu.Memory.Read(cpu.Pc)
	if err != nil {
		return
	}

	op, operands, err := Decode(code)
	if err != nil {
		return
	}

	in.Op = op
	if operands > 0 {
		in.Operands = make([]byte, operands)
	}
	for n := range operands {
		in.Operands[n], err = cpu.Memory.Read(cpu.Pc + 1 + n)
		if err != nil {
			return
		}
	}

	return
}

// Tick executes a single CPU instruction cycle.
func (cpu *Cpu) Tick() (err error) {
	if cpu.Halted {
		err = ErrHalted
		return
	}

	in, err := cpu.Fetch()
	if err != nil {
		return
	}

	err = cpu.Execute(in)

	return
}

// Run ticks the CPU until it halts.
// If limit is non-zero, at most limit instructions are executed before
// ErrTickLimit is returned.
func (cpu *Cpu) Run(limit int) (err error) {
	for !cpu.Halted {
		if limit > 0 && cpu.Ticks >= limit {
			err = ErrTickLimit
			return
		}
		err = cpu.Tick()
		if err != nil {
			return
		}
	}

	return
}

// Execute executes a single decoded instruction.
func (cpu *Cpu) Execute(in Instruction) (err error) {
	defer func() {
		if err != nil {
			err = &ErrExecute{Pc: cpu.Pc, Instruction: in, Err: err}
		}
	}()

	if cpu.Verbose {
		log.Printf("%v | %v", cpu, in)
	}

	if !in.Op.Valid() {
		err = ErrOpcode(in.Op)
		return
	}

	if len(in.Operands) != in.Op.Operands() {
		err = ErrOpcodeDecode
		return
	}

	next_pc := cpu.Pc + in.Size()

	// Operand bytes. Unused operands are zero.
	var a, b byte
	if len(in.Operands) > 0 {
		a = in.Operands[0]
	}
	if len(in.Operands) > 1 {
		b = in.Operands[1]
	}

	switch in.Op {
	case OP_NOP:
		// pass
	case OP_HLT:
		cpu.Halted = true
	case OP_LDI:
		err = cpu.Register.Set(a, b)
	case OP_LD:
		var addr, value byte
		addr, err = cpu.Register.Get(b)
		if err != nil {
			err = errors.Join(ErrOpcodeArg2, err)
			return
		}
		value, err = cpu.Memory.Read(int(addr))
		if err != nil {
			return
		}
		err = cpu.Register.Set(a, value)
	case OP_ST:
		var addr, value byte
		addr, err = cpu.Register.Get(a)
		if err != nil {
			err = errors.Join(ErrOpcodeArg1, err)
			return
		}
		value, err = cpu.Register.Get(b)
		if err != nil {
			err = errors.Join(ErrOpcodeArg2, err)
			return
		}
		err = cpu.Memory.Write(int(addr), value)
	case OP_PRN, OP_PRA:
		var value byte
		value, err = cpu.Register.Get(a)
		if err != nil {
			return
		}
		if cpu.Output == nil {
			err = ErrChannelInvalid
			return
		}
		if in.Op == OP_PRN {
			err = cpu.Output.Send(value)
		} else {
			err = cpu.Output.SendChar(value)
		}
	case OP_PUSH:
		var value byte
		value, err = cpu.Register.Get(a)
		if err != nil {
			return
		}
		err = cpu.Stack().Push(value)
	case OP_POP:
		// Validate the destination before the stack pointer moves.
		_, err = cpu.Register.Get(a)
		if err != nil {
			return
		}
		var value byte
		value, err = cpu.Stack().Pop()
		if err != nil {
			return
		}
		err = cpu.Register.Set(a, value)
	case OP_CALL:
		var target byte
		target, err = cpu.Register.Get(a)
		if err != nil {
			return
		}
		if next_pc >= MEMORY_SIZE {
			err = ErrAddress(next_pc)
			return
		}
		err = cpu.Stack().Push(byte(next_pc))
		if err != nil {
			return
		}
		next_pc = int(target)
	case OP_RET:
		var target byte
		target, err = cpu.Stack().Pop()
		if err != nil {
			return
		}
		next_pc = int(target)
	case OP_JMP, OP_JEQ, OP_JNE, OP_JGT, OP_JLT, OP_JLE, OP_JGE:
		var target byte
		target, err = cpu.Register.Get(a)
		if err != nil {
			return
		}
		if cpu.branchTaken(in.Op) {
			next_pc = int(target)
		}
	case OP_CMP:
		var va, vb byte
		va, vb, err = cpu.getPair(a, b)
		if err != nil {
			return
		}
		cpu.Flags = Compare(va, vb)
	case OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_MOD,
		OP_AND, OP_OR, OP_XOR, OP_SHL, OP_SHR,
		OP_INC, OP_DEC, OP_NOT:
		var va, vb, out byte
		if in.Op.Operands() == 2 {
			va, vb, err = cpu.getPair(a, b)
		} else {
			va, err = cpu.Register.Get(a)
		}
		if err != nil {
			err = errors.Join(ErrOpcodeAlu, err)
			return
		}
		out, err = Alu(in.Op, va, vb)
		if errors.Is(err, ErrDivideByZero) {
			// Controlled halt at the faulting instruction.
			log.Printf("cpu: %02x: %v: %v", cpu.Pc, in, err)
			cpu.Halted = true
			cpu.Fault = err
			cpu.Ticks++
			err = nil
			return
		}
		if err != nil {
			return
		}
		err = cpu.Register.Set(a, out)
	default:
		err = ErrOpcode(in.Op)
	}

	if err != nil {
		return
	}

	cpu.Pc = next_pc
	cpu.Ticks++

	return
}

// getPair gets the values of two register operands.
func (cpu *Cpu) getPair(a, b byte) (va, vb byte, err error) {
	va, err = cpu.Register.Get(a)
	if err != nil {
		err = errors.Join(ErrOpcodeArg1, err)
		return
	}
	vb, err = cpu.Register.Get(b)
	if err != nil {
		err = errors.Join(ErrOpcodeArg2, err)
		return
	}

	return
}

// branchTaken evaluates the jump condition of op against the flags.
func (cpu *Cpu) branchTaken(op Op) bool {
	fl := cpu.Flags
	switch op {
	case OP_JMP:
		return true
	case OP_JEQ:
		return fl.Has(FLAG_EQ)
	case OP_JNE:
		return !fl.Has(FLAG_EQ)
	case OP_JGT:
		return fl.Has(FLAG_GT)
	case OP_JLT:
		return fl.Has(FLAG_LT)
	case OP_JLE:
		return fl.Has(FLAG_LT) || fl.Has(FLAG_EQ)
	case OP_JGE:
		return fl.Has(FLAG_GT) || fl.Has(FLAG_EQ)
	}

	return false
}
