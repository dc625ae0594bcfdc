package cpu

import (
	"errors"

	"github.com/ezrec/ls8/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrHalted         = errors.New(f("cpu halted"))
	ErrTickLimit      = errors.New(f("instruction limit reached"))
	ErrOutOfBounds    = errors.New(f("address out of bounds"))
	ErrStackEmpty     = errors.New(f("stack empty"))
	ErrStackFull      = errors.New(f("stack full"))
	ErrDivideByZero   = errors.New(f("divide by zero"))
	ErrChannelInvalid = errors.New(f("channel invalid"))

	// Instruction decode errors
	ErrOpcodeDecode    = errors.New(f("decode"))
	ErrOpcodeAlu       = errors.New(f("alu"))
	ErrOpcodeArg1      = errors.New(f("arg1"))
	ErrOpcodeArg2      = errors.New(f("arg2"))
	ErrRegisterInvalid = errors.New(f("register invalid"))

	// Loader errors
	ErrProgramTooLarge = errors.New(f("program too large"))
	ErrLineExtraWords  = errors.New(f("excessive words"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
)

// ErrOpcode reports an opcode byte that is not in the instruction table.
type ErrOpcode byte

func (eo ErrOpcode) Error() string {
	return f("bad opcode 0x%02x", byte(eo))
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	if err == ErrOpcodeDecode {
		return true
	}
	_, ok = err.(ErrOpcode)
	return
}

// ErrExecute locates an error raised while executing an instruction.
type ErrExecute struct {
	Pc          int
	Instruction Instruction
	Err         error
}

func (err *ErrExecute) Error() string {
	return f("pc 0x%02x %v: %v", err.Pc, err.Instruction.String(), err.Err)
}

func (err *ErrExecute) Unwrap() error {
	return err.Err
}

// ErrAddress reports a memory access outside of the address space.
type ErrAddress int

func (ea ErrAddress) Error() string {
	return f("address %d out of range", int(ea))
}

func (ea ErrAddress) Unwrap() error {
	return ErrOutOfBounds
}

// ErrRegister reports a register operand greater than R7.
type ErrRegister byte

func (er ErrRegister) Error() string {
	return f("register %d invalid", byte(er))
}

func (er ErrRegister) Unwrap() error {
	return ErrRegisterInvalid
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseBinary string

func (err ErrParseBinary) Error() string {
	return f("'%v' is not an 8-bit binary literal", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
