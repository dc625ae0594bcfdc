package cpu

import (
	"fmt"
	"strings"
)

// Op is an instruction opcode byte.
//
// The LS-8 opcode layout is AABCDDDD:
//   - AA: number of operand bytes that follow (0, 1 or 2)
//   - B: 1 if the instruction is an ALU operation
//   - C: 1 if the instruction sets the PC
//   - DDDD: instruction identifier
type Op byte

const (
	OP_NOP  = Op(0b0000_0000) // nop
	OP_HLT  = Op(0b0000_0001) // hlt
	OP_RET  = Op(0b0001_0001) // ret
	OP_PUSH = Op(0b0100_0101) // push
	OP_POP  = Op(0b0100_0110) // pop
	OP_PRN  = Op(0b0100_0111) // prn
	OP_PRA  = Op(0b0100_1000) // pra
	OP_CALL = Op(0b0101_0000) // call
	OP_JMP  = Op(0b0101_0100) // jmp
	OP_JEQ  = Op(0b0101_0101) // jeq
	OP_JNE  = Op(0b0101_0110) // jne
	OP_JGT  = Op(0b0101_0111) // jgt
	OP_JLT  = Op(0b0101_1000) // jlt
	OP_JLE  = Op(0b0101_1001) // jle
	OP_JGE  = Op(0b0101_1010) // jge
	OP_INC  = Op(0b0110_0101) // inc
	OP_DEC  = Op(0b0110_0110) // dec
	OP_NOT  = Op(0b0110_1001) // not
	OP_LDI  = Op(0b1000_0010) // ldi
	OP_LD   = Op(0b1000_0011) // ld
	OP_ST   = Op(0b1000_0100) // st
	OP_ADD  = Op(0b1010_0000) // add
	OP_SUB  = Op(0b1010_0001) // sub
	OP_MUL  = Op(0b1010_0010) // mul
	OP_DIV  = Op(0b1010_0011) // div
	OP_MOD  = Op(0b1010_0100) // mod
	OP_CMP  = Op(0b1010_0111) // cmp
	OP_AND  = Op(0b1010_1000) // and
	OP_OR   = Op(0b1010_1010) // or
	OP_XOR  = Op(0b1010_1011) // xor
	OP_SHL  = Op(0b1010_1100) // shl
	OP_SHR  = Op(0b1010_1101) // shr
)

// Operand kinds, used by the assembler and disassembler.
type Operand int

const (
	ARG_REG = Operand(0) // register index
	ARG_IMM = Operand(1) // immediate byte
)

// opInfo describes a recognized opcode.
type opInfo struct {
	Name string
	Args []Operand
}

// opTable is the closed table of recognized opcodes.
var opTable = map[Op]opInfo{
	OP_NOP:  {"NOP", nil},
	OP_HLT:  {"HLT", nil},
	OP_RET:  {"RET", nil},
	OP_PUSH: {"PUSH", []Operand{ARG_REG}},
	OP_POP:  {"POP", []Operand{ARG_REG}},
	OP_PRN:  {"PRN", []Operand{ARG_REG}},
	OP_PRA:  {"PRA", []Operand{ARG_REG}},
	OP_CALL: {"CALL", []Operand{ARG_REG}},
	OP_JMP:  {"JMP", []Operand{ARG_REG}},
	OP_JEQ:  {"JEQ", []Operand{ARG_REG}},
	OP_JNE:  {"JNE", []Operand{ARG_REG}},
	OP_JGT:  {"JGT", []Operand{ARG_REG}},
	OP_JLT:  {"JLT", []Operand{ARG_REG}},
	OP_JLE:  {"JLE", []Operand{ARG_REG}},
	OP_JGE:  {"JGE", []Operand{ARG_REG}},
	OP_INC:  {"INC", []Operand{ARG_REG}},
	OP_DEC:  {"DEC", []Operand{ARG_REG}},
	OP_NOT:  {"NOT", []Operand{ARG_REG}},
	OP_LDI:  {"LDI", []Operand{ARG_REG, ARG_IMM}},
	OP_LD:   {"LD", []Operand{ARG_REG, ARG_REG}},
	OP_ST:   {"ST", []Operand{ARG_REG, ARG_REG}},
	OP_ADD:  {"ADD", []Operand{ARG_REG, ARG_REG}},
	OP_SUB:  {"SUB", []Operand{ARG_REG, ARG_REG}},
	OP_MUL:  {"MUL", []Operand{ARG_REG, ARG_REG}},
	OP_DIV:  {"DIV", []Operand{ARG_REG, ARG_REG}},
	OP_MOD:  {"MOD", []Operand{ARG_REG, ARG_REG}},
	OP_CMP:  {"CMP", []Operand{ARG_REG, ARG_REG}},
	OP_AND:  {"AND", []Operand{ARG_REG, ARG_REG}},
	OP_OR:   {"OR", []Operand{ARG_REG, ARG_REG}},
	OP_XOR:  {"XOR", []Operand{ARG_REG, ARG_REG}},
	OP_SHL:  {"SHL", []Operand{ARG_REG, ARG_REG}},
	OP_SHR:  {"SHR", []Operand{ARG_REG, ARG_REG}},
}

// opByName maps upper-case mnemonics back to opcodes.
var opByName = func() map[string]Op {
	names := make(map[string]Op, len(opTable))
	for op, info := range opTable {
		names[info.Name] = op
	}
	return names
}()

// Operands returns the number of operand bytes that follow the opcode.
func (op Op) Operands() int {
	return int((op >> 6) & 0b11)
}

// Alu returns true if the opcode is handled by the ALU.
func (op Op) Alu() bool {
	return (op>>5)&1 == 1
}

// SetsPc returns true if the opcode may assign the program counter.
func (op Op) SetsPc() bool {
	return (op>>4)&1 == 1
}

// Valid returns true if the opcode is in the instruction table.
func (op Op) Valid() bool {
	_, ok := opTable[op]
	return ok
}

// Args returns the operand kinds of a recognized opcode.
func (op Op) Args() []Operand {
	return opTable[op].Args
}

// String returns the mnemonic of the opcode.
func (op Op) String() string {
	info, ok := opTable[op]
	if !ok {
		return fmt.Sprintf("Op(0x%02x)", byte(op))
	}
	return info.Name
}

// LookupOp returns the opcode for a mnemonic, in any case.
func LookupOp(name string) (op Op, ok bool) {
	op, ok = opByName[strings.ToUpper(name)]
	return
}

// Decode maps an opcode byte to its operation and operand count.
// Bytes not in the instruction table are an ErrOpcode.
func Decode(code byte) (op Op, operands int, err error) {
	op = Op(code)
	operands = op.Operands()
	if !op.Valid() {
		err = ErrOpcode(code)
	}
	return
}

// Instruction is a decoded opcode with its operand bytes.
type Instruction struct {
	Op       Op
	Operands []byte
}

// Size returns the number of bytes the instruction occupies in memory.
func (in Instruction) Size() int {
	return 1 + len(in.Operands)
}

// Bytes returns the memory encoding of the instruction.
func (in Instruction) Bytes() []byte {
	return append([]byte{byte(in.Op)}, in.Operands...)
}

// String returns the assembly language representation of the instruction.
func (in Instruction) String() string {
	args := in.Op.Args()
	words := make([]string, len(in.Operands))
	for n, value := range in.Operands {
		if n < len(args) && args[n] == ARG_REG {
			words[n] = fmt.Sprintf("R%d", value)
		} else {
			words[n] = fmt.Sprintf("%d", value)
		}
	}

	if len(words) == 0 {
		return in.Op.String()
	}

	return in.Op.String() + " " + strings.Join(words, ",")
}
