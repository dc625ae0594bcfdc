// Package cpu implements the processor, loader and assembler for the LS-8
// system.
//
// The CPU consists of a program counter (PC), eight 8-bit general-purpose
// registers (R0-R7, with R7 reserved as the stack pointer), 256 bytes of
// memory, an ALU, and a flags register written by CMP and read by the
// conditional jumps.
//
// Instructions are a single opcode byte followed by zero, one or two operand
// bytes. The top two bits of the opcode give the operand count.
//
// The loader reads the .ls8 text format of one binary byte per line. The
// assembler provides a small assembly language with labels, equates, data
// bytes, and compile-time expression evaluation.
package cpu
