package cpu

import (
	"strings"
)

const (
	REGISTERS  = 8    // Number of general-purpose registers.
	REG_SP     = 7    // Register reserved as the stack pointer.
	STACK_INIT = 0xf4 // Initial stack pointer, just below the top of memory.
)

// Registers is the general-purpose register bank.
type Registers [REGISTERS]byte

// Get returns the value of register reg.
func (regs *Registers) Get(reg byte) (value byte, err error) {
	if int(reg) >= len(regs) {
		err = ErrRegister(reg)
		return
	}

	value = regs[reg]
	return
}

// Set assigns value to register reg.
func (regs *Registers) Set(reg byte, value byte) (err error) {
	if int(reg) >= len(regs) {
		err = ErrRegister(reg)
		return
	}

	regs[reg] = value
	return
}

// Reset clears the bank and points the stack pointer at STACK_INIT.
func (regs *Registers) Reset() {
	clear(regs[:])
	regs[REG_SP] = STACK_INIT
}

// Flags records the outcome of the most recent CMP.
// The layout is 00000LGE.
type Flags byte

const (
	FLAG_EQ = Flags(0b001) // Equal
	FLAG_GT = Flags(0b010) // Greater than
	FLAG_LT = Flags(0b100) // Less than
)

// Compare returns the flags for a compared to b.
// Exactly one of the three flags is set.
func Compare(a, b byte) Flags {
	switch {
	case a == b:
		return FLAG_EQ
	case a > b:
		return FLAG_GT
	default:
		return FLAG_LT
	}
}

// Has returns true if all bits of mask are set.
func (fl Flags) Has(mask Flags) bool {
	return fl&mask == mask
}

// String returns the set flags, such as "E" or "L", or "-" if none.
func (fl Flags) String() string {
	var sb strings.Builder
	for _, bit := range []struct {
		flag Flags
		name string
	}{
		{FLAG_LT, "L"},
		{FLAG_GT, "G"},
		{FLAG_EQ, "E"},
	} {
		if fl.Has(bit.flag) {
			sb.WriteString(bit.name)
		}
	}

	if sb.Len() == 0 {
		return "-"
	}

	return sb.String()
}
