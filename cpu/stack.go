package cpu

import (
	"errors"
)

// Stack is a view of the downward-growing stack held in Memory.
// Pointer refers to the stack pointer register.
type Stack struct {
	Memory  *Memory
	Pointer *byte
}

// Push decrements the stack pointer, then stores value at the new address.
// Returns ErrStackFull if the pointer is already at address 0.
func (s Stack) Push(value byte) (err error) {
	if *s.Pointer == 0 {
		err = errors.Join(ErrStackFull, ErrAddress(-1))
		return
	}

	sp := int(*s.Pointer) - 1
	err = s.Memory.Write(sp, value)
	if err != nil {
		return
	}

	*s.Pointer = byte(sp)
	return
}

// Pop loads the value at the stack pointer, then increments the pointer.
// Returns ErrStackEmpty if the increment would leave the address space.
func (s Stack) Pop() (value byte, err error) {
	sp := int(*s.Pointer)
	if sp+1 >= MEMORY_SIZE {
		err = errors.Join(ErrStackEmpty, ErrAddress(sp+1))
		return
	}

	value, err = s.Memory.Read(sp)
	if err != nil {
		return
	}

	*s.Pointer = byte(sp + 1)
	return
}

// Peek returns the value at the stack pointer without moving it.
func (s Stack) Peek() (value byte, ok bool) {
	if s.Empty() {
		return
	}

	return s.Memory[*s.Pointer], true
}

// Depth returns the number of bytes pushed below STACK_INIT.
// A stack pointer above STACK_INIT has a negative depth.
func (s Stack) Depth() int {
	return STACK_INIT - int(*s.Pointer)
}

// Empty returns true if nothing is pushed below STACK_INIT.
func (s Stack) Empty() bool {
	return s.Depth() <= 0
}

// Full returns true if another Push would leave the address space.
func (s Stack) Full() bool {
	return *s.Pointer == 0
}
