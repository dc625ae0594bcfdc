package cpu

const (
	MEMORY_SIZE = 256 // Bytes of addressable memory.
)

// Memory is the flat byte store of the LS-8.
// Every access is bounds checked; addresses never wrap.
type Memory [MEMORY_SIZE]byte

// Read returns the byte at addr.
func (mem *Memory) Read(addr int) (value byte, err error) {
	if addr < 0 || addr >= len(mem) {
		err = ErrAddress(addr)
		return
	}

	value = mem[addr]
	return
}

// Write stores value at addr.
func (mem *Memory) Write(addr int, value byte) (err error) {
	if addr < 0 || addr >= len(mem) {
		err = ErrAddress(addr)
		return
	}

	mem[addr] = value
	return
}

// Load copies image into memory starting at addr.
func (mem *Memory) Load(addr int, image []byte) (err error) {
	if len(image) == 0 {
		return
	}

	end := addr + len(image) - 1
	if addr < 0 || end >= len(mem) {
		if addr >= 0 {
			addr = end
		}
		err = ErrAddress(addr)
		return
	}

	copy(mem[addr:], image)
	return
}

// Reset zeroes all of memory.
func (mem *Memory) Reset() {
	clear(mem[:])
}
