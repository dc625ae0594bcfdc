package cpu

// State is a snapshot of the architectural state of the CPU.
type State struct {
	Pc       int
	Register Registers
	Flags    Flags
	Halted   bool
	Ticks    int
	Memory   Memory
}

// Snapshot returns a copy of the current CPU state.
func (cpu *Cpu) Snapshot() State {
	return State{
		Pc:       cpu.Pc,
		Register: cpu.Register,
		Flags:    cpu.Flags,
		Halted:   cpu.Halted,
		Ticks:    cpu.Ticks,
		Memory:   cpu.Memory,
	}
}

// Sp returns the stack pointer of the snapshot.
func (st State) Sp() byte {
	return st.Register[REG_SP]
}
