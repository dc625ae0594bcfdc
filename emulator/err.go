package emulator

import (
	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/translate"
)

var f = translate.From

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo int       // Source line of the failing instruction, or 0.
	Addr   int       // Address of the failing instruction.
	State  cpu.State // Machine state when the error was raised.
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("address 0x%02x %v", err.Addr, err.Err)
	}
	return f("line %d %v", err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
