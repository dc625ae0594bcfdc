// Package io provides the output channels an ls8 CPU prints to.
//
// A Tape writes printed values to an io.Writer, one decimal number per line
// for PRN and the raw character for PRA. A Record keeps everything printed in
// memory so a caller can inspect the output sequence after a run.
package io

// Channel defines the interface for the ls8 output sink.
type Channel interface {
	// Send emits the numeric value of a register.
	Send(value byte) error
	// SendChar emits a register as a single character.
	SendChar(value byte) error
}
