package io

import (
	"fmt"
	"io"
)

// Tape writes printed values to an io.Writer.
// Numbers are written in decimal followed by a newline; characters are
// written as-is.
type Tape struct {
	Output io.Writer

	Count int // Values written since the last Rewind.
}

var _ Channel = (*Tape)(nil)

// Rewind clears the output counter.
func (tc *Tape) Rewind() {
	tc.Count = 0
}

// Send writes value in decimal, followed by a newline.
func (tc *Tape) Send(value byte) (err error) {
	if tc.Output == nil {
		err = ErrChannelClosed
		return
	}

	_, err = fmt.Fprintf(tc.Output, "%d\n", value)
	if err != nil {
		return
	}

	tc.Count++
	return
}

// SendChar writes value as a single byte.
func (tc *Tape) SendChar(value byte) (err error) {
	if tc.Output == nil {
		err = ErrChannelClosed
		return
	}

	_, err = tc.Output.Write([]byte{value})
	if err != nil {
		return
	}

	tc.Count++
	return
}
