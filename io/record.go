package io

// Record keeps printed values in memory.
// Values holds every number sent, Text every character, in order.
// A Capacity of zero means unlimited.
type Record struct {
	Capacity int // Maximum number of values and characters, combined.

	Values []byte
	Text   []byte
}

var _ Channel = (*Record)(nil)

// Rewind discards everything recorded so far.
func (rc *Record) Rewind() {
	rc.Values = nil
	rc.Text = nil
}

// Size returns the number of values and characters recorded.
func (rc *Record) Size() int {
	return len(rc.Values) + len(rc.Text)
}

func (rc *Record) full() bool {
	return rc.Capacity > 0 && rc.Size() >= rc.Capacity
}

// Send records a numeric value.
// Returns ErrChannelFull if the record has reached capacity.
func (rc *Record) Send(value byte) (err error) {
	if rc.full() {
		err = ErrChannelFull
		return
	}

	rc.Values = append(rc.Values, value)
	return
}

// SendChar records a character.
// Returns ErrChannelFull if the record has reached capacity.
func (rc *Record) SendChar(value byte) (err error) {
	if rc.full() {
		err = ErrChannelFull
		return
	}

	rc.Text = append(rc.Text, value)
	return
}

// String returns the recorded characters.
func (rc *Record) String() string {
	return string(rc.Text)
}
