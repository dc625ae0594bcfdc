package cpu

import (
	"bufio"
	"io"
	"log"
	"strconv"
	"strings"
)

// Loader reads programs in the .ls8 text format.
//
// Each line holds one byte as a binary literal of up to eight digits.
// Everything after a '#' is a comment, and blank lines are ignored.
// Any other content is a syntax error for that line; nothing is skipped.
type Loader struct {
	Verbose bool // If set, verbosely logs the loaded bytes.
}

// Parse parses an input stream into a Program.
func (ld *Loader) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var text string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: text, Err: err}
			prog = nil
		}
	}()

	prog = &Program{}
	addr := 0

	for scanner.Scan() {
		text = scanner.Text()
		lineno += 1

		code, _, _ := strings.Cut(text, "#")
		words := strings.Fields(code)
		if len(words) == 0 {
			continue
		}
		if len(words) > 1 {
			err = ErrLineExtraWords
			return
		}

		var value byte
		value, err = parseBinary(words[0])
		if err != nil {
			return
		}

		if addr >= MEMORY_SIZE {
			err = ErrProgramTooLarge
			return
		}

		if ld.Verbose {
			log.Printf("load: %02x: %08b", addr, value)
		}

		prog.Lines = append(prog.Lines, Line{
			LineNo: lineno,
			Addr:   addr,
			Words:  words,
			Bytes:  []byte{value},
		})
		addr++
	}

	err = scanner.Err()
	return
}

// parseBinary parses a binary literal of one to eight digits.
func parseBinary(word string) (value byte, err error) {
	if len(word) == 0 || len(word) > 8 {
		err = ErrParseBinary(word)
		return
	}

	v64, err := strconv.ParseUint(word, 2, 8)
	if err != nil {
		err = ErrParseBinary(word)
		return
	}

	value = byte(v64)
	return
}
