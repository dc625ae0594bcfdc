package cpu

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strings"
)

// Line represents a line of source with its address and generated bytes.
type Line struct {
	LineNo    int
	Addr      int
	Words     []string
	Bytes     []byte
	LinkLabel string
}

// Program is a program image together with the source lines that produced it.
type Program struct {
	Lines []Line
}

type Debug struct {
	*Line
	Index int
}

// Debug returns the line that generated the byte at addr.
func (prog *Program) Debug(addr int) (dbg Debug) {
	for n, line := range prog.Lines {
		if addr >= line.Addr && addr < line.Addr+len(line.Bytes) {
			dbg = Debug{
				Line:  &prog.Lines[n],
				Index: addr - line.Addr,
			}
			break
		}
	}

	return
}

// Size returns the number of bytes in the program image.
func (prog *Program) Size() (size int) {
	for _, line := range prog.Lines {
		end := line.Addr + len(line.Bytes)
		if end > size {
			size = end
		}
	}

	return
}

// Binary returns the program image, to be loaded at address 0.
func (prog *Program) Binary() (image []byte) {
	image = make([]byte, prog.Size())
	for addr, value := range prog.Codes() {
		image[addr] = value
	}

	return
}

// Codes iterates over every address and byte of the program.
func (prog *Program) Codes() iter.Seq2[int, byte] {
	return func(yield func(addr int, value byte) bool) {
		for _, line := range prog.Lines {
			for n, value := range line.Bytes {
				if !yield(line.Addr+n, value) {
					return
				}
			}
		}
	}
}

// WriteTo writes the program in the .ls8 format: one binary byte per line,
// with the source words as a comment on the first byte of each line.
func (prog *Program) WriteTo(w io.Writer) (n int64, err error) {
	bw := bufio.NewWriter(w)
	count := func(c int, err error) error {
		n += int64(c)
		return err
	}

	for _, line := range prog.Lines {
		for i, value := range line.Bytes {
			text := fmt.Sprintf("%08b", value)
			if i == 0 && len(line.Words) > 0 {
				text += " # " + strings.Join(line.Words, " ")
			}
			err = count(bw.WriteString(text + "\n"))
			if err != nil {
				return
			}
		}
	}

	err = bw.Flush()
	return
}

// Instructions decodes the program image from address 0, yielding each
// instruction with its address. Bytes that are not opcodes are yielded as
// an instruction without operands.
func (prog *Program) Instructions() iter.Seq2[int, Instruction] {
	return func(yield func(addr int, in Instruction) bool) {
		image := prog.Binary()
		for addr := 0; addr < len(image); {
			op, operands, err := Decode(image[addr])
			in := Instruction{Op: op}
			if err == nil && operands > 0 {
				end := min(addr+1+operands, len(image))
				in.Operands = image[addr+1 : end]
			}
			if !yield(addr, in) {
				return
			}
			addr += in.Size()
		}
	}
}
