// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":      "0",
	"MEMORY_SIZE": fmt.Sprintf("%d", MEMORY_SIZE),
	"STACK_INIT":  fmt.Sprintf("%#x", STACK_INIT),
	"FLAG_EQ":     fmt.Sprintf("%#x", byte(FLAG_EQ)),
	"FLAG_GT":     fmt.Sprintf("%#x", byte(FLAG_GT)),
	"FLAG_LT":     fmt.Sprintf("%#x", byte(FLAG_LT)),
}

// Assembler is a single pass assembler for the LS-8 system.
//
// Source lines look like:
//
//	; comment
//	Label: LDI R0,$(COUNT - 1)  ; instruction with operands
//	.equ COUNT 5                 ; equate
//	db 'H', 'i', 0               ; data bytes
//	ds 4                         ; reserved zero bytes
//
// Labels used before they are defined are linked after the pass.
type Assembler struct {
	Verbose bool   // If set, verbosely logs the assembler actions.
	Lines   []Line // List of generated lines.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of labels to addresses.
	Equate    map[string]string // Map of equates.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// regMap is a map of register names to register indexes.
var regMap = map[string]byte{
	"r0": 0,
	"r1": 1,
	"r2": 2,
	"r3": 3,
	"r4": 4,
	"r5": 5,
	"r6": 6,
	"r7": 7,
	"sp": REG_SP,
}

var reIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// valueOf returns the value of a simple numeric word.
// Negative values down to -128 are stored in two's complement.
func (asm *Assembler) valueOf(word string) (value byte, err error) {
	invert := false
	if strings.HasPrefix(word, "~") {
		invert = true
		word = word[1:]
	}

	v64, err := strconv.ParseInt(word, 0, 16)
	if err != nil || v64 < -128 || v64 > 0xff {
		err = ErrParseNumber(word)
		return
	}

	value = byte(v64)
	if invert {
		value = ^value
	}

	return
}

// immediate returns the value of an operand word, or the label to link
// if the word names a label not defined yet.
func (asm *Assembler) immediate(word string) (value byte, link string, err error) {
	if equate, ok := asm.Equate[word]; ok {
		word = equate
	}

	if addr, ok := asm.Label[word]; ok {
		value = byte(addr)
		return
	}

	if reIdentifier.MatchString(word) {
		if _, ok := regMap[strings.ToLower(word)]; !ok {
			link = word
			return
		}
	}

	value, err = asm.valueOf(word)
	return
}

// register returns the register index of an operand word.
func (asm *Assembler) register(word string) (reg byte, err error) {
	if equate, ok := asm.Equate[word]; ok {
		word = equate
	}

	reg, ok := regMap[strings.ToLower(word)]
	if !ok {
		err = ErrRegisterInvalid
		return
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		v64, perr := strconv.ParseInt(str, 0, 64)
		if perr != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(addr)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

var (
	reCharacter  = regexp.MustCompile(`'\\?[^']'`)
	reExpression = regexp.MustCompile(`\$\([^\$]*\)`)
)

// parseLine parses a single line into a mnemonic and its operands.
// Labels and equates are consumed here.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "0":
				str = "\x00"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reExpression.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	fields := strings.Fields(line)

	for len(fields) > 0 && strings.HasSuffix(fields[0], ":") {
		label := strings.TrimSuffix(fields[0], ":")
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		asm.Label[label] = asm.currentAddr()
		fields = fields[1:]
	}

	if len(fields) == 0 {
		return
	}

	// .equ CONST VALUE
	if fields[0] == ".equ" {
		if len(fields) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[fields[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[fields[1]] = fields[2]
		return
	}

	words = []string{fields[0]}
	for _, part := range strings.Split(strings.Join(fields[1:], " "), ",") {
		words = append(words, strings.Fields(part)...)
	}

	return
}

// currentAddr gets the address of the next generated byte.
func (asm *Assembler) currentAddr() int {
	if len(asm.Lines) == 0 {
		return 0
	}

	last := asm.Lines[len(asm.Lines)-1]

	return last.Addr + len(last.Bytes)
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Lines = nil
	asm.Label = make(map[string]int, 16)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		code, _, _ := strings.Cut(text, ";")
		line = strings.TrimSpace(code)

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}

		if asm.currentAddr() > MEMORY_SIZE {
			err = ErrProgramTooLarge
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	// Final linking of labels.
	for n := range asm.Lines {
		ln := &asm.Lines[n]

		if len(ln.LinkLabel) == 0 {
			continue
		}
		label := ln.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			lineno = ln.LineNo
			line = strings.Join(ln.Words, " ")
			err = ErrLabelMissing(label)
			return
		}
		ln.Bytes[len(ln.Bytes)-1] = byte(addr)
	}

	prog = &Program{
		Lines: asm.Lines,
	}

	return
}

// parseWords generates the bytes of a mnemonic and its operands.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []byte
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	defer func() {
		if err != nil || len(codes) == 0 {
			return
		}
		ln := Line{LineNo: lineno, Addr: asm.currentAddr(), Words: words, Bytes: codes, LinkLabel: label}
		asm.Lines = append(asm.Lines, ln)
	}()

	args := words[1:]

	switch strings.ToLower(words[0]) {
	case "db":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for n, arg := range args {
			var value byte
			var link string
			value, link, err = asm.immediate(arg)
			if err != nil {
				return
			}
			if len(link) != 0 {
				// Only the final byte of a line can be linked.
				if n != len(args)-1 {
					err = ErrLabelMissing(link)
					return
				}
				label = link
			}
			codes = append(codes, value)
		}
	case "ds":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > 1 {
			err = ErrOpcodeExtraArgs
			return
		}
		var value byte
		value, err = asm.valueOf(args[0])
		if err != nil {
			return
		}
		codes = make([]byte, value)
	default:
		op, ok := LookupOp(words[0])
		if !ok {
			err = ErrInstructionInvalid
			return
		}
		kinds := op.Args()
		if len(args) < len(kinds) {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > len(kinds) {
			err = ErrOpcodeExtraArgs
			return
		}
		codes = append(codes, byte(op))
		for n, kind := range kinds {
			var value byte
			switch kind {
			case ARG_REG:
				value, err = asm.register(args[n])
			case ARG_IMM:
				value, label, err = asm.immediate(args[n])
			}
			if err != nil {
				return
			}
			codes = append(codes, value)
		}
	}

	return
}
