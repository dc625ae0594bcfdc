package cpu

// Alu performs the ALU operation op on a and b, and returns the result.
// All results are truncated to 8 bits. The unary operations (INC, DEC, NOT)
// ignore b.
//
// Division or modulo by zero returns ErrDivideByZero.
func Alu(op Op, a, b byte) (out byte, err error) {
	switch op {
	case OP_ADD: // add
		out = a + b
	case OP_SUB: // sub
		out = a - b
	case OP_MUL: // mul
		out = a * b
	case OP_DIV: // div
		if b == 0 {
			err = ErrDivideByZero
			return
		}
		out = a / b
	case OP_MOD: // mod
		if b == 0 {
			err = ErrDivideByZero
			return
		}
		out = a % b
	case OP_AND: // and
		out = a & b
	case OP_OR: // or
		out = a | b
	case OP_XOR: // xor
		out = a ^ b
	case OP_SHL: // shl
		out = a << b
	case OP_SHR: // shr
		out = a >> b
	case OP_NOT: // not
		out = ^a
	case OP_INC: // inc
		out = a + 1
	case OP_DEC: // dec
		out = a - 1
	default:
		err = ErrOpcodeAlu
	}

	return
}
