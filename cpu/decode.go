package cpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Argument is a decoded instruction operand: a register, or an immediate.
type Argument struct {
	Register  Register
	Value     uint64
	Immediate bool
}

// Get returns the operand value, reading registers from state.
func (arg Argument) Get(state State) uint64 {
	if arg.Immediate {
		return arg.Value
	}
	return state.Register(arg.Register)
}

func (arg Argument) String() string {
	if arg.Immediate {
		return fmt.Sprintf("#%d", arg.Value)
	}
	return "$" + arg.Register.String()
}

// Instruction is a decoded instruction at an image offset.
type Instruction struct {
	Op     Opcode
	Args   []Argument
	Offset uint64
	Length int
}

func (inst Instruction) String() string {
	var words []string
	words = append(words, inst.Op.String())
	for _, arg := range inst.Args {
		words = append(words, arg.String())
	}
	return strings.Join(words, " ")
}

// Describe returns a plain language description of the instruction.
func (inst Instruction) Describe() string {
	args := make([]any, len(inst.Args))
	for n, arg := range inst.Args {
		args[n] = arg
	}

	switch inst.Op {
	case OP_SET:
		return f("set %v to %v", args...)
	case OP_SET_MEM:
		return f("set memory at %v to %v", args...)
	case OP_READ_MEM:
		return f("set %v to memory at %v", args...)
	case OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_LT, OP_LE, OP_EQ, OP_GT, OP_GE:
		return f("set %v to %v %v %v", args[0], args[1], inst.Op, args[2])
	case OP_IDLE:
		return f("wait for a message")
	case OP_SEND_MSG:
		return f("send to %v atom %v with %v bytes from memory at %v", args...)
	case OP_MAKE_HANDLER:
		return f("handle atom %v with %v bytes into memory at %v, then run from %v", args...)
	case OP_SELF_ADDR:
		return f("set %v to this actor's address", args...)
	case OP_CREATE_ACTOR:
		return f("create an actor at %v running from %v", args...)
	case OP_PRINT:
		return f("print %v", args...)
	}

	return inst.String()
}

// AppendBinary appends the encoded instruction.
func (inst Instruction) AppendBinary(buff []byte) ([]byte, error) {
	if !inst.Op.Valid() {
		return buff, ErrDecodeOpcode
	}

	buff = append(buff, byte(inst.Op))
	for _, arg := range inst.Args {
		if arg.Immediate {
			buff = append(buff, IMMEDIATE_MARK)
			buff = binary.LittleEndian.AppendUint64(buff, arg.Value)
		} else {
			buff = append(buff, byte(arg.Register))
		}
	}

	return buff, nil
}

// Decode reads the instruction at offset in code.
func Decode(code []byte, offset uint64) (inst Instruction, err error) {
	fail := func(detail error) (Instruction, error) {
		return Instruction{}, errors.Join(ErrDecode, fmt.Errorf("%#x: %w", offset, detail))
	}

	if offset >= uint64(len(code)) {
		return fail(ErrDecodeTruncated)
	}

	at := offset
	op := Opcode(code[at])
	at++
	if !op.Valid() {
		return fail(ErrDecodeOpcode)
	}

	kinds := op.Args()
	args := make([]Argument, 0, len(kinds))
	for _, kind := range kinds {
		if at >= uint64(len(code)) {
			return fail(ErrDecodeTruncated)
		}
		mark := code[at]
		at++

		if mark == IMMEDIATE_MARK {
			if kind == ARG_REG {
				return fail(ErrDecodeArgument)
			}
			if at+IMMEDIATE_SIZE > uint64(len(code)) {
				return fail(ErrDecodeTruncated)
			}
			args = append(args, Argument{
				Value:     binary.LittleEndian.Uint64(code[at:]),
				Immediate: true,
			})
			at += IMMEDIATE_SIZE
			continue
		}

		reg := Register(mark)
		if !reg.Valid() {
			return fail(ErrDecodeArgument)
		}
		args = append(args, Argument{Register: reg})
	}

	inst = Instruction{
		Op:     op,
		Args:   args,
		Offset: offset,
		Length: int(at - offset),
	}

	return
}
