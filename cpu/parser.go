package cpu

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// OperandKind is the source form of an instruction operand.
type OperandKind int

const (
	OPERAND_REGISTER   = OperandKind(0) // $name
	OPERAND_CONSTANT   = OperandKind(1) // #decimal
	OPERAND_EXPRESSION = OperandKind(2) // `expression`
)

// Operand is a parsed instruction argument.
type Operand struct {
	Kind     OperandKind
	Register Register // OPERAND_REGISTER
	Value    uint64   // OPERAND_CONSTANT
	Expr     string   // OPERAND_EXPRESSION
}

func (arg Operand) String() string {
	switch arg.Kind {
	case OPERAND_REGISTER:
		return "$" + arg.Register.String()
	case OPERAND_CONSTANT:
		return fmt.Sprintf("#%d", arg.Value)
	default:
		return "`" + arg.Expr + "`"
	}
}

// Node is an element of a parsed program: an *Op or a *LabelDef.
type Node interface {
	Position() (lineno, column int)
}

// Op is an instruction and its operands.
type Op struct {
	LineNo int
	Column int
	Opcode Opcode
	Args   []Operand
	Words  []string // Source tokens, for listings.
}

// LabelDef names the image offset of the following instruction.
type LabelDef struct {
	LineNo int
	Column int
	Name   string
}

func (op *Op) Position() (lineno, column int) {
	return op.LineNo, op.Column
}

func (ld *LabelDef) Position() (lineno, column int) {
	return ld.LineNo, ld.Column
}

// asciiDigits rewrites the decimal digits of any script as ASCII digits.
func asciiDigits(text string) string {
	return strings.Map(func(ch rune) rune {
		if ch < 0x80 || !unicode.IsDigit(ch) {
			return ch
		}
		for _, r := range unicode.Nd.R16 {
			if rune(r.Lo) <= ch && ch <= rune(r.Hi) {
				return '0' + (ch-rune(r.Lo))%10
			}
		}
		for _, r := range unicode.Nd.R32 {
			if rune(r.Lo) <= ch && ch <= rune(r.Hi) {
				return '0' + (ch-rune(r.Lo))%10
			}
		}
		return ch
	}, text)
}

// validate checks the operand count and kinds against the opcode layout.
func (op *Op) validate() (err error) {
	kinds := op.Opcode.Args()
	if len(op.Args) != len(kinds) {
		err = ErrOpcodeArgs
		return
	}

	for n, kind := range kinds {
		if kind == ARG_REG && op.Args[n].Kind != OPERAND_REGISTER {
			err = ErrArgumentKind
			return
		}
	}

	return
}

// Parse groups lexed tokens into a program. Whitespace and comment tokens
// are ignored.
func Parse(tokens []Token) (nodes []Node, err error) {
	// nil while outside of an instruction.
	var op *Op

	var tok Token

	syntaxError := func(at Token, cause error) error {
		return &ErrSyntax{LineNo: at.LineNo, Column: at.Column, Token: at.Text, Err: cause}
	}

	closeOp := func() error {
		if verr := op.validate(); verr != nil {
			return &ErrSyntax{LineNo: op.LineNo, Column: op.Column, Token: op.Opcode.String(), Err: verr}
		}
		nodes = append(nodes, op)
		op = nil
		return nil
	}

	for _, tok = range tokens {
		switch tok.Category {
		case CAT_BREAK, CAT_WHITESPACE, CAT_COMMENT, CAT_EXPRESSION_END:
			continue
		}

		if op != nil && (tok.Category == CAT_INSTRUCTION || tok.Category == CAT_LABELDEF) {
			err = closeOp()
			if err != nil {
				return
			}
		}

		switch {
		case tok.Category == CAT_INSTRUCTION && op == nil:
			opcode, ok := LookupOpcode(tok.Text)
			if !ok {
				err = syntaxError(tok, ErrOpcodeInvalid)
				return
			}
			op = &Op{
				LineNo: tok.LineNo,
				Column: tok.Column,
				Opcode: opcode,
				Args:   []Operand{},
				Words:  []string{tok.Text},
			}
		case tok.Category == CAT_LABELDEF && op == nil:
			name := tok.Text[1:]
			if len(name) == 0 {
				err = syntaxError(tok, ErrTokenUnexpected)
				return
			}
			nodes = append(nodes, &LabelDef{LineNo: tok.LineNo, Column: tok.Column, Name: name})
		case tok.Category == CAT_REGISTER && op != nil:
			reg, ok := LookupRegister(tok.Text[1:])
			if !ok {
				err = syntaxError(tok, ErrRegisterInvalid)
				return
			}
			op.Args = append(op.Args, Operand{Kind: OPERAND_REGISTER, Register: reg})
			op.Words = append(op.Words, tok.Text)
		case tok.Category == CAT_CONSTANT && op != nil:
			value, perr := strconv.ParseUint(asciiDigits(tok.Text[1:]), 10, 64)
			if perr != nil {
				err = syntaxError(tok, ErrParseNumber(tok.Text[1:]))
				return
			}
			op.Args = append(op.Args, Operand{Kind: OPERAND_CONSTANT, Value: value})
			op.Words = append(op.Words, tok.Text)
		case tok.Category == CAT_EXPRESSION && op != nil:
			op.Args = append(op.Args, Operand{Kind: OPERAND_EXPRESSION, Expr: tok.Text[1:]})
			op.Words = append(op.Words, tok.Text+"`")
		default:
			err = syntaxError(tok, ErrTokenUnexpected)
			return
		}
	}

	if op != nil {
		err = closeOp()
	}

	return
}
