package cpu

import (
	"errors"

	"github.com/ezrec/hcpu/translate"
)

var f = translate.From

var (
	// Lexer errors
	ErrLexUnexpected   = errors.New(f("unexpected character"))
	ErrLexUnterminated = errors.New(f("unterminated expression"))

	// Parser errors
	ErrTokenUnexpected = errors.New(f("unexpected token"))
	ErrOpcodeInvalid   = errors.New(f("opcode invalid"))
	ErrRegisterInvalid = errors.New(f("register invalid"))
	ErrOpcodeArgs      = errors.New(f("wrong number of arguments"))
	ErrArgumentKind    = errors.New(f("argument must be a register"))

	// Linker errors
	ErrLabelDuplicate       = errors.New(f("label duplicated"))
	ErrExpressionEmpty      = errors.New(f("expression empty"))
	ErrExpressionNotInteger = errors.New(f("expression is not an integer"))
	ErrExpressionOperator   = errors.New(f("operator not permitted"))
	ErrDivideByZero         = errors.New(f("division by zero"))

	// Decode errors
	ErrDecode          = errors.New(f("decode"))
	ErrDecodeOpcode    = errors.New(f("opcode unknown"))
	ErrDecodeTruncated = errors.New(f("instruction truncated"))
	ErrDecodeArgument  = errors.New(f("argument invalid"))

	// Runtime errors
	ErrMessageLength  = errors.New(f("message longer than %d bytes", MAX_MESSAGE))
	ErrHandlerMissing = errors.New(f("no handler for atom"))
	ErrHandlerLength  = errors.New(f("message length does not match handler"))
)

// ErrLabelMissing is returned by the linker for an undefined label.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrParseNumber is returned for an unparseable constant.
type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

// ErrLex is a lexer fault, with the surrounding source text.
type ErrLex struct {
	LineNo  int
	Column  int
	Context string
	Err     error
}

func (err *ErrLex) Error() string {
	return f("line %d column %d near '%v' %v", err.LineNo, err.Column, err.Context, err.Err)
}

func (err *ErrLex) Unwrap() error {
	return err.Err
}

// ErrSyntax is a parser fault at a specific token.
type ErrSyntax struct {
	LineNo int
	Column int
	Token  string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d column %d '%v' %v", err.LineNo, err.Column, err.Token, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrLink is a linker fault for the expression at an image offset.
type ErrLink struct {
	Offset int
	Expr   string
	Err    error
}

func (err *ErrLink) Error() string {
	return f("offset %#x `%v` %v", err.Offset, err.Expr, err.Err)
}

func (err *ErrLink) Unwrap() error {
	return err.Err
}
