package cpu

import (
	"slices"
	"unicode"
)

// Category is the lexical class of a run of source characters.
type Category int

//go:generate go tool stringer -linecomment -type=Category
const (
	CAT_BREAK          = Category(0) // break
	CAT_WHITESPACE     = Category(1) // whitespace
	CAT_COMMENT        = Category(2) // comment
	CAT_INSTRUCTION    = Category(3) // instruction
	CAT_REGISTER       = Category(4) // register
	CAT_CONSTANT       = Category(5) // constant
	CAT_LABELDEF       = Category(6) // labeldef
	CAT_EXPRESSION     = Category(7) // expression
	CAT_EXPRESSION_END = Category(8) // expression-end
)

// Token is a classified run of source text.
type Token struct {
	Text     string
	Category Category
	LineNo   int
	Column   int
}

// transition moves the lexer to the next category when match accepts
// the next character.
type transition struct {
	match func(ch rune) bool
	next  Category
}

func isSpace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isWord(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '-' || ch == '_'
}

// isNumber accepts decimal digits of any script.
func isNumber(ch rune) bool {
	return unicode.IsDigit(ch)
}

func is(want rune) func(rune) bool {
	return func(ch rune) bool { return ch == want }
}

func otherwise(rune) bool {
	return true
}

var (
	toWhitespace  = transition{isSpace, CAT_WHITESPACE}
	toRegister    = transition{is('$'), CAT_REGISTER}
	toConstant    = transition{is('#'), CAT_CONSTANT}
	toExpression  = transition{is('`'), CAT_EXPRESSION}
	toLabeldef    = transition{is('\''), CAT_LABELDEF}
	toComment     = transition{is(';'), CAT_COMMENT}
	toInstruction = transition{isWord, CAT_INSTRUCTION}
	toBreak       = transition{otherwise, CAT_BREAK}
)

// transitionTable lists, per category, the ordered transitions for the
// next character. The first matching transition wins.
var transitionTable = map[Category][]transition{
	CAT_BREAK: {
		toWhitespace,
		toRegister,
		toConstant,
		toExpression,
		toLabeldef,
		toComment,
		toInstruction,
	},
	CAT_WHITESPACE: {
		toWhitespace,
		toBreak,
	},
	CAT_COMMENT: {
		{func(ch rune) bool { return ch != '\n' }, CAT_COMMENT},
		toBreak,
	},
	CAT_INSTRUCTION: {
		{isWord, CAT_INSTRUCTION},
		toBreak,
	},
	CAT_REGISTER: {
		{isWord, CAT_REGISTER},
		toBreak,
	},
	CAT_LABELDEF: {
		{isWord, CAT_LABELDEF},
		toBreak,
	},
	CAT_CONSTANT: {
		{isNumber, CAT_CONSTANT},
		toBreak,
	},
	CAT_EXPRESSION: {
		{is('`'), CAT_EXPRESSION_END},
		{otherwise, CAT_EXPRESSION},
	},
	CAT_EXPRESSION_END: {
		toBreak,
	},
}

// nearby returns the source text around a position, for error reports.
func nearby(text []rune, at int) string {
	start := max(at-5, 0)
	end := min(at+1, len(text))
	return string(text[start:end])
}

// Classify splits source text into tokens, keeping the break tokens that
// separate neighbouring runs.
func Classify(text string) (tokens []Token, err error) {
	runes := []rune(text)

	lineno := 1
	column := 1

	category := CAT_BREAK
	var current *Token

	flush := func() {
		if current != nil {
			tokens = append(tokens, *current)
			current = nil
		}
	}

	for at := 0; at < len(runes); {
		ch := runes[at]

		next := category
		found := false
		for _, tr := range transitionTable[category] {
			if tr.match(ch) {
				next = tr.next
				found = true
				break
			}
		}

		if !found {
			err = &ErrLex{
				LineNo:  lineno,
				Column:  column,
				Context: nearby(runes, at),
				Err:     ErrLexUnexpected,
			}
			return
		}

		if next == CAT_BREAK {
			// Does not consume input.
			flush()
			tokens = append(tokens, Token{Category: CAT_BREAK, LineNo: lineno, Column: column})
			category = next
			continue
		}

		if current == nil || current.Category != next {
			flush()
			current = &Token{Category: next, LineNo: lineno, Column: column}
		}
		current.Text += string(ch)

		if ch == '\n' {
			lineno++
			column = 1
		} else {
			column++
		}

		category = next
		at++
	}

	if category == CAT_EXPRESSION {
		err = &ErrLex{
			LineNo:  lineno,
			Column:  column,
			Context: nearby(runes, len(runes)-1),
			Err:     ErrLexUnterminated,
		}
		return
	}

	flush()

	return
}

// Lex splits source text into tokens, eliding the break tokens.
func Lex(text string) (tokens []Token, err error) {
	tokens, err = Classify(text)
	if err != nil {
		return
	}

	tokens = slices.DeleteFunc(tokens, func(tok Token) bool {
		return tok.Category == CAT_BREAK
	})

	return
}
