package cpu

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode"

	"go.starlark.net/syntax"
)

// HERE is the identifier that `$` is rewritten to before parsing. It holds
// a digit, so it can never be spelled as a label.
const HERE = "here_0"

// symbolName is the identifier the n'th known symbol of an expression is
// rewritten to. Like HERE, it holds a digit.
func symbolName(n int) string {
	return fmt.Sprintf("sym_%d", n)
}

func isSymbol(ch rune) bool {
	return isWord(ch) || unicode.IsDigit(ch)
}

// rename rewrites an expression so that `$`, and every symbol known to
// lookup, is a plain identifier. Symbols may contain '-', or be spelled
// like a keyword. Within a run of symbol characters, the longest known
// symbol wins; any '-' left between symbols is a subtraction.
func rename(expr string, lookup func(name string) (uint64, bool)) (src string, symbols map[string]uint64) {
	symbols = map[string]uint64{}

	alias := func(name string) string {
		value, ok := lookup(name)
		if !ok {
			return name
		}
		id := symbolName(len(symbols))
		symbols[id] = value
		return id
	}

	var out strings.Builder
	runes := []rune(expr)
	for at := 0; at < len(runes); {
		ch := runes[at]
		switch {
		case ch == '$':
			out.WriteString(" " + HERE + " ")
			at++
		case ch == '\n' || ch == '\r' || ch == '\t':
			out.WriteRune(' ')
			at++
		case isSymbol(ch):
			end := at
			for end < len(runes) && isSymbol(runes[end]) {
				end++
			}
			parts := strings.Split(string(runes[at:end]), "-")
			var names []string
			for first := 0; first < len(parts); {
				last := len(parts) - 1
				for ; last > first; last-- {
					if _, ok := lookup(strings.Join(parts[first:last+1], "-")); ok {
						break
					}
				}
				names = append(names, alias(strings.Join(parts[first:last+1], "-")))
				first = last + 1
			}
			out.WriteString(strings.Join(names, "-"))
			at = end
		default:
			out.WriteRune(ch)
			at++
		}
	}

	src = strings.TrimSpace(out.String())
	return
}

// Eval computes an arithmetic expression of integer literals, symbols and
// the binary operators + - * /. The symbol `$` is bound to here; other
// symbols are resolved through lookup.
//
// Arithmetic is 64-bit two's complement with wraparound. Division truncates
// toward zero.
func Eval(expr string, here uint64, lookup func(name string) (uint64, bool)) (value uint64, err error) {
	src, symbols := rename(expr, lookup)
	if len(src) == 0 {
		err = ErrExpressionEmpty
		return
	}

	opts := syntax.FileOptions{}
	tree, err := opts.ParseExpr("expr", src, 0)
	if err != nil {
		err = errors.Join(ErrExpressionOperator, err)
		return
	}

	resolve := func(name string) (uint64, bool) {
		if name == HERE {
			return here, true
		}
		if value, ok := symbols[name]; ok {
			return value, true
		}
		return lookup(name)
	}

	result, err := evalNode(tree, resolve)
	if err != nil {
		return
	}

	value = uint64(result)
	return
}

func evalNode(node syntax.Expr, lookup func(string) (uint64, bool)) (value int64, err error) {
	switch node := node.(type) {
	case *syntax.Literal:
		switch v := node.Value.(type) {
		case int64:
			value = v
		case *big.Int:
			// Larger than int64; keep the low 64 bits.
			value = int64(new(big.Int).And(v, new(big.Int).SetUint64(^uint64(0))).Uint64())
		default:
			err = ErrExpressionNotInteger
		}
	case *syntax.Ident:
		symbol, ok := lookup(node.Name)
		if !ok {
			err = ErrLabelMissing(node.Name)
			return
		}
		value = int64(symbol)
	case *syntax.ParenExpr:
		value, err = evalNode(node.X, lookup)
	case *syntax.UnaryExpr:
		value, err = evalNode(node.X, lookup)
		if err != nil {
			return
		}
		switch node.Op {
		case syntax.PLUS:
		case syntax.MINUS:
			value = -value
		default:
			err = ErrExpressionOperator
		}
	case *syntax.BinaryExpr:
		var x, y int64
		x, err = evalNode(node.X, lookup)
		if err != nil {
			return
		}
		y, err = evalNode(node.Y, lookup)
		if err != nil {
			return
		}
		switch node.Op {
		case syntax.PLUS:
			value = x + y
		case syntax.MINUS:
			value = x - y
		case syntax.STAR:
			value = x * y
		case syntax.SLASH, syntax.SLASHSLASH:
			if y == 0 {
				err = ErrDivideByZero
				return
			}
			value = x / y
		default:
			err = ErrExpressionOperator
		}
	default:
		err = ErrExpressionOperator
	}

	return
}
