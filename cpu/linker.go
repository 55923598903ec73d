package cpu

import (
	"encoding/binary"
	"maps"
	"slices"
)

// PLACEHOLDER fills an immediate slot until the linker resolves it.
const PLACEHOLDER = uint64(0xBAADF00DBAADF00D)

// Linker accumulates an encoded image, with the label offsets and the
// unresolved expression slots needed to patch it.
type Linker struct {
	Output  []byte            // Encoded image, with placeholders.
	Pending map[int]string    // Unresolved expressions, by slot offset.
	Labels  map[string]int    // Label offsets.
	Symbols map[string]uint64 // Predefined symbols, shadowed by labels.
}

// NewLinker returns an empty linker.
func NewLinker() *Linker {
	return &Linker{
		Output:  []byte{},
		Pending: map[int]string{},
		Labels:  map[string]int{},
		Symbols: map[string]uint64{},
	}
}

// Len returns the current output offset.
func (ln *Linker) Len() int {
	return len(ln.Output)
}

// WriteByte appends a single byte.
func (ln *Linker) WriteByte(b byte) error {
	ln.Output = append(ln.Output, b)
	return nil
}

// WriteU64 appends a 64-bit value.
func (ln *Linker) WriteU64(value uint64) {
	ln.Output = binary.LittleEndian.AppendUint64(ln.Output, value)
}

// WriteExpr appends a placeholder slot to be resolved from expr at link time.
func (ln *Linker) WriteExpr(expr string) {
	ln.Pending[len(ln.Output)] = expr
	ln.WriteU64(PLACEHOLDER)
}

// WriteLabel binds a label to the current output offset.
func (ln *Linker) WriteLabel(name string) (err error) {
	if _, ok := ln.Labels[name]; ok {
		err = ErrLabelDuplicate
		return
	}
	ln.Labels[name] = len(ln.Output)
	return
}

// Encode appends a parsed node.
func (ln *Linker) Encode(node Node) (err error) {
	switch node := node.(type) {
	case *LabelDef:
		offset := ln.Len()
		err = ln.WriteLabel(node.Name)
		if err != nil {
			err = &ErrLink{
				Offset: offset,
				Expr:   node.Name,
				Err:    &ErrSyntax{LineNo: node.LineNo, Column: node.Column, Token: "'" + node.Name, Err: err},
			}
		}
	case *Op:
		ln.WriteByte(byte(node.Opcode))
		for _, arg := range node.Args {
			switch arg.Kind {
			case OPERAND_REGISTER:
				ln.WriteByte(byte(arg.Register))
			case OPERAND_CONSTANT:
				ln.WriteByte(IMMEDIATE_MARK)
				ln.WriteU64(arg.Value)
			case OPERAND_EXPRESSION:
				ln.WriteByte(IMMEDIATE_MARK)
				ln.WriteExpr(arg.Expr)
			}
		}
	}

	return
}

// Lookup resolves a symbol. Labels take priority over predefined symbols.
func (ln *Linker) Lookup(name string) (value uint64, ok bool) {
	offset, ok := ln.Labels[name]
	if ok {
		value = uint64(offset)
		return
	}

	value, ok = ln.Symbols[name]
	return
}

// Link returns a copy of the output with every pending slot resolved.
// The linker itself is not modified, so Link may be called repeatedly.
func (ln *Linker) Link() (image []byte, err error) {
	image = slices.Clone(ln.Output)

	for _, offset := range slices.Sorted(maps.Keys(ln.Pending)) {
		expr := ln.Pending[offset]
		var value uint64
		value, err = Eval(expr, uint64(offset), ln.Lookup)
		if err != nil {
			image = nil
			err = &ErrLink{Offset: offset, Expr: expr, Err: err}
			return
		}
		binary.LittleEndian.PutUint64(image[offset:], value)
	}

	return
}
