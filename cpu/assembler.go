// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"io"
	"iter"
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/ezrec/hcpu/internal"
)

// Predefined system symbols
var sysPredefine = map[string]uint64{
	"MAX_MESSAGE": MAX_MESSAGE,
	"ARG_SIZE":    1 + IMMEDIATE_SIZE,
}

// Assembler translates hcpu assembly source into a linked Program.
type Assembler struct {
	Verbose bool        // If set, verbosely logs the assembler actions.
	Logger  *zap.Logger // Log sink; nil discards.

	Statements []Statement       // Listing of the last assembly.
	Label      map[string]uint64 // Map of labels to image offsets.

	predefine map[string]uint64 // Predefines
}

// Predefine defines a new symbol or redefines an existing one. Labels
// shadow predefined symbols.
func (asm *Assembler) Predefine(name string, value uint64) {
	if asm.predefine == nil {
		asm.predefine = map[string]uint64{name: value}
	} else {
		asm.predefine[name] = value
	}
}

// Defines iterates over all predefined symbols, system symbols first.
func (asm *Assembler) Defines() iter.Seq2[string, uint64] {
	return internal.IterSeq2Concat(
		internal.SortedSeq2(sysPredefine),
		internal.SortedSeq2(asm.predefine),
	)
}

func (asm *Assembler) logger() *zap.Logger {
	if asm.Logger == nil {
		return zap.NewNop()
	}
	return asm.Logger
}

// Parse assembles an input stream into a Program. No program is returned
// if any stage fails.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	log := asm.logger()

	clear(asm.Label)
	asm.Statements = asm.Statements[:0]

	text, err := io.ReadAll(input)
	if err != nil {
		return
	}

	tokens, err := Lex(string(text))
	if err != nil {
		return
	}

	nodes, err := Parse(tokens)
	if err != nil {
		return
	}

	ln := NewLinker()
	for name, value := range asm.Defines() {
		ln.Symbols[name] = value
	}

	for _, node := range nodes {
		offset := ln.Len()

		err = ln.Encode(node)
		if err != nil {
			return
		}

		op, ok := node.(*Op)
		if !ok {
			continue
		}

		stmt := Statement{
			LineNo: op.LineNo,
			Offset: uint64(offset),
			Length: ln.Len() - offset,
			Op:     op.Opcode,
			Words:  op.Words,
		}
		asm.Statements = append(asm.Statements, stmt)

		if asm.Verbose {
			log.Debug("assemble",
				zap.Int("line", stmt.LineNo),
				zap.Uint64("offset", stmt.Offset),
				zap.Strings("words", stmt.Words),
			)
		}
	}

	image, err := ln.Link()
	if err != nil {
		return
	}

	if asm.Label == nil {
		asm.Label = map[string]uint64{}
	}
	for name, offset := range ln.Labels {
		asm.Label[name] = uint64(offset)
	}

	prog = &Program{
		Statements: slices.Clone(asm.Statements),
		Image:      image,
		Labels:     maps.Clone(asm.Label),
	}

	log.Info("assembled",
		zap.Int("statements", len(prog.Statements)),
		zap.Int("bytes", len(prog.Image)),
		zap.Int("labels", len(prog.Labels)),
	)

	return
}
