package cpu

import (
	"errors"
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Statements))
	assert.Equal(0, len(prog.Image))

	defines := maps.Collect(asm.Defines())
	assert.Equal(uint64(MAX_MESSAGE), defines["MAX_MESSAGE"])
	assert.Equal(uint64(9), defines["ARG_SIZE"])
}

func TestAssemblerListing(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"; Print 5, then wait",
		"'start",
		"  Set $ra #5",
		"  Print $ra",
		"'stop Idle",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	assert.Equal([]Statement{
		{LineNo: 3, Offset: 0, Length: 11, Op: OP_SET, Words: []string{"Set", "$ra", "#5"}},
		{LineNo: 4, Offset: 11, Length: 2, Op: OP_PRINT, Words: []string{"Print", "$ra"}},
		{LineNo: 5, Offset: 13, Length: 1, Op: OP_IDLE, Words: []string{"Idle"}},
	}, prog.Statements)

	assert.Equal(map[string]uint64{"start": 0, "stop": 13}, prog.Labels)
	assert.Equal(prog.Labels, asm.Label)

	assert.Equal([]byte{
		byte(OP_SET), byte(REG_RA), IMMEDIATE_MARK, 5, 0, 0, 0, 0, 0, 0, 0,
		byte(OP_PRINT), byte(REG_RA),
		byte(OP_IDLE),
	}, prog.Image)
}

func TestAssemblerLabel(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"Set $ip `done`",
		"Print #1",
		"'done Print `$`",
		"Print `done + ARG_SIZE * 2`",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if !assert.NoError(err) {
		return
	}

	// Set: 11 bytes, Print: 10 bytes each.
	done := uint64(21)
	assert.Equal(done, prog.Labels["done"])

	var values []uint64
	for _, inst := range prog.Codes() {
		values = append(values, inst.Args[len(inst.Args)-1].Value)
	}

	// `$` is the offset of the immediate slot, after opcode and marker.
	assert.Equal([]uint64{done, 1, done + 2, done + 18}, values)
}

func TestAssemblerSymbolNames(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"'my-loop Set $ip `my-loop`",
		"'in Set $ip `in`",
		"Set $ip `$`",
		"Print `in-my-loop`",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if !assert.NoError(err) {
		return
	}

	var values []uint64
	for _, inst := range prog.Codes() {
		values = append(values, inst.Args[len(inst.Args)-1].Value)
	}

	// Set: 11 bytes each; the third slot is at 22 + 3.
	assert.Equal([]uint64{0, 11, 25, 11}, values)
}

func TestAssemblerPredefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("ANSWER", 42)
	asm.Predefine("shadow", 1000)
	asm.Predefine("ANSWER", 43)

	prog, err := asm.Parse(strings.NewReader("'shadow Print `ANSWER`\nPrint `shadow`\nPrint `MAX_MESSAGE`"))
	assert.NoError(err)

	var values []uint64
	for _, inst := range prog.Codes() {
		values = append(values, inst.Args[0].Value)
	}
	assert.Equal([]uint64{43, 0, MAX_MESSAGE}, values)

	var names []string
	for name := range asm.Defines() {
		names = append(names, name)
	}
	assert.Equal([]string{"ARG_SIZE", "MAX_MESSAGE", "ANSWER", "shadow"}, names)
}

func TestAssemblerReuse(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	_, err := asm.Parse(strings.NewReader("'first Idle"))
	assert.NoError(err)

	prog, err := asm.Parse(strings.NewReader("'second Idle"))
	assert.NoError(err)
	assert.Equal([]string{"second"}, slices.Collect(maps.Keys(prog.Labels)))
	assert.Len(prog.Statements, 1)
}

func TestAssemblerErrors(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	table := [](struct {
		prog string
		err  error
	}){
		{"Set $ra @", ErrLexUnexpected},
		{"Set $ra `1", ErrLexUnterminated},
		{"Set $ra", ErrOpcodeArgs},
		{"Nope", ErrOpcodeInvalid},
		{"'dup Idle\n'dup Idle", ErrLabelDuplicate},
		{"Print `missing`", ErrLabelMissing("missing")},
		{"Print `1 / 0`", ErrDivideByZero},
		{"Print `2.5`", ErrExpressionNotInteger},
	}

	for _, entry := range table {
		prog, err := asm.Parse(strings.NewReader(entry.prog))
		assert.Nil(prog, entry.prog)
		assert.ErrorIs(err, entry.err, entry.prog)
	}

	// A redefined label is a link fault that keeps its source position.
	var se *ErrSyntax
	var de *ErrLink
	_, err := asm.Parse(strings.NewReader("Idle\n\n'dup Idle\n'dup Idle"))
	if assert.True(errors.As(err, &se)) {
		assert.Equal(4, se.LineNo)
	}
	if assert.True(errors.As(err, &de)) {
		assert.Equal(2, de.Offset)
		assert.Equal("dup", de.Expr)
	}

	var le *ErrLink
	_, err = asm.Parse(strings.NewReader("Idle\nPrint `nowhere`"))
	if assert.True(errors.As(err, &le)) {
		assert.Equal(3, le.Offset)
		assert.Equal("nowhere", le.Expr)
	}
}
