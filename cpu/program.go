package cpu

import (
	"iter"
	"slices"

	"lukechampine.com/blake3"
)

// Statement is an assembled instruction and the source it came from.
type Statement struct {
	LineNo int      // Source line number.
	Offset uint64   // Image offset of the encoded instruction.
	Length int      // Encoded length in bytes.
	Op     Opcode   // Opcode.
	Words  []string // Source tokens.
}

// Program is an assembled, linked, binary image.
type Program struct {
	Statements []Statement       // Source listing; empty for a loaded image.
	Image      []byte            // Linked binary image.
	Labels     map[string]uint64 // Label offsets.
}

// NewProgram wraps a binary image that has no source listing.
func NewProgram(image []byte) (prog *Program) {
	prog = &Program{
		Image:  slices.Clone(image),
		Labels: map[string]uint64{},
	}

	return
}

// Debug is the source statement covering an image offset.
type Debug struct {
	*Statement
	Index int // Byte index of the offset within the statement.
}

// Debug returns the statement covering offset. The statement is nil if
// the offset is not covered by the listing.
func (prog *Program) Debug(offset uint64) (dbg Debug) {
	n, found := slices.BinarySearchFunc(prog.Statements, offset, func(stmt Statement, target uint64) int {
		switch {
		case stmt.Offset+uint64(stmt.Length) <= target:
			return -1
		case stmt.Offset > target:
			return 1
		}
		return 0
	})
	if !found {
		return
	}

	dbg = Debug{
		Statement: &prog.Statements[n],
		Index:     int(offset - prog.Statements[n].Offset),
	}

	return
}

// Binary returns a copy of the image.
func (prog *Program) Binary() []byte {
	return slices.Clone(prog.Image)
}

// Decode decodes the instruction at offset.
func (prog *Program) Decode(offset uint64) (Instruction, error) {
	return Decode(prog.Image, offset)
}

// Codes iterates over the instructions of the image, in order, until the
// end of the image or the first undecodable byte.
func (prog *Program) Codes() iter.Seq2[uint64, Instruction] {
	return func(yield func(offset uint64, inst Instruction) bool) {
		offset := uint64(0)
		for offset < uint64(len(prog.Image)) {
			inst, err := prog.Decode(offset)
			if err != nil {
				return
			}
			if !yield(offset, inst) {
				return
			}
			offset += uint64(inst.Length)
		}
	}
}

// Fingerprint returns the BLAKE3 digest of the image.
func (prog *Program) Fingerprint() [32]byte {
	return blake3.Sum256(prog.Image)
}
