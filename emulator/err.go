package emulator

import (
	"errors"

	"github.com/ezrec/hcpu/translate"
)

var f = translate.From

var (
	// Addressing errors
	ErrAddressUnknown  = errors.New(f("no actor at address"))
	ErrAddressInUse    = errors.New(f("actor address in use"))
	ErrAddressReserved = errors.New(f("actor address reserved"))
	ErrCoreHalted      = errors.New(f("actor halted"))

	// Emulator errors
	ErrProgramMissing = errors.New(f("no program loaded"))
	ErrSnapshotImage  = errors.New(f("snapshot is of a different program"))
)

// ErrAddress is an addressing fault for a specific actor address.
type ErrAddress struct {
	Address uint64
	Err     error
}

func (err *ErrAddress) Error() string {
	return f("%016x: %v", err.Address, err.Err)
}

func (err *ErrAddress) Unwrap() error {
	return err.Err
}

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Address uint64 // Issuing actor.
	Offset  uint64 // Image offset of the instruction.
	LineNo  int    // Source line, if known.
	Err     error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("actor %016x offset %#x %v", err.Address, err.Offset, err.Err)
	}
	return f("actor %016x offset %#x line %d %v", err.Address, err.Offset, err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
