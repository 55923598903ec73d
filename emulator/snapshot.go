package emulator

import (
	"bytes"
	"fmt"
	"maps"

	"github.com/fxamacker/cbor/v2"

	"github.com/ezrec/hcpu/cpu"
	"github.com/ezrec/hcpu/io"
)

// CoreSnapshot is the saved state of one actor.
type CoreSnapshot struct {
	Address   uint64                 `cbor:"address"`
	State     cpu.CoreState          `cbor:"state"`
	Fault     string                 `cbor:"fault,omitempty"`
	Registers map[string]uint64      `cbor:"registers"`
	Ram       map[uint64]uint64      `cbor:"ram,omitempty"`
	Handlers  map[uint64]cpu.Handler `cbor:"handlers,omitempty"`
	Mailbox   []io.Message           `cbor:"mailbox,omitempty"`
}

// Snapshot is the saved state of the machine.
type Snapshot struct {
	Program []byte         `cbor:"program"` // BLAKE3 fingerprint of the image.
	Ticks   int            `cbor:"ticks"`
	Cores   []CoreSnapshot `cbor:"cores"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("emulator: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalSnapshot serializes a Snapshot to CBOR bytes.
func MarshalSnapshot(snap *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(snap)
}

// UnmarshalSnapshot deserializes a Snapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("emulator: unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Snapshot captures the state of every actor.
func (emu *Emulator) Snapshot() (snap *Snapshot) {
	fingerprint := emu.Program.Fingerprint()

	snap = &Snapshot{
		Program: fingerprint[:],
		Ticks:   emu.Ticks(),
	}

	for _, core := range emu.Cores() {
		core.Lock()
		cs := CoreSnapshot{
			Address:   core.Address,
			State:     core.State,
			Registers: map[string]uint64{},
			Ram:       maps.Clone(core.Ram),
			Handlers:  maps.Clone(core.Handlers),
			Mailbox:   core.Mailbox.Pending(),
		}
		for reg, value := range core.Registers {
			cs.Registers[reg.String()] = value
		}
		if core.Fault != nil {
			cs.Fault = core.Fault.Error()
		}
		core.Unlock()

		snap.Cores = append(snap.Cores, cs)
	}

	return
}

// Restore replaces every actor with the state in a snapshot. The snapshot
// must have been taken while running the current program.
func (emu *Emulator) Restore(snap *Snapshot) (err error) {
	fingerprint := emu.Program.Fingerprint()
	if !bytes.Equal(fingerprint[:], snap.Program) {
		err = ErrSnapshotImage
		return
	}

	var cores []*cpu.Core
	index := map[uint64]*cpu.Core{}
	for _, cs := range snap.Cores {
		if cs.Address == cpu.BROADCAST {
			err = &ErrAddress{Address: cs.Address, Err: ErrAddressReserved}
			return
		}
		if _, ok := index[cs.Address]; ok {
			err = &ErrAddress{Address: cs.Address, Err: ErrAddressInUse}
			return
		}

		core := cpu.NewCore(cs.Address, 0, emu.Config.MailboxCapacity)
		core.State = cs.State
		for name, value := range cs.Registers {
			reg, ok := cpu.LookupRegister(name)
			if !ok {
				err = &ErrAddress{Address: cs.Address, Err: cpu.ErrRegisterInvalid}
				return
			}
			core.Registers[reg] = value
		}
		maps.Copy(core.Ram, cs.Ram)
		maps.Copy(core.Handlers, cs.Handlers)
		for _, msg := range cs.Mailbox {
			err = core.Deliver(msg)
			if err != nil {
				err = &ErrAddress{Address: cs.Address, Err: err}
				return
			}
		}
		if len(cs.Fault) != 0 {
			core.Fault = snapshotFault(cs.Fault)
		}

		cores = append(cores, core)
		index[cs.Address] = core
	}

	if emu.decoded != nil {
		emu.decoded.Purge()
	}

	emu.lock.Lock()
	emu.cores = cores
	emu.index = index
	emu.ticks = snap.Ticks
	emu.lock.Unlock()

	return
}

// snapshotFault is a core fault restored from its text.
type snapshotFault string

func (err snapshotFault) Error() string {
	return string(err)
}
