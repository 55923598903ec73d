package cpu

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/ezrec/hcpu/io"
)

// CoreState is the scheduling state of a core.
type CoreState int

//go:generate go tool stringer -linecomment -type=CoreState
const (
	CORE_RUNNING = CoreState(0) // running
	CORE_WAITING = CoreState(1) // waiting
	CORE_HALTED  = CoreState(2) // halted
)

// Handler is an installed message handler.
type Handler struct {
	Length uint64 // Expected content length.
	Buffer uint64 // RAM address content is copied to.
	Ip     uint64 // Entry point.
}

// Core is the state of a single actor.
//
// Methods do not lock the core; callers that share a core between
// goroutines hold its mutex.
type Core struct {
	sync.Mutex

	Address   uint64
	Registers map[Register]uint64
	Ram       map[uint64]uint64
	Handlers  map[uint64]Handler
	Mailbox   *io.Mailbox
	State     CoreState
	Fault     error // Reason for CORE_HALTED.
}

var _ State = (*Core)(nil)

// NewCore creates a running core at address, starting at ip. The mailbox
// holds up to capacity messages.
func NewCore(address uint64, ip uint64, capacity int) (core *Core) {
	core = &Core{
		Address:   address,
		Registers: map[Register]uint64{},
		Ram:       map[uint64]uint64{},
		Handlers:  map[uint64]Handler{},
		Mailbox:   io.NewMailbox(capacity),
	}

	for reg := range Registers() {
		core.Registers[reg] = 0
	}
	core.Registers[REG_IP] = ip

	return
}

// Self returns the core address.
func (core *Core) Self() uint64 {
	return core.Address
}

// Register returns the contents of a register.
func (core *Core) Register(reg Register) uint64 {
	return core.Registers[reg]
}

// Load returns the contents of RAM at addr.
func (core *Core) Load(addr uint64) uint64 {
	return core.Ram[addr]
}

// Ip returns the instruction pointer.
func (core *Core) Ip() uint64 {
	return core.Registers[REG_IP]
}

// SetIp sets the instruction pointer.
func (core *Core) SetIp(ip uint64) {
	core.Registers[REG_IP] = ip
}

// Write merges register and RAM updates.
func (core *Core) Write(act WriteCore) {
	maps.Copy(core.Ram, act.Ram)
	maps.Copy(core.Registers, act.Registers)
}

// Install adds, or replaces, a message handler.
func (core *Core) Install(act InstallHandler) {
	core.Handlers[act.Atom] = Handler{
		Length: act.Length,
		Buffer: act.Buffer,
		Ip:     act.Ip,
	}
}

// Deliver enqueues a message.
func (core *Core) Deliver(msg io.Message) error {
	return core.Mailbox.Send(msg)
}

// Dispatch pops the oldest message and runs its handler: the content is
// copied into RAM at the handler buffer, and execution resumes at the
// handler entry point. A message with no handler, or with the wrong length,
// is dropped and reported as an error.
func (core *Core) Dispatch() (msg io.Message, err error) {
	msg, err = core.Mailbox.Pop()
	if err != nil {
		return
	}

	handler, ok := core.Handlers[msg.Atom]
	if !ok {
		err = ErrHandlerMissing
		return
	}

	if uint64(len(msg.Content)) != handler.Length {
		err = ErrHandlerLength
		return
	}

	for n, b := range msg.Content {
		core.Ram[handler.Buffer+uint64(n)] = uint64(b)
	}
	core.SetIp(handler.Ip)
	core.State = CORE_RUNNING

	return
}

// Halt stops the core. A halted core never dispatches, so its pending
// messages are discarded and returned.
func (core *Core) Halt(fault error) (dropped []io.Message) {
	core.State = CORE_HALTED
	core.Fault = fault
	dropped = slices.Collect(core.Mailbox.Receive())
	return
}

// Runnable returns true if a step of the core can make progress.
func (core *Core) Runnable() bool {
	switch core.State {
	case CORE_RUNNING:
		return true
	case CORE_WAITING:
		return core.Mailbox.Len() > 0
	}
	return false
}

// String returns the core state as text.
func (core *Core) String() (text string) {
	var lines []string
	lines = append(lines, fmt.Sprintf("%8s: %016x", "address", core.Address))
	lines = append(lines, fmt.Sprintf("%8s: %v", "state", core.State))
	for reg := range Registers() {
		lines = append(lines, fmt.Sprintf("%8s: %016x", reg, core.Registers[reg]))
	}
	for _, addr := range slices.Sorted(maps.Keys(core.Ram)) {
		lines = append(lines, fmt.Sprintf("%8s: [%016x] %016x", "ram", addr, core.Ram[addr]))
	}
	for _, atom := range slices.Sorted(maps.Keys(core.Handlers)) {
		h := core.Handlers[atom]
		lines = append(lines, fmt.Sprintf("%8s: %016x length=%d buffer=%#x ip=%#x", "handler", atom, h.Length, h.Buffer, h.Ip))
	}
	if core.Fault != nil {
		lines = append(lines, fmt.Sprintf("%8s: %v", "fault", core.Fault))
	}

	text = strings.Join(lines, "\n") + "\n"
	return
}
