package cpu

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// BROADCAST is the address affected by machine-wide actions.
const BROADCAST = uint64(0)

// State is the view of the issuing core that an instruction is evaluated
// against.
type State interface {
	Self() uint64                 // Address of the issuing core.
	Register(reg Register) uint64 // Register contents.
	Load(addr uint64) uint64      // RAM contents; zero if never written.
}

// Action is the effect of a single instruction. It is one of WriteCore,
// InstallHandler, SendMessage, Print or SpawnActor.
type Action interface {
	// Affects returns the core addresses the action touches.
	Affects() []uint64
	String() string

	isAction()
}

// WriteCore merges register and RAM updates into the target core.
type WriteCore struct {
	Target    uint64
	Ram       map[uint64]uint64
	Registers map[Register]uint64
}

// InstallHandler binds a message atom to a handler on the target core.
type InstallHandler struct {
	Target uint64
	Atom   uint64
	Length uint64 // Expected content length.
	Buffer uint64 // RAM address content is copied to.
	Ip     uint64 // Handler entry point.
}

// SendMessage enqueues a message into the receiver's mailbox.
type SendMessage struct {
	Receiver uint64
	Atom     uint64
	Content  []byte
}

// Print writes text to the machine console.
type Print struct {
	Text string
}

// SpawnActor creates a new core.
type SpawnActor struct {
	Address uint64
	Ip      uint64
	Creator uint64
}

func (WriteCore) isAction()      {}
func (InstallHandler) isAction() {}
func (SendMessage) isAction()    {}
func (Print) isAction()          {}
func (SpawnActor) isAction()     {}

func (act WriteCore) Affects() []uint64      { return []uint64{act.Target} }
func (act InstallHandler) Affects() []uint64 { return []uint64{act.Target} }
func (act SendMessage) Affects() []uint64    { return []uint64{act.Receiver} }
func (act Print) Affects() []uint64          { return []uint64{BROADCAST} }
func (act SpawnActor) Affects() []uint64     { return []uint64{BROADCAST} }

func (act WriteCore) String() string {
	var deltas []string
	for _, addr := range slices.Sorted(maps.Keys(act.Ram)) {
		deltas = append(deltas, fmt.Sprintf("[%#x]=%#x", addr, act.Ram[addr]))
	}
	for _, reg := range slices.Sorted(maps.Keys(act.Registers)) {
		deltas = append(deltas, fmt.Sprintf("$%v=%#x", reg, act.Registers[reg]))
	}
	return fmt.Sprintf("WriteCore(%#x: %v)", act.Target, strings.Join(deltas, ", "))
}

func (act InstallHandler) String() string {
	return fmt.Sprintf("InstallHandler(%#x: atom=%#x length=%d buffer=%#x ip=%#x)",
		act.Target, act.Atom, act.Length, act.Buffer, act.Ip)
}

func (act SendMessage) String() string {
	return fmt.Sprintf("SendMessage(%#x: atom=%#x content=%x)", act.Receiver, act.Atom, act.Content)
}

func (act Print) String() string {
	return fmt.Sprintf("Print(%q)", act.Text)
}

func (act SpawnActor) String() string {
	return fmt.Sprintf("SpawnActor(%#x: ip=%#x creator=%#x)", act.Address, act.Ip, act.Creator)
}

// WritesIp returns true if the action overwrites the ip register of the
// core at addr.
func WritesIp(act Action, addr uint64) bool {
	wc, ok := act.(WriteCore)
	if !ok || wc.Target != addr {
		return false
	}
	_, ok = wc.Registers[REG_IP]
	return ok
}

func boolValue(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// Action computes the effect of the instruction, evaluating its arguments
// against the issuing core.
func (inst Instruction) Action(state State) (act Action, err error) {
	self := state.Self()
	arg := func(n int) uint64 {
		return inst.Args[n].Get(state)
	}
	setReg := func(value uint64) Action {
		return WriteCore{
			Target:    self,
			Registers: map[Register]uint64{inst.Args[0].Register: value},
		}
	}

	switch inst.Op {
	case OP_SET:
		act = setReg(arg(1))
	case OP_SET_MEM:
		act = WriteCore{
			Target: self,
			Ram:    map[uint64]uint64{arg(0): arg(1)},
		}
	case OP_READ_MEM:
		act = setReg(state.Load(arg(1)))
	case OP_ADD:
		act = setReg(arg(1) + arg(2))
	case OP_SUB:
		act = setReg(arg(1) - arg(2))
	case OP_MUL:
		act = setReg(arg(1) * arg(2))
	case OP_DIV:
		a, b := int64(arg(1)), int64(arg(2))
		if b == 0 {
			err = ErrDivideByZero
			return
		}
		act = setReg(uint64(a / b))
	case OP_LT:
		act = setReg(boolValue(int64(arg(1)) < int64(arg(2))))
	case OP_LE:
		act = setReg(boolValue(int64(arg(1)) <= int64(arg(2))))
	case OP_EQ:
		act = setReg(boolValue(arg(1) == arg(2)))
	case OP_GT:
		act = setReg(boolValue(int64(arg(1)) > int64(arg(2))))
	case OP_GE:
		act = setReg(boolValue(int64(arg(1)) >= int64(arg(2))))
	case OP_IDLE:
		act = WriteCore{Target: self}
	case OP_SEND_MSG:
		length := arg(2)
		if length > MAX_MESSAGE {
			err = ErrMessageLength
			return
		}
		addr := arg(3)
		content := make([]byte, length)
		for n := range content {
			content[n] = byte(state.Load(addr + uint64(n)))
		}
		act = SendMessage{Receiver: arg(0), Atom: arg(1), Content: content}
	case OP_MAKE_HANDLER:
		if arg(1) > MAX_MESSAGE {
			err = ErrMessageLength
			return
		}
		act = InstallHandler{
			Target: self,
			Atom:   arg(0),
			Length: arg(1),
			Buffer: arg(2),
			Ip:     arg(3),
		}
	case OP_SELF_ADDR:
		act = setReg(self)
	case OP_CREATE_ACTOR:
		act = SpawnActor{Address: arg(0), Ip: arg(1), Creator: self}
	case OP_PRINT:
		act = Print{Text: strconv.FormatUint(arg(0), 10)}
	default:
		err = ErrDecodeOpcode
	}

	return
}
