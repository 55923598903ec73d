package cpu

import (
	"fmt"
	"iter"
	"slices"
)

// Opcode is the leading byte of an encoded instruction.
type Opcode byte

// Opcode values. Each is a printable ASCII character, which keeps hex
// dumps of an image readable.
const (
	OP_SET          = Opcode(0x53) // S
	OP_SET_MEM      = Opcode(0x73) // s
	OP_READ_MEM     = Opcode(0x52) // R
	OP_ADD          = Opcode(0x2b) // +
	OP_SUB          = Opcode(0x2d) // -
	OP_MUL          = Opcode(0x2a) // *
	OP_DIV          = Opcode(0x2f) // /
	OP_LT           = Opcode(0x3c) // <
	OP_LE           = Opcode(0x5b) // [
	OP_EQ           = Opcode(0x3d) // =
	OP_GT           = Opcode(0x3e) // >
	OP_GE           = Opcode(0x5d) // ]
	OP_IDLE         = Opcode(0x49) // I
	OP_SEND_MSG     = Opcode(0x5e) // ^
	OP_MAKE_HANDLER = Opcode(0x21) // !
	OP_SELF_ADDR    = Opcode(0x3f) // ?
	OP_CREATE_ACTOR = Opcode(0x7d) // }
	OP_PRINT        = Opcode(0x23) // #
)

// Register is the encoded identifier of a core register.
type Register byte

// Register identifiers.
const (
	REG_IP    = Register(0x40) // ip
	REG_RA    = Register(0x41) // ra
	REG_RHEN  = Register(0x48) // rhen
	REG_RX    = Register(0x78) // rx
	REG_RY    = Register(0x79) // ry
	REG_RZ    = Register(0x7a) // rz
	REG_BRIAN = Register(0x58) // brian
)

const (
	IMMEDIATE_MARK = byte(0x4e) // Marker byte preceding an 8 byte immediate.
	IMMEDIATE_SIZE = 8          // Bytes in an immediate value.
	MAX_MESSAGE    = 8          // Largest message content, in bytes.
)

// ArgKind is the kind of operand an instruction slot accepts.
type ArgKind int

const (
	ARG_REG = ArgKind(0) // Register only.
	ARG_ANY = ArgKind(1) // Register or immediate.
)

type opcodeInfo struct {
	Name string
	Args []ArgKind
}

var (
	argsNone      = []ArgKind{}
	argsReg       = []ArgKind{ARG_REG}
	argsAny       = []ArgKind{ARG_ANY}
	argsRegAny    = []ArgKind{ARG_REG, ARG_ANY}
	argsAnyAny    = []ArgKind{ARG_ANY, ARG_ANY}
	argsRegAnyAny = []ArgKind{ARG_REG, ARG_ANY, ARG_ANY}
	argsAny4      = []ArgKind{ARG_ANY, ARG_ANY, ARG_ANY, ARG_ANY}
)

// opcodeTable holds the canonical mnemonic and operand layout of every opcode.
var opcodeTable = map[Opcode]opcodeInfo{
	OP_SET:          {"Set", argsRegAny},
	OP_SET_MEM:      {"SetMem", argsAnyAny},
	OP_READ_MEM:     {"ReadMem", argsRegAny},
	OP_ADD:          {"Add", argsRegAnyAny},
	OP_SUB:          {"Sub", argsRegAnyAny},
	OP_MUL:          {"Mul", argsRegAnyAny},
	OP_DIV:          {"Div", argsRegAnyAny},
	OP_LT:           {"LT", argsRegAnyAny},
	OP_LE:           {"LE", argsRegAnyAny},
	OP_EQ:           {"EQ", argsRegAnyAny},
	OP_GT:           {"GT", argsRegAnyAny},
	OP_GE:           {"GE", argsRegAnyAny},
	OP_IDLE:         {"Idle", argsNone},
	OP_SEND_MSG:     {"Send-msg", argsAny4},
	OP_MAKE_HANDLER: {"Make-handler", argsAny4},
	OP_SELF_ADDR:    {"Self-addr", argsReg},
	OP_CREATE_ACTOR: {"Create-actor", argsAnyAny},
	OP_PRINT:        {"Print", argsAny},
}

// mnemonicMap maps assembler mnemonics, including aliases, to opcodes.
var mnemonicMap = map[string]Opcode{
	"SendMessage": OP_SEND_MSG,
	"MakeHandler": OP_MAKE_HANDLER,
	"SelfAddr":    OP_SELF_ADDR,
	"CreateActor": OP_CREATE_ACTOR,
}

func init() {
	for op, info := range opcodeTable {
		mnemonicMap[info.Name] = op
	}
}

// registerList is the register set, in display order.
var registerList = []Register{
	REG_IP, REG_RA, REG_RHEN, REG_RX, REG_RY, REG_RZ, REG_BRIAN,
}

var registerNames = map[Register]string{
	REG_IP:    "ip",
	REG_RA:    "ra",
	REG_RHEN:  "rhen",
	REG_RX:    "rx",
	REG_RY:    "ry",
	REG_RZ:    "rz",
	REG_BRIAN: "brian",
}

// registerMap maps register names to identifiers.
var registerMap = map[string]Register{}

func init() {
	for reg, name := range registerNames {
		registerMap[name] = reg
	}
}

// LookupOpcode returns the opcode for an assembler mnemonic.
func LookupOpcode(name string) (op Opcode, ok bool) {
	op, ok = mnemonicMap[name]
	return
}

// LookupRegister returns the register for a register name.
func LookupRegister(name string) (reg Register, ok bool) {
	reg, ok = registerMap[name]
	return
}

// Registers iterates over all registers in display order.
func Registers() iter.Seq[Register] {
	return slices.Values(registerList)
}

// Valid returns true if the opcode is in the instruction set.
func (op Opcode) Valid() bool {
	_, ok := opcodeTable[op]
	return ok
}

// Args returns the operand layout of the opcode.
func (op Opcode) Args() []ArgKind {
	return opcodeTable[op].Args
}

// String returns the canonical mnemonic.
func (op Opcode) String() string {
	info, ok := opcodeTable[op]
	if !ok {
		return fmt.Sprintf("Opcode(%#02x)", byte(op))
	}
	return info.Name
}

// Valid returns true if the register is in the register set.
func (reg Register) Valid() bool {
	_, ok := registerNames[reg]
	return ok
}

// String returns the register name.
func (reg Register) String() string {
	name, ok := registerNames[reg]
	if !ok {
		return fmt.Sprintf("Register(%#02x)", byte(reg))
	}
	return name
}
