package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func imm(value uint64) Argument {
	return Argument{Value: value, Immediate: true}
}

func reg(r Register) Argument {
	return Argument{Register: r}
}

func testCore() (core *Core) {
	core = NewCore(0xc0de, 0, 4)
	core.Registers[REG_RX] = 7
	core.Registers[REG_RY] = ^uint64(1) // -2
	core.Ram[0x100] = 'h'
	core.Ram[0x101] = 'i'
	core.Ram[0x102] = 0x1ff
	return
}

func TestAction(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		inst   Instruction
		action Action
	}){
		{Instruction{Op: OP_SET, Args: []Argument{reg(REG_RA), imm(5)}},
			WriteCore{Target: 0xc0de, Registers: map[Register]uint64{REG_RA: 5}}},
		{Instruction{Op: OP_SET, Args: []Argument{reg(REG_IP), reg(REG_RX)}},
			WriteCore{Target: 0xc0de, Registers: map[Register]uint64{REG_IP: 7}}},
		{Instruction{Op: OP_SET_MEM, Args: []Argument{imm(0x10), reg(REG_RX)}},
			WriteCore{Target: 0xc0de, Ram: map[uint64]uint64{0x10: 7}}},
		{Instruction{Op: OP_READ_MEM, Args: []Argument{reg(REG_RA), imm(0x101)}},
			WriteCore{Target: 0xc0de, Registers: map[Register]uint64{REG_RA: 'i'}}},
		{Instruction{Op: OP_READ_MEM, Args: []Argument{reg(REG_RA), imm(0x999)}},
			WriteCore{Target: 0xc0de, Registers: map[Register]uint64{REG_RA: 0}}},
		{Instruction{Op: OP_ADD, Args: []Argument{reg(REG_RA), imm(0x1234), imm(0x4321)}},
			WriteCore{Target: 0xc0de, Registers: map[Register]uint64{REG_RA: 0x5555}}},
		{Instruction{Op: OP_ADD, Args: []Argument{reg(REG_RA), imm(^uint64(0)), imm(2)}},
			WriteCore{Target: 0xc0de, Registers: map[Register]uint64{REG_RA: 1}}},
		{Instruction{Op: OP_SUB, Args: []Argument{reg(REG_RA), imm(1), imm(2)}},
			WriteCore{Target: 0xc0de, Registers: map[Register]uint64{REG_RA: ^uint64(0)}}},
		{Instruction{Op: OP_MUL, Args: []Argument{reg(REG_RA), reg(REG_RX), imm(6)}},
			WriteCore{Target: 0xc0de, Registers: map[Register]uint64{REG_RA: 42}}},
		{Instruction{Op: OP_DIV, Args: []Argument{reg(REG_RA), reg(REG_RX), imm(2)}},
			WriteCore{Target: 0xc0de, Registers: map[Register]uint64{REG_RA: 3}}},
		{Instruction{Op: OP_DIV, Args: []Argument{reg(REG_RA), reg(REG_RX), reg(REG_RY)}},
			WriteCore{Target: 0xc0de, Registers: map[Register]uint64{REG_RA: ^uint64(2)}}}, // -3
		{Instruction{Op: OP_LT, Args: []Argument{reg(REG_RA), reg(REG_RY), reg(REG_RX)}},
			WriteCore{Target: 0xc0de, Registers: map[Register]uint64{REG_RA: 1}}},
		{Instruction{Op: OP_LE, Args: []Argument{reg(REG_RA), reg(REG_RX), imm(7)}},
			WriteCore{Target: 0xc0de, Registers: map[Register]uint64{REG_RA: 1}}},
		{Instruction{Op: OP_EQ, Args: []Argument{reg(REG_RA), reg(REG_RX), imm(8)}},
			WriteCore{Target: 0xc0de, Registers: map[Register]uint64{REG_RA: 0}}},
		{Instruction{Op: OP_GT, Args: []Argument{reg(REG_RA), reg(REG_RY), reg(REG_RX)}},
			WriteCore{Target: 0xc0de, Registers: map[Register]uint64{REG_RA: 0}}},
		{Instruction{Op: OP_GE, Args: []Argument{reg(REG_RA), reg(REG_RX), reg(REG_RX)}},
			WriteCore{Target: 0xc0de, Registers: map[Register]uint64{REG_RA: 1}}},
		{Instruction{Op: OP_IDLE, Args: []Argument{}},
			WriteCore{Target: 0xc0de}},
		{Instruction{Op: OP_SEND_MSG, Args: []Argument{imm(0xbeef), imm(3), imm(3), imm(0x100)}},
			SendMessage{Receiver: 0xbeef, Atom: 3, Content: []byte{'h', 'i', 0xff}}},
		{Instruction{Op: OP_SEND_MSG, Args: []Argument{imm(0xbeef), imm(3), imm(0), imm(0x100)}},
			SendMessage{Receiver: 0xbeef, Atom: 3, Content: []byte{}}},
		{Instruction{Op: OP_MAKE_HANDLER, Args: []Argument{imm(3), imm(2), imm(0x200), imm(0x40)}},
			InstallHandler{Target: 0xc0de, Atom: 3, Length: 2, Buffer: 0x200, Ip: 0x40}},
		{Instruction{Op: OP_SELF_ADDR, Args: []Argument{reg(REG_BRIAN)}},
			WriteCore{Target: 0xc0de, Registers: map[Register]uint64{REG_BRIAN: 0xc0de}}},
		{Instruction{Op: OP_CREATE_ACTOR, Args: []Argument{imm(0xf00d), imm(0x30)}},
			SpawnActor{Address: 0xf00d, Ip: 0x30, Creator: 0xc0de}},
		{Instruction{Op: OP_PRINT, Args: []Argument{reg(REG_RY)}},
			Print{Text: "18446744073709551614"}},
	}

	for _, entry := range table {
		act, err := entry.inst.Action(testCore())
		assert.NoError(err, entry.inst.String())
		assert.Equal(entry.action, act, entry.inst.String())
	}
}

func TestAction_Faults(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		inst Instruction
		err  error
	}){
		{Instruction{Op: OP_DIV, Args: []Argument{reg(REG_RA), imm(1), imm(0)}}, ErrDivideByZero},
		{Instruction{Op: OP_SEND_MSG, Args: []Argument{imm(1), imm(1), imm(9), imm(0)}}, ErrMessageLength},
		{Instruction{Op: OP_MAKE_HANDLER, Args: []Argument{imm(1), imm(9), imm(0), imm(0)}}, ErrMessageLength},
		{Instruction{Op: Opcode(0)}, ErrDecodeOpcode},
	}

	for _, entry := range table {
		act, err := entry.inst.Action(testCore())
		assert.Nil(act, entry.inst.String())
		assert.ErrorIs(err, entry.err, entry.inst.String())
	}
}

func TestAction_Affects(t *testing.T) {
	assert := assert.New(t)

	assert.Equal([]uint64{1}, WriteCore{Target: 1}.Affects())
	assert.Equal([]uint64{2}, InstallHandler{Target: 2}.Affects())
	assert.Equal([]uint64{3}, SendMessage{Receiver: 3}.Affects())
	assert.Equal([]uint64{BROADCAST}, Print{}.Affects())
	assert.Equal([]uint64{BROADCAST}, SpawnActor{Address: 4}.Affects())
}

func TestAction_String(t *testing.T) {
	assert := assert.New(t)

	act := WriteCore{
		Target:    0x10,
		Ram:       map[uint64]uint64{2: 3},
		Registers: map[Register]uint64{REG_RA: 1},
	}
	assert.Equal("WriteCore(0x10: [0x2]=0x3, $ra=0x1)", act.String())
	assert.Equal(`Print("42")`, Print{Text: "42"}.String())
	assert.Equal("SendMessage(0x1: atom=0x2 content=6869)", SendMessage{Receiver: 1, Atom: 2, Content: []byte("hi")}.String())
}

func TestWritesIp(t *testing.T) {
	assert := assert.New(t)

	assert.True(WritesIp(WriteCore{Target: 1, Registers: map[Register]uint64{REG_IP: 0}}, 1))
	assert.False(WritesIp(WriteCore{Target: 2, Registers: map[Register]uint64{REG_IP: 0}}, 1))
	assert.False(WritesIp(WriteCore{Target: 1, Registers: map[Register]uint64{REG_RA: 0}}, 1))
	assert.False(WritesIp(WriteCore{Target: 1}, 1))
	assert.False(WritesIp(Print{}, 1))
}
