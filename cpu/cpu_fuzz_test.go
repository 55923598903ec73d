package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func FuzzDecode(f *testing.F) {
	for op := range opcodeTable {
		inst := Instruction{Op: op, Args: sampleArgs(op)}
		code, _ := inst.AppendBinary(nil)
		f.Add(code, uint8(0))
	}
	f.Add([]byte{}, uint8(0))
	f.Add([]byte{byte(OP_SET), IMMEDIATE_MARK}, uint8(1))

	f.Fuzz(func(t *testing.T, code []byte, at uint8) {
		assert := assert.New(t)

		offset := uint64(at)
		inst, err := Decode(code, offset)
		if err != nil {
			assert.ErrorIs(err, ErrDecode)
			assert.Equal(Instruction{}, inst)
			return
		}

		assert.Greater(inst.Length, 0)
		assert.LessOrEqual(offset+uint64(inst.Length), uint64(len(code)))

		// Decoding is the inverse of encoding.
		encoded, err := inst.AppendBinary(nil)
		assert.NoError(err)
		assert.Equal(code[offset:offset+uint64(inst.Length)], encoded)

		// Every decoded instruction has an action.
		act, err := inst.Action(testCore())
		if err != nil {
			assert.Nil(act)
			return
		}
		assert.NotNil(act)
		assert.NotEmpty(act.Affects())
	})
}
