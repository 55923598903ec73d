package io

import (
	"bytes"
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

func TestRom_Load(t *testing.T) {
	assert := assert.New(t)

	filesys := fstest.MapFS{
		"hello.bin": &fstest.MapFile{Data: []byte{0x49, 0x23, 0x41}},
		"empty.bin": &fstest.MapFile{Data: []byte{}},
	}

	rom := &Rom{}
	err := rom.Load(filesys, "hello.bin")
	assert.NoError(err)
	assert.Equal([]byte{0x49, 0x23, 0x41}, rom.Data)
	assert.Equal(3, rom.Len())

	err = rom.Load(filesys, "empty.bin")
	assert.ErrorIs(err, ErrRomEmpty)

	err = rom.Load(filesys, "missing.bin")
	assert.ErrorIs(err, fs.ErrNotExist)
}

func TestRom_SaveLoad(t *testing.T) {
	assert := assert.New(t)

	dir := DirFS(t.TempDir())

	rom := &Rom{Data: []byte{0x53, 0x41, 0x4e, 1, 0, 0, 0, 0, 0, 0, 0}}
	err := rom.Save(dir, "out.bin")
	assert.NoError(err)

	again := &Rom{}
	err = again.Load(dir, "out.bin")
	assert.NoError(err)
	assert.Equal(rom.Data, again.Data)
}

func TestDirFS(t *testing.T) {
	assert := assert.New(t)

	root := t.TempDir()
	dir := DirFS(root)

	err := dir.Mkdir("sub", 0755)
	assert.NoError(err)

	sub, err := dir.Sub("sub")
	assert.NoError(err)

	file, err := sub.Create("file.txt")
	assert.NoError(err)
	_, err = file.Write([]byte("hello"))
	assert.NoError(err)
	assert.NoError(file.Close())

	data, err := os.ReadFile(filepath.Join(root, "sub", "file.txt"))
	assert.NoError(err)
	assert.Equal("hello", string(data))

	_, err = dir.Sub("sub/file.txt")
	assert.ErrorIs(err, fs.ErrInvalid)

	_, err = dir.Create("../escape.txt")
	assert.ErrorIs(err, fs.ErrInvalid)
}

func TestConsole_Print(t *testing.T) {
	assert := assert.New(t)

	output := &bytes.Buffer{}
	con := &Console{Output: output, Prefix: "> "}

	assert.NoError(con.Print("1234"))
	assert.NoError(con.Print("5678"))
	assert.Equal("> 1234\n> 5678\n", output.String())

	// No output is a discard.
	con = &Console{}
	assert.NoError(con.Print("lost"))
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken")
}

func TestConsole_Print_Error(t *testing.T) {
	assert := assert.New(t)

	con := &Console{Output: failWriter{}}
	assert.Error(con.Print("text"))
}

func TestMailbox_New(t *testing.T) {
	assert := assert.New(t)

	mb := NewMailbox(0)
	assert.Equal(DEFAULT_CAPACITY, mb.Capacity)
	assert.Len(mb.Data, DEFAULT_CAPACITY)

	mb = NewMailbox(3)
	assert.Equal(3, mb.Capacity)
	assert.Equal(0, mb.Len())
}

func TestMailbox_Rewind(t *testing.T) {
	assert := assert.New(t)

	mb := &Mailbox{
		Capacity:   10,
		ReadIndex:  3,
		WriteIndex: 7,
		Size:       4,
		Data:       []Message{{Atom: 1}},
	}

	mb.Rewind()

	assert.Equal(0, mb.ReadIndex)
	assert.Equal(0, mb.WriteIndex)
	assert.Equal(0, mb.Size)
	assert.Len(mb.Data, 10)
}

func TestMailbox_Send_Receive(t *testing.T) {
	assert := assert.New(t)

	mb := NewMailbox(8)

	content := []byte{1, 2}
	assert.NoError(mb.Send(Message{Atom: 1, Content: content}))
	assert.NoError(mb.Send(Message{Atom: 2}))
	assert.NoError(mb.Send(Message{Atom: 3, Content: []byte{3}}))

	// Send keeps its own copy of the content.
	content[0] = 0xff

	assert.Equal(3, mb.Len())
	assert.Equal([]Message{
		{Atom: 1, Content: []byte{1, 2}},
		{Atom: 2},
		{Atom: 3, Content: []byte{3}},
	}, mb.Pending())

	var atoms []uint64
	for msg := range mb.Receive() {
		atoms = append(atoms, msg.Atom)
	}

	assert.Equal([]uint64{1, 2, 3}, atoms)
	assert.Equal(0, mb.Len())

	_, err := mb.Pop()
	assert.Equal(ErrChannelEmpty, err)
}

func TestMailbox_Send_CapacityFull(t *testing.T) {
	assert := assert.New(t)

	mb := NewMailbox(2)

	assert.NoError(mb.Send(Message{Atom: 1}))
	assert.NoError(mb.Send(Message{Atom: 2}))

	err := mb.Send(Message{Atom: 3})
	assert.Equal(ErrChannelFull, err)
}

func TestMailbox_WrapAround(t *testing.T) {
	assert := assert.New(t)

	mb := NewMailbox(4)

	for atom := range uint64(4) {
		mb.Send(Message{Atom: atom})
	}

	pull, stop := iter.Pull(mb.Receive())
	msg, ok := pull()
	assert.True(ok)
	assert.Equal(uint64(0), msg.Atom)
	msg, ok = pull()
	assert.True(ok)
	assert.Equal(uint64(1), msg.Atom)
	stop()

	assert.NoError(mb.Send(Message{Atom: 4}))
	assert.NoError(mb.Send(Message{Atom: 5}))

	assert.Equal(2, mb.WriteIndex)
	assert.Equal(2, mb.ReadIndex)
	assert.Equal(4, mb.Size)

	var atoms []uint64
	for msg := range mb.Receive() {
		atoms = append(atoms, msg.Atom)
	}
	assert.Equal([]uint64{2, 3, 4, 5}, atoms)
}

func TestMailbox_Receive_EarlyStop(t *testing.T) {
	assert := assert.New(t)

	mb := NewMailbox(8)
	for atom := range uint64(4) {
		mb.Send(Message{Atom: atom})
	}

	count := 0
	for range mb.Receive() {
		count++
		if count == 2 {
			break
		}
	}

	assert.Equal(2, count)
	assert.Equal(2, mb.Len())
}
