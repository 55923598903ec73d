package io

import (
	"iter"
	"slices"
)

// DEFAULT_CAPACITY is the mailbox capacity used when none is configured.
const DEFAULT_CAPACITY = 64

// Mailbox implements a circular buffer of messages.
// It operates as a FIFO queue with a fixed capacity and separate read/write positions.
type Mailbox struct {
	Capacity int // Capacity in messages.

	ReadIndex  int
	WriteIndex int
	Size       int
	Data       []Message
}

// NewMailbox returns an empty mailbox. A capacity of zero or less selects
// DEFAULT_CAPACITY.
func NewMailbox(capacity int) (mb *Mailbox) {
	if capacity <= 0 {
		capacity = DEFAULT_CAPACITY
	}
	mb = &Mailbox{Capacity: capacity}
	mb.Rewind()
	return
}

// Rewind resets the mailbox to empty, resetting indices and
// reinitializing the data buffer.
func (mb *Mailbox) Rewind() {
	mb.ReadIndex = 0
	mb.WriteIndex = 0
	mb.Size = 0
	mb.Data = make([]Message, mb.Capacity)
}

// Len returns the number of queued messages.
func (mb *Mailbox) Len() int {
	return mb.Size
}

// Pop removes and returns the oldest message.
// Returns ErrChannelEmpty if there are no messages.
func (mb *Mailbox) Pop() (msg Message, err error) {
	if mb.Size == 0 {
		err = ErrChannelEmpty
		return
	}

	msg = mb.Data[mb.ReadIndex]
	mb.Data[mb.ReadIndex] = Message{}
	mb.ReadIndex++
	if mb.ReadIndex == mb.Capacity {
		mb.ReadIndex = 0
	}
	mb.Size--

	return
}

// Receive returns an iterator that yields messages from the buffer until empty.
// The buffer wraps around at the capacity boundary.
func (mb *Mailbox) Receive() iter.Seq[Message] {
	return func(yield func(msg Message) bool) {
		for mb.Size > 0 {
			msg, _ := mb.Pop()
			if !yield(msg) {
				return
			}
		}
	}
}

// Send writes a message to the buffer at the current write position.
// Returns ErrChannelFull if the buffer has reached capacity.
func (mb *Mailbox) Send(msg Message) (err error) {
	if mb.Size >= mb.Capacity {
		err = ErrChannelFull
		return
	}

	msg.Content = slices.Clone(msg.Content)
	mb.Data[mb.WriteIndex] = msg

	mb.WriteIndex++
	if mb.WriteIndex == mb.Capacity {
		mb.WriteIndex = 0
	}
	mb.Size++

	return
}

// Pending returns the queued messages, oldest first, without consuming them.
func (mb *Mailbox) Pending() (msgs []Message) {
	index := mb.ReadIndex
	for range mb.Size {
		msgs = append(msgs, mb.Data[index])
		index++
		if index == mb.Capacity {
			index = 0
		}
	}
	return
}
