// Package io provides the I/O endpoints of the hcpu virtual machine:
// the console that Print output goes to (Console), the bounded per-actor
// message queue (Mailbox), and the binary image store (Rom).
package io

// Message is an asynchronous actor message.
type Message struct {
	Atom    uint64
	Content []byte
}

// Sink receives console output from the machine.
type Sink interface {
	Print(text string) error
}
