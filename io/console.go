package io

import (
	"fmt"
	"io"
)

// Console writes machine output, one line per Print, to an io.Writer.
type Console struct {
	Output io.Writer
	Prefix string // Prepended to each line.
}

var _ Sink = (*Console)(nil)

// Print writes a line of text to the output. A console with no output
// discards the text.
func (con *Console) Print(text string) (err error) {
	if con.Output == nil {
		return
	}

	_, err = fmt.Fprintf(con.Output, "%v%v\n", con.Prefix, text)
	return
}
