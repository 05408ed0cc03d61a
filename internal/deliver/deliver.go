// Package deliver defines how formatted coach output leaves the process.
// The core returns plain text; a Deliverer owns the actual send.
package deliver

import (
	"context"
	"fmt"
	"io"
)

// Message is a payload bound for a destination channel.
type Message struct {
	Channel string
	Text    string
}

// Deliverer sends a message to its channel.
type Deliverer interface {
	Deliver(ctx context.Context, msg Message) error
}

// Console writes messages to a writer, one per block. The default delivery
// target for a locally-run coach.
type Console struct {
	W io.Writer
}

// NewConsole creates a console deliverer.
func NewConsole(w io.Writer) *Console {
	return &Console{W: w}
}

func (c *Console) Deliver(ctx context.Context, msg Message) error {
	if msg.Text == "" {
		return nil
	}
	_, err := fmt.Fprintf(c.W, "[%s]\n%s\n\n", msg.Channel, msg.Text)
	return err
}
