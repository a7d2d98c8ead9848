package message

import (
	"io"
	"sync"

	"github.com/ajitpratap0/tap-redshift/pkg/json"
	"github.com/ajitpratap0/tap-redshift/pkg/taperrors"
)

// Sink receives messages in emission order.
type Sink interface {
	Write(msg Message) error
}

// Writer is a Sink writing newline-delimited JSON. Each message reaches the
// underlying writer before Write returns.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter creates a Writer over out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Write encodes msg as one line.
func (w *Writer) Write(msg Message) error {
	buf, err := json.MarshalLine(msg)
	if err != nil {
		return taperrors.Wrap(err, taperrors.ErrorTypeOutput, "failed to encode message").
			WithDetail("type", string(msg.MessageType()))
	}
	defer json.PutBuffer(buf)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.out.Write(buf.Bytes()); err != nil {
		return taperrors.Wrap(err, taperrors.ErrorTypeOutput, "failed to write message").
			WithDetail("type", string(msg.MessageType()))
	}
	return nil
}

// Collector is a Sink that keeps messages in memory.
type Collector struct {
	mu       sync.Mutex
	Messages []Message
}

// Write appends msg.
func (c *Collector) Write(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Messages = append(c.Messages, msg)
	return nil
}

// Types returns the type of every collected message in order.
func (c *Collector) Types() []Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Type, len(c.Messages))
	for i, m := range c.Messages {
		out[i] = m.MessageType()
	}
	return out
}
