// Package notify delivers short, transient messages to the user: the
// terminal counterpart of toast notifications.
package notify

import (
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/fatih/color"
)

// Notifier shows a one-line success or error message.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Console prints coloured messages to a writer. It is safe for concurrent
// use; lines are never interleaved.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	ok  *color.Color
	bad *color.Color
}

func NewConsole(w io.Writer) *Console {
	return &Console{
		out: w,
		ok:  color.New(color.FgGreen),
		bad: color.New(color.FgRed),
	}
}

func (c *Console) Success(msg string) {
	c.print(c.ok, "✓ ", msg)
}

func (c *Console) Error(msg string) {
	c.print(c.bad, "✗ ", msg)
}

func (c *Console) print(col *color.Color, mark, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, col.Sprint(mark+msg))
}

type Kind int

const (
	KindSuccess Kind = iota
	KindError
)

type Message struct {
	Kind Kind
	Text string
}

// Recorder keeps every message in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Success(msg string) { r.add(KindSuccess, msg) }

func (r *Recorder) Error(msg string) { r.add(KindError, msg) }

func (r *Recorder) add(k Kind, msg string) {
	r.mu.Lock()
	r.messages = append(r.messages, Message{Kind: k, Text: msg})
	r.mu.Unlock()
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.messages)
}

func (r *Recorder) Successes() []string { return r.texts(KindSuccess) }

func (r *Recorder) Errors() []string { return r.texts(KindError) }

func (r *Recorder) texts(k Kind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.messages {
		if m.Kind == k {
			out = append(out, m.Text)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.messages = nil
	r.mu.Unlock()
}

// Discard drops every message.
type Discard struct{}

func (Discard) Success(string) {}
func (Discard) Error(string)   {}
