package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/deploykit/pkg/ports"
	"golang.org/x/term"
)

// TerminalConfirmer asks yes/no questions on a terminal.
// When the input is not a terminal it answers with the default without reading.
type TerminalConfirmer struct {
	reader      *bufio.Reader
	writer      io.Writer
	interactive bool

	lines     chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// ConfirmerOption configures a TerminalConfirmer.
type ConfirmerOption func(*TerminalConfirmer)

// WithInteractive overrides terminal detection.
func WithInteractive(interactive bool) ConfirmerOption {
	return func(c *TerminalConfirmer) {
		c.interactive = interactive
	}
}

// NewTerminalConfirmer creates a confirmer reading r and prompting on w.
func NewTerminalConfirmer(r io.Reader, w io.Writer, opts ...ConfirmerOption) *TerminalConfirmer {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stderr
	}
	c := &TerminalConfirmer{
		reader:      bufio.NewReader(r),
		writer:      w,
		interactive: isTerminal(r),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Interactive reports whether Confirm reads answers.
func (c *TerminalConfirmer) Interactive() bool {
	return c.interactive
}

// Reads run on a single goroutine so an abandoned question never loses the next answer.
func (c *TerminalConfirmer) initPump() {
	c.startOnce.Do(func() {
		c.lines = make(chan inputResult)
		go c.pump()
	})
}

func (c *TerminalConfirmer) pump() {
	defer close(c.lines)
	for {
		text, err := c.reader.ReadString('\n')
		if text != "" {
			c.lines <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				c.lines <- inputResult{err: err}
			}
			return
		}
	}
}

// Confirm implements ports.Confirmer. An empty answer picks defaultYes.
func (c *TerminalConfirmer) Confirm(ctx context.Context, prompt string, defaultYes bool) (bool, error) {
	if !c.interactive {
		return defaultYes, nil
	}
	c.initPump()

	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	for {
		fmt.Fprintf(c.writer, "%s %s ", strings.TrimSpace(prompt), hint)

		select {
		case <-ctx.Done():
			fmt.Fprintln(c.writer)
			return false, ctx.Err()
		case res, ok := <-c.lines:
			if !ok {
				return false, io.EOF
			}
			if res.err != nil {
				return false, res.err
			}
			reply, err := SanitizeReply(res.text)
			if err != nil {
				fmt.Fprintf(c.writer, "Error: %v. Please try again.\n", err)
				continue
			}
			if yes, ok := parseReply(reply, defaultYes); ok {
				return yes, nil
			}
			fmt.Fprintln(c.writer, "Please answer y or n.")
		}
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

var _ ports.Confirmer = (*TerminalConfirmer)(nil)
