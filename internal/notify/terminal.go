package notify

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Terminal prints toasts to an output stream and prompts on stdin for dialogs.
// When the input is not a terminal every dialog is declined.
//
// One reader goroutine owns the input for the Terminal's lifetime; a prompt
// abandoned through its context leaves no reader behind, and the next line
// typed answers the next prompt.
type Terminal struct {
	mu          sync.Mutex
	in          *bufio.Reader
	out         io.Writer
	interactive bool

	start sync.Once
	lines chan string
	err   error // set before lines is closed
}

// NewTerminal uses the process stdin/stderr.
func NewTerminal() *Terminal {
	fd := os.Stdin.Fd()
	return NewTerminalWith(os.Stdin, os.Stderr, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

func NewTerminalWith(in io.Reader, out io.Writer, interactive bool) *Terminal {
	return &Terminal{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: interactive,
		lines:       make(chan string),
	}
}

func (t *Terminal) Error(ctx context.Context, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "error: %s\n", msg)
}

func (t *Terminal) readLines() {
	defer close(t.lines)
	for {
		line, err := t.in.ReadString('\n')
		if line != "" {
			t.lines <- line
		}
		if err != nil {
			t.err = err
			return
		}
	}
}

func (t *Terminal) Confirm(ctx context.Context, d Dialog) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, "%s: %s [%s/%s] ", d.Title, d.Message, d.ConfirmText, d.CancelText)
	if !t.interactive {
		fmt.Fprintln(t.out)
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		fmt.Fprintln(t.out)
		return false, err
	}
	t.start.Do(func() { go t.readLines() })

	select {
	case <-ctx.Done():
		fmt.Fprintln(t.out)
		return false, ctx.Err()
	case line, ok := <-t.lines:
		if !ok {
			if errors.Is(t.err, io.EOF) {
				return false, nil
			}
			return false, t.err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes" || strings.EqualFold(answer, d.ConfirmText), nil
	}
}
