package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func waitForDialog(t *testing.T, f *Feed) PendingDialog {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := f.Drain(); len(s.Dialogs) > 0 {
			return s.Dialogs[0]
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("dialog never became pending")
	return PendingDialog{}
}

func TestFeed_ConfirmWaitsForAnswer(t *testing.T) {
	f := NewFeed(time.Minute)

	done := make(chan bool, 1)
	go func() {
		ok, err := f.Confirm(context.Background(), Dialog{Title: "t", Message: "m"})
		if err != nil {
			t.Errorf("confirm: %v", err)
		}
		done <- ok
	}()

	d := waitForDialog(t, f)
	if err := f.Answer(d.ID, true); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if ok := <-done; !ok {
		t.Fatalf("expected confirmed")
	}
	if err := f.Answer(d.ID, true); !errors.Is(err, ErrUnknownDialog) {
		t.Fatalf("expected ErrUnknownDialog on second answer, got %v", err)
	}
}

func TestFeed_ConfirmExpires(t *testing.T) {
	f := NewFeed(10 * time.Millisecond)
	ok, err := f.Confirm(context.Background(), Dialog{})
	if ok || !errors.Is(err, ErrDialogExpired) {
		t.Fatalf("expected expiry, got ok=%v err=%v", ok, err)
	}
}

func TestFeed_DrainTakesToasts(t *testing.T) {
	f := NewFeed(time.Minute)
	f.Error(context.Background(), "one")
	f.Error(context.Background(), "two")

	s := f.Drain()
	if len(s.Toasts) != 2 || s.Toasts[0].Message != "one" {
		t.Fatalf("unexpected toasts %+v", s.Toasts)
	}
	if s = f.Drain(); len(s.Toasts) != 0 {
		t.Fatalf("expected toasts drained")
	}
}

func TestFeed_CapsToasts(t *testing.T) {
	f := NewFeed(time.Minute)
	f.capacity = 2
	for _, m := range []string{"a", "b", "c"} {
		f.Error(context.Background(), m)
	}
	s := f.Drain()
	if len(s.Toasts) != 2 || s.Toasts[0].Message != "b" {
		t.Fatalf("expected oldest toast dropped, got %+v", s.Toasts)
	}
}

func TestTerminal_NonInteractiveDeclines(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminalWith(strings.NewReader("y\n"), &out, false)
	ok, err := term.Confirm(context.Background(), Dialog{Title: "Tip", Message: "leave?", ConfirmText: "ok", CancelText: "no"})
	if err != nil || ok {
		t.Fatalf("expected decline, got ok=%v err=%v", ok, err)
	}
}

func TestTerminal_InteractiveReadsAnswer(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminalWith(strings.NewReader("yes\n"), &out, true)
	ok, err := term.Confirm(context.Background(), Dialog{Title: "Tip", Message: "leave?", ConfirmText: "ok", CancelText: "no"})
	if err != nil || !ok {
		t.Fatalf("expected confirm, got ok=%v err=%v", ok, err)
	}
	if !strings.Contains(out.String(), "leave?") {
		t.Fatalf("expected prompt written, got %q", out.String())
	}
}

func TestTerminal_CancelledPromptLeavesNextAnswerForNextPrompt(t *testing.T) {
	var out bytes.Buffer
	pr, pw := io.Pipe()
	defer pw.Close()
	term := NewTerminalWith(pr, &out, true)
	d := Dialog{Title: "Tip", Message: "leave?", ConfirmText: "ok", CancelText: "no"}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := term.Confirm(ctx, d); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}

	go func() { _, _ = io.WriteString(pw, "y\n") }()

	ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	ok, err := term.Confirm(ctx2, d)
	if err != nil || !ok {
		t.Fatalf("expected second prompt to read the answer, got ok=%v err=%v", ok, err)
	}
}

func TestTerminal_ClosedInputDeclines(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminalWith(strings.NewReader(""), &out, true)
	d := Dialog{Title: "Tip", Message: "leave?", ConfirmText: "ok", CancelText: "no"}
	for i := 0; i < 2; i++ {
		ok, err := term.Confirm(context.Background(), d)
		if err != nil || ok {
			t.Fatalf("prompt %d: expected decline on EOF, got ok=%v err=%v", i, ok, err)
		}
	}
}
