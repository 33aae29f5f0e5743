package mux

import (
	"bytes"
	"errors"
	"os/exec"
	"reflect"
	"testing"
)

type tmuxCall struct {
	args  []string
	input []byte
}

type fakeRunner struct {
	calls  []tmuxCall
	output []byte
	err    error
}

func (f *fakeRunner) Run(args []string, input []byte) ([]byte, error) {
	f.calls = append(f.calls, tmuxCall{args: append([]string(nil), args...), input: append([]byte(nil), input...)})
	return f.output, f.err
}

func TestTmuxListSessions(t *testing.T) {
	runner := &fakeRunner{output: []byte("alpha\nbeta\n")}
	driver := NewTmuxDriverWithRunner(runner)

	sessions, err := driver.ListSessions()
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if !reflect.DeepEqual(sessions, []string{"alpha", "beta"}) {
		t.Fatalf("unexpected sessions %#v", sessions)
	}
	expected := []string{"list-sessions", "-F", "#{session_name}"}
	if !reflect.DeepEqual(runner.calls[0].args, expected) {
		t.Fatalf("unexpected args %#v", runner.calls[0].args)
	}
}

func TestTmuxListSessionsNoServer(t *testing.T) {
	runner := &fakeRunner{err: &exec.ExitError{}}
	driver := NewTmuxDriverWithRunner(runner)

	sessions, err := driver.ListSessions()
	if err != nil {
		t.Fatalf("no server should not be an error: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected no sessions, got %#v", sessions)
	}
}

func TestTmuxHasSessionExactMatch(t *testing.T) {
	runner := &fakeRunner{}
	driver := NewTmuxDriverWithRunner(runner)

	exists, err := driver.HasSession("alpha")
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if !exists {
		t.Fatalf("expected session to exist")
	}
	expected := []string{"has-session", "-t", "=alpha"}
	if !reflect.DeepEqual(runner.calls[0].args, expected) {
		t.Fatalf("unexpected args %#v", runner.calls[0].args)
	}
}

func TestTmuxHasSessionMissing(t *testing.T) {
	runner := &fakeRunner{err: &exec.ExitError{}}
	driver := NewTmuxDriverWithRunner(runner)

	exists, err := driver.HasSession("ghost")
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if exists {
		t.Fatalf("expected missing session")
	}
}

func TestTmuxSendTextUsesPasteBuffer(t *testing.T) {
	runner := &fakeRunner{}
	driver := NewTmuxDriverWithRunner(runner)

	payload := "line one\nline two"
	if err := driver.SendText("alpha", payload); err != nil {
		t.Fatalf("send text: %v", err)
	}
	if len(runner.calls) != 2 {
		t.Fatalf("expected load-buffer then paste-buffer, got %d calls", len(runner.calls))
	}
	if !reflect.DeepEqual(runner.calls[0].args, []string{"load-buffer", "-"}) {
		t.Fatalf("unexpected load args %#v", runner.calls[0].args)
	}
	if !bytes.Equal(runner.calls[0].input, []byte(payload)) {
		t.Fatalf("unexpected load input %q", runner.calls[0].input)
	}
	if !reflect.DeepEqual(runner.calls[1].args, []string{"paste-buffer", "-d", "-t", "=alpha"}) {
		t.Fatalf("unexpected paste args %#v", runner.calls[1].args)
	}
}

func TestTmuxSendSubmit(t *testing.T) {
	runner := &fakeRunner{}
	driver := NewTmuxDriverWithRunner(runner)

	if err := driver.SendSubmit("alpha"); err != nil {
		t.Fatalf("send submit: %v", err)
	}
	expected := []string{"send-keys", "-t", "=alpha", "Enter"}
	if !reflect.DeepEqual(runner.calls[0].args, expected) {
		t.Fatalf("unexpected args %#v", runner.calls[0].args)
	}
}

func TestTmuxCaptureWindow(t *testing.T) {
	runner := &fakeRunner{output: []byte("> \nhello\n")}
	driver := NewTmuxDriverWithRunner(runner)

	capture, err := driver.Capture("alpha", 80)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if capture != "> \nhello\n" {
		t.Fatalf("unexpected capture %q", capture)
	}
	expected := []string{"capture-pane", "-p", "-t", "=alpha", "-S", "-80"}
	if !reflect.DeepEqual(runner.calls[0].args, expected) {
		t.Fatalf("unexpected args %#v", runner.calls[0].args)
	}
}

func TestTmuxCaptureDefaultWindow(t *testing.T) {
	runner := &fakeRunner{}
	driver := NewTmuxDriverWithRunner(runner)

	if _, err := driver.Capture("alpha", 0); err != nil {
		t.Fatalf("capture: %v", err)
	}
	expected := []string{"capture-pane", "-p", "-t", "=alpha", "-S", "-50"}
	if !reflect.DeepEqual(runner.calls[0].args, expected) {
		t.Fatalf("unexpected args %#v", runner.calls[0].args)
	}
}

func TestTmuxCurrentSession(t *testing.T) {
	runner := &fakeRunner{output: []byte("alpha\n")}
	driver := NewTmuxDriverWithRunner(runner)

	name, err := driver.CurrentSession()
	if err != nil {
		t.Fatalf("current session: %v", err)
	}
	if name != "alpha" {
		t.Fatalf("unexpected session %q", name)
	}
	expected := []string{"display-message", "-p", "#{session_name}"}
	if !reflect.DeepEqual(runner.calls[0].args, expected) {
		t.Fatalf("unexpected args %#v", runner.calls[0].args)
	}
}

func TestTmuxCurrentSessionOutsideTmux(t *testing.T) {
	runner := &fakeRunner{}
	driver := NewTmuxDriverWithRunner(runner)

	if _, err := driver.CurrentSession(); err == nil {
		t.Fatalf("expected error outside tmux")
	}
}

func TestTmuxErrorIncludesCommandOutput(t *testing.T) {
	runner := &fakeRunner{err: errors.New("boom"), output: []byte("can't find pane\n")}
	driver := NewTmuxDriverWithRunner(runner)

	err := driver.SendSubmit("alpha")
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := err.Error(); got != "tmux send-keys failed: can't find pane" {
		t.Fatalf("unexpected error %q", got)
	}
}
