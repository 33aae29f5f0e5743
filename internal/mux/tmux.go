package mux

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const defaultCaptureLines = 50

// CommandRunner executes tmux commands with optional stdin data.
type CommandRunner interface {
	Run(args []string, input []byte) ([]byte, error)
}

// TmuxDriver implements Driver against a running tmux server.
type TmuxDriver struct {
	runner CommandRunner
}

// NewTmuxDriver returns a driver using the tmux binary on PATH.
func NewTmuxDriver() *TmuxDriver {
	return &TmuxDriver{runner: execRunner{}}
}

// NewTmuxDriverWithRunner returns a driver using a custom command runner.
func NewTmuxDriverWithRunner(runner CommandRunner) *TmuxDriver {
	return &TmuxDriver{runner: runner}
}

// ListSessions returns the names of active tmux sessions. A missing tmux
// server means no sessions, not an error.
func (d *TmuxDriver) ListSessions() ([]string, error) {
	if d == nil || d.runner == nil {
		return nil, errors.New("tmux runner unavailable")
	}
	output, err := d.runner.Run([]string{"list-sessions", "-F", "#{session_name}"}, nil)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, nil
		}
		return nil, wrapTmuxError("list-sessions", output, err)
	}
	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" {
		return nil, nil
	}
	lines := strings.Split(trimmed, "\n")
	sessions := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			sessions = append(sessions, line)
		}
	}
	return sessions, nil
}

// HasSession reports whether the named session exists. The "=" prefix forces
// exact matching; bare names ask tmux for prefix matches.
func (d *TmuxDriver) HasSession(name string) (bool, error) {
	if d == nil || d.runner == nil {
		return false, errors.New("tmux runner unavailable")
	}
	output, err := d.runner.Run([]string{"has-session", "-t", "=" + name}, nil)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, wrapTmuxError("has-session", output, err)
	}
	return true, nil
}

// SendText injects literal text through the tmux paste buffer so multiline
// payloads land in the target atomically instead of line by line.
func (d *TmuxDriver) SendText(target, text string) error {
	if err := d.run([]string{"load-buffer", "-"}, []byte(text)); err != nil {
		return err
	}
	return d.run([]string{"paste-buffer", "-d", "-t", "=" + target}, nil)
}

// SendSubmit presses Enter in the target session.
func (d *TmuxDriver) SendSubmit(target string) error {
	return d.run([]string{"send-keys", "-t", "=" + target, "Enter"}, nil)
}

// Capture returns the last lines of pane output, reaching into scrollback.
func (d *TmuxDriver) Capture(target string, lines int) (string, error) {
	if lines <= 0 {
		lines = defaultCaptureLines
	}
	args := []string{"capture-pane", "-p", "-t", "=" + target, "-S", "-" + strconv.Itoa(lines)}
	output, err := d.runWithOutput(args, nil)
	if err != nil {
		return "", err
	}
	return string(output), nil
}

// CurrentSession returns the session this process runs inside, or an error
// when run outside tmux.
func (d *TmuxDriver) CurrentSession() (string, error) {
	output, err := d.runWithOutput([]string{"display-message", "-p", "#{session_name}"}, nil)
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(string(output))
	if name == "" {
		return "", errors.New("not inside a tmux session")
	}
	return name, nil
}

func (d *TmuxDriver) run(args []string, input []byte) error {
	_, err := d.runWithOutput(args, input)
	return err
}

func (d *TmuxDriver) runWithOutput(args []string, input []byte) ([]byte, error) {
	if d == nil || d.runner == nil {
		return nil, errors.New("tmux runner unavailable")
	}
	output, err := d.runner.Run(args, input)
	if err != nil {
		return nil, wrapTmuxError(args[0], output, err)
	}
	return output, nil
}

func wrapTmuxError(command string, output []byte, err error) error {
	if len(output) > 0 {
		return fmt.Errorf("tmux %s failed: %s", command, bytes.TrimSpace(output))
	}
	return fmt.Errorf("tmux %s failed: %w", command, err)
}

type execRunner struct{}

func (execRunner) Run(args []string, input []byte) ([]byte, error) {
	cmd := exec.Command("tmux", args...)
	if len(input) > 0 {
		cmd.Stdin = bytes.NewReader(input)
	}
	return cmd.CombinedOutput()
}
