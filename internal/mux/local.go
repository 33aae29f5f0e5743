package mux

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/creack/pty"

	"crosstalk/internal/buffer"
)

const localScrollback = 2000

var ansiEscape = regexp.MustCompile(`\x1b(?:\[[0-9;?]*[ -/]*[@-~]|\][^\x07\x1b]*(?:\x07|\x1b\\)|[@-_])`)

// LocalDriver implements Driver with in-process pty sessions. Each session
// runs one command on its own pty and retains a scrollback ring of its
// output, so the exchange layer behaves the same against a local shell as it
// does against a tmux pane.
type LocalDriver struct {
	mu       sync.Mutex
	sessions map[string]*localSession
}

type localSession struct {
	name string
	cmd  *exec.Cmd
	pty  *os.File

	mu      sync.Mutex
	lines   *buffer.Ring[string]
	partial string
}

func NewLocalDriver() *LocalDriver {
	return &LocalDriver{sessions: make(map[string]*localSession)}
}

// Start launches argv on a fresh pty under the given session name.
func (d *LocalDriver) Start(name string, argv []string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("session name is required")
	}
	if len(argv) == 0 {
		return errors.New("session command is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.sessions[name]; exists {
		return fmt.Errorf("session %q already exists", name)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	ptyFile, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("start session %q: %w", name, err)
	}

	session := &localSession{
		name:  name,
		cmd:   cmd,
		pty:   ptyFile,
		lines: buffer.NewRing[string](localScrollback),
	}
	d.sessions[name] = session
	go session.readLoop()
	return nil
}

// Stop tears down a session: closes the pty and reaps the process.
func (d *LocalDriver) Stop(name string) error {
	d.mu.Lock()
	session, exists := d.sessions[name]
	delete(d.sessions, name)
	d.mu.Unlock()
	if !exists {
		return fmt.Errorf("session %q not found", name)
	}
	return session.close()
}

// Close stops every session.
func (d *LocalDriver) Close() error {
	d.mu.Lock()
	sessions := make([]*localSession, 0, len(d.sessions))
	for _, session := range d.sessions {
		sessions = append(sessions, session)
	}
	d.sessions = make(map[string]*localSession)
	d.mu.Unlock()

	var firstErr error
	for _, session := range sessions {
		if err := session.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (d *LocalDriver) ListSessions() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, len(d.sessions))
	for name := range d.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (d *LocalDriver) HasSession(name string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, exists := d.sessions[name]
	return exists, nil
}

func (d *LocalDriver) SendText(target, text string) error {
	session, err := d.lookup(target)
	if err != nil {
		return err
	}
	if _, err := session.pty.Write([]byte(text)); err != nil {
		return fmt.Errorf("write to session %q: %w", target, err)
	}
	return nil
}

func (d *LocalDriver) SendSubmit(target string) error {
	session, err := d.lookup(target)
	if err != nil {
		return err
	}
	if _, err := session.pty.Write([]byte("\r")); err != nil {
		return fmt.Errorf("write to session %q: %w", target, err)
	}
	return nil
}

func (d *LocalDriver) Capture(target string, lines int) (string, error) {
	session, err := d.lookup(target)
	if err != nil {
		return "", err
	}
	if lines <= 0 {
		lines = defaultCaptureLines
	}
	return session.capture(lines), nil
}

func (d *LocalDriver) lookup(target string) (*localSession, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	session, exists := d.sessions[target]
	if !exists {
		return nil, fmt.Errorf("session %q not found", target)
	}
	return session, nil
}

func (s *localSession) readLoop() {
	chunk := make([]byte, 4096)
	for {
		n, err := s.pty.Read(chunk)
		if n > 0 {
			s.ingest(chunk[:n])
		}
		if err != nil {
			return
		}
	}
}

// ingest folds a raw pty chunk into the line ring. Escape sequences are
// stripped so captures diff cleanly; an unterminated final line stays
// pending until its newline arrives.
func (s *localSession) ingest(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	text := s.partial + string(chunk)
	text = ansiEscape.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	s.partial = lines[len(lines)-1]
	for _, line := range lines[:len(lines)-1] {
		s.lines.Add(line)
	}
}

func (s *localSession) capture(lines int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	tail := s.lines.Tail(lines)
	if s.partial != "" {
		tail = append(tail, s.partial)
		if len(tail) > lines {
			tail = tail[len(tail)-lines:]
		}
	}
	return strings.Join(tail, "\n")
}

func (s *localSession) close() error {
	err := s.pty.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
	return err
}
