// Package mux drives terminal-multiplexer sessions: the only primitives the
// message channel has are injecting keystrokes into a named session and
// capturing the tail of its visible output. The tmux driver shells out to a
// tmux server; the local driver runs commands on in-process ptys for tests
// and single-machine demos.
package mux

// Driver is the session surface the exchange layer builds on. Text and the
// submit signal are two distinct operations: interactive programs often treat
// a newline inside pasted text differently from a deliberate Enter.
type Driver interface {
	// ListSessions enumerates the names of active sessions.
	ListSessions() ([]string, error)

	// HasSession reports whether the named session exists.
	HasSession(name string) (bool, error)

	// SendText injects literal text into a session without submitting it.
	SendText(target, text string) error

	// SendSubmit injects the submit keystroke.
	SendSubmit(target string) error

	// Capture returns the last lines of the session's visible output and
	// scrollback, newest last.
	Capture(target string, lines int) (string, error)
}
