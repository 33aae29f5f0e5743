package monitor

import (
	"context"
	"fmt"
	"time"

	"crosstalk/internal/logging"
	"crosstalk/internal/mux"
	"crosstalk/internal/protocol"
)

const defaultSweepInterval = 2 * time.Second

// Recorder persists observed messages and reports whether each one was new.
// history.Store satisfies it; a nil Recorder falls back to an in-memory
// seen-set, which loses dedup state across restarts.
type Recorder interface {
	Record(message protocol.Message, raw string) (bool, error)
}

// Tailer periodically captures every session, extracts protocol messages,
// and broadcasts the ones not seen before.
type Tailer struct {
	driver       mux.Driver
	recorder     Recorder
	hub          *Hub
	logger       *logging.Logger
	interval     time.Duration
	captureLines int
	self         string

	now  func() time.Time
	seen map[string]struct{}
}

type TailerOptions struct {
	Interval     time.Duration
	CaptureLines int
	// Self is excluded from sweeps so the monitor does not re-observe
	// messages rendered in its own pane.
	Self string
}

func NewTailer(driver mux.Driver, recorder Recorder, hub *Hub, logger *logging.Logger, opts TailerOptions) *Tailer {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	captureLines := opts.CaptureLines
	if captureLines <= 0 {
		captureLines = 50
	}
	return &Tailer{
		driver:       driver,
		recorder:     recorder,
		hub:          hub,
		logger:       logger,
		interval:     interval,
		captureLines: captureLines,
		self:         opts.Self,
		now:          time.Now,
		seen:         make(map[string]struct{}),
	}
}

// Run sweeps until the context is cancelled.
func (t *Tailer) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.Sweep()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.Sweep()
		}
	}
}

// Sweep captures every session once and publishes newly observed messages.
func (t *Tailer) Sweep() {
	sessions, err := t.driver.ListSessions()
	if err != nil {
		t.logWarn("list sessions failed", map[string]string{"error": err.Error()})
		return
	}
	for _, session := range sessions {
		if session == t.self {
			continue
		}
		capture, err := t.driver.Capture(session, t.captureLines)
		if err != nil {
			t.logWarn("capture failed", map[string]string{"session": session, "error": err.Error()})
			continue
		}
		for message := range protocol.Scan(capture) {
			t.publish(session, message)
		}
	}
}

func (t *Tailer) publish(session string, message protocol.Message) {
	raw := protocol.Encode(message)
	fresh, err := t.record(message, raw)
	if err != nil {
		t.logWarn("record failed", map[string]string{"session": session, "error": err.Error()})
		return
	}
	if !fresh {
		return
	}
	event := Event{
		Session:    session,
		Message:    message,
		Raw:        raw,
		ObservedAt: t.now().UTC(),
	}
	if t.hub != nil {
		t.hub.Broadcast(event)
	}
	header := message.MessageHeader()
	if t.logger != nil {
		t.logger.Info("message observed", map[string]string{
			"session": session,
			"from":    header.From,
			"kind":    string(message.Kind()),
		})
	}
}

func (t *Tailer) record(message protocol.Message, raw string) (bool, error) {
	if t.recorder != nil {
		return t.recorder.Record(message, raw)
	}
	header := message.MessageHeader()
	if !header.HasSeq {
		return true, nil
	}
	key := fmt.Sprintf("%s\x00%d", header.From, header.Seq)
	if _, duplicate := t.seen[key]; duplicate {
		return false, nil
	}
	t.seen[key] = struct{}{}
	return true, nil
}

func (t *Tailer) logWarn(message string, fields map[string]string) {
	if t.logger != nil {
		t.logger.Warn(message, fields)
	}
}
