// Package exchange drives request/response interactions over the screen
// channel. The only primitives available are "inject keystrokes" and "read
// the current screen", so awaiting a reply is a cooperative poll loop:
// capture a baseline, transmit, then sample the target's output until new
// content appears or the deadline passes.
package exchange

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"crosstalk/internal/logging"
	"crosstalk/internal/mux"
	"crosstalk/internal/protocol"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = time.Second
	DefaultCaptureLines = 50
	DefaultPromptMarker = ">"

	// MinPollInterval is the floor below which polling would hammer the
	// capture primitive.
	MinPollInterval = 100 * time.Millisecond
)

// DefaultComposingMarkers are substrings whose presence in a capture means
// the remote side is still generating output. Literal matching against UI
// text is fragile, which is why the set is injectable via Options.
var DefaultComposingMarkers = []string{
	"esc to interrupt",
	"Thinking…",
	"✻",
	"✽",
}

// Options configures a Coordinator. Zero values take documented defaults.
type Options struct {
	Timeout          time.Duration
	PollInterval     time.Duration
	CaptureLines     int
	PromptMarker     string
	ComposingMarkers []string
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.PollInterval < MinPollInterval {
		o.PollInterval = MinPollInterval
	}
	if o.CaptureLines <= 0 {
		o.CaptureLines = DefaultCaptureLines
	}
	if o.PromptMarker == "" {
		o.PromptMarker = DefaultPromptMarker
	}
	if o.ComposingMarkers == nil {
		o.ComposingMarkers = DefaultComposingMarkers
	}
	return o
}

// Result is the outcome of one broadcast delivery.
type Result struct {
	Target string
	Err    error
}

// Coordinator owns one session's view of the channel: the driver, the
// sender identity, and the advisory sequence counter. Concurrent calls are
// independent; only the counter is shared, and it is atomic.
type Coordinator struct {
	driver mux.Driver
	self   string
	opts   Options
	logger *logging.Logger
	seq    atomic.Int64

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error
}

func New(driver mux.Driver, self string, opts Options, logger *logging.Logger) *Coordinator {
	return &Coordinator{
		driver: driver,
		self:   strings.TrimSpace(self),
		opts:   opts.withDefaults(),
		logger: logger,
		now:    time.Now,
		wait:   sleepWait,
	}
}

// Self returns the sender identity used for outgoing messages.
func (c *Coordinator) Self() string {
	return c.self
}

// NextSeq returns the next advisory sequence number, starting at 0. It
// orders this sender's messages in logs; it says nothing about delivery.
func (c *Coordinator) NextSeq() int {
	return int(c.seq.Add(1) - 1)
}

// Ask transmits text to the target and polls its output until a response
// appears or the timeout elapses. The target's existence is checked exactly
// once, before anything is captured or sent.
func (c *Coordinator) Ask(ctx context.Context, target, text string) (string, error) {
	exists, err := c.driver.HasSession(target)
	if err != nil {
		return "", fmt.Errorf("check session %q: %w", target, err)
	}
	if !exists {
		return "", &NotFoundError{Target: target}
	}

	baseline, err := c.driver.Capture(target, c.opts.CaptureLines)
	if err != nil {
		return "", fmt.Errorf("capture session %q: %w", target, err)
	}

	if err := c.transmit(target, text); err != nil {
		return "", err
	}

	c.logDebug("awaiting response", target, nil)
	deadline := c.now().Add(c.opts.Timeout)
	last := baseline
	polls := 0
	for {
		if !c.now().Before(deadline) {
			return "", &TimeoutError{Target: target, Timeout: c.opts.Timeout}
		}
		if err := c.wait(ctx, c.opts.PollInterval); err != nil {
			return "", err
		}
		polls++

		snapshot, err := c.driver.Capture(target, c.opts.CaptureLines)
		if err != nil {
			// The pane may be mid-redraw; the deadline bounds how
			// long this can go on.
			c.logDebug("capture failed, retrying", target, map[string]string{"error": err.Error()})
			continue
		}
		if snapshot == last {
			continue
		}
		if c.isComposing(snapshot) {
			last = snapshot
			continue
		}
		response := ExtractResponse(baseline, snapshot, c.opts.PromptMarker)
		if response == "" {
			last = snapshot
			continue
		}
		c.logDebug("response extracted", target, map[string]string{"polls": strconv.Itoa(polls)})
		return response, nil
	}
}

// AskMessage stamps a sequence number on the message, encodes it, and awaits
// the reply.
func (c *Coordinator) AskMessage(ctx context.Context, target string, message protocol.Message) (string, error) {
	return c.Ask(ctx, target, c.encode(message))
}

// Send is fire and forget: existence check, then the two transmit calls.
func (c *Coordinator) Send(ctx context.Context, target, text string) error {
	exists, err := c.driver.HasSession(target)
	if err != nil {
		return fmt.Errorf("check session %q: %w", target, err)
	}
	if !exists {
		return &NotFoundError{Target: target}
	}
	return c.transmit(target, text)
}

// SendMessage stamps a sequence number on the message, encodes it, and sends.
func (c *Coordinator) SendMessage(ctx context.Context, target string, message protocol.Message) error {
	return c.Send(ctx, target, c.encode(message))
}

// Broadcast delivers text to every known session except this one. Each
// target gets its own result; one failure never aborts the rest, so partial
// delivery is the normal outcome.
func (c *Coordinator) Broadcast(ctx context.Context, text string) ([]Result, error) {
	sessions, err := c.driver.ListSessions()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	results := make([]Result, 0, len(sessions))
	for _, session := range sessions {
		if session == c.self {
			continue
		}
		results = append(results, Result{Target: session, Err: c.transmit(session, text)})
	}
	return results, nil
}

// BroadcastMessage stamps a single sequence number and broadcasts the
// encoded message.
func (c *Coordinator) BroadcastMessage(ctx context.Context, message protocol.Message) ([]Result, error) {
	return c.Broadcast(ctx, c.encode(message))
}

// Read captures the target's current output once, without polling. The
// second return value distinguishes a missing session from one that exists
// with nothing visible.
func (c *Coordinator) Read(ctx context.Context, target string) (string, bool, error) {
	exists, err := c.driver.HasSession(target)
	if err != nil {
		return "", false, fmt.Errorf("check session %q: %w", target, err)
	}
	if !exists {
		return "", false, nil
	}
	capture, err := c.driver.Capture(target, c.opts.CaptureLines)
	if err != nil {
		return "", true, fmt.Errorf("capture session %q: %w", target, err)
	}
	return capture, true, nil
}

func (c *Coordinator) encode(message protocol.Message) string {
	return protocol.Encode(protocol.StampSeq(message, c.NextSeq()))
}

func (c *Coordinator) transmit(target, text string) error {
	if err := c.driver.SendText(target, text); err != nil {
		return &TransmitError{Target: target, Err: err}
	}
	if err := c.driver.SendSubmit(target); err != nil {
		return &TransmitError{Target: target, Err: err}
	}
	c.logDebug("transmitted", target, map[string]string{"bytes": strconv.Itoa(len(text))})
	return nil
}

func (c *Coordinator) isComposing(capture string) bool {
	for _, marker := range c.opts.ComposingMarkers {
		if marker != "" && strings.Contains(capture, marker) {
			return true
		}
	}
	return false
}

func (c *Coordinator) logDebug(message, target string, fields map[string]string) {
	if c.logger == nil {
		return
	}
	merged := map[string]string{"target": target}
	for key, value := range fields {
		merged[key] = value
	}
	c.logger.Debug(message, merged)
}

func sleepWait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
