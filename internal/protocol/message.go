// Package protocol renders coordination messages into the plain-text block
// grammar that crosstalk sessions write into each other's terminals, and
// parses captured terminal text back into typed messages. Parsing is
// tolerant: arbitrary terminal chatter decodes to nothing, truncated blocks
// decode to best-effort messages with documented defaults.
package protocol

import (
	"strings"
	"time"
)

// Kind identifies a protocol message variant.
type Kind string

const (
	KindStatusUpdate      Kind = "status_update"
	KindContextCompaction Kind = "context_compaction"
	KindTaskHandoff       Kind = "task_handoff"
	KindErrorNotice       Kind = "error_notice"
	KindHeartbeat         Kind = "heartbeat"
)

// Token returns the upper-snake-case rendering used in header lines.
func (k Kind) Token() string {
	return strings.ToUpper(string(k))
}

func kindFromToken(token string) (Kind, bool) {
	switch token {
	case "STATUS_UPDATE":
		return KindStatusUpdate, true
	case "CONTEXT_COMPACTION":
		return KindContextCompaction, true
	case "TASK_HANDOFF":
		return KindTaskHandoff, true
	case "ERROR_NOTICE":
		return KindErrorNotice, true
	case "HEARTBEAT":
		return KindHeartbeat, true
	default:
		return "", false
	}
}

// Status is the work state reported by a status update.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusWorking   Status = "working"
	StatusBlocked   Status = "blocked"
	StatusCompleted Status = "completed"
)

// HeartbeatStatus is the liveness state reported by a heartbeat.
type HeartbeatStatus string

const (
	HeartbeatAlive HeartbeatStatus = "alive"
	HeartbeatBusy  HeartbeatStatus = "busy"
	HeartbeatIdle  HeartbeatStatus = "idle"
)

// Priority ranks a task handoff.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Header carries the fields common to every message. Seq is advisory: it
// orders messages from one sender for humans and logs, never for delivery.
type Header struct {
	From      string
	Timestamp time.Time
	Seq       int
	HasSeq    bool
}

// MessageHeader satisfies Message for any variant embedding Header.
func (h Header) MessageHeader() Header { return h }

// Message is the closed set of protocol message variants.
type Message interface {
	Kind() Kind
	MessageHeader() Header
}

// StatusUpdate reports what a session is currently doing.
type StatusUpdate struct {
	Header
	Status   Status
	Task     string
	Progress string
}

func (StatusUpdate) Kind() Kind { return KindStatusUpdate }

// TaskHandoff transfers a unit of work to another session.
type TaskHandoff struct {
	Header
	Task     string
	Context  string
	Priority Priority
}

func (TaskHandoff) Kind() Kind { return KindTaskHandoff }

// ErrorNotice reports a failure, optionally requesting help.
type ErrorNotice struct {
	Header
	Error           string
	Recoverable     bool
	NeedsAssistance bool
}

func (ErrorNotice) Kind() Kind { return KindErrorNotice }

// Heartbeat signals liveness.
type Heartbeat struct {
	Header
	Status HeartbeatStatus
	Task   string
}

func (Heartbeat) Kind() Kind { return KindHeartbeat }

// ContextCompaction announces that a session compacted its working context.
type ContextCompaction struct {
	Header
	Summary          string
	Retained         []string
	CurrentTaskState string
}

func (ContextCompaction) Kind() Kind { return KindContextCompaction }

// NewStatusUpdate builds a status update stamped with the current time.
func NewStatusUpdate(from string, status Status, task, progress string) StatusUpdate {
	return StatusUpdate{
		Header:   newHeader(from),
		Status:   statusOrDefault(string(status)),
		Task:     singleLine(task),
		Progress: singleLine(progress),
	}
}

// NewTaskHandoff builds a task handoff stamped with the current time.
func NewTaskHandoff(from, task, context string, priority Priority) TaskHandoff {
	return TaskHandoff{
		Header:   newHeader(from),
		Task:     singleLine(task),
		Context:  singleLine(context),
		Priority: priorityOrDefault(string(priority)),
	}
}

// NewErrorNotice builds an error notice stamped with the current time.
func NewErrorNotice(from, message string, recoverable, needsAssistance bool) ErrorNotice {
	return ErrorNotice{
		Header:          newHeader(from),
		Error:           singleLine(message),
		Recoverable:     recoverable,
		NeedsAssistance: needsAssistance,
	}
}

// NewHeartbeat builds a heartbeat stamped with the current time.
func NewHeartbeat(from string, status HeartbeatStatus, task string) Heartbeat {
	return Heartbeat{
		Header: newHeader(from),
		Status: heartbeatStatusOrDefault(string(status)),
		Task:   singleLine(task),
	}
}

// NewContextCompaction builds a compaction notice stamped with the current time.
func NewContextCompaction(from, summary string, retained []string, currentTaskState string) ContextCompaction {
	cleaned := make([]string, 0, len(retained))
	for _, item := range retained {
		item = singleLine(item)
		if item != "" {
			cleaned = append(cleaned, item)
		}
	}
	if len(cleaned) == 0 {
		cleaned = nil
	}
	return ContextCompaction{
		Header:           newHeader(from),
		Summary:          singleLine(summary),
		Retained:         cleaned,
		CurrentTaskState: singleLine(currentTaskState),
	}
}

// StampSeq returns a copy of the message with the sequence number set.
func StampSeq(message Message, seq int) Message {
	switch value := message.(type) {
	case StatusUpdate:
		value.Seq, value.HasSeq = seq, true
		return value
	case TaskHandoff:
		value.Seq, value.HasSeq = seq, true
		return value
	case ErrorNotice:
		value.Seq, value.HasSeq = seq, true
		return value
	case Heartbeat:
		value.Seq, value.HasSeq = seq, true
		return value
	case ContextCompaction:
		value.Seq, value.HasSeq = seq, true
		return value
	default:
		return message
	}
}

var timeNow = time.Now

func newHeader(from string) Header {
	return Header{
		From: strings.TrimSpace(from),
		// Second precision keeps the rendered header stable across a
		// render/parse cycle.
		Timestamp: timeNow().UTC().Truncate(time.Second),
	}
}

// singleLine collapses newlines so every value fits the one-line body grammar.
func singleLine(value string) string {
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "\r\n", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	return strings.TrimSpace(value)
}
