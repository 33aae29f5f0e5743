package protocol

import (
	"fmt"
	"iter"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	labelStatus          = "Status"
	labelTask            = "Task"
	labelProgress        = "Progress"
	labelPriority        = "Priority"
	labelContext         = "Context"
	labelError           = "Error"
	labelRecoverable     = "Recoverable"
	labelNeedsAssistance = "Needs assistance"
	labelSummary         = "Summary"
	labelRetained        = "Retained"
	labelCurrentTask     = "Current task"
)

var headerPattern = regexp.MustCompile(`^\[PROTOCOL:([A-Z_]+)\] from (\S+) at (\S+)(?: seq=([0-9]+))?$`)

// Encode renders a message as a header line followed by one body line per
// populated field, in the fixed per-kind order. Absent optional fields are
// omitted entirely. Encode is the exact inverse of Decode for any message it
// produces.
func Encode(message Message) string {
	header := message.MessageHeader()
	var builder strings.Builder
	fmt.Fprintf(&builder, "[PROTOCOL:%s] from %s at %s",
		message.Kind().Token(), header.From, header.Timestamp.UTC().Format(time.RFC3339))
	if header.HasSeq {
		fmt.Fprintf(&builder, " seq=%d", header.Seq)
	}

	switch value := message.(type) {
	case StatusUpdate:
		writeBodyLine(&builder, labelStatus, string(value.Status))
		if value.Task != "" {
			writeBodyLine(&builder, labelTask, value.Task)
		}
		if value.Progress != "" {
			writeBodyLine(&builder, labelProgress, value.Progress)
		}
	case TaskHandoff:
		writeBodyLine(&builder, labelTask, value.Task)
		writeBodyLine(&builder, labelPriority, string(value.Priority))
		writeBodyLine(&builder, labelContext, value.Context)
	case ErrorNotice:
		writeBodyLine(&builder, labelError, value.Error)
		writeBodyLine(&builder, labelRecoverable, strconv.FormatBool(value.Recoverable))
		writeBodyLine(&builder, labelNeedsAssistance, strconv.FormatBool(value.NeedsAssistance))
	case Heartbeat:
		writeBodyLine(&builder, labelStatus, string(value.Status))
		if value.Task != "" {
			writeBodyLine(&builder, labelTask, value.Task)
		}
	case ContextCompaction:
		writeBodyLine(&builder, labelSummary, value.Summary)
		writeBodyLine(&builder, labelRetained, strings.Join(value.Retained, ", "))
		writeBodyLine(&builder, labelCurrentTask, value.CurrentTaskState)
	}
	return builder.String()
}

func writeBodyLine(builder *strings.Builder, label, value string) {
	builder.WriteString("\n")
	builder.WriteString(label)
	builder.WriteString(": ")
	builder.WriteString(value)
}

// Decode parses one candidate block: a header line plus the contiguous body
// lines that follow it. Text whose first line does not match the header
// grammar decodes to (nil, false); that is the common case, not an error.
// A matching header with missing body keys still yields a message, with
// missing fields defaulted, because truncated captures are routine on this
// channel. Unknown body keys are ignored.
func Decode(text string) (Message, bool) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	header, kind, ok := parseHeader(strings.TrimSpace(lines[0]))
	if !ok {
		return nil, false
	}

	body := make(map[string]string)
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" || headerPattern.MatchString(line) {
			break
		}
		label, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		body[strings.TrimSpace(label)] = strings.TrimSpace(value)
	}

	switch kind {
	case KindStatusUpdate:
		return StatusUpdate{
			Header:   header,
			Status:   statusOrDefault(body[labelStatus]),
			Task:     body[labelTask],
			Progress: body[labelProgress],
		}, true
	case KindTaskHandoff:
		return TaskHandoff{
			Header:   header,
			Task:     body[labelTask],
			Context:  body[labelContext],
			Priority: priorityOrDefault(body[labelPriority]),
		}, true
	case KindErrorNotice:
		return ErrorNotice{
			Header:          header,
			Error:           body[labelError],
			Recoverable:     body[labelRecoverable] == "true",
			NeedsAssistance: body[labelNeedsAssistance] == "true",
		}, true
	case KindHeartbeat:
		return Heartbeat{
			Header: header,
			Status: heartbeatStatusOrDefault(body[labelStatus]),
			Task:   body[labelTask],
		}, true
	case KindContextCompaction:
		return ContextCompaction{
			Header:           header,
			Summary:          body[labelSummary],
			Retained:         splitRetained(body[labelRetained]),
			CurrentTaskState: body[labelCurrentTask],
		}, true
	}
	return nil, false
}

// IsMessage reports whether the first line of trimmed text matches the header
// grammar. It is a fast pre-filter and says nothing about body validity.
func IsMessage(text string) bool {
	first, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	_, _, ok := parseHeader(strings.TrimSpace(first))
	return ok
}

// Scan lazily yields every message found in a raw capture. A block starts at
// a header line and ends at the first blank line or the next header line.
// Blocks that fail to decode are skipped silently. Duplicate blocks, common
// when capture windows overlap scrollback across polls, are yielded as
// independent messages; callers wanting at-most-once semantics dedupe on
// (From, Seq).
func Scan(text string) iter.Seq[Message] {
	return func(yield func(Message) bool) {
		lines := strings.Split(text, "\n")
		for index := 0; index < len(lines); index++ {
			start := strings.TrimSpace(lines[index])
			if !headerPattern.MatchString(start) {
				continue
			}
			block := []string{start}
			next := index + 1
			for next < len(lines) {
				line := strings.TrimSpace(lines[next])
				if line == "" || headerPattern.MatchString(line) {
					break
				}
				block = append(block, line)
				next++
			}
			if message, ok := Decode(strings.Join(block, "\n")); ok {
				if !yield(message) {
					return
				}
			}
			index = next - 1
		}
	}
}

// ExtractAll collects every message Scan finds, in textual order.
func ExtractAll(text string) []Message {
	var messages []Message
	for message := range Scan(text) {
		messages = append(messages, message)
	}
	return messages
}

func parseHeader(line string) (Header, Kind, bool) {
	match := headerPattern.FindStringSubmatch(line)
	if match == nil {
		return Header{}, "", false
	}
	kind, ok := kindFromToken(match[1])
	if !ok {
		return Header{}, "", false
	}
	header := Header{From: match[2]}
	// A header whose timestamp fails to parse still names a sender and a
	// kind; keep the message and leave the timestamp zero.
	if parsed, err := time.Parse(time.RFC3339, match[3]); err == nil {
		header.Timestamp = parsed
	}
	if match[4] != "" {
		if seq, err := strconv.Atoi(match[4]); err == nil {
			header.Seq = seq
			header.HasSeq = true
		}
	}
	return header, kind, true
}

func statusOrDefault(value string) Status {
	switch Status(value) {
	case StatusIdle, StatusWorking, StatusBlocked, StatusCompleted:
		return Status(value)
	default:
		return StatusIdle
	}
}

func heartbeatStatusOrDefault(value string) HeartbeatStatus {
	switch HeartbeatStatus(value) {
	case HeartbeatAlive, HeartbeatBusy, HeartbeatIdle:
		return HeartbeatStatus(value)
	default:
		return HeartbeatIdle
	}
}

func priorityOrDefault(value string) Priority {
	switch Priority(value) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(value)
	default:
		return PriorityMedium
	}
}

func splitRetained(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ", ")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return nil
	}
	return items
}
