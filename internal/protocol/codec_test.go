package protocol

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

var testTime = time.Date(2026, 8, 14, 9, 30, 0, 0, time.UTC)

func testHeader(from string) Header {
	return Header{From: from, Timestamp: testTime}
}

func testHeaderSeq(from string, seq int) Header {
	return Header{From: from, Timestamp: testTime, Seq: seq, HasSeq: true}
}

func TestEncodeStatusUpdate(t *testing.T) {
	message := StatusUpdate{
		Header:   testHeaderSeq("builder", 3),
		Status:   StatusWorking,
		Task:     "indexing repo",
		Progress: "40%",
	}
	encoded := Encode(message)
	expected := strings.Join([]string{
		"[PROTOCOL:STATUS_UPDATE] from builder at 2026-08-14T09:30:00Z seq=3",
		"Status: working",
		"Task: indexing repo",
		"Progress: 40%",
	}, "\n")
	if encoded != expected {
		t.Fatalf("unexpected encoding:\n%s", encoded)
	}
}

func TestEncodeOmitsAbsentOptionalFields(t *testing.T) {
	message := StatusUpdate{Header: testHeader("builder"), Status: StatusIdle}
	encoded := Encode(message)
	if strings.Contains(encoded, "Task:") || strings.Contains(encoded, "Progress:") {
		t.Fatalf("optional fields should be omitted, got:\n%s", encoded)
	}
	if len(strings.Split(encoded, "\n")) != 2 {
		t.Fatalf("expected header plus one body line, got:\n%s", encoded)
	}
}

func TestRoundTripAllKinds(t *testing.T) {
	messages := []Message{
		StatusUpdate{Header: testHeaderSeq("alpha", 0), Status: StatusBlocked, Task: "waiting on review"},
		TaskHandoff{Header: testHeader("beta"), Task: "fix parser", Context: "see failing test", Priority: PriorityHigh},
		ErrorNotice{Header: testHeaderSeq("gamma", 12), Error: "disk full", Recoverable: false, NeedsAssistance: true},
		Heartbeat{Header: testHeader("delta"), Status: HeartbeatBusy, Task: "compiling"},
		ContextCompaction{
			Header:           testHeaderSeq("epsilon", 7),
			Summary:          "compacted after long run",
			Retained:         []string{"branch name", "open bug id"},
			CurrentTaskState: "mid-refactor",
		},
	}
	for _, message := range messages {
		decoded, ok := Decode(Encode(message))
		if !ok {
			t.Fatalf("decode failed for %s", message.Kind())
		}
		if !reflect.DeepEqual(decoded, message) {
			t.Fatalf("%s round trip mismatch:\n got %#v\nwant %#v", message.Kind(), decoded, message)
		}
	}
}

func TestDecodeRejectsNonProtocolText(t *testing.T) {
	inputs := []string{
		"",
		"just some shell output",
		"$ ls -la\ntotal 12",
		"[PROTOCOL:STATUS_UPDATE] malformed header",
		"[PROTOCOL:NOT_A_KIND] from x at 2026-08-14T09:30:00Z",
	}
	for _, input := range inputs {
		if message, ok := Decode(input); ok {
			t.Fatalf("expected no message for %q, got %#v", input, message)
		}
		if IsMessage(input) {
			t.Fatalf("IsMessage should be false for %q", input)
		}
	}
}

func TestIsMessageAgreesWithDecode(t *testing.T) {
	block := "[PROTOCOL:HEARTBEAT] from worker at 2026-08-14T09:30:00Z\nStatus: alive"
	if !IsMessage(block) {
		t.Fatalf("expected IsMessage true")
	}
	if _, ok := Decode(block); !ok {
		t.Fatalf("expected decode to succeed")
	}
}

func TestIsMessageIgnoresBodyValidity(t *testing.T) {
	block := "[PROTOCOL:TASK_HANDOFF] from worker at 2026-08-14T09:30:00Z\ngarbage body line"
	if !IsMessage(block) {
		t.Fatalf("IsMessage checks only the header line")
	}
}

func TestDecodeDefaultsMissingFields(t *testing.T) {
	message, ok := Decode("[PROTOCOL:HEARTBEAT] from worker at 2026-08-14T09:30:00Z")
	if !ok {
		t.Fatalf("expected best-effort decode")
	}
	heartbeat, ok := message.(Heartbeat)
	if !ok {
		t.Fatalf("expected heartbeat, got %T", message)
	}
	if heartbeat.Status != HeartbeatIdle {
		t.Fatalf("expected default status idle, got %q", heartbeat.Status)
	}

	message, ok = Decode("[PROTOCOL:TASK_HANDOFF] from worker at 2026-08-14T09:30:00Z")
	if !ok {
		t.Fatalf("expected best-effort decode")
	}
	handoff := message.(TaskHandoff)
	if handoff.Task != "" || handoff.Context != "" {
		t.Fatalf("expected empty free-text defaults, got %#v", handoff)
	}
	if handoff.Priority != PriorityMedium {
		t.Fatalf("expected default priority medium, got %q", handoff.Priority)
	}

	message, ok = Decode("[PROTOCOL:CONTEXT_COMPACTION] from worker at 2026-08-14T09:30:00Z")
	if !ok {
		t.Fatalf("expected best-effort decode")
	}
	if compaction := message.(ContextCompaction); len(compaction.Retained) != 0 {
		t.Fatalf("expected empty retained list, got %#v", compaction.Retained)
	}
}

func TestDecodeIgnoresUnknownKeys(t *testing.T) {
	block := strings.Join([]string{
		"[PROTOCOL:STATUS_UPDATE] from worker at 2026-08-14T09:30:00Z",
		"Status: working",
		"Mood: optimistic",
	}, "\n")
	message, ok := Decode(block)
	if !ok {
		t.Fatalf("expected decode to succeed")
	}
	if update := message.(StatusUpdate); update.Status != StatusWorking {
		t.Fatalf("unexpected status %q", update.Status)
	}
}

func TestDecodeSeqOptional(t *testing.T) {
	withSeq, _ := Decode("[PROTOCOL:HEARTBEAT] from a at 2026-08-14T09:30:00Z seq=9\nStatus: alive")
	if header := withSeq.MessageHeader(); !header.HasSeq || header.Seq != 9 {
		t.Fatalf("expected seq 9, got %#v", header)
	}
	withoutSeq, _ := Decode("[PROTOCOL:HEARTBEAT] from a at 2026-08-14T09:30:00Z\nStatus: alive")
	if header := withoutSeq.MessageHeader(); header.HasSeq {
		t.Fatalf("expected absent seq, got %#v", header)
	}
}

func TestExtractAllFindsMessagesInNoise(t *testing.T) {
	capture := strings.Join([]string{
		"$ make test",
		"ok  crosstalk/internal/protocol 0.3s",
		"",
		"[PROTOCOL:STATUS_UPDATE] from builder at 2026-08-14T09:30:00Z seq=1",
		"Status: completed",
		"",
		"unrelated chatter",
		"[PROTOCOL:HEARTBEAT] from builder at 2026-08-14T09:31:00Z seq=2",
		"Status: idle",
		"trailing noise after the block is part of the block until blank",
	}, "\n")
	messages := ExtractAll(capture)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Kind() != KindStatusUpdate || messages[1].Kind() != KindHeartbeat {
		t.Fatalf("unexpected kinds: %s, %s", messages[0].Kind(), messages[1].Kind())
	}
}

func TestExtractAllSplitsAdjacentHeaders(t *testing.T) {
	capture := strings.Join([]string{
		"[PROTOCOL:HEARTBEAT] from a at 2026-08-14T09:30:00Z",
		"Status: alive",
		"[PROTOCOL:HEARTBEAT] from b at 2026-08-14T09:30:05Z",
		"Status: busy",
	}, "\n")
	messages := ExtractAll(capture)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].MessageHeader().From != "a" || messages[1].MessageHeader().From != "b" {
		t.Fatalf("unexpected senders: %#v", messages)
	}
}

func TestExtractAllYieldsDuplicates(t *testing.T) {
	block := "[PROTOCOL:HEARTBEAT] from a at 2026-08-14T09:30:00Z seq=4\nStatus: alive"
	messages := ExtractAll(block + "\n\n" + block)
	if len(messages) != 2 {
		t.Fatalf("duplicates are the caller's problem, expected 2 got %d", len(messages))
	}
}

func TestScanIsRestartable(t *testing.T) {
	capture := "[PROTOCOL:HEARTBEAT] from a at 2026-08-14T09:30:00Z\nStatus: alive"
	sequence := Scan(capture)
	for range 2 {
		count := 0
		for range sequence {
			count++
		}
		if count != 1 {
			t.Fatalf("expected 1 message per pass, got %d", count)
		}
	}
}

func TestScanStopsWhenYieldReturnsFalse(t *testing.T) {
	capture := strings.Repeat("[PROTOCOL:HEARTBEAT] from a at 2026-08-14T09:30:00Z\nStatus: alive\n\n", 3)
	count := 0
	for range Scan(capture) {
		count++
		break
	}
	if count != 1 {
		t.Fatalf("expected early stop after 1, got %d", count)
	}
}
