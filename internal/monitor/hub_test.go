package monitor

import "testing"

func TestHubDeliversToAllSubscribers(t *testing.T) {
	hub := NewHub()
	first, cancelFirst := hub.Subscribe(1)
	second, cancelSecond := hub.Subscribe(1)
	defer cancelFirst()
	defer cancelSecond()

	hub.Broadcast(Event{Session: "alpha"})

	for name, channel := range map[string]<-chan Event{"first": first, "second": second} {
		select {
		case event := <-channel:
			if event.Session != "alpha" {
				t.Fatalf("%s: unexpected event %#v", name, event)
			}
		default:
			t.Fatalf("%s: expected buffered event", name)
		}
	}
}

func TestHubDropsWhenSubscriberFull(t *testing.T) {
	hub := NewHub()
	channel, cancel := hub.Subscribe(1)
	defer cancel()

	hub.Broadcast(Event{Session: "one"})
	hub.Broadcast(Event{Session: "two"})

	if event := <-channel; event.Session != "one" {
		t.Fatalf("unexpected first event %#v", event)
	}
	select {
	case event := <-channel:
		t.Fatalf("overflow event should be dropped, got %#v", event)
	default:
	}
}

func TestHubCancelClosesChannel(t *testing.T) {
	hub := NewHub()
	channel, cancel := hub.Subscribe(1)

	cancel()
	cancel() // idempotent

	if _, open := <-channel; open {
		t.Fatalf("expected closed channel")
	}
	if hub.SubscriberCount() != 0 {
		t.Fatalf("expected no subscribers, got %d", hub.SubscriberCount())
	}

	// A broadcast after cancel must not panic.
	hub.Broadcast(Event{Session: "late"})
}
