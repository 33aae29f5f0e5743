package monitor

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// EventsHandler streams observed messages to websocket clients.
type EventsHandler struct {
	Hub *Hub
}

type eventPayload struct {
	Session    string    `json:"session"`
	From       string    `json:"from"`
	Kind       string    `json:"kind"`
	Seq        *int      `json:"seq,omitempty"`
	SentAt     time.Time `json:"sent_at"`
	ObservedAt time.Time `json:"observed_at"`
	Raw        string    `json:"raw"`
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Hub == nil {
		http.Error(w, "monitor unavailable", http.StatusInternalServerError)
		return
	}
	events, cancel := h.Hub.Subscribe(0)
	defer cancel()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				if err := conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
					return
				}
				if err := conn.WriteJSON(toPayload(event)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func toPayload(event Event) eventPayload {
	header := event.Message.MessageHeader()
	payload := eventPayload{
		Session:    event.Session,
		From:       header.From,
		Kind:       string(event.Message.Kind()),
		SentAt:     header.Timestamp,
		ObservedAt: event.ObservedAt,
		Raw:        event.Raw,
	}
	if header.HasSeq {
		seq := header.Seq
		payload.Seq = &seq
	}
	return payload
}

// NewServeMux wires the monitor's HTTP surface.
func NewServeMux(hub *Hub) *http.ServeMux {
	serveMux := http.NewServeMux()
	serveMux.Handle("/events", &EventsHandler{Hub: hub})
	serveMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return serveMux
}
