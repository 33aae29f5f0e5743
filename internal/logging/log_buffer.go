package logging

import (
	"sync"

	"crosstalk/internal/buffer"
)

// LogBuffer retains the newest entries so the CLI and monitor can show
// recent activity without re-reading log files.
type LogBuffer struct {
	mu   sync.Mutex
	ring *buffer.Ring[Entry]
}

func NewLogBuffer(size int) *LogBuffer {
	return &LogBuffer{ring: buffer.NewRing[Entry](size)}
}

func (b *LogBuffer) Add(entry Entry) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ring.Add(entry)
}

func (b *LogBuffer) List() []Entry {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ring.List()
}

func (b *LogBuffer) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ring.Len()
}
