// Package buffer provides a fixed-capacity ring used to retain the tail of
// unbounded streams: captured terminal lines and log entries.
package buffer

type Ring[T any] struct {
	entries []T
	start   int
	count   int
}

func NewRing[T any](size int) *Ring[T] {
	if size <= 0 {
		size = 1
	}
	return &Ring[T]{
		entries: make([]T, size),
	}
}

// Add appends an entry, evicting the oldest once the ring is full.
func (r *Ring[T]) Add(entry T) {
	if r == nil || len(r.entries) == 0 {
		return
	}

	if r.count < len(r.entries) {
		index := (r.start + r.count) % len(r.entries)
		r.entries[index] = entry
		r.count++
		return
	}

	r.entries[r.start] = entry
	r.start = (r.start + 1) % len(r.entries)
}

func (r *Ring[T]) Len() int {
	if r == nil {
		return 0
	}
	return r.count
}

// List returns the retained entries, oldest first.
func (r *Ring[T]) List() []T {
	if r == nil || r.count == 0 {
		return nil
	}

	out := make([]T, r.count)
	for i := 0; i < r.count; i++ {
		index := (r.start + i) % len(r.entries)
		out[i] = r.entries[index]
	}
	return out
}

// Tail returns at most the n newest entries, oldest first. It backs the
// fixed-window capture the session drivers expose.
func (r *Ring[T]) Tail(n int) []T {
	if r == nil || n <= 0 || r.count == 0 {
		return nil
	}
	if n > r.count {
		n = r.count
	}

	out := make([]T, n)
	for i := 0; i < n; i++ {
		index := (r.start + r.count - n + i) % len(r.entries)
		out[i] = r.entries[index]
	}
	return out
}
