package linefilter

import "sync"

// DefaultCapacity is the number of accepted lines remembered.
const DefaultCapacity = 10

// History is a fixed-capacity FIFO of accepted lines, oldest first.
type History struct {
	mu       sync.RWMutex
	lines    []string
	capacity int
}

// NewHistory creates an empty history. A non-positive capacity uses DefaultCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{
		lines:    make([]string, 0, capacity),
		capacity: capacity,
	}
}

// Push appends line, evicting the oldest entry when full.
func (h *History) Push(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.lines) == h.capacity {
		copy(h.lines, h.lines[1:])
		h.lines = h.lines[:len(h.lines)-1]
	}
	h.lines = append(h.lines, line)
}

// Last returns the most recently pushed line.
func (h *History) Last() (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.lines) == 0 {
		return "", false
	}
	return h.lines[len(h.lines)-1], true
}

// Contains reports whether line is anywhere in the history.
func (h *History) Contains(line string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, l := range h.lines {
		if l == line {
			return true
		}
	}
	return false
}

// Lines returns a copy of the history, oldest first.
func (h *History) Lines() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, len(h.lines))
	copy(out, h.lines)
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.lines)
}

func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lines = h.lines[:0]
}
