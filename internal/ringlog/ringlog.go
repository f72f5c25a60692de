// Package ringlog provides a fixed-capacity, thread-safe buffer of log lines.
// When the buffer is full the oldest line is evicted to make room.
package ringlog

import "sync"

// DefaultCapacity is the number of lines kept per account worker.
const DefaultCapacity = 50

// Buffer is a thread-safe ring buffer of lines
type Buffer struct {
	lines []string
	size  int
	start int
	count int
	mu    sync.RWMutex
}

// New creates a new buffer holding at most size lines.
// A non-positive size falls back to DefaultCapacity.
func New(size int) *Buffer {
	if size <= 0 {
		size = DefaultCapacity
	}
	return &Buffer{
		lines: make([]string, size),
		size:  size,
	}
}

// Append adds a line, evicting the oldest one when full.
func (b *Buffer) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	end := (b.start + b.count) % b.size
	b.lines[end] = line
	if b.count == b.size {
		b.start = (b.start + 1) % b.size
		return
	}
	b.count++
}

// Lines returns a copy of the buffered lines, oldest first.
func (b *Buffer) Lines() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, 0, b.count)
	for i := 0; i < b.count; i++ {
		out = append(out, b.lines[(b.start+i)%b.size])
	}
	return out
}

// Tail returns up to n of the most recent lines, oldest first.
func (b *Buffer) Tail(n int) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 {
		return nil
	}
	if n > b.count {
		n = b.count
	}
	out := make([]string, 0, n)
	for i := b.count - n; i < b.count; i++ {
		out = append(out, b.lines[(b.start+i)%b.size])
	}
	return out
}

// Len returns the number of buffered lines
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

