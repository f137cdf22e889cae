package logging

import (
	"bytes"
	"strings"
	"sync"
)

// DefaultDebugLines is the debug console history length.
const DefaultDebugLines = 200

// DebugBuffer keeps the most recent log records for the debug console. It
// implements io.Writer and splits input on newlines.
type DebugBuffer struct {
	mu      sync.Mutex
	limit   int
	lines   []string
	partial bytes.Buffer
}

// NewDebugBuffer creates a buffer holding at most limit lines.
func NewDebugBuffer(limit int) *DebugBuffer {
	if limit <= 0 {
		limit = DefaultDebugLines
	}
	return &DebugBuffer{limit: limit}
}

func (b *DebugBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.partial.Write(p)
	for {
		data := b.partial.Bytes()
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimRight(string(data[:idx]), "\r")
		b.partial.Next(idx + 1)
		if line == "" {
			continue
		}
		b.lines = append(b.lines, line)
		if overflow := len(b.lines) - b.limit; overflow > 0 {
			b.lines = append(b.lines[:0], b.lines[overflow:]...)
		}
	}
	return len(p), nil
}

// Lines returns a copy of the buffered lines, oldest first.
func (b *DebugBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

// Tail returns up to n of the newest lines, oldest first.
func (b *DebugBuffer) Tail(n int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n <= 0 || n > len(b.lines) {
		n = len(b.lines)
	}
	return append([]string(nil), b.lines[len(b.lines)-n:]...)
}

// Len reports the number of buffered lines.
func (b *DebugBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}
