package capture

import (
	"bytes"
	"sync"
)

// LimitedBuffer keeps the first limit bytes written to it and marks itself as truncated
// when more is written. Writes never fail because of the limit. It is safe for concurrent
// use.
type LimitedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	limit     int
	truncated bool
}

// NewLimitedBuffer creates a new LimitedBuffer with the given size limit.
func NewLimitedBuffer(limit int) *LimitedBuffer {
	return &LimitedBuffer{limit: limit}
}

// Write implements io.Writer. It always reports len(p) bytes written.
func (b *LimitedBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.truncated {
		return len(p), nil
	}

	remaining := b.limit - b.buf.Len()
	if remaining <= 0 {
		if len(p) > 0 {
			b.truncated = true
		}
		return len(p), nil
	}

	if len(p) > remaining {
		_, err = b.buf.Write(p[:remaining])
		b.truncated = true
		return len(p), err
	}

	return b.buf.Write(p)
}

// IsTruncated returns true if more than limit bytes were written.
func (b *LimitedBuffer) IsTruncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.truncated
}

func (b *LimitedBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

// String returns the retained contents.
func (b *LimitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Bytes returns a copy of the retained contents.
func (b *LimitedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

// Reset empties the buffer and clears the truncated flag.
func (b *LimitedBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
	b.truncated = false
}
