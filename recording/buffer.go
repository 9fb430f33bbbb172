package recording

import "sync"

// CaptureBuffer collects PCM chunks for one recording. Appends after Seal
// are dropped so late device callbacks cannot leak into a finished take.
type CaptureBuffer struct {
	mu     sync.Mutex
	chunks [][]byte
	size   int
	sealed bool
}

func (b *CaptureBuffer) Append(p []byte) bool {
	if len(p) == 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return false
	}
	chunk := make([]byte, len(p))
	copy(chunk, p)
	b.chunks = append(b.chunks, chunk)
	b.size += len(chunk)
	return true
}

func (b *CaptureBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Seal stops accepting chunks and returns them concatenated in arrival order.
func (b *CaptureBuffer) Seal() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sealed = true
	out := make([]byte, 0, b.size)
	for _, c := range b.chunks {
		out = append(out, c...)
	}
	b.chunks = nil
	b.size = 0
	return out
}
