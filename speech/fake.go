package speech

import (
	"context"
	"sync"
)

// Fake records spoken text instead of playing it.
type Fake struct {
	Err error

	mu     sync.Mutex
	spoken []string
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Speak(ctx context.Context, text string) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.Err
}

func (f *Fake) Spoken() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}
