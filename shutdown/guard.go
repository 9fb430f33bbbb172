package shutdown

import "sync"

// MsgUnload is shown on the first quit request while audio is being captured.
const MsgUnload = "Recording in progress. Press q or Ctrl+C again to discard it and quit."

type Action int

const (
	Quit Action = iota
	Warn
)

// Guard turns quit requests into a warning while busy reports true. A second
// request after the warning quits.
type Guard struct {
	busy func() bool

	mu     sync.Mutex
	warned bool
}

func NewGuard(busy func() bool) *Guard {
	return &Guard{busy: busy}
}

func (g *Guard) Request() Action {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy == nil || !g.busy() || g.warned {
		g.warned = false
		return Quit
	}
	g.warned = true
	return Warn
}

// Reset forgets an earlier warning, e.g. once the recording has ended.
func (g *Guard) Reset() {
	g.mu.Lock()
	g.warned = false
	g.mu.Unlock()
}
