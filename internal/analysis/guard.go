package analysis

import "sync"

// Guard allows one in-flight analysis per session key. A second call on a busy
// key fails fast instead of queueing.
type Guard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{busy: make(map[string]struct{})}
}

// Acquire marks key busy. The returned release must be called exactly once.
func (g *Guard) Acquire(key string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.busy[key]; ok {
		return nil, ErrAnalysisInProgress
	}
	g.busy[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.busy, key)
			g.mu.Unlock()
		})
	}, nil
}

// Guarded runs fn while holding key.
func Guarded[T any](g *Guard, key string, fn func() (T, error)) (T, error) {
	release, err := g.Acquire(key)
	if err != nil {
		var zero T
		return zero, err
	}
	defer release()
	return fn()
}
