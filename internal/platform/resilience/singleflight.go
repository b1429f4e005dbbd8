package resilience

import "sync"

// SingleFlight collapses concurrent calls for the same key into one
// execution; the ranking cache uses it so one revision miss loads once.
type SingleFlight struct {
	mu    sync.Mutex
	calls map[string]*inflight
}

type inflight struct {
	done sync.WaitGroup
	val  any
	err  error
}

// Do runs fn once per key at a time. Late arrivals block and receive the
// leader's result; shared reports whether this caller waited on another.
func (g *SingleFlight) Do(key string, fn func() (any, error)) (val any, err error, shared bool) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*inflight)
	}

	if c, ok := g.calls[key]; ok {
		g.mu.Unlock()
		c.done.Wait()
		return c.val, c.err, true
	}

	c := &inflight{}
	c.done.Add(1)
	g.calls[key] = c
	g.mu.Unlock()

	c.val, c.err = fn()
	c.done.Done()

	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()

	return c.val, c.err, false
}
