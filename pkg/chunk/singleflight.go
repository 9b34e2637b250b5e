// pkg/chunk/singleflight.go

package chunk

import "sync"

// flight is one load in progress.
type flight struct {
	done    chan struct{}
	page    *Page
	err     error
	waiters int
}

// Controller collapses concurrent loads of the same key into one call.
type Controller struct {
	mu      sync.Mutex
	flights map[string]*flight
	shared  int64
}

// Execute runs load once per key at a time. Callers arriving while it runs
// wait for it; every caller gets its own reference to the page.
func (con *Controller) Execute(key string, load func() (*Page, error)) (*Page, error) {
	con.mu.Lock()
	if f, ok := con.flights[key]; ok {
		f.waiters++
		con.shared++
		con.mu.Unlock()
		<-f.done
		return f.page, f.err
	}
	if con.flights == nil {
		con.flights = make(map[string]*flight)
	}
	f := &flight{done: make(chan struct{})}
	con.flights[key] = f
	con.mu.Unlock()

	f.page, f.err = load()

	con.mu.Lock()
	delete(con.flights, key)
	if f.page != nil {
		for i := 0; i < f.waiters; i++ {
			f.page.Acquire()
		}
	}
	con.mu.Unlock()
	close(f.done)
	return f.page, f.err
}

// Shared is the number of calls answered by another caller's load.
func (con *Controller) Shared() int64 {
	con.mu.Lock()
	defer con.mu.Unlock()
	return con.shared
}
