package refresh

import (
	"sync"
	"time"
)

// Coordinator owns the single shared revalidation timer for any number of
// readers. Subscribers share one ticker instead of each running their own:
// the timer starts when the first handler subscribes and stops exactly when
// the subscriber count returns to zero. One authoritative counted set makes
// that transition race-free.
type Coordinator struct {
	interval time.Duration

	mu       sync.Mutex
	handlers map[int]func()
	nextID   int
	ticker   *time.Ticker
	stop     chan struct{}

	// timersStarted counts ticker lifetimes for tests.
	timersStarted int
}

func NewCoordinator(interval time.Duration) *Coordinator {
	return &Coordinator{
		interval: interval,
		handlers: make(map[int]func()),
	}
}

// Subscribe registers a handler to be invoked on every tick and returns its
// subscription id. The shared timer is started if it was not running.
func (c *Coordinator) Subscribe(handler func()) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.handlers[id] = handler

	if len(c.handlers) == 1 {
		c.ticker = time.NewTicker(c.interval)
		c.stop = make(chan struct{})
		c.timersStarted++
		go c.run(c.ticker, c.stop)
	}
	return id
}

// Unsubscribe removes a handler. When the last subscriber leaves, the
// shared timer is torn down; nothing else needs awaiting since readers keep
// serving their cached values.
func (c *Coordinator) Unsubscribe(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.handlers[id]; !ok {
		return
	}
	delete(c.handlers, id)

	if len(c.handlers) == 0 {
		c.ticker.Stop()
		close(c.stop)
		c.ticker = nil
		c.stop = nil
	}
}

func (c *Coordinator) run(ticker *time.Ticker, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.Notify()
		}
	}
}

// Notify fires every registered handler exactly once, synchronously with
// respect to the tick. Handlers run outside the lock so they may subscribe
// or unsubscribe without deadlocking.
func (c *Coordinator) Notify() {
	c.mu.Lock()
	handlers := make([]func(), 0, len(c.handlers))
	for _, h := range c.handlers {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h()
	}
}

// Subscribers reports the current subscriber count.
func (c *Coordinator) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers)
}

// Active reports whether the shared timer is running.
func (c *Coordinator) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticker != nil
}
