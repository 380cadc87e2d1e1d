package dispatch

import "sync"

// Coalescer merges bursts of same-key UI-thread tasks. When several updates
// for one key arrive before the loop services the first, only the most
// recent callback runs. Property setters use this so rapid successive writes
// cost one marshal hop, last write wins.
type Coalescer struct {
	mu        sync.Mutex
	pending   map[string]bool
	callbacks map[string]func(Token)
	post      func(func(Token))
	destroyed bool
}

// NewCoalescer builds a coalescer over a post function, typically
// (*Loop).Post wrapped to drop its result.
func NewCoalescer(post func(func(Token))) *Coalescer {
	if post == nil {
		panic("dispatch.NewCoalescer: post function cannot be nil")
	}

	return &Coalescer{
		pending:   make(map[string]bool),
		callbacks: make(map[string]func(Token)),
		post:      post,
	}
}

func (c *Coalescer) Post(key string, fn func(Token)) {
	if fn == nil || key == "" {
		return
	}

	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.callbacks[key] = fn
	if c.pending[key] {
		c.mu.Unlock()
		return
	}
	c.pending[key] = true
	post := c.post
	c.mu.Unlock()

	post(func(tok Token) {
		c.mu.Lock()
		if c.destroyed {
			delete(c.pending, key)
			delete(c.callbacks, key)
			c.mu.Unlock()
			return
		}
		fn := c.callbacks[key]
		delete(c.pending, key)
		delete(c.callbacks, key)
		c.mu.Unlock()

		if fn != nil {
			fn(tok)
		}
	})
}

func (c *Coalescer) Destroy() {
	c.mu.Lock()
	c.destroyed = true
	c.pending = map[string]bool{}
	c.callbacks = map[string]func(Token){}
	c.mu.Unlock()
}
