package atproto

import "sync"

// Pool hands out one Client per PDS so that rate limits apply per server.
type Pool struct {
	mu      sync.Mutex
	opts    Options
	clients map[string]*Client
}

func NewPool(opts Options) *Pool {
	return &Pool{opts: opts, clients: make(map[string]*Client)}
}

// Get returns the client for serverURL, creating it on first use.
func (p *Pool) Get(serverURL string) (*Client, error) {
	u, err := NormalizeServerURL(serverURL, p.opts.AllowInsecure)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[u]; ok {
		return c, nil
	}
	c, err := NewClient(u, p.opts)
	if err != nil {
		return nil, err
	}
	p.clients[u] = c
	return c, nil
}
