// Package session caches per-destination HTTP connections for a
// crawling agent. One destination (scheme, host, port) maps to at most
// one live Session; HTTPS sessions handshake eagerly with certificate
// verification disabled, plain sessions connect on first request.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
)

// Cache maps destinations to live sessions. Safe for concurrent use;
// session creation (including the TLS handshake) happens outside the
// cache lock so unrelated destinations never wait on each other.
type Cache struct {
	opts Options

	mu       sync.RWMutex
	sessions map[Key]*Session
}

// New constructs a cache, capturing opts once. Later changes to the
// caller's defaults do not affect an already-constructed cache.
// Malformed options (negative timeouts, incomplete proxy) fail here.
func New(opts Options) (*Cache, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("session cache options: %w", err)
	}
	return &Cache{
		opts:     opts.withDefaults(),
		sessions: make(map[Key]*Session),
	}, nil
}

// Options returns the configuration captured at construction.
func (c *Cache) Options() Options { return c.opts }

// Active reports whether a session currently exists for the URL's
// destination. Never creates one.
func (c *Cache) Active(u *url.URL) bool {
	key, err := KeyForURL(u)
	if err != nil {
		return false
	}
	c.mu.RLock()
	_, ok := c.sessions[key]
	c.mu.RUnlock()
	return ok
}

// Get returns the session for the URL's destination, creating and
// configuring one on first use. A cached session is returned as-is: a
// connection that died in the meantime surfaces as an I/O error on the
// caller's request, who responds with Kill and a fresh Get.
//
// Creation failures propagate and leave no entry behind, so the next
// Get for the same destination retries from scratch. When two
// goroutines race to create the same destination, one wins and the
// loser's session is closed.
func (c *Cache) Get(ctx context.Context, u *url.URL) (*Session, error) {
	key, err := KeyForURL(u)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	s, ok := c.sessions[key]
	c.mu.RUnlock()
	if ok {
		return s, nil
	}

	created, err := newSession(ctx, key, c.opts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if existing, ok := c.sessions[key]; ok {
		c.mu.Unlock()
		created.Close()
		return existing, nil
	}
	c.sessions[key] = created
	c.mu.Unlock()

	slog.Debug("session opened", "key", key.String(), "tls", key.TLS())
	return created, nil
}

// Kill removes and closes the session for the URL's destination, if
// any. Closing is best-effort: a transport that is already gone is not
// an error worth surfacing. Sessions already handed out keep working;
// only subsequent Gets observe the removal.
func (c *Cache) Kill(u *url.URL) {
	key, err := KeyForURL(u)
	if err != nil {
		return
	}
	c.mu.Lock()
	s, ok := c.sessions[key]
	if ok {
		delete(c.sessions, key)
	}
	c.mu.Unlock()
	if ok {
		s.Close()
		slog.Debug("session killed", "key", key.String())
	}
}

// Clear closes every session and empties the cache. Returns the cache
// for chaining; the crawl orchestrator calls this at the end of a run.
func (c *Cache) Clear() *Cache {
	c.mu.Lock()
	sessions := c.sessions
	c.sessions = make(map[Key]*Session)
	c.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
	return c
}

// Len returns the number of live sessions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}
