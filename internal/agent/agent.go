// Package agent implements the crawl engine: a breadth-first walk over
// pages, fetching each destination through the shared session cache.
package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/davidsauntson/spidr/internal/model"
	"github.com/davidsauntson/spidr/internal/page"
	"github.com/davidsauntson/spidr/internal/saver"
	"github.com/davidsauntson/spidr/internal/session"
)

const (
	// DefaultUserAgent is sent when none is configured.
	DefaultUserAgent = "spidr/1.0"

	// maxBodySize caps how much of a response body is read per page.
	maxBodySize = 10 << 20
)

// Agent crawls from seed URLs, one fetch per queued page, reusing
// connections through its session cache. Fields may be tuned between
// construction and the first Run.
type Agent struct {
	Hosts     Rules         // matched against the link's host
	Links     Rules         // matched against the full link URL
	MaxDepth  int           // levels below the seeds; 0 = unlimited
	MaxPages  int           // total pages fetched; 0 = unlimited
	Workers   int           // concurrent fetches per level; min 1
	Delay     time.Duration // politeness pause before each fetch
	UserAgent string
	Logger    *slog.Logger

	// Saver and OutDir, when both set, persist the crawl's records.
	Saver  saver.PageSaver
	OutDir string

	cache *session.Cache

	mu      sync.Mutex
	visited map[string]bool
}

// New returns an agent crawling through the given session cache.
func New(cache *session.Cache) *Agent {
	return &Agent{
		Workers:   1,
		UserAgent: DefaultUserAgent,
		cache:     cache,
	}
}

// Cache exposes the agent's session cache.
func (a *Agent) Cache() *session.Cache { return a.cache }

// StartAt crawls outward from rawurl with no host confinement.
func (a *Agent) StartAt(ctx context.Context, rawurl string) ([]model.PageRecord, error) {
	u, err := session.ParseURL(rawurl)
	if err != nil {
		return nil, err
	}
	return a.Run(ctx, []*url.URL{u})
}

// Site crawls rawurl confined to its host.
func (a *Agent) Site(ctx context.Context, rawurl string) ([]model.PageRecord, error) {
	u, err := session.ParseURL(rawurl)
	if err != nil {
		return nil, err
	}
	a.Hosts.AcceptExact(strings.ToLower(u.Hostname()))
	return a.Run(ctx, []*url.URL{u})
}

// Host crawls the given host starting from its root over plain HTTP.
func (a *Agent) Host(ctx context.Context, host string) ([]model.PageRecord, error) {
	return a.Site(ctx, "http://"+host+"/")
}

// Run walks the frontier level by level until it empties or a limit is
// reached. Fetch failures are reported, not fatal; ctx cancellation
// stops the crawl. All sessions are released when the run ends.
func (a *Agent) Run(ctx context.Context, seeds []*url.URL) ([]model.PageRecord, error) {
	defer a.cache.Clear()

	workers := a.Workers
	if workers < 1 {
		workers = 1
	}
	a.mu.Lock()
	a.visited = make(map[string]bool)
	a.mu.Unlock()

	var records []model.PageRecord
	var failed []failedEntry
	fetched := 0

	frontier := a.admit(seeds)
	for depth := 0; len(frontier) > 0; depth++ {
		if a.MaxDepth > 0 && depth > a.MaxDepth {
			break
		}
		if a.MaxPages > 0 && fetched >= a.MaxPages {
			break
		}
		if a.MaxPages > 0 && fetched+len(frontier) > a.MaxPages {
			frontier = frontier[:a.MaxPages-fetched]
		}
		fetched += len(frontier)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		var mu sync.Mutex
		var next []*url.URL
		for _, u := range frontier {
			u := u
			g.Go(func() error {
				if a.Delay > 0 {
					select {
					case <-time.After(a.Delay):
					case <-gctx.Done():
						return gctx.Err()
					}
				}
				p, err := a.visit(gctx, u, depth)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed = append(failed, failedEntry{URL: u.String(), Reason: err.Error()})
					a.logger().Warn("fetch failed", "url", u.String(), "depth", depth, "error", err)
					return nil
				}
				a.logger().Info("fetched", "url", u.String(), "status", p.Status, "depth", depth, "links", len(p.Links()))
				records = append(records, p.Record())
				next = append(next, p.Links()...)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return records, err
		}
		if err := ctx.Err(); err != nil {
			return records, err
		}
		frontier = a.admit(next)
	}

	if a.OutDir != "" && a.Saver != nil {
		if err := a.saveRecords(records); err != nil {
			a.logger().Warn("save records", "error", err)
		}
	}
	if a.OutDir != "" {
		if err := writeRunReport(a.OutDir, records, failed); err != nil {
			a.logger().Warn("write run report", "error", err)
		}
	}
	return records, nil
}

// visit fetches one page on the destination's cached session. When a
// reused connection turns out dead, the session is killed and the fetch
// retried once on a fresh one.
func (a *Agent) visit(ctx context.Context, u *url.URL, depth int) (*page.Page, error) {
	resp, err := a.fetch(ctx, u)
	if err != nil {
		a.cache.Kill(u)
		resp, err = a.fetch(ctx, u)
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		a.cache.Kill(u)
		return nil, fmt.Errorf("read body %s: %w", u, err)
	}
	return &page.Page{
		URL:       u,
		Status:    resp.StatusCode,
		Headers:   resp.Header,
		Body:      body,
		Depth:     depth,
		FetchedAt: time.Now().UTC(),
	}, nil
}

func (a *Agent) fetch(ctx context.Context, u *url.URL) (*http.Response, error) {
	sess, err := a.cache.Get(ctx, u)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", a.UserAgent)
	return sess.Do(req)
}

// admit filters candidate links down to the ones worth queueing:
// unvisited, host allowed, URL allowed. Admitted links are marked
// visited immediately so concurrent levels never double-queue.
func (a *Agent) admit(candidates []*url.URL) []*url.URL {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*url.URL
	for _, u := range candidates {
		id := u.String()
		if a.visited[id] {
			continue
		}
		if !a.Hosts.Allow(strings.ToLower(u.Hostname())) {
			continue
		}
		if !a.Links.Allow(id) {
			continue
		}
		a.visited[id] = true
		out = append(out, u)
	}
	return out
}

func (a *Agent) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
