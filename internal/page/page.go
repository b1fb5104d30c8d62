// Package page represents fetched documents and extracts the links
// the agent follows next.
package page

import (
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/davidsauntson/spidr/internal/model"
)

// Page is one fetched document.
type Page struct {
	URL       *url.URL
	Status    int
	Headers   http.Header
	Body      []byte
	Depth     int
	FetchedAt time.Time

	links     []*url.URL
	extracted bool
}

// ContentType returns the media type of the response, without parameters.
func (p *Page) ContentType() string {
	ct := p.Headers.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.TrimSpace(strings.Split(ct, ";")[0])
	}
	return mt
}

// HTML reports whether the page body is parseable for links.
func (p *Page) HTML() bool {
	switch p.ContentType() {
	case "text/html", "application/xhtml+xml":
		return true
	}
	return false
}

// OK reports a 2xx response.
func (p *Page) OK() bool { return p.Status >= 200 && p.Status < 300 }

// Redirect reports a 3xx response; the Location header holds the target.
func (p *Page) Redirect() bool { return p.Status >= 300 && p.Status < 400 }

// Record flattens the page into its output row.
func (p *Page) Record() model.PageRecord {
	return model.PageRecord{
		URL:         p.URL.String(),
		Status:      p.Status,
		ContentType: p.ContentType(),
		Size:        int64(len(p.Body)),
		Depth:       p.Depth,
		Links:       len(p.Links()),
		FetchedAt:   p.FetchedAt.UnixMilli(),
	}
}
