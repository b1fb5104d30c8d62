package page

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// linkAttrs maps elements to the attribute carrying their link.
var linkAttrs = map[string]string{
	"a":      "href",
	"frame":  "src",
	"iframe": "src",
}

// Links returns every followable URL on the page, resolved against the
// page URL with fragments stripped. Redirect pages yield their Location
// target; non-HTML pages yield nothing. The body is parsed once.
func (p *Page) Links() []*url.URL {
	if !p.extracted {
		p.links = p.extractLinks()
		p.extracted = true
	}
	return p.links
}

func (p *Page) extractLinks() []*url.URL {
	var links []*url.URL
	seen := make(map[string]bool)
	add := func(ref string) {
		u := p.resolve(ref)
		if u == nil || seen[u.String()] {
			return
		}
		seen[u.String()] = true
		links = append(links, u)
	}

	if p.Redirect() {
		if loc := p.Headers.Get("Location"); loc != "" {
			add(loc)
		}
		return links
	}
	if !p.HTML() || len(p.Body) == 0 {
		return links
	}

	doc, err := html.Parse(bytes.NewReader(p.Body))
	if err != nil {
		return links
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := linkAttrs[n.Data]; ok {
				for _, a := range n.Attr {
					if a.Key == attr && a.Val != "" {
						add(a.Val)
						break
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}

// resolve turns a reference into an absolute http(s) URL, or nil when
// the reference is not followable (javascript:, mailto:, fragments).
func (p *Page) resolve(ref string) *url.URL {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return nil
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil
	}
	abs := p.URL.ResolveReference(u)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return nil
	}
	abs.Fragment = ""
	return abs
}
