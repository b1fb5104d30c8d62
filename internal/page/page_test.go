package page

import (
	"net/http"
	"net/url"
	"sort"
	"testing"
	"time"
)

func htmlPage(t *testing.T, pageURL, body string) *Page {
	t.Helper()
	u, err := url.Parse(pageURL)
	if err != nil {
		t.Fatal(err)
	}
	return &Page{
		URL:       u,
		Status:    200,
		Headers:   http.Header{"Content-Type": {"text/html; charset=utf-8"}},
		Body:      []byte(body),
		FetchedAt: time.Now(),
	}
}

func linkStrings(p *Page) []string {
	var out []string
	for _, u := range p.Links() {
		out = append(out, u.String())
	}
	sort.Strings(out)
	return out
}

func TestLinksResolvesAndFilters(t *testing.T) {
	p := htmlPage(t, "http://example.com/dir/index.html", `
		<html><body>
		<a href="page2.html">relative</a>
		<a href="/root.html">absolute path</a>
		<a href="https://other.example.org/">cross host</a>
		<a href="mailto:someone@example.com">mail</a>
		<a href="javascript:void(0)">js</a>
		<a href="#section">fragment</a>
		<a href="page2.html#part">dup with fragment</a>
		<iframe src="/framed.html"></iframe>
		</body></html>`)

	got := linkStrings(p)
	want := []string{
		"http://example.com/dir/page2.html",
		"http://example.com/framed.html",
		"http://example.com/root.html",
		"https://other.example.org/",
	}
	if len(got) != len(want) {
		t.Fatalf("links = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("links[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLinksOnRedirect(t *testing.T) {
	u, _ := url.Parse("http://example.com/old")
	p := &Page{
		URL:     u,
		Status:  301,
		Headers: http.Header{"Location": {"/new"}},
	}
	got := linkStrings(p)
	if len(got) != 1 || got[0] != "http://example.com/new" {
		t.Errorf("redirect links = %v", got)
	}
}

func TestLinksOnNonHTML(t *testing.T) {
	u, _ := url.Parse("http://example.com/data.json")
	p := &Page{
		URL:     u,
		Status:  200,
		Headers: http.Header{"Content-Type": {"application/json"}},
		Body:    []byte(`{"a": "http://example.com/"}`),
	}
	if got := p.Links(); len(got) != 0 {
		t.Errorf("non-HTML page produced links: %v", got)
	}
}

func TestContentType(t *testing.T) {
	p := htmlPage(t, "http://example.com/", "<html></html>")
	if got := p.ContentType(); got != "text/html" {
		t.Errorf("ContentType() = %q", got)
	}
	if !p.HTML() {
		t.Error("HTML() = false for text/html")
	}
}

func TestRecord(t *testing.T) {
	p := htmlPage(t, "http://example.com/", `<a href="/x">x</a>`)
	p.Depth = 2
	r := p.Record()
	if r.URL != "http://example.com/" || r.Status != 200 || r.Depth != 2 {
		t.Errorf("record = %+v", r)
	}
	if r.Links != 1 {
		t.Errorf("record links = %d, want 1", r.Links)
	}
	if r.Size != int64(len(p.Body)) {
		t.Errorf("record size = %d", r.Size)
	}
}
