package session

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Key identifies one crawl destination. Two URLs share a session iff
// scheme, host and port are all equal.
type Key struct {
	Scheme string
	Host   string
	Port   int
}

// TLS reports whether sessions for this key negotiate TLS.
func (k Key) TLS() bool { return k.Scheme == "https" }

// Addr returns the host:port dial address for the destination.
func (k Key) Addr() string { return net.JoinHostPort(k.Host, strconv.Itoa(k.Port)) }

func (k Key) String() string { return k.Scheme + "://" + k.Addr() }

// ParseURL is the boundary step turning a raw string into a URL the
// cache accepts. Callers holding an already-parsed *url.URL can pass it
// to the cache directly.
func ParseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if _, err := KeyForURL(u); err != nil {
		return nil, err
	}
	return u, nil
}

// KeyForURL derives the cache key for a URL. Scheme and host are
// lowercased and a missing port resolves to the scheme default.
func KeyForURL(u *url.URL) (Key, error) {
	if u == nil {
		return Key{}, fmt.Errorf("nil url")
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return Key{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return Key{}, fmt.Errorf("url %q has no host", u.String())
	}
	port := defaultPort(scheme)
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return Key{}, fmt.Errorf("url %q has invalid port %q", u.String(), p)
		}
		port = n
	}
	return Key{Scheme: scheme, Host: host, Port: port}, nil
}

func defaultPort(scheme string) int {
	if scheme == "https" {
		return 443
	}
	return 80
}
