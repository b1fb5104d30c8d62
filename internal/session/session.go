package session

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Proxy is a forward proxy applied to every connection a session opens.
// Captured once at session creation; never re-applied.
type Proxy struct {
	Host     string `validate:"required"`
	Port     int    `validate:"gte=1,lte=65535"`
	User     string
	Password string
}

// Addr returns the proxy's host:port dial address.
func (p *Proxy) Addr() string { return net.JoinHostPort(p.Host, strconv.Itoa(p.Port)) }

// URL renders the proxy as a URL suitable for http.Transport.Proxy.
func (p *Proxy) URL() *url.URL {
	u := &url.URL{Scheme: "http", Host: p.Addr()}
	if p.User != "" {
		if p.Password != "" {
			u.User = url.UserPassword(p.User, p.Password)
		} else {
			u.User = url.User(p.User)
		}
	}
	return u
}

func (p *Proxy) basicAuth() string {
	creds := p.User + ":" + p.Password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(creds))
}

// Options is the configuration bundle a cache captures at construction.
// Zero-valued durations fall back to the package defaults.
type Options struct {
	Proxy            *Proxy        `validate:"omitempty"`
	OpenTimeout      time.Duration `validate:"gte=0"`
	ReadTimeout      time.Duration `validate:"gte=0"`
	ContinueTimeout  time.Duration `validate:"gte=0"`
	KeepAliveTimeout time.Duration `validate:"gte=0"`
	SSLTimeout       time.Duration `validate:"gte=0"`
}

// Package defaults, used when the corresponding Options field is zero.
const (
	DefaultOpenTimeout      = 30 * time.Second
	DefaultReadTimeout      = 30 * time.Second
	DefaultContinueTimeout  = 1 * time.Second
	DefaultKeepAliveTimeout = 90 * time.Second
	DefaultSSLTimeout       = 10 * time.Second
)

// DefaultOptions returns Options with every timeout set to its default
// and no proxy.
func DefaultOptions() Options {
	return Options{
		OpenTimeout:      DefaultOpenTimeout,
		ReadTimeout:      DefaultReadTimeout,
		ContinueTimeout:  DefaultContinueTimeout,
		KeepAliveTimeout: DefaultKeepAliveTimeout,
		SSLTimeout:       DefaultSSLTimeout,
	}
}

var validate = validator.New()

// withDefaults fills zero fields from the package defaults.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.OpenTimeout == 0 {
		o.OpenTimeout = d.OpenTimeout
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = d.ReadTimeout
	}
	if o.ContinueTimeout == 0 {
		o.ContinueTimeout = d.ContinueTimeout
	}
	if o.KeepAliveTimeout == 0 {
		o.KeepAliveTimeout = d.KeepAliveTimeout
	}
	if o.SSLTimeout == 0 {
		o.SSLTimeout = d.SSLTimeout
	}
	return o
}

// Session is a configured connection handle bound to one destination.
// It owns a dedicated transport so connection reuse never crosses
// destinations. HTTPS sessions hold their eagerly-established TLS
// connection until the first request consumes it.
type Session struct {
	key       Key
	opts      Options
	transport *http.Transport
	client    *http.Client

	mu     sync.Mutex
	primed net.Conn
}

// newSession builds and, for TLS keys, eagerly connects a session.
// On connect failure nothing is returned, so the caller stores nothing.
func newSession(ctx context.Context, key Key, opts Options) (*Session, error) {
	s := &Session{key: key, opts: opts}

	dialer := &net.Dialer{
		Timeout:   opts.OpenTimeout,
		KeepAlive: opts.KeepAliveTimeout,
	}
	s.transport = &http.Transport{
		DialContext:           dialer.DialContext,
		ResponseHeaderTimeout: opts.ReadTimeout,
		ExpectContinueTimeout: opts.ContinueTimeout,
		IdleConnTimeout:       opts.KeepAliveTimeout,
		TLSHandshakeTimeout:   opts.SSLTimeout,
		MaxConnsPerHost:       1,
		MaxIdleConnsPerHost:   1,
	}

	if key.TLS() {
		// The tunnel (when proxied) and the handshake are handled in
		// connect, so the transport sees every TLS conn as direct.
		s.transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		s.transport.DialTLSContext = s.dialTLS
		conn, err := s.connect(ctx)
		if err != nil {
			return nil, err
		}
		s.primed = conn
	} else if opts.Proxy != nil {
		s.transport.Proxy = http.ProxyURL(opts.Proxy.URL())
	}

	// No client-level deadline and no redirect following: both are the
	// caller's policy, the session only hands back the connection.
	s.client = &http.Client{
		Transport: s.transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return s, nil
}

// Key returns the destination this session is bound to.
func (s *Session) Key() Key { return s.key }

// TLS reports whether the session negotiates TLS.
func (s *Session) TLS() bool { return s.key.TLS() }

// Options returns the configuration captured when the session was created.
func (s *Session) Options() Options { return s.opts }

// Client exposes the underlying HTTP client for callers that need
// redirect or cookie policy of their own.
func (s *Session) Client() *http.Client { return s.client }

// Do performs a request on the session's connection.
func (s *Session) Do(req *http.Request) (*http.Response, error) {
	return s.client.Do(req)
}

// Close releases the session's network resources. Best-effort: shutdown
// errors are logged at debug and never returned.
func (s *Session) Close() {
	s.mu.Lock()
	conn := s.primed
	s.primed = nil
	s.mu.Unlock()
	if conn != nil {
		if err := conn.Close(); err != nil {
			slog.Debug("session close", "key", s.key.String(), "error", err)
		}
	}
	s.transport.CloseIdleConnections()
}

// dialTLS hands the transport the eagerly-established connection on
// first use and reconnects from scratch afterwards (keep-alive expiry,
// server-side resets).
func (s *Session) dialTLS(ctx context.Context, network, addr string) (net.Conn, error) {
	s.mu.Lock()
	if conn := s.primed; conn != nil {
		s.primed = nil
		s.mu.Unlock()
		return conn, nil
	}
	s.mu.Unlock()
	return s.connect(ctx)
}

// connect dials the destination (tunnelling through the proxy when one
// is configured) and completes a TLS handshake with verification
// disabled. Crawling arbitrary sites must not fail on bad certificates.
func (s *Session) connect(ctx context.Context) (net.Conn, error) {
	dialer := &net.Dialer{
		Timeout:   s.opts.OpenTimeout,
		KeepAlive: s.opts.KeepAliveTimeout,
	}

	var raw net.Conn
	var err error
	if p := s.opts.Proxy; p != nil {
		raw, err = dialer.DialContext(ctx, "tcp", p.Addr())
		if err != nil {
			return nil, fmt.Errorf("dial proxy %s: %w", p.Addr(), err)
		}
		if err := proxyConnect(raw, s.key.Addr(), p, s.opts.OpenTimeout); err != nil {
			raw.Close()
			return nil, err
		}
	} else {
		raw, err = dialer.DialContext(ctx, "tcp", s.key.Addr())
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", s.key.Addr(), err)
		}
	}

	cfg := &tls.Config{
		ServerName:         s.key.Host,
		InsecureSkipVerify: true,
	}
	conn := tls.Client(raw, cfg)
	hsCtx := ctx
	if s.opts.SSLTimeout > 0 {
		var cancel context.CancelFunc
		hsCtx, cancel = context.WithTimeout(ctx, s.opts.SSLTimeout)
		defer cancel()
	}
	if err := conn.HandshakeContext(hsCtx); err != nil {
		raw.Close()
		return nil, fmt.Errorf("tls handshake %s: %w", s.key.Addr(), err)
	}
	return conn, nil
}

// proxyConnect issues a CONNECT for target over an established proxy
// connection and waits for the 200 before TLS starts.
func proxyConnect(conn net.Conn, target string, p *Proxy, timeout time.Duration) error {
	if timeout > 0 {
		conn.SetDeadline(time.Now().Add(timeout))
		defer conn.SetDeadline(time.Time{})
	}

	req := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: target},
		Host:   target,
		Header: make(http.Header),
	}
	if p.User != "" {
		req.Header.Set("Proxy-Authorization", p.basicAuth())
	}
	if err := req.Write(conn); err != nil {
		return fmt.Errorf("proxy connect %s: %w", target, err)
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		return fmt.Errorf("proxy connect %s: %w", target, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("proxy connect %s: %s", target, resp.Status)
	}
	return nil
}
