package session

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestOptionsWithDefaults(t *testing.T) {
	o := Options{ReadTimeout: 3 * time.Second}.withDefaults()
	if o.ReadTimeout != 3*time.Second {
		t.Errorf("ReadTimeout overwritten: %v", o.ReadTimeout)
	}
	if o.OpenTimeout != DefaultOpenTimeout {
		t.Errorf("OpenTimeout = %v, want default %v", o.OpenTimeout, DefaultOpenTimeout)
	}
	if o.SSLTimeout != DefaultSSLTimeout {
		t.Errorf("SSLTimeout = %v, want default %v", o.SSLTimeout, DefaultSSLTimeout)
	}
}

func TestProxyURL(t *testing.T) {
	p := &Proxy{Host: "proxy.local", Port: 3128}
	if got := p.URL().String(); got != "http://proxy.local:3128" {
		t.Errorf("URL() = %q", got)
	}
	p = &Proxy{Host: "proxy.local", Port: 3128, User: "u", Password: "pw"}
	if got := p.URL().String(); got != "http://u:pw@proxy.local:3128" {
		t.Errorf("URL() with credentials = %q", got)
	}
}

func TestPlainSessionUsesTransportProxy(t *testing.T) {
	c := newTestCache(t, Options{Proxy: &Proxy{Host: "proxy.local", Port: 3128}})
	s, err := c.Get(context.Background(), mustURL(t, "http://example.com/"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.transport.Proxy == nil {
		t.Fatal("plain proxied session has no transport proxy")
	}
	req, _ := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	u, err := s.transport.Proxy(req)
	if err != nil || u == nil {
		t.Fatalf("transport proxy func: %v, %v", u, err)
	}
	if u.Host != "proxy.local:3128" {
		t.Errorf("proxy host = %q", u.Host)
	}
}

// connectProxy is a minimal CONNECT proxy for tests. It records the
// Proxy-Authorization header it saw and tunnels bytes to the target.
type connectProxy struct {
	ln   net.Listener
	auth chan string
}

func startConnectProxy(t *testing.T) *connectProxy {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	p := &connectProxy{ln: ln, auth: make(chan string, 8)}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go p.serve(conn)
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return p
}

func (p *connectProxy) serve(conn net.Conn) {
	defer conn.Close()
	br := bufio.NewReader(conn)
	req, err := http.ReadRequest(br)
	if err != nil || req.Method != http.MethodConnect {
		io.WriteString(conn, "HTTP/1.1 400 Bad Request\r\n\r\n")
		return
	}
	p.auth <- req.Header.Get("Proxy-Authorization")

	upstream, err := net.DialTimeout("tcp", req.Host, 5*time.Second)
	if err != nil {
		io.WriteString(conn, "HTTP/1.1 502 Bad Gateway\r\n\r\n")
		return
	}
	defer upstream.Close()
	io.WriteString(conn, "HTTP/1.1 200 Connection Established\r\n\r\n")

	done := make(chan struct{}, 2)
	go func() { io.Copy(upstream, br); done <- struct{}{} }()
	go func() { io.Copy(conn, upstream); done <- struct{}{} }()
	<-done
}

func TestTLSSessionTunnelsThroughProxy(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "tunnelled")
	}))
	defer srv.Close()

	proxy := startConnectProxy(t)
	host, portStr, _ := net.SplitHostPort(proxy.ln.Addr().String())
	port := mustAtoi(t, portStr)

	c := newTestCache(t, Options{
		Proxy: &Proxy{Host: host, Port: port, User: "crawler", Password: "secret"},
	})
	s, err := c.Get(context.Background(), mustURL(t, srv.URL+"/"))
	if err != nil {
		t.Fatalf("Get through proxy: %v", err)
	}

	select {
	case auth := <-proxy.auth:
		if !strings.HasPrefix(auth, "Basic ") {
			t.Errorf("Proxy-Authorization = %q, want basic credentials", auth)
		}
	case <-time.After(time.Second):
		t.Fatal("proxy never saw a CONNECT")
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/", nil)
	resp, err := s.Do(req)
	if err != nil {
		t.Fatalf("Do through tunnel: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "tunnelled" {
		t.Errorf("body = %q", body)
	}
}

func TestTLSSessionProxyRefusalPropagates(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				bufio.NewReader(conn).ReadString('\n')
				io.WriteString(conn, "HTTP/1.1 407 Proxy Authentication Required\r\n\r\n")
			}(conn)
		}
	}()

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	c := newTestCache(t, Options{
		Proxy:       &Proxy{Host: host, Port: mustAtoi(t, portStr)},
		OpenTimeout: 2 * time.Second,
	})
	u := mustURL(t, "https://example.com/")
	if _, err := c.Get(context.Background(), u); err == nil {
		t.Fatal("Get succeeded despite proxy refusal")
	}
	if c.Active(u) {
		t.Error("refused creation left a session behind")
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	c := newTestCache(t, Options{})
	s, err := c.Get(context.Background(), mustURL(t, "http://example.com/"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	s.Close()
	s.Close()
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	if err != nil {
		t.Fatalf("atoi %q: %v", s, err)
	}
	return n
}
