// Package server implements C7: binds a listener, optionally wraps it in
// TLS with ALPN, and fans each accepted connection out to the HTTP/1.1 or
// HTTP/2 pipeline based on the negotiated protocol. It is the Go
// analogue of the teacher's Server/handleConn pair (server.go's
// ConfigureServer + (*Server).handleConn), generalized from "plug into an
// existing net/http.Server" to owning the listener outright, since this
// module's H1 path is its own codec rather than net/http's.
package server

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/gopherhttp/httpd/dispatch"
	"github.com/gopherhttp/httpd/h1"
	"github.com/gopherhttp/httpd/h2"
	"github.com/gopherhttp/httpd/tlsconfig"
)

// Config is the startup configuration spec.md §6 enumerates.
type Config struct {
	Port                        int
	CertFile, KeyFile, Password string // TLS; empty CertFile means plaintext (H1 only)
	Dispatcher                  *dispatch.Dispatcher
	Logger                      h2.Logger
	ShutdownGracePeriod         time.Duration // default 5s if zero
}

// shutdownable is whatever a tracked connection can do to shut itself
// down gracefully. H1 connections have no persistent/graceful notion
// (keep-alive is an explicit Non-goal) so they just close; h2
// connections get the real GOAWAY-then-wait treatment via h2.Conn.Shutdown.
type shutdownable interface {
	Shutdown(ctx context.Context) error
}

// closerShutdown adapts a plain net.Conn (the h1 case) to shutdownable
// by ignoring ctx and closing immediately.
type closerShutdown struct{ c net.Conn }

func (cs closerShutdown) Shutdown(ctx context.Context) error {
	return cs.c.Close()
}

// Server owns the listener and the set of connections it has fanned out.
type Server struct {
	cfg     Config
	ln      net.Listener
	wg      sync.WaitGroup
	mu      sync.Mutex
	conns   map[net.Conn]shutdownable
	closing bool
	ready   chan struct{}
}

// New validates cfg and constructs a Server, but does not bind a socket
// yet; call Serve to do that.
func New(cfg Config) (*Server, error) {
	if cfg.Dispatcher == nil {
		cfg.Dispatcher = dispatch.New()
	}
	if cfg.ShutdownGracePeriod == 0 {
		cfg.ShutdownGracePeriod = 5 * time.Second
	}
	return &Server{cfg: cfg, conns: make(map[net.Conn]shutdownable), ready: make(chan struct{})}, nil
}

// Addr blocks until Serve has bound its listener, then returns its
// address. Intended for tests and for startup logging, not for steady-
// state use.
func (s *Server) Addr() net.Addr {
	<-s.ready
	return s.ln.Addr()
}

// Serve binds the configured port and runs the accept loop until the
// listener is closed by Shutdown. The acceptor itself never blocks on a
// handler (spec.md §4.7): each connection is dispatched to its own
// goroutine immediately after accept/handshake.
func (s *Server) Serve() error {
	addr := ":" + strconv.Itoa(s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if s.cfg.CertFile != "" {
		tlsCfg, err := tlsconfig.FromPEM(s.cfg.CertFile, s.cfg.KeyFile, s.cfg.Password)
		if err != nil {
			ln.Close()
			return err
		}
		ln = tls.NewListener(ln, tlsCfg)
	}
	s.ln = ln
	close(s.ready)

	for {
		c, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closing := s.closing
			s.mu.Unlock()
			if closing {
				return nil
			}
			return err
		}
		s.track(c)
		s.wg.Add(1)
		go s.handle(c)
	}
}

func (s *Server) track(c net.Conn) {
	s.mu.Lock()
	s.conns[c] = closerShutdown{c}
	s.mu.Unlock()
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// retrack swaps in sd as the shutdown handler for an already-tracked
// connection, once ALPN negotiation reveals it needs more than a bare
// close (the h2 case).
func (s *Server) retrack(c net.Conn, sd shutdownable) {
	s.mu.Lock()
	if _, ok := s.conns[c]; ok {
		s.conns[c] = sd
	}
	s.mu.Unlock()
}

func (s *Server) handle(c net.Conn) {
	defer s.wg.Done()
	defer s.untrack(c)

	if tc, ok := c.(*tls.Conn); ok {
		if err := tc.Handshake(); err != nil {
			c.Close()
			return
		}
		if tc.ConnectionState().NegotiatedProtocol == "h2" {
			conn := h2.NewConn(c, s.cfg.Dispatcher, s.cfg.Logger)
			s.retrack(c, conn)
			conn.Serve()
			return
		}
	}
	h1.ServeConn(c, s.cfg.Dispatcher)
}

// Shutdown stops accepting new connections and waits for in-flight ones
// to finish, up to ctx's deadline or the configured grace period,
// force-closing whatever remains afterward (spec.md §5's graceful
// shutdown contract). Each tracked connection is given the grace period
// to shut down on its own terms: h2 connections send GOAWAY and wait
// for in-flight streams (h2.Conn.Shutdown); h1 connections, which have
// no such notion, just close.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
	if s.ln != nil {
		s.ln.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	graceCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownGracePeriod)
	defer cancel()

	s.mu.Lock()
	tracked := make([]shutdownable, 0, len(s.conns))
	for _, sd := range s.conns {
		tracked = append(tracked, sd)
	}
	s.mu.Unlock()

	for _, sd := range tracked {
		go sd.Shutdown(graceCtx)
	}

	select {
	case <-done:
		return nil
	case <-graceCtx.Done():
	}

	// Safety net: anything that didn't honor its own Shutdown (or was
	// accepted after the snapshot above) gets force-closed directly.
	s.mu.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	<-done
	return nil
}
