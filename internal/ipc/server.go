package ipc

import (
	"encoding/json"
	"errors"
	"net"
	"sync"

	"happycat-dpi/internal/core"
)

// Server answers control-plane requests over a stream listener. Each
// connection carries a sequence of JSON requests, answered in order.
type Server struct {
	dispatcher *Dispatcher

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
}

// NewServer creates a server that routes requests through d.
func NewServer(d *Dispatcher) *Server {
	return &Server{
		dispatcher: d,
		conns:      make(map[net.Conn]struct{}),
	}
}

// Serve accepts connections on ln until Close. Blocks.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return errors.New("ipc: server closed")
	}
	s.listener = ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			return err
		}
		s.track(conn)
		go s.handleConn(conn)
	}
}

// Close stops accepting requests and drops open connections.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	ln := s.listener
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	if ln != nil {
		ln.Close()
	}
	for _, c := range conns {
		c.Close()
	}
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.untrack(conn)
	defer conn.Close()

	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			return
		}
		if err := enc.Encode(s.dispatcher.Dispatch(req)); err != nil {
			core.Log.Debugf("IPC", "Write failed: %v", err)
			return
		}
	}
}
