// Package udsstream realizes simtemp.StreamRegistry over a Unix domain
// socket, grounded on the net.Listen("unix", ...)/Accept accept loop in
// engine/engine.go from the retrieved example pack, adapted here from
// a shared-memory wakeup channel to a stream of encoded simtemp
// records written directly to each accepted connection.
package udsstream

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/PyCharmGuy123/simtemp/simtemp"
)

// Server accepts connections on a Unix domain socket and, for each
// connection, opens a record stream handle and pushes every record it
// produces to the client until the connection drops or the server
// stops. One Server instance backs exactly one registered stream name,
// mirroring simdev_open's one-reader-per-fd model over a socket instead
// of a device node.
type Server struct {
	sockPath string
	open     func() (*simtemp.Handle, error)

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

// New returns a Server bound to sockPath. Listen must be called before
// Register accepts connections.
func New(sockPath string) *Server {
	return &Server{sockPath: sockPath}
}

// Register implements simtemp.StreamRegistry. name is currently
// informational; a Server backs a single socket path and serves
// whatever stream is registered under it.
func (s *Server) Register(name string, h simtemp.StreamHandlers) func() {
	s.mu.Lock()
	s.open = h.Open
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.open = nil
		s.mu.Unlock()
	}
}

// Listen creates the socket and starts the accept loop in a background
// goroutine. ctx cancellation stops the loop and closes the listener.
func (s *Server) Listen(ctx context.Context) error {
	os.Remove(s.sockPath)
	listener, err := net.Listen("unix", s.sockPath)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.listener = listener
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.acceptLoop(runCtx, listener)
	return nil
}

// Close stops the accept loop, closes the listener, and waits for every
// in-flight connection handler to finish.
func (s *Server) Close() error {
	s.mu.Lock()
	cancel := s.cancel
	listener := s.listener
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	var err error
	if listener != nil {
		err = listener.Close()
	}
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop(ctx context.Context, listener net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("udsstream: accept failed", slog.String("error", err.Error()))
			continue
		}
		s.wg.Add(1)
		go s.serve(ctx, conn)
	}
}

func (s *Server) serve(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	s.mu.Lock()
	open := s.open
	s.mu.Unlock()
	if open == nil {
		return
	}

	h, err := open()
	if err != nil {
		slog.Warn("udsstream: open failed", slog.String("error", err.Error()))
		return
	}
	defer h.Close()

	buf := make([]byte, simtemp.RecordSize)
	for {
		n, err := h.Read(ctx, buf, false)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				slog.Debug("udsstream: stream ended", slog.String("error", err.Error()))
			}
			return
		}
		if _, err := conn.Write(buf[:n]); err != nil {
			return
		}
	}
}
