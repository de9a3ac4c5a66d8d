package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/google/uuid"
)

// Handler processes one decoded request and returns the response to write.
type Handler func(ctx context.Context, req *Request) *Response

// Server accepts client connections on a Unix socket and drives the
// newline-delimited JSON request/response exchange. Requests on one
// connection are answered strictly in order; connections are independent.
type Server struct {
	socketPath string
	handler    Handler
	logger     *slog.Logger
	listener   net.Listener
	wg         sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// NewServer creates a new IPC server. The handler must be non-nil.
func NewServer(socketPath string, handler Handler, logger *slog.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		handler:    handler,
		logger:     logger,
		conns:      make(map[net.Conn]struct{}),
	}
}

// Listen removes any stale socket file, binds the Unix socket and opens it
// to all local users. It does not accept connections yet; pending clients
// queue in the listen backlog until Serve runs.
func (s *Server) Listen() error {
	os.Remove(s.socketPath)

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	if err := os.Chmod(s.socketPath, 0666); err != nil {
		ln.Close()
		os.Remove(s.socketPath)
		return fmt.Errorf("setting socket permissions: %w", err)
	}
	s.listener = ln
	return nil
}

// Serve starts accepting connections in the background.
func (s *Server) Serve() {
	if s.listener == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop()
	}()
}

// StopAccepting closes the listener so no new connections are admitted.
// Connections already being served keep running until they finish.
func (s *Server) StopAccepting() {
	if s.listener != nil {
		s.listener.Close()
	}
}

// Stop closes the listener and every client connection, waits for their
// handlers to finish and removes the socket file. Clients idling between
// requests are cut off; a response already being written may still land.
func (s *Server) Stop() {
	s.StopAccepting()
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	os.Remove(s.socketPath)
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return // listener closed
		}
		s.track(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handleConn(conn)
		}()
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
	conn.Close()
}

// handleConn runs the per-connection loop: read one request line, dispatch,
// write one response line, repeat until the client hangs up. A request line
// that is not valid JSON gets an error response and the loop continues.
func (s *Server) handleConn(conn net.Conn) {
	log := s.logger.With("conn_id", uuid.NewString()[:8])
	log.Debug("client connected")

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			if werr := s.writeResponse(conn, s.dispatch(line)); werr != nil {
				log.Debug("client gone before response", "error", werr)
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Debug("connection read failed", "error", err)
			}
			log.Debug("client disconnected")
			return
		}
	}
}

func (s *Server) dispatch(line []byte) *Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Errorf("Invalid JSON")
	}
	return s.handler(context.Background(), &req)
}

func (s *Server) writeResponse(conn net.Conn, resp *Response) error {
	// json.Encoder terminates the document with the framing newline.
	return json.NewEncoder(conn).Encode(resp)
}
