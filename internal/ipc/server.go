package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/pgriess/streamdeck-workrooms/internal/runtimepath"
)

// StatusProvider supplies the data served over the socket.
type StatusProvider interface {
	Status() StatusData
	Actions() ActionsData
}

// ServerConfig holds configuration for the IPC server.
type ServerConfig struct {
	// SocketPath defaults to runtimepath.SocketPath().
	SocketPath string
	Provider   StatusProvider
	Logger     *slog.Logger
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	provider     StatusProvider
	logger       *slog.Logger
	shuttingDown bool
	shutdownMu   sync.Mutex
	conns        sync.WaitGroup
}

// NewServer creates a new IPC server
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("ipc: provider is required")
	}
	socketPath := cfg.SocketPath
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := removeStaleSocket(socketPath); err != nil {
		return nil, err
	}

	return &Server{
		socketPath: socketPath,
		provider:   cfg.Provider,
		logger:     logger,
	}, nil
}

// ErrInUse is returned by NewServer when another process is serving the
// socket.
var ErrInUse = errors.New("ipc: socket in use by another instance")

// removeStaleSocket deletes a socket file left by a previous run. A socket
// that still accepts connections belongs to a live instance and is kept.
func removeStaleSocket(path string) error {
	if _, err := os.Lstat(path); os.IsNotExist(err) {
		return nil
	}
	conn, err := net.DialTimeout("unix", path, time.Second)
	if err == nil {
		conn.Close()
		return fmt.Errorf("%w: %s", ErrInUse, path)
	}
	if !errors.Is(err, syscall.ECONNREFUSED) {
		if errors.Is(err, syscall.ENOENT) {
			return nil
		}
		return fmt.Errorf("failed to check IPC socket %s: %w", path, err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale IPC socket: %w", err)
	}
	return nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("ipc server listening", "socket", s.socketPath)

	go s.acceptLoop()

	return nil
}

// Run serves until ctx is cancelled. Start must have succeeded.
func (s *Server) Run(ctx context.Context) error {
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("ipc accept failed", "error", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	reader := bufio.NewReader(conn)

	// One JSON request per line.
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Debug("ipc read failed", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.writeResponse(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	s.writeResponse(conn, s.handleCommand(req))
}

func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return okOrError(s.provider.Status())
	case CommandGetActions:
		return okOrError(s.provider.Actions())
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func okOrError(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) writeResponse(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Warn("ipc marshal failed", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Debug("ipc write failed", "error", err)
	}
}

// Stop closes the listener, waits for in-flight requests and removes the
// socket file.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.conns.Wait()
	os.Remove(s.socketPath)
}
