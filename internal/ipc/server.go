package ipc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/winscale/internal/overview"
	"github.com/1broseidon/winscale/internal/runtimepath"
)

// Handler performs IPC commands. Its methods are only called through the
// server's Dispatcher.
type Handler interface {
	Toggle(all bool) bool
	SwitchWorkspace(dx, dy int) bool
	Status() []overview.Status
	Reload() error
	ConfigPath() string
}

// Dispatcher runs fn on the goroutine owning the overview state and waits
// for it to return.
type Dispatcher interface {
	Dispatch(fn func()) error
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(fn func()) error

func (f DispatchFunc) Dispatch(fn func()) error { return f(fn) }

// Inline runs handlers on the calling goroutine.
var Inline = DispatchFunc(func(fn func()) error {
	fn()
	return nil
})

const connTimeout = 5 * time.Second

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	handler      Handler
	dispatcher   Dispatcher
	logger       *slog.Logger
	startTime    time.Time
	wg           sync.WaitGroup
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server. An empty socketPath uses the runtime
// directory default.
func NewServer(socketPath string, handler Handler, dispatcher Dispatcher, logger *slog.Logger) (*Server, error) {
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}
	if dispatcher == nil {
		dispatcher = Inline
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		socketPath: socketPath,
		handler:    handler,
		dispatcher: dispatcher,
		logger:     logger,
		startTime:  time.Now(),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections. A socket answered by another
// daemon is an error; a stale one is replaced.
func (s *Server) Start() error {
	if conn, err := net.DialTimeout("unix", s.socketPath, 200*time.Millisecond); err == nil {
		conn.Close()
		return fmt.Errorf("daemon already listening on %s", s.socketPath)
	}
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("ipc server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.stopping() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("ipc accept failed", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) stopping() bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	return s.shuttingDown
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(connTimeout))

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("ipc read failed", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.send(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	var resp *Response
	if err := s.dispatcher.Dispatch(func() {
		resp = s.handleCommand(req)
	}); err != nil {
		resp = NewErrorResponse(fmt.Sprintf("Failed to run %s: %v", req.Command, err))
	}
	s.send(conn, resp)
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	s.logger.Debug("ipc command", "command", req.Command)

	switch req.Command {
	case CommandToggle:
		var payload TogglePayload
		if err := decodePayload(req.Payload, &payload); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid toggle payload: %v", err))
		}
		return okResponse(ActionData{Handled: s.handler.Toggle(payload.All)})

	case CommandSwitchWorkspace:
		var payload SwitchWorkspacePayload
		if err := decodePayload(req.Payload, &payload); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid workspace payload: %v", err))
		}
		return okResponse(ActionData{Handled: s.handler.SwitchWorkspace(payload.DX, payload.DY)})

	case CommandGetStatus:
		return okResponse(StatusData{
			DaemonRunning: true,
			UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
			ConfigPath:    s.handler.ConfigPath(),
			Outputs:       s.handler.Status(),
		})

	case CommandReload:
		if err := s.handler.Reload(); err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
		}
		s.logger.Info("config reloaded via ipc")
		return okResponse(nil)

	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func okResponse(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) send(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Warn("ipc marshal failed", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Warn("ipc write failed", "error", err)
	}
}

// Stop gracefully shuts down the IPC server and waits for open connections.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}
