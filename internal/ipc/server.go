package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"auditdesk/internal/api"
	"auditdesk/internal/daemon"
	"auditdesk/internal/logging"
	"auditdesk/internal/services"
)

// ErrShutdownRequested is returned by Run after a client called Stop. It
// makes the daemon's errgroup cancel the HTTP listener as well.
var ErrShutdownRequested = errors.New("shutdown requested over IPC")

const closeGrace = time.Second

// Server exposes daemon operations via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	once     sync.Once
	shutdown chan struct{}
	stopOnce sync.Once

	connMu sync.Mutex
	conns  map[net.Conn]struct{}
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("restrict socket permissions: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	server := &Server{
		path:     path,
		daemon:   d,
		logger:   logger,
		listener: listener,
		ctx:      serverCtx,
		cancel:   cancel,
		shutdown: make(chan struct{}),
		conns:    make(map[net.Conn]struct{}),
	}

	rpcServer := rpc.NewServer()
	svc := &service{daemon: d, logger: logger, ctx: serverCtx, requestStop: server.requestStop}
	if err := rpcServer.RegisterName(ServiceName, svc); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}
	server.rpcServer = rpcServer
	return server, nil
}

// Serve starts accepting RPC connections until the server is closed.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.track(conn, true)
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				defer s.track(c, false)
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Run serves until ctx is cancelled or a client calls Stop, then closes the
// server. It matches daemon.Sidecar.
func (s *Server) Run(ctx context.Context) error {
	s.Serve()
	var err error
	select {
	case <-ctx.Done():
	case <-s.ctx.Done():
	case <-s.shutdown:
		err = ErrShutdownRequested
	}
	s.Close()
	return err
}

// ShutdownRequested is closed once a client calls Stop.
func (s *Server) ShutdownRequested() <-chan struct{} {
	return s.shutdown
}

func (s *Server) requestStop() {
	s.stopOnce.Do(func() {
		s.logger.Info("daemon stop requested over IPC",
			logging.String(logging.FieldEventType, "daemon_stop_requested"))
		close(s.shutdown)
	})
}

func (s *Server) track(conn net.Conn, add bool) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
		return
	}
	delete(s.conns, conn)
}

// Close stops accepting, gives open connections closeGrace to finish, drops
// the rest, and removes the socket file.
func (s *Server) Close() {
	s.once.Do(func() {
		s.cancel()
		if s.listener != nil {
			_ = s.listener.Close()
		}
		drained := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-time.After(closeGrace):
			s.connMu.Lock()
			for conn := range s.conns {
				_ = conn.Close()
			}
			s.connMu.Unlock()
			<-drained
		}
		if err := os.RemoveAll(s.path); err != nil {
			s.logger.Warn("failed to remove socket",
				logging.String("socket", s.path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
				logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
				logging.String(logging.FieldErrorHint, "Remove the socket file manually"))
		}
	})
}

type service struct {
	daemon      *daemon.Daemon
	logger      *slog.Logger
	ctx         context.Context
	requestStop func()
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) callContext() context.Context {
	return services.WithTransport(s.ctx, api.TransportIPC)
}

func (s *service) GeneratePDFReport(req ReportRequest, resp *ReportResponse) error {
	out, err := s.daemon.Service().GenerateReport(s.callContext(), req)
	if err != nil {
		return encodeError(err)
	}
	*resp = out
	return nil
}

func (s *service) ReadTailChunk(req TailRequest, resp *TailResponse) error {
	out, err := s.daemon.Service().ReadTail(s.callContext(), req)
	if err != nil {
		return encodeError(err)
	}
	*resp = out
	return nil
}

func (s *service) TailLines(req TailLinesRequest, resp *TailLinesResponse) error {
	out, err := s.daemon.Service().TailLines(s.callContext(), req)
	if err != nil {
		return encodeError(err)
	}
	*resp = out
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	s.log().Debug("status requested")
	*resp = s.daemon.Status()
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	resp.Stopped = true
	s.requestStop()
	return nil
}
