package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/compd-sh/compd/internal/cerrors"
	"github.com/compd-sh/compd/internal/logger"
)

// Defaults for the concurrency and latency knobs.
const (
	DefaultMaxConns       = 100
	DefaultRequestTimeout = 100 * time.Millisecond
	writeTimeout          = 2 * time.Second
)

// Config carries the daemon's runtime settings.
type Config struct {
	// Socket is the Unix domain socket path to listen on.
	Socket string
	// MaxConns bounds concurrently served connections; further accepts
	// block until a slot frees.
	MaxConns int64
	// RequestTimeout aborts a single completion request.
	RequestTimeout time.Duration
	// MaxRequestBytes bounds one encoded request line.
	MaxRequestBytes int
}

func (c *Config) fill() {
	if c.MaxConns <= 0 {
		c.MaxConns = DefaultMaxConns
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.MaxRequestBytes <= 0 {
		c.MaxRequestBytes = DefaultMaxRequest
	}
}

// connState tracks where a connection is in its lifecycle. Request
// shape errors move through stateErrored but leave the connection
// usable; stream-level failures close it.
type connState int

const (
	stateAccepted connState = iota
	stateReading
	stateParsed
	stateDispatched
	stateResponding
	stateClosed
	stateErrored
)

func (c connState) String() string {
	switch c {
	case stateAccepted:
		return "accepted"
	case stateReading:
		return "reading"
	case stateParsed:
		return "parsed"
	case stateDispatched:
		return "dispatched"
	case stateResponding:
		return "responding"
	case stateClosed:
		return "closed"
	case stateErrored:
		return "errored"
	}
	return "unknown"
}

// Server accepts connections and dispatches requests to the handler.
type Server struct {
	cfg     Config
	handler *Handler
	log     *logger.Logger

	sem *semaphore.Weighted
	wg  sync.WaitGroup

	connMu   sync.Mutex
	conns    map[net.Conn]struct{}
	draining bool
}

// New creates a server. The registry behind handler is the only state
// shared between connections.
func New(cfg Config, handler *Handler, log *logger.Logger) *Server {
	cfg.fill()
	return &Server{
		cfg:     cfg,
		handler: handler,
		log:     log,
		sem:     semaphore.NewWeighted(cfg.MaxConns),
		conns:   make(map[net.Conn]struct{}),
	}
}

// track registers a live connection so shutdown can close it. It
// reports false once draining has begun; a connection accepted in that
// window must not be served.
func (s *Server) track(conn net.Conn) bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.draining {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.connMu.Lock()
	delete(s.conns, conn)
	s.connMu.Unlock()
}

// closeAll unblocks every connection goroutine parked in a read. Idle
// persistent clients are a normal state, so shutdown has to reach into
// their connections rather than wait them out.
func (s *Server) closeAll() {
	s.connMu.Lock()
	s.draining = true
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.connMu.Unlock()
}

// Run binds the socket and serves until ctx is canceled. The socket
// file is removed before bind (a previous daemon may have crashed) and
// after shutdown.
func (s *Server) Run(ctx context.Context) error {
	_ = os.Remove(s.cfg.Socket)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "unix", s.cfg.Socket)
	if err != nil {
		return fmt.Errorf("failed to bind socket %s: %w", s.cfg.Socket, err)
	}

	s.log.Info().Str("socket", s.cfg.Socket).Msg("daemon listening")

	// Unblock Accept and every in-flight read when the context goes
	// away, otherwise an idle client would hold shutdown open forever.
	go func() {
		<-ctx.Done()
		_ = listener.Close()
		s.closeAll()
	}()

	for {
		// Admission control: block new accepts past the connection
		// limit instead of fanning out unboundedly.
		if err := s.sem.Acquire(ctx, 1); err != nil {
			break
		}

		conn, err := listener.Accept()
		if err != nil {
			s.sem.Release(1)
			if ctx.Err() != nil {
				break
			}
			s.log.Warn().Err(err).Msg("accept failed")
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.sem.Release(1)
			s.serveConn(ctx, conn)
		}()
	}

	s.wg.Wait()
	_ = os.Remove(s.cfg.Socket)
	s.log.Info().Msg("daemon stopped")
	return nil
}

// serveConn runs the per-connection request/response loop. Within one
// connection requests are strictly ordered; a write failure closes the
// connection without retry (the client reconnects).
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	if !s.track(conn) {
		_ = conn.Close()
		return
	}

	state := stateAccepted
	defer func() {
		s.untrack(conn)
		_ = conn.Close()
		s.log.Debug().Str("state", state.String()).Msg("connection closed")
	}()

	// The initial buffer must not exceed the line limit: Scanner's
	// effective maximum is the larger of the two.
	bufSize := 4096
	if s.cfg.MaxRequestBytes < bufSize {
		bufSize = s.cfg.MaxRequestBytes
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, bufSize), s.cfg.MaxRequestBytes)

	for {
		state = stateReading
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				state = stateErrored
				if errors.Is(err, bufio.ErrTooLong) {
					// Cannot resync a stream after an overlong line;
					// report and drop the connection.
					s.writeError(conn, cerrors.NewRequestTooLargeError(s.cfg.MaxRequestBytes))
				}
				return
			}
			state = stateClosed
			return
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			state = stateErrored
			if !s.writeError(conn, cerrors.NewInvalidRequestError("malformed request", err)) {
				return
			}
			continue
		}
		state = stateParsed

		resp, cerr := s.dispatch(ctx, req)
		state = stateDispatched
		if cerr != nil {
			state = stateErrored
			if !s.writeError(conn, cerr) {
				return
			}
			continue
		}

		state = stateResponding
		if !s.write(conn, resp) {
			return
		}
	}
}

// dispatch runs one request through the pipeline under the per-request
// timeout.
func (s *Server) dispatch(ctx context.Context, req Request) (*Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	suggestions, err := s.handler.Complete(reqCtx, req.Buffer, req.Cursor)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = cerrors.NewInternalError("completion timed out", err)
		}
		return nil, err
	}

	return &Response{Suggestions: ToWire(suggestions)}, nil
}

func (s *Server) write(conn net.Conn, v interface{}) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
		return false
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.log.Debug().Err(err).Msg("write failed, closing connection")
		return false
	}
	return true
}

func (s *Server) writeError(conn net.Conn, err error) bool {
	return s.write(conn, &ErrorResponse{
		Error: err.Error(),
		Code:  cerrors.WireCode(err),
	})
}
