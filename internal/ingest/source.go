package ingest

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/tathienbao/signal-relay/internal/metrics"
)

// maxLineBytes bounds a single signal payload.
const maxLineBytes = 1 << 20

// ReaderSource reads newline-delimited signal payloads from a reader,
// typically stdin.
type ReaderSource struct {
	r        io.Reader
	logger   *slog.Logger
	recorder *metrics.Recorder
}

// NewReaderSource creates a source reading from r.
func NewReaderSource(r io.Reader, logger *slog.Logger) *ReaderSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReaderSource{r: r, logger: logger, recorder: metrics.NewRecorder()}
}

// Name returns the name of the source.
func (s *ReaderSource) Name() string {
	return "reader"
}

// Run delivers decoded signals until the reader is exhausted or the context
// is cancelled. Malformed lines are logged and dropped; the loop continues.
func (s *ReaderSource) Run(ctx context.Context, deliver Handler) error {
	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		sig, err := Decode([]byte(line))
		if err != nil {
			s.recorder.RecordSignalDropped("malformed")
			s.logger.Warn("dropping malformed signal payload", "err", err)
			continue
		}
		deliver(ctx, sig)
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	return nil
}

// TCPSource accepts connections from the upstream interpreter and reads
// newline-delimited signal payloads from each. Delivery is serialized
// across connections: signals execute one at a time no matter how many
// peers are connected.
type TCPSource struct {
	addr     string
	logger   *slog.Logger
	recorder *metrics.Recorder

	mu       sync.Mutex // serializes delivery across connections
	listener net.Listener
}

// NewTCPSource creates a source listening on addr.
func NewTCPSource(addr string, logger *slog.Logger) *TCPSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &TCPSource{addr: addr, logger: logger, recorder: metrics.NewRecorder()}
}

// Name returns the name of the source.
func (s *TCPSource) Name() string {
	return "tcp"
}

// Addr returns the bound listen address, once Run has started.
func (s *TCPSource) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run listens for connections and delivers decoded signals until the
// context is cancelled.
func (s *TCPSource) Run(ctx context.Context, deliver Handler) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("ingest listening", "addr", listener.Addr().String())

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := listener.Accept()
		if err != nil {
			wg.Wait()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		wg.Add(1)
		go func(conn net.Conn) {
			defer wg.Done()
			defer func() { _ = conn.Close() }()
			s.serveConn(ctx, conn, deliver)
		}(conn)
	}
}

// serveConn reads payloads from one connection.
func (s *TCPSource) serveConn(ctx context.Context, conn net.Conn, deliver Handler) {
	remote := conn.RemoteAddr().String()
	s.logger.Info("interpreter connected", "remote", remote)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		sig, err := Decode([]byte(line))
		if err != nil {
			s.recorder.RecordSignalDropped("malformed")
			s.logger.Warn("dropping malformed signal payload", "remote", remote, "err", err)
			continue
		}

		// One signal at a time, across all connections.
		s.mu.Lock()
		deliver(ctx, sig)
		s.mu.Unlock()
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		s.logger.Warn("interpreter connection error", "remote", remote, "err", err)
	}
	s.logger.Info("interpreter disconnected", "remote", remote)
}
