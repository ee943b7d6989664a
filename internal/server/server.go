// Package server exposes the ledger over TCP, one handling goroutine per
// accepted connection.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"bank_ledger/internal/ledger"
	"bank_ledger/pkg/metrics"
)

type Server struct {
	addr           string
	ledger         *ledger.Ledger
	metrics        *metrics.MetricsCollector
	logger         *slog.Logger
	requestTimeout time.Duration

	ln     net.Listener
	wg     sync.WaitGroup
	closed chan struct{}
}

func New(addr string, l *ledger.Ledger, m *metrics.MetricsCollector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		addr:           addr,
		ledger:         l,
		metrics:        m,
		logger:         logger,
		requestTimeout: 30 * time.Second,
		closed:         make(chan struct{}),
	}
}

// Start binds the listener and begins accepting connections in the
// background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln

	s.logger.Info("Ledger server listening", slog.String("addr", ln.Addr().String()))

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr reports the bound listener address, useful when addr was ":0".
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.closed:
				return
			default:
			}
			s.logger.Warn("Accept failed", slog.String("error", err.Error()))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// handleConn reads one JSON request per line and writes one JSON response
// per line until the client disconnects.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	s.logger.Info("Client connected", slog.String("remote", conn.RemoteAddr().String()))

	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeResponse(encoder, errorResponse("invalid request", "INVALID_REQUEST"))
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.requestTimeout)
		resp := s.handle(ctx, req)
		cancel()

		s.writeResponse(encoder, resp)
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.logger.Warn("Connection read failed",
			slog.String("remote", conn.RemoteAddr().String()),
			slog.String("error", err.Error()))
	}

	s.logger.Info("Client disconnected", slog.String("remote", conn.RemoteAddr().String()))
}

func (s *Server) writeResponse(encoder *json.Encoder, resp Response) {
	if err := encoder.Encode(resp); err != nil {
		s.logger.Error("Failed to encode response", slog.String("error", err.Error()))
	}
}

// Shutdown stops accepting connections and waits for in-flight handlers,
// bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.closed)
	if s.ln != nil {
		if err := s.ln.Close(); err != nil {
			return err
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
