// Package daemon is the host process that owns the persisted board. The UI
// connects over a Unix domain socket and streams card operations; each one is
// applied in order and answered with an ack or a reject.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/thenoetrevino/kansync/internal/models"
	"github.com/thenoetrevino/kansync/internal/protocol"
	"github.com/thenoetrevino/kansync/internal/types"
)

// BoardStore is the durable board the daemon applies operations to.
// *database.BoardRepo implements it.
type BoardStore interface {
	InsertCard(ctx context.Context, card models.Card, pos models.Position) error
	MoveCard(ctx context.Context, cardID types.CardID, from, to models.Position) error
	DeleteCard(ctx context.Context, cardID types.CardID, lastPos models.Position) (models.Position, error)
	LoadBoard(ctx context.Context) (models.Board, error)
}

// Options tunes the server's health checks and buffers
type Options struct {
	PingInterval     time.Duration
	StaleAfter       time.Duration
	ClientBufferSize int
}

// DefaultOptions pings every 30s and drops clients silent for 90s
func DefaultOptions() Options {
	return Options{
		PingInterval:     30 * time.Second,
		StaleAfter:       90 * time.Second,
		ClientBufferSize: getEnvInt("KANSYNC_DAEMON_CLIENT_BUFFER", 64),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PingInterval <= 0 {
		o.PingInterval = d.PingInterval
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = d.StaleAfter
	}
	if o.ClientBufferSize <= 0 {
		o.ClientBufferSize = d.ClientBufferSize
	}
	return o
}

// peer is a connected UI session
type peer struct {
	conn      net.Conn
	send      chan protocol.Response
	done      chan struct{}
	session   string
	lastPong  time.Time
	mu        sync.Mutex // Protects session and lastPong
	closeOnce sync.Once
}

// Server represents the kansync host daemon
type Server struct {
	socketPath   string
	listener     net.Listener
	store        BoardStore
	opts         Options
	clients      map[*peer]bool
	mu           sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
	metrics      *Metrics
	handlers     sync.WaitGroup
	closed       bool // set under mu by Shutdown
	shutdownOnce sync.Once
}

// getEnvInt reads an integer from an environment variable, returning defaultVal if not set or invalid
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultVal
}

// NewServer creates a daemon listening on socketPath that applies operations to store
func NewServer(socketPath string, store BoardStore, opts Options) (*Server, error) {
	if store == nil {
		return nil, errors.New("daemon: nil board store")
	}

	// Ensure the directory exists
	dir := filepath.Dir(socketPath)
	if dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create socket directory: %w", err)
		}
	}

	// Remove stale socket file if it exists
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return nil, fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	lc := net.ListenConfig{}
	listener, err := lc.Listen(context.Background(), "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create socket listener: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		socketPath: socketPath,
		listener:   listener,
		store:      store,
		opts:       opts.withDefaults(),
		clients:    make(map[*peer]bool),
		ctx:        ctx,
		cancel:     cancel,
		metrics:    NewMetrics(),
	}, nil
}

// Metrics exposes the live counters
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Store returns the board store the server applies operations to
func (s *Server) Store() BoardStore {
	return s.store
}

// Start runs the accept loop and the health monitor until ctx is cancelled
// or Shutdown is called
func (s *Server) Start(ctx context.Context) error {
	log.Printf("Daemon starting, listening on %s", s.socketPath)

	combinedCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-s.ctx.Done()
		cancel()
	}()

	acceptErr := make(chan error, 1)
	go func() {
		acceptErr <- s.acceptLoop(combinedCtx)
	}()

	go s.monitorHealth(combinedCtx)

	select {
	case <-combinedCtx.Done():
		log.Println("Daemon context cancelled, shutting down")
	case err := <-acceptErr:
		if err != nil {
			log.Printf("Accept loop error: %v", err)
		}
	}

	return s.Shutdown()
}

// acceptLoop accepts incoming client connections
func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		// Set a deadline so we can check for context cancellation
		if ul, ok := s.listener.(*net.UnixListener); ok {
			if err := ul.SetDeadline(time.Now().Add(1 * time.Second)); err != nil {
				log.Printf("Error setting listener deadline: %v", err)
			}
		}

		conn, err := s.listener.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept error: %w", err)
		}

		c := &peer{
			conn:     conn,
			send:     make(chan protocol.Response, s.opts.ClientBufferSize),
			done:     make(chan struct{}),
			lastPong: time.Now(),
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return nil
		}
		s.clients[c] = true
		s.handlers.Add(2)
		s.mu.Unlock()
		s.updateClientCount()

		log.Printf("Client connected, total clients: %d", s.getClientCount())

		go s.handleClient(c)
		go s.clientWriter(c)
	}
}

// handleClient reads frames from one connection and applies requests strictly
// in the order they arrive
func (s *Server) handleClient(c *peer) {
	defer s.handlers.Done()
	defer func() {
		s.removeClient(c)
		log.Printf("Client disconnected, total clients: %d", s.getClientCount())
	}()

	decoder := json.NewDecoder(c.conn)

	for {
		var req protocol.Request
		if err := decoder.Decode(&req); err != nil {
			return
		}

		// Check protocol version - log warning if mismatch
		if req.Version != 0 && req.Version != protocol.ProtocolVersion {
			log.Printf("Warning: received frame with protocol version %d, expected %d", req.Version, protocol.ProtocolVersion)
		}

		switch req.Type {
		case protocol.TypeHello:
			if req.Hello == nil {
				continue
			}
			c.mu.Lock()
			c.session = req.Hello.SessionID
			c.mu.Unlock()
			log.Printf("Session %s opened by %s", req.Hello.SessionID, req.Hello.User)

		case protocol.TypeRequest:
			s.metrics.IncRequestsReceived()
			if !s.reply(c, s.process(c, req)) {
				return
			}

		case protocol.TypePong:
			c.mu.Lock()
			c.lastPong = time.Now()
			c.mu.Unlock()

		default:
			log.Printf("Ignoring frame of unknown type %q", req.Type)
		}
	}
}

// process applies one request and builds the reply
func (s *Server) process(c *peer, req protocol.Request) protocol.Response {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == "" {
		s.metrics.IncRequestsRejected()
		return protocol.Reject(req.Seq, CodeBadRequest, errors.New("hello required before requests"))
	}

	if err := s.apply(s.ctx, req); err != nil {
		code := CodeFor(err)
		s.metrics.IncRequestsRejected()
		log.Printf("Rejected seq=%d op=%s session=%s code=%s: %v", req.Seq, req.Op, session, code, err)
		return protocol.Reject(req.Seq, code, err)
	}

	s.metrics.IncRequestsAcked()
	return protocol.Ack(req.Seq)
}

func (s *Server) apply(ctx context.Context, req protocol.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	switch req.Op {
	case protocol.OpAddCard:
		p := req.AddCard
		return s.store.InsertCard(ctx, p.Card, p.Pos)
	case protocol.OpMoveCard:
		p := req.MoveCard
		return s.store.MoveCard(ctx, p.CardID, p.From, p.To)
	case protocol.OpRemoveCard:
		p := req.RemoveCard
		_, err := s.store.DeleteCard(ctx, p.CardID, p.LastPos)
		return err
	}
	return fmt.Errorf("%w: unknown op %q", protocol.ErrMalformedRequest, req.Op)
}

// reply queues resp for the writer. Returns false once the client is gone.
func (s *Server) reply(c *peer, resp protocol.Response) bool {
	select {
	case c.send <- resp:
		return true
	case <-c.done:
		return false
	}
}

// clientWriter sends queued frames to a client
func (s *Server) clientWriter(c *peer) {
	defer s.handlers.Done()
	encoder := json.NewEncoder(c.conn)

	for {
		select {
		case <-c.done:
			return
		case resp := <-c.send:
			if err := encoder.Encode(resp); err != nil {
				s.removeClient(c)
				return
			}
			s.metrics.IncFramesSent()
		}
	}
}

// monitorHealth sends ping frames and removes clients that stopped answering
func (s *Server) monitorHealth(ctx context.Context) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			s.mu.RLock()
			clients := make([]*peer, 0, len(s.clients))
			for c := range s.clients {
				clients = append(clients, c)
			}
			s.mu.RUnlock()

			now := time.Now()
			ping := protocol.Response{Version: protocol.ProtocolVersion, Type: protocol.TypePing}
			for _, c := range clients {
				c.mu.Lock()
				silent := now.Sub(c.lastPong)
				c.mu.Unlock()

				if silent > s.opts.StaleAfter {
					log.Printf("Removing stale client (last pong: %v ago)", silent)
					s.metrics.IncStaleDropped()
					s.removeClient(c)
					continue
				}

				select {
				case c.send <- ping:
					s.metrics.IncPingsSent()
				default:
					log.Printf("Failed to send ping to client (queue full)")
				}
			}
		}
	}
}

// Shutdown closes the listener and every connection, waits for in-flight
// requests to finish, then removes the socket file
func (s *Server) Shutdown() error {
	s.shutdownOnce.Do(func() {
		log.Println("Shutting down daemon...")

		if s.listener != nil {
			if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				log.Printf("Error closing listener: %v", err)
			}
		}

		s.mu.Lock()
		s.closed = true
		clients := make([]*peer, 0, len(s.clients))
		for c := range s.clients {
			clients = append(clients, c)
		}
		s.mu.Unlock()

		for _, c := range clients {
			s.removeClient(c)
		}
		s.handlers.Wait()
		s.cancel()

		if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("Warning: failed to remove socket file: %v", err)
		}
	})

	return nil
}

// Helper methods

func (s *Server) getClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) updateClientCount() {
	s.metrics.SetConnectedClients(int32(s.getClientCount()))
}

// removeClient unregisters c and closes its connection. Safe to call more than once.
func (s *Server) removeClient(c *peer) {
	c.closeOnce.Do(func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()

		close(c.done)
		if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("Error closing client connection: %v", err)
		}
		s.updateClientCount()
	})
}
