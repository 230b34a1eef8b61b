// Package client delivers board mutations from the UI to the host daemon.
//
// Requests are written by a single goroutine in the order Send accepted
// them, so the host never sees a MoveCard before the AddCard that created
// the card. Each request is Pending until the host acks it, rejects it, the
// ack times out, or the connection drops.
package client

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"maps"
	"net"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thenoetrevino/kansync/internal/protocol"
	"github.com/thenoetrevino/kansync/internal/user"
)

// Options tunes the client. Zero values take the defaults.
type Options struct {
	QueueSize    int
	AckTimeout   time.Duration
	WriteTimeout time.Duration
	DialRetries  int
	BaseDelay    time.Duration
	// SessionID is sent in the hello frame; a random uuid when empty
	SessionID string
	// User is announced in the hello frame; the login name when empty
	User string
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		QueueSize:    256,
		AckTimeout:   5 * time.Second,
		WriteTimeout: 5 * time.Second,
		DialRetries:  3,
		BaseDelay:    200 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.User == "" {
		o.User = user.Name()
	}
	if o.QueueSize <= 0 {
		o.QueueSize = def.QueueSize
	}
	if o.AckTimeout <= 0 {
		o.AckTimeout = def.AckTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = def.WriteTimeout
	}
	if o.DialRetries < 0 {
		o.DialRetries = 0
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = def.BaseDelay
	}
	return o
}

// Client is a connection to the host daemon
type Client struct {
	socketPath string
	opts       Options
	sessionID  string

	mu      sync.Mutex // protects everything below
	conn    net.Conn
	encoder *json.Encoder
	pending map[uint64]*inflight
	nextSeq uint64
	closed  bool

	queue    chan protocol.Request
	outcomes chan Outcome

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc

	writerDone chan struct{}
	sweepDone  chan struct{}
	readers    sync.WaitGroup
	closeOnce  sync.Once
}

// NewClient creates a client and starts its writer but does not dial.
// The socket path should be the full path to the Unix domain socket.
func NewClient(socketPath string, opts Options) (*Client, error) {
	if socketPath == "" {
		return nil, errors.New("socket path is required")
	}

	opts = opts.withDefaults()
	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		socketPath: socketPath,
		opts:       opts,
		sessionID:  sessionID,
		pending:    make(map[uint64]*inflight),
		queue:      make(chan protocol.Request, opts.QueueSize),
		outcomes:   make(chan Outcome, opts.QueueSize),
		ctx:        ctx,
		cancel:     cancel,
		writerDone: make(chan struct{}),
		sweepDone:  make(chan struct{}),
	}

	go c.writeLoop()
	go c.sweepLoop()

	return c, nil
}

// SessionID returns the id this client announces to the host
func (c *Client) SessionID() string {
	return c.sessionID
}

// Connect establishes a connection to the host socket and sends hello.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return &TransportError{Code: CodeClosed, Message: "client closed"}
	}
	if c.conn != nil {
		return nil
	}
	return c.dialLocked(ctx)
}

// dialLocked dials and starts a reader for the new connection. Caller holds c.mu.
func (c *Client) dialLocked(ctx context.Context) error {
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return ClassifyDialError(err)
	}

	encoder := json.NewEncoder(conn)
	if err := conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)); err == nil {
		err = encoder.Encode(protocol.NewHello(c.sessionID, c.opts.User))
	}
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			log.Printf("Error closing connection: %v", closeErr)
		}
		return &TransportError{Code: CodeWriteFailed, Message: "failed to send hello", Err: err}
	}

	c.conn = conn
	c.encoder = encoder

	c.readers.Add(1)
	go c.readLoop(conn)

	slog.Debug("connected to host", "socket_path", c.socketPath, "session_id", c.sessionID)
	return nil
}

// Send queues a request for delivery and returns its sequence number.
// It never waits for the host. A full queue or a closed client is reported
// synchronously and the request is not tracked.
func (c *Client) Send(req protocol.Request) (uint64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, &TransportError{Code: CodeClosed, Op: req.Op, Message: "client closed"}
	}

	c.nextSeq++
	req.Seq = c.nextSeq

	select {
	case c.queue <- req:
		return req.Seq, nil
	default:
		return 0, &TransportError{
			Code:    CodeQueueFull,
			Seq:     req.Seq,
			Op:      req.Op,
			Message: "send queue full",
			Hint:    "The host is not keeping up",
		}
	}
}

// Outcomes returns the channel of terminal results. It is closed by Close.
func (c *Client) Outcomes() <-chan Outcome {
	return c.outcomes
}

// InFlight returns the number of requests written but not yet resolved
func (c *Client) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// writeLoop is the only goroutine that writes requests, which keeps them in FIFO order
func (c *Client) writeLoop() {
	defer close(c.writerDone)

	for req := range c.queue {
		c.deliver(req)
	}
}

func (c *Client) deliver(req protocol.Request) {
	// The reader may drop the connection between dialing and writing; one
	// redial covers that window.
	for attempt := 0; attempt < 2; attempt++ {
		if err := c.ensureConnected(); err != nil {
			c.complete(req, Failed, annotate(err, req))
			return
		}
		if c.write(req) {
			return
		}
	}
	c.complete(req, Failed, &TransportError{
		Code:    CodeConnectionLost,
		Seq:     req.Seq,
		Op:      req.Op,
		Message: "connection to host lost before write",
	})
}

// ensureConnected redials with exponential backoff when there is no connection
func (c *Client) ensureConnected() error {
	delay := c.opts.BaseDelay
	var lastErr error

	for attempt := 0; attempt <= c.opts.DialRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-c.ctx.Done():
				return &TransportError{Code: CodeClosed, Message: "client closed"}
			case <-time.After(delay):
			}
			delay *= 2 // Exponential backoff: 200ms, 400ms, 800ms
		}

		if c.ctx.Err() != nil {
			return &TransportError{Code: CodeClosed, Message: "client closed"}
		}

		c.mu.Lock()
		if c.conn != nil {
			c.mu.Unlock()
			return nil
		}
		err := c.dialLocked(c.ctx)
		c.mu.Unlock()

		if err == nil {
			if attempt > 0 {
				log.Printf("Reconnected to host (attempt %d/%d)", attempt+1, c.opts.DialRetries+1)
			}
			return nil
		}

		lastErr = err
		log.Printf("Dial attempt %d/%d failed: %v", attempt+1, c.opts.DialRetries+1, err)
	}

	return lastErr
}

// write registers req as pending and encodes it. It returns false when there
// was no connection to write to; the request is then not registered.
func (c *Client) write(req protocol.Request) bool {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return false
	}

	// Register before writing so a fast ack always finds its request
	c.pending[req.Seq] = &inflight{req: req, sentAt: time.Now()}

	err := conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	if err == nil {
		err = c.encoder.Encode(req)
	}
	c.mu.Unlock()

	if err != nil {
		c.dropConnection(conn, CodeWriteFailed, err)
	}
	return true
}

// readLoop reads host responses for one connection until it fails
func (c *Client) readLoop(conn net.Conn) {
	defer c.readers.Done()

	decoder := json.NewDecoder(conn)
	for {
		var resp protocol.Response
		if err := decoder.Decode(&resp); err != nil {
			c.dropConnection(conn, CodeConnectionLost, err)
			return
		}

		if resp.Version != 0 && resp.Version != protocol.ProtocolVersion {
			log.Printf("Warning: received message with protocol version %d, expected %d", resp.Version, protocol.ProtocolVersion)
		}

		switch resp.Type {
		case protocol.TypeAck:
			c.resolve(resp.Seq, nil)

		case protocol.TypeReject:
			c.resolve(resp.Seq, &TransportError{
				Code:     CodeRejected,
				Message:  resp.Error,
				HostCode: resp.Code,
			})

		case protocol.TypePing:
			c.pong(conn)
		}
	}
}

// resolve completes a pending request with the host's answer
func (c *Client) resolve(seq uint64, rejection *TransportError) {
	c.mu.Lock()
	p, ok := c.pending[seq]
	if ok {
		delete(c.pending, seq)
	}
	c.mu.Unlock()

	if !ok {
		// Already failed by timeout or a dropped connection
		slog.Debug("response for unknown request ignored", "seq", seq)
		return
	}

	if rejection == nil {
		c.complete(p.req, Acknowledged, nil)
		return
	}
	rejection.Seq = p.req.Seq
	rejection.Op = p.req.Op
	c.complete(p.req, Failed, rejection)
}

func (c *Client) pong(conn net.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != conn {
		return
	}
	err := conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	if err == nil {
		err = c.encoder.Encode(protocol.Request{Version: protocol.ProtocolVersion, Type: protocol.TypePong})
	}
	if err != nil && !isConnectionError(err) {
		log.Printf("Failed to send pong: %v", err)
	}
}

// dropConnection closes conn if it is still current and fails everything in flight on it
func (c *Client) dropConnection(conn net.Conn, code ErrorCode, cause error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.encoder = nil
	lost := c.pending
	c.pending = make(map[uint64]*inflight)
	c.mu.Unlock()

	if err := conn.Close(); err != nil && !isConnectionError(err) {
		log.Printf("Error closing connection: %v", err)
	}
	if code != CodeClosed {
		log.Printf("Connection to host lost: %v", cause)
	}

	for _, seq := range slices.Sorted(maps.Keys(lost)) {
		req := lost[seq].req
		c.complete(req, Failed, &TransportError{
			Code:    code,
			Seq:     seq,
			Op:      req.Op,
			Message: "connection to host lost",
			Err:     cause,
		})
	}
}

// sweepLoop fails requests whose ack did not arrive within AckTimeout
func (c *Client) sweepLoop() {
	defer close(c.sweepDone)

	interval := c.opts.AckTimeout / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case now := <-ticker.C:
			c.expire(now)
		}
	}
}

func (c *Client) expire(now time.Time) {
	c.mu.Lock()
	var expired []*inflight
	for seq, p := range c.pending {
		if now.Sub(p.sentAt) >= c.opts.AckTimeout {
			expired = append(expired, p)
			delete(c.pending, seq)
		}
	}
	c.mu.Unlock()

	slices.SortFunc(expired, func(a, b *inflight) int {
		return cmp.Compare(a.req.Seq, b.req.Seq)
	})
	for _, p := range expired {
		c.complete(p.req, Failed, &TransportError{
			Code:    CodeAckTimeout,
			Seq:     p.req.Seq,
			Op:      p.req.Op,
			Message: fmt.Sprintf("no acknowledgement within %v", c.opts.AckTimeout),
		})
	}
}

// complete publishes the terminal outcome of a request
func (c *Client) complete(req protocol.Request, state State, err error) {
	o := Outcome{Seq: req.Seq, Op: req.Op, CardID: req.CardID(), State: state, Err: err}

	if state == Failed {
		slog.Warn("message to host failed", "seq", req.Seq, "op", req.Op, "card_id", o.CardID, "error", err)
	} else {
		slog.Debug("message acknowledged", "seq", req.Seq, "op", req.Op, "card_id", o.CardID)
	}

	select {
	case c.outcomes <- o:
		return
	default:
	}

	select {
	case c.outcomes <- o:
	case <-c.ctx.Done():
		log.Printf("Outcome for seq %d dropped after close", o.Seq)
	}
}

// Close stops accepting requests, flushes the queue, waits up to AckTimeout
// for outstanding acks and fails whatever is still pending.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.queue)
		c.mu.Unlock()

		flushCtx, cancelFlush := context.WithTimeout(context.Background(), c.opts.AckTimeout)
		defer cancelFlush()

		select {
		case <-c.writerDone:
		case <-flushCtx.Done():
			log.Printf("Timed out flushing send queue")
		}

		ticker := time.NewTicker(10 * time.Millisecond)
	waitAcks:
		for c.InFlight() > 0 {
			select {
			case <-flushCtx.Done():
				break waitAcks
			case <-ticker.C:
			}
		}
		ticker.Stop()

		// Cancel before reading conn so no new dial can start afterwards
		c.cancel()

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn != nil {
			c.dropConnection(conn, CodeClosed, errors.New("client closed"))
		}

		<-c.writerDone
		<-c.sweepDone
		c.readers.Wait()
		close(c.outcomes)
	})
	return nil
}

// annotate attaches request details to a transport error
func annotate(err error, req protocol.Request) error {
	var te *TransportError
	if errors.As(err, &te) {
		cp := *te
		cp.Seq = req.Seq
		cp.Op = req.Op
		return &cp
	}
	return &TransportError{Code: CodeWriteFailed, Seq: req.Seq, Op: req.Op, Message: err.Error(), Err: err}
}

// isConnectionError checks if an error is a network connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset")
}
