package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/thenoetrevino/kansync/internal/client"
	"github.com/thenoetrevino/kansync/internal/database"
	"github.com/thenoetrevino/kansync/internal/models"
	"github.com/thenoetrevino/kansync/internal/protocol"
	"github.com/thenoetrevino/kansync/internal/types"
)

// Test helpers to avoid import cycle with testutil

func getTestSocketPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test-kansync.sock")
}

func newTestRepo(t *testing.T) *database.BoardRepo {
	t.Helper()
	db, err := database.OpenMemory(context.Background())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := database.NewBoardRepo(db, nil)
	seed := models.Board{Columns: []models.Column{
		{ID: 0, Title: "Backlog", Cards: []models.Card{{ID: 0, Title: "Add a kanban board"}}},
		{ID: 1, Title: "In Progress"},
	}}
	if _, err := repo.SeedIfEmpty(context.Background(), seed); err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}
	return repo
}

func setupTestDaemon(t *testing.T, opts Options) (*Server, string, *database.BoardRepo) {
	t.Helper()
	socketPath := getTestSocketPath(t)
	repo := newTestRepo(t)

	server, err := NewServer(socketPath, repo, opts)
	if err != nil {
		t.Fatalf("Failed to create test daemon: %v", err)
	}

	t.Cleanup(func() {
		_ = server.Shutdown()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() { _ = server.Start(ctx) }()

	// Wait for socket
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(socketPath); err == nil {
			time.Sleep(10 * time.Millisecond)
			return server, socketPath, repo
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatal("Timeout waiting for daemon socket")
	return nil, "", nil
}

type rawConn struct {
	conn    net.Conn
	encoder *json.Encoder
	decoder *json.Decoder
}

func connectRawClient(t *testing.T, socketPath string) *rawConn {
	t.Helper()

	conn, err := (&net.Dialer{}).DialContext(context.Background(), "unix", socketPath)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}

	t.Cleanup(func() {
		_ = conn.Close()
	})

	return &rawConn{conn: conn, encoder: json.NewEncoder(conn), decoder: json.NewDecoder(bufio.NewReader(conn))}
}

func (rc *rawConn) send(t *testing.T, req protocol.Request) {
	t.Helper()
	if err := rc.encoder.Encode(req); err != nil {
		t.Fatalf("Failed to send frame: %v", err)
	}
}

func (rc *rawConn) hello(t *testing.T) {
	t.Helper()
	rc.send(t, protocol.NewHello("test-session", "tester"))
}

// next reads the next non-ping response
func (rc *rawConn) next(t *testing.T) protocol.Response {
	t.Helper()
	_ = rc.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var resp protocol.Response
		if err := rc.decoder.Decode(&resp); err != nil {
			t.Fatalf("Failed to read response: %v", err)
		}
		if resp.Type != protocol.TypePing {
			return resp
		}
	}
}

func withSeq(req protocol.Request, seq uint64) protocol.Request {
	req.Seq = seq
	return req
}

func columnIDs(t *testing.T, repo *database.BoardRepo, col types.ColumnID) []types.CardID {
	t.Helper()
	b, err := repo.LoadBoard(context.Background())
	if err != nil {
		t.Fatalf("Failed to load board: %v", err)
	}
	c, ok := b.Column(col)
	if !ok {
		t.Fatalf("Column %d missing", col)
	}
	ids := []types.CardID{}
	for _, card := range c.Cards {
		ids = append(ids, card.ID)
	}
	return ids
}

func equalIDs(a, b []types.CardID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ============================================================================
// Server Initialization Tests
// ============================================================================

func TestNewServer_Success(t *testing.T) {
	socketPath := getTestSocketPath(t)

	server, err := NewServer(socketPath, newTestRepo(t), Options{})
	if err != nil {
		t.Fatalf("Expected NewServer to succeed, got error: %v", err)
	}
	defer func() { _ = server.Shutdown() }()

	if _, err := os.Stat(socketPath); os.IsNotExist(err) {
		t.Error("Expected socket file to be created")
	}
	if server.opts.PingInterval != 30*time.Second || server.opts.StaleAfter != 90*time.Second {
		t.Errorf("Expected default health intervals, got %+v", server.opts)
	}
}

func TestNewServer_NilStore(t *testing.T) {
	if _, err := NewServer(getTestSocketPath(t), nil, Options{}); err == nil {
		t.Fatal("Expected error for nil store")
	}
}

func TestNewServer_DirectoryCreation(t *testing.T) {
	nestedPath := filepath.Join(t.TempDir(), "nested", "subdirs", "kansync.sock")

	server, err := NewServer(nestedPath, newTestRepo(t), Options{})
	if err != nil {
		t.Fatalf("Expected NewServer to create nested directories, got error: %v", err)
	}
	defer func() { _ = server.Shutdown() }()

	if _, err := os.Stat(nestedPath); os.IsNotExist(err) {
		t.Error("Expected socket file to be created in nested directory")
	}
}

func TestNewServer_StaleSocketCleanup(t *testing.T) {
	socketPath := getTestSocketPath(t)

	f, err := os.Create(socketPath)
	if err != nil {
		t.Fatalf("Failed to create stale socket file: %v", err)
	}
	_ = f.Close()

	server, err := NewServer(socketPath, newTestRepo(t), Options{})
	if err != nil {
		t.Fatalf("Expected NewServer to succeed after removing stale socket, got error: %v", err)
	}
	defer func() { _ = server.Shutdown() }()

	if _, err := os.Stat(socketPath); os.IsNotExist(err) {
		t.Error("Expected new socket file to be created")
	}
}

func TestNewServer_EnvVarConfiguration(t *testing.T) {
	t.Setenv("KANSYNC_DAEMON_CLIENT_BUFFER", "7")

	if got := DefaultOptions().ClientBufferSize; got != 7 {
		t.Errorf("Expected client buffer 7 from env, got %d", got)
	}
}

func TestShutdown_RemovesSocket(t *testing.T) {
	server, socketPath, _ := setupTestDaemon(t, Options{})

	if err := server.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if _, err := os.Stat(socketPath); !os.IsNotExist(err) {
		t.Error("Expected socket file to be removed after shutdown")
	}
	// idempotent
	if err := server.Shutdown(); err != nil {
		t.Fatalf("Second shutdown failed: %v", err)
	}
}

// ============================================================================
// Request Handling Tests
// ============================================================================

func TestRequest_AddCardAcked(t *testing.T) {
	server, socketPath, repo := setupTestDaemon(t, Options{})
	rc := connectRawClient(t, socketPath)
	rc.hello(t)

	rc.send(t, withSeq(protocol.NewAddCard(models.Card{ID: 10, Title: "X"}, models.Position{ColumnID: 0, Index: 0}), 1))

	resp := rc.next(t)
	if resp.Type != protocol.TypeAck || resp.Seq != 1 {
		t.Fatalf("Expected ack for seq 1, got %+v", resp)
	}
	if got := columnIDs(t, repo, 0); !equalIDs(got, []types.CardID{10, 0}) {
		t.Errorf("Expected column 0 = [10 0], got %v", got)
	}

	snap := server.Metrics().GetSnapshot()
	if snap.RequestsReceived != 1 || snap.RequestsAcked != 1 {
		t.Errorf("Expected 1 received and 1 acked, got %+v", snap)
	}
}

func TestRequest_BeforeHelloRejected(t *testing.T) {
	_, socketPath, repo := setupTestDaemon(t, Options{})
	rc := connectRawClient(t, socketPath)

	rc.send(t, withSeq(protocol.NewRemoveCard(0, models.Position{}), 1))

	resp := rc.next(t)
	if resp.Type != protocol.TypeReject || resp.Code != CodeBadRequest {
		t.Fatalf("Expected bad_request reject, got %+v", resp)
	}
	if got := columnIDs(t, repo, 0); !equalIDs(got, []types.CardID{0}) {
		t.Errorf("Expected board untouched, got %v", got)
	}
}

func TestHello_TracksSessionPerConnection(t *testing.T) {
	server, socketPath, _ := setupTestDaemon(t, Options{})

	for i, id := range []string{"session-a", "session-b"} {
		rc := connectRawClient(t, socketPath)
		rc.send(t, protocol.NewHello(id, "tester"))
		// requests on a connection are handled after its hello
		rc.send(t, withSeq(protocol.NewRemoveCard(99, models.Position{}), uint64(i+1)))
		if resp := rc.next(t); resp.Code != CodeUnknownCard {
			t.Fatalf("Expected unknown_card after hello, got %+v", resp)
		}
	}

	server.mu.Lock()
	seen := make(map[string]bool)
	for p := range server.clients {
		p.mu.Lock()
		seen[p.session] = true
		p.mu.Unlock()
	}
	server.mu.Unlock()

	if len(seen) != 2 || !seen["session-a"] || !seen["session-b"] {
		t.Errorf("Expected both sessions tracked, got %v", seen)
	}
}

func TestRequest_RejectCodes(t *testing.T) {
	tests := []struct {
		name string
		req  protocol.Request
		code string
	}{
		{
			name: "unknown card",
			req:  protocol.NewRemoveCard(99, models.Position{}),
			code: CodeUnknownCard,
		},
		{
			name: "unknown column",
			req:  protocol.NewAddCard(models.Card{ID: 5, Title: "X"}, models.Position{ColumnID: 9}),
			code: CodeUnknownColumn,
		},
		{
			name: "invalid position",
			req:  protocol.NewAddCard(models.Card{ID: 5, Title: "X"}, models.Position{ColumnID: 1, Index: 3}),
			code: CodeInvalidPosition,
		},
		{
			name: "duplicate card",
			req:  protocol.NewAddCard(models.Card{ID: 0, Title: "X"}, models.Position{ColumnID: 1}),
			code: CodeDuplicateCard,
		},
		{
			name: "position mismatch",
			req:  protocol.NewMoveCard(0, models.Position{ColumnID: 1, Index: 0}, models.Position{ColumnID: 1, Index: 0}),
			code: CodePositionMismatch,
		},
		{
			name: "missing payload",
			req:  protocol.Request{Version: protocol.ProtocolVersion, Type: protocol.TypeRequest, Op: protocol.OpAddCard},
			code: CodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, socketPath, _ := setupTestDaemon(t, Options{})
			rc := connectRawClient(t, socketPath)
			rc.hello(t)

			rc.send(t, withSeq(tt.req, 3))
			resp := rc.next(t)
			if resp.Type != protocol.TypeReject {
				t.Fatalf("Expected reject, got %+v", resp)
			}
			if resp.Seq != 3 {
				t.Errorf("Expected seq 3, got %d", resp.Seq)
			}
			if resp.Code != tt.code {
				t.Errorf("Expected code %q, got %q (%s)", tt.code, resp.Code, resp.Error)
			}
		})
	}
}

func TestRequest_AppliedInArrivalOrder(t *testing.T) {
	_, socketPath, repo := setupTestDaemon(t, Options{})
	rc := connectRawClient(t, socketPath)
	rc.hello(t)

	const n = 20
	for i := 1; i <= n; i++ {
		card := models.Card{ID: types.CardID(100 + i), Title: "burst"}
		rc.send(t, withSeq(protocol.NewAddCard(card, models.Position{ColumnID: 1, Index: 0}), uint64(i)))
	}

	for i := 1; i <= n; i++ {
		resp := rc.next(t)
		if resp.Type != protocol.TypeAck || resp.Seq != uint64(i) {
			t.Fatalf("Expected ack seq %d, got %+v", i, resp)
		}
	}

	got := columnIDs(t, repo, 1)
	if len(got) != n {
		t.Fatalf("Expected %d cards, got %d", n, len(got))
	}
	// each insert went to the front, so the last one sent is first
	for i, id := range got {
		if want := types.CardID(100 + n - i); id != want {
			t.Fatalf("Index %d: expected card %d, got %d", i, want, id)
		}
	}
}

// ============================================================================
// Health Monitor Tests
// ============================================================================

func TestHealth_StaleClientRemoved(t *testing.T) {
	server, socketPath, _ := setupTestDaemon(t, Options{
		PingInterval: 30 * time.Millisecond,
		StaleAfter:   100 * time.Millisecond,
	})
	rc := connectRawClient(t, socketPath)
	rc.hello(t)

	// never answer pings: the daemon must hang up
	_ = rc.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	sawPing := false
	for {
		var resp protocol.Response
		if err := rc.decoder.Decode(&resp); err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				t.Fatal("Timed out waiting for stale client removal")
			}
			break
		}
		if resp.Type == protocol.TypePing {
			sawPing = true
		}
	}

	if !sawPing {
		t.Error("Expected at least one ping before removal")
	}
	if server.Metrics().StaleDropped.Load() < 1 {
		t.Error("Expected StaleDropped to be counted")
	}
}

func TestHealth_PongKeepsClient(t *testing.T) {
	server, socketPath, _ := setupTestDaemon(t, Options{
		PingInterval: 30 * time.Millisecond,
		StaleAfter:   100 * time.Millisecond,
	})

	c, err := client.NewClient(socketPath, client.Options{AckTimeout: time.Second})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}

	time.Sleep(400 * time.Millisecond)

	if got := server.Metrics().ConnectedClients.Load(); got != 1 {
		t.Errorf("Expected client to stay connected, got %d clients", got)
	}
	if server.Metrics().PingsSent.Load() == 0 {
		t.Error("Expected pings to be sent")
	}
}

// ============================================================================
// End-to-End Tests
// ============================================================================

func TestEndToEnd_ClientOperations(t *testing.T) {
	_, socketPath, repo := setupTestDaemon(t, Options{})

	c, err := client.NewClient(socketPath, client.Options{AckTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	requests := []protocol.Request{
		protocol.NewAddCard(models.Card{ID: 7, Title: "X", Description: models.StringPtr("d")}, models.Position{ColumnID: 0, Index: 0}),
		protocol.NewMoveCard(0, models.Position{ColumnID: 0, Index: 1}, models.Position{ColumnID: 1, Index: 0}),
		protocol.NewRemoveCard(7, models.Position{ColumnID: 0, Index: 0}),
		protocol.NewRemoveCard(7, models.Position{ColumnID: 0, Index: 0}),
	}
	for _, req := range requests {
		if _, err := c.Send(req); err != nil {
			t.Fatalf("Send failed: %v", err)
		}
	}

	want := []client.State{client.Acknowledged, client.Acknowledged, client.Acknowledged, client.Failed}
	for i, state := range want {
		select {
		case out := <-c.Outcomes():
			if out.Seq != uint64(i+1) {
				t.Fatalf("Expected outcome for seq %d, got %d", i+1, out.Seq)
			}
			if out.State != state {
				t.Fatalf("Seq %d: expected %s, got %s (%v)", out.Seq, state, out.State, out.Err)
			}
			if state == client.Failed {
				var te *client.TransportError
				if !errors.As(out.Err, &te) || te.HostCode != CodeUnknownCard {
					t.Errorf("Expected unknown_card rejection, got %v", out.Err)
				}
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("Timeout waiting for outcome %d", i+1)
		}
	}

	if got := columnIDs(t, repo, 0); len(got) != 0 {
		t.Errorf("Expected column 0 empty, got %v", got)
	}
	if got := columnIDs(t, repo, 1); !equalIDs(got, []types.CardID{0}) {
		t.Errorf("Expected column 1 = [0], got %v", got)
	}
}
