package daemon

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenoetrevino/kansync/internal/models"
)

func TestStatusRouter(t *testing.T) {
	server, _, _ := setupTestDaemon(t, Options{})
	router := NewStatusRouter(server)

	t.Run("healthz", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		server.Metrics().IncRequestsAcked()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var snap MetricsSnapshot
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
		assert.Equal(t, int64(1), snap.RequestsAcked)
	})

	t.Run("board", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/board", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var b models.Board
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&b))
		require.Len(t, b.Columns, 2)
		assert.Equal(t, "Backlog", b.Columns[0].Title)
		require.Len(t, b.Columns[0].Cards, 1)
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/board", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
