package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// NewStatusRouter serves read-only daemon state: /healthz, /metrics and /board
func NewStatusRouter(s *Server) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, s.Metrics().GetSnapshot())
	}).Methods(http.MethodGet)

	r.HandleFunc("/board", func(w http.ResponseWriter, req *http.Request) {
		board, err := s.Store().LoadBoard(req.Context())
		if err != nil {
			log.Printf("Error loading board: %v", err)
			http.Error(w, "failed to load board", http.StatusInternalServerError)
			return
		}
		writeJSON(w, board)
	}).Methods(http.MethodGet)

	return r
}

// ServeStatus runs the status endpoint on addr until ctx is cancelled
func (s *Server) ServeStatus(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewStatusRouter(s),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down status server: %v", err)
		}
	}()

	log.Printf("Status endpoint listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
