package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	RecentLimit    int
}

// Server is the ops HTTP listener. Connect RPCs are served over h2c.
type Server struct {
	http *http.Server
}

// NewServer wires the routes. recent may be nil when the journal is off.
func NewServer(cfg ServerConfig, feed *Feed, health http.Handler, ev Evaluator, recent RecentSource) *Server {
	mux := http.NewServeMux()
	mux.Handle("/health", health)
	mux.HandleFunc("/ws/reactions", feed.HandleReactions)
	mux.HandleFunc("/ws/stats", feed.HandleStats)
	mux.Handle(NewEvaluateHandler(ev))
	if recent != nil {
		mux.HandleFunc("/api/reactions/recent", recentHandler(recent, cfg.RecentLimit))
	}

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	return &Server{
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           h2c.NewHandler(c.Handler(mux), &http2.Server{}),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("ops server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func recentHandler(src RecentSource, defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 || n > 500 {
				http.Error(w, "limit must be between 1 and 500", http.StatusBadRequest)
				return
			}
			limit = n
		}

		entries, err := src.Recent(r.Context(), limit)
		if err != nil {
			log.Error().Err(err).Msg("failed to load recent reactions")
			http.Error(w, "failed to load recent reactions", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			log.Error().Err(err).Msg("failed to write recent reactions")
		}
	}
}
