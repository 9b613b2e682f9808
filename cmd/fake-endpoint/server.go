// ABOUTME: Router and handlers for the fake question endpoint
// ABOUTME: Serves POST /ask with canned answers and follow-ups, plus / and /health

package main

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// defaultOrigins is the browser allow-list of the hosted service.
var defaultOrigins = []string{
	"https://elelohap.github.io",
	"https://cde.nus.edu.sg",
	"http://127.0.0.1:8080",
	"http://localhost:8080",
}

const rateLimitedMessage = "Too many requests. Please try again in a minute."

type serverOptions struct {
	PerMinute int
	Origins   []string
	Delay     time.Duration
	Logger    *slog.Logger
}

type askRequest struct {
	Question  string `json:"question"`
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

type askResponse struct {
	Answer    string   `json:"answer"`
	Followups []string `json:"followups,omitempty"`
}

func newRouter(opts serverOptions) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	logger := opts.Logger.With("component", "fake-endpoint")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.Origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Use POST /ask"})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	limiter := newClientLimiter(opts.PerMinute)
	r.With(limiter.middleware).Post("/ask", askHandler(opts.Delay, logger))

	return r
}

func askHandler(delay time.Duration, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req askRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request body must be JSON"})
			return
		}

		q := strings.TrimSpace(req.Question)
		if q == "" {
			q = strings.TrimSpace(req.Query)
		}
		if q == "" {
			writeJSON(w, http.StatusOK, askResponse{Answer: pickFallback("")})
			return
		}

		logger.Info("ask", "ip", clientIP(r), "session_id", req.SessionID, "question", q)

		if simulated(w, q) {
			return
		}

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		writeJSON(w, http.StatusOK, askResponse{
			Answer:    pickFallback(q),
			Followups: cleanFollowups(generateFollowups(q), q),
		})
	}
}

// simulated serves the failure shapes a real deployment can produce, so each
// client outcome can be triggered by hand. Returns true when it wrote a response.
func simulated(w http.ResponseWriter, q string) bool {
	switch strings.ToLower(q) {
	case "!error":
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "simulated server error"})
	case "!empty":
		writeJSON(w, http.StatusOK, map[string]string{})
	case "!gateway":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("Bad Gateway"))
	case "!ratelimit":
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": rateLimitedMessage})
	default:
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// clientIP returns the host part of RemoteAddr, which middleware.RealIP has
// already replaced with the forwarded client address when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
