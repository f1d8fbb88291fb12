// Package server exposes the dispatcher over HTTP.
package server

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/kb-resolver/internal/dispatch"
	"github.com/sells-group/kb-resolver/internal/model"
	"github.com/sells-group/kb-resolver/internal/resilience"
)

// maxBodyBytes caps /ask request bodies.
const maxBodyBytes = 64 << 10

// Resolver answers questions against a swappable knowledge-base state.
type Resolver interface {
	Ask(ctx context.Context, question string) model.DispatchResponse
	State() *dispatch.State
}

// DefaultRequestTimeout bounds a request when Options.RequestTimeout is
// unset. It covers two default brain calls.
const DefaultRequestTimeout = 45 * time.Second

// Options configures the HTTP handler.
type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	// Breaker reports the primary brain deployment; nil means no brain.
	Breaker *resilience.Breaker
	// Reload rebuilds the knowledge base; nil disables POST /reload. The
	// route is not authenticated, so only set it on trusted networks.
	Reload func(ctx context.Context) error
}

// Server serves /ask, /health, /metrics and /reload.
type Server struct {
	resolver Resolver
	opts     Options
	started  time.Time
}

// New creates a Server.
func New(resolver Resolver, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	return &Server{resolver: resolver, opts: opts, started: time.Now().UTC()}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.opts.RequestTimeout))
		r.Get("/ask", s.handleAsk)
		r.Post("/ask", s.handleAsk)
		if s.opts.Reload != nil {
			r.Post("/reload", s.handleReload)
		}
	})
	return r
}

// askRequest accepts either key; query wins when both are set.
type askRequest struct {
	Query    *string `json:"query"`
	Question *string `json:"question"`
}

func (a askRequest) text() (string, bool) {
	switch {
	case a.Query != nil:
		return *a.Query, true
	case a.Question != nil:
		return *a.Question, true
	default:
		return "", false
	}
}

type askResponse struct {
	Question string `json:"question"`
	model.DispatchResponse
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	question, ok, err := readQuestion(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	resp := s.resolver.Ask(r.Context(), question)
	writeJSON(w, http.StatusOK, askResponse{Question: question, DispatchResponse: resp})
}

// readQuestion pulls the question from a JSON body, a form body or the
// query string, in that order.
func readQuestion(w http.ResponseWriter, r *http.Request) (string, bool, error) {
	if r.Method == http.MethodPost && r.Body != nil {
		ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if ct == "application/json" {
			var req askRequest
			dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			if err := dec.Decode(&req); err != nil {
				return "", false, eris.New("invalid request body")
			}
			if q, ok := req.text(); ok {
				return q, true, nil
			}
		}
	}

	if err := r.ParseForm(); err != nil {
		return "", false, eris.New("invalid form body")
	}
	for _, key := range []string{"query", "question"} {
		if vals, ok := r.Form[key]; ok && len(vals) > 0 {
			return vals[0], true, nil
		}
	}
	return "", false, nil
}

type healthResponse struct {
	Status        string      `json:"status"`
	Uptime        string      `json:"uptime"`
	KB            kbStats     `json:"kb"`
	Brain         brainStatus `json:"brain"`
	BuiltAt       time.Time   `json:"built_at"`
	ReloadEnabled bool        `json:"reload_enabled"`
}

type kbStats struct {
	Source    string `json:"source,omitempty"`
	Reports   int    `json:"reports"`
	Prices    int    `json:"prices"`
	Metrics   int    `json:"metrics"`
	Documents int    `json:"documents"`
}

type brainStatus struct {
	Enabled  bool   `json:"enabled"`
	Primary  string `json:"primary,omitempty"`
	Breaker  string `json:"breaker,omitempty"`
	Failures int    `json:"failures,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	st := s.resolver.State()
	resp := healthResponse{
		Status:        "ok",
		Uptime:        time.Since(s.started).Round(time.Second).String(),
		ReloadEnabled: s.opts.Reload != nil,
	}
	if st != nil {
		resp.BuiltAt = st.BuiltAt
		resp.KB.Metrics = st.Index.Len()
		resp.KB.Documents = st.Semantic.Len()
		if st.Snapshot != nil {
			resp.KB.Source = st.Snapshot.Source
			resp.KB.Reports = len(st.Snapshot.Reports)
			resp.KB.Prices = len(st.Snapshot.Market)
		}
		if resp.KB.Metrics == 0 && resp.KB.Documents == 0 {
			resp.Status = "degraded"
		}
	}
	if b := s.opts.Breaker; b != nil {
		resp.Brain = brainStatus{
			Enabled:  true,
			Primary:  b.Name(),
			Breaker:  b.State().String(),
			Failures: b.Failures(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Reload(r.Context()); err != nil {
		zap.L().Error("server: reload failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "reload failed")
		return
	}
	st := s.resolver.State()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "reloaded",
		"metrics":  st.Index.Len(),
		"built_at": st.BuiltAt,
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		if strings.HasPrefix(r.URL.Path, "/metrics") {
			return
		}
		zap.L().Debug("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
