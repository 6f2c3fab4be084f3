// Package httpapi exposes the download counter over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/tckz/tempo-downloads/internal/counter"
	"go.uber.org/zap"
)

// CLIInstall is the track target used by the install script. It is counted
// but not redirected.
const CLIInstall = "cli-install"

const headerRequestID = "X-Request-Id"

type Counter interface {
	DisplayCount(ctx context.Context) int64
	Breakdown(ctx context.Context) counter.Breakdown
	IncrementReal(ctx context.Context)
	SetReal(ctx context.Context, count int64) (bool, error)
}

type Config struct {
	// AdminSecret is compared with plain string equality, not in constant time.
	AdminSecret string
	// TrackTimeout bounds the increment done before a track response.
	// Zero means no bound beyond the request's own.
	TrackTimeout time.Duration

	HasStoreLocation   bool
	HasStoreCredential bool
}

type handler struct {
	counter Counter
	cfg     Config
	logger  *zap.SugaredLogger
	now     func() time.Time
}

func New(c Counter, cfg Config, logger *zap.SugaredLogger) http.Handler {
	h := &handler{
		counter: c,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/downloads", h.downloads)
	mux.HandleFunc("GET /api/downloads/track", h.track)
	mux.HandleFunc("POST /api/downloads/set", h.set)
	mux.HandleFunc("GET /api/admin/stats", h.stats)
	mux.HandleFunc("GET /api/health", h.health)

	return h.withRequestLog(mux)
}

type errorResponse struct {
	Error string `json:"error"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

type trackResponse struct {
	Tracked bool `json:"tracked"`
}

type statsResponse struct {
	Real      int64  `json:"real"`
	Fake      int64  `json:"fake"`
	Display   int64  `json:"display"`
	Timestamp string `json:"timestamp"`
}

type setRequest struct {
	Count  any    `json:"count"`
	Secret string `json:"secret"`
}

type setResponse struct {
	Success bool  `json:"success"`
	Count   int64 `json:"count"`
}

type healthResponse struct {
	Status string    `json:"status"`
	Time   string    `json:"time"`
	Env    healthEnv `json:"env"`
}

type healthEnv struct {
	HasKvURL   bool `json:"hasKvUrl"`
	HasKvToken bool `json:"hasKvToken"`
}

func (h *handler) downloads(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, countResponse{Count: h.counter.DisplayCount(r.Context())})
}

func (h *handler) track(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		h.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "missing url"})
		return
	}

	ctx, cancel := r.Context(), context.CancelFunc(func() {})
	if h.cfg.TrackTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, h.cfg.TrackTimeout)
	}
	h.counter.IncrementReal(ctx)
	cancel()

	if target == CLIInstall {
		h.writeJSON(w, r, http.StatusOK, trackResponse{Tracked: true})
		return
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

func (h *handler) set(w http.ResponseWriter, r *http.Request) {
	var req setRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		// an unreadable body carries no secret
		loggerFrom(r, h.logger).Infof("set: decode body: %v", err)
		req = setRequest{}
	}

	if !h.authorized(req.Secret) {
		h.unauthorized(w, r)
		return
	}

	count, err := counter.ParseCount(req.Count)
	if err != nil {
		h.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid count"})
		return
	}

	ok, err := h.counter.SetReal(r.Context(), count)
	if errors.Is(err, counter.ErrInvalidCount) {
		h.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid count"})
		return
	} else if err != nil || !ok {
		h.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "store unavailable"})
		return
	}

	h.writeJSON(w, r, http.StatusOK, setResponse{Success: true, Count: count})
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r.URL.Query().Get("secret")) {
		h.unauthorized(w, r)
		return
	}

	b := h.counter.Breakdown(r.Context())
	h.writeJSON(w, r, http.StatusOK, statsResponse{
		Real:      b.Real,
		Fake:      b.Fake,
		Display:   b.Display,
		Timestamp: b.At.UTC().Format(time.RFC3339Nano),
	})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, healthResponse{
		Status: "ok",
		Time:   h.now().UTC().Format(time.RFC3339Nano),
		Env: healthEnv{
			HasKvURL:   h.cfg.HasStoreLocation,
			HasKvToken: h.cfg.HasStoreCredential,
		},
	})
}

func (h *handler) authorized(secret string) bool {
	return secret == h.cfg.AdminSecret
}

func (h *handler) unauthorized(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
}

func (h *handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		loggerFrom(r, h.logger).Errorf("Encode: %v", err)
	}
}

type loggerKey struct{}

func loggerFrom(r *http.Request, fallback *zap.SugaredLogger) *zap.SugaredLogger {
	if l, ok := r.Context().Value(loggerKey{}).(*zap.SugaredLogger); ok {
		return l
	}
	return fallback
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (h *handler) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		id = lo.Ternary(id != "", id, uuid.New().String())
		w.Header().Set(headerRequestID, id)

		logger := h.logger.With(zap.String("requestID", id))
		r = r.WithContext(context.WithValue(r.Context(), loggerKey{}, logger))

		begin := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		// path only, the query may carry the admin secret
		logger.With(
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(begin)),
		).Infof("%s %s", r.Method, r.URL.Path)
	})
}
