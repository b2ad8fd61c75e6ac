package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"framecheck/internal/logging"
)

const maxPayload = 64 << 10

type ctxKey int

const (
	viewerKey ctxKey = iota
	requestIDKey
)

// ViewerFrom returns the viewer id carried by the request, or "".
func ViewerFrom(ctx context.Context) string {
	v, _ := ctx.Value(viewerKey).(string)
	return v
}

// RequestIDFrom returns the request id set by withRequestID.
func RequestIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// framePayload is the part of the host's POST body we read.
type framePayload struct {
	UntrustedData struct {
		FID json.Number `json:"fid"`
	} `json:"untrustedData"`
}

// withViewer puts untrustedData.fid into the context. A missing or malformed body
// leaves the viewer empty.
func withViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Body == nil {
			next.ServeHTTP(w, r)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxPayload+1))
		if err != nil || len(body) > maxPayload {
			logging.Warn("frame_payload_rejected", map[string]any{"request_id": RequestIDFrom(r.Context()), "bytes": len(body)})
			next.ServeHTTP(w, r)
			return
		}
		var p framePayload
		if err := json.Unmarshal(body, &p); err != nil {
			logging.Debug("frame_payload_malformed", map[string]any{"request_id": RequestIDFrom(r.Context()), "error": err})
			next.ServeHTTP(w, r)
			return
		}
		fid := p.UntrustedData.FID.String()
		if n, err := p.UntrustedData.FID.Int64(); err != nil || n <= 0 {
			fid = ""
		}
		ctx := context.WithValue(r.Context(), viewerKey, fid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withRequestID tags the request with X-Request-ID (generated when absent) and logs it.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
		logging.Info("http_request", map[string]any{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"took_ms":    time.Since(start).Milliseconds(),
		})
	})
}
