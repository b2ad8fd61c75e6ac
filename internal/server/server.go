// Package server serves the frame screens over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/cors"

	"framecheck/internal/config"
	"framecheck/internal/frame"
	"framecheck/internal/logging"
	"framecheck/internal/metrics"
	"framecheck/internal/model"
	"framecheck/internal/reactions"
)

// Looker answers interaction lookups. *reactions.Client implements it.
type Looker interface {
	Lookup(ctx context.Context, postID, viewerID string) (model.InteractionResult, error)
}

// Server renders frame screens. It holds no per-request state.
type Server struct {
	cfg      config.Config
	looker   Looker
	panels   frame.Panels
	renderer *frame.Renderer
	signer   *frame.Signer
}

func New(cfg config.Config, looker Looker, renderer *frame.Renderer, signer *frame.Signer) *Server {
	return &Server{
		cfg:      cfg,
		looker:   looker,
		panels:   frame.Panels{Title: cfg.Frame.Title},
		renderer: renderer,
		signer:   signer,
	}
}

// Dispatch prepares the panel for screen. Only check-interaction with a known viewer
// reaches the network, and then with exactly one lookup for the configured post.
func (s *Server) Dispatch(ctx context.Context, screen frame.Screen, viewer string) frame.Panel {
	if screen != frame.CheckInteraction {
		return s.panels.Render(screen, frame.Outcome{Kind: frame.OutcomeStatic})
	}
	if viewer == "" {
		return s.panels.Render(screen, frame.Outcome{Kind: frame.OutcomeNoViewer})
	}
	res, err := s.looker.Lookup(ctx, s.cfg.Post.ID, viewer)
	switch {
	case errors.Is(err, reactions.ErrNotFound):
		return s.panels.Render(screen, frame.Outcome{Kind: frame.OutcomeNotFound})
	case err != nil:
		return s.panels.Render(screen, frame.Outcome{Kind: frame.OutcomeFailed})
	}
	return s.panels.Render(screen, frame.Outcome{Kind: frame.OutcomeFound, Result: res})
}

// Handler returns the routed and wrapped handler tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	base := s.cfg.Frame.BasePath

	for _, screen := range frame.Screens {
		h := s.handleScreen(screen)
		pattern := base + screen.Path()
		if screen == frame.Home {
			pattern += "{$}"
			if base != "" {
				mux.Handle("GET "+base, h)
				mux.Handle("POST "+base, h)
			}
		}
		mux.Handle("GET "+pattern, h)
		mux.Handle("POST "+pattern, h)
	}
	mux.HandleFunc("GET "+base+"/image", s.handleImage)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if s.cfg.Metrics.Enabled {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(withRequestID(withViewer(mux)))
}

// HTTPServer wraps Handler with the listen address and timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Server.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Lookups may take the whole API budget.
		WriteTimeout: s.cfg.API.Timeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func (s *Server) handleScreen(screen frame.Screen) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		viewer := ViewerFrom(ctx)
		panel := s.Dispatch(ctx, screen, viewer)
		metrics.IncFrame(string(screen), string(panel.Outcome))

		tok, err := s.signer.Sign(panel.Image)
		if err != nil {
			logging.Error("frame_sign_error", map[string]any{"request_id": RequestIDFrom(ctx), "error": err})
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		base := s.baseURL(r)
		doc := frame.NewDocument(panel, s.panels.Title, base, base+"/image?t="+url.QueryEscape(tok))

		var buf bytes.Buffer
		if err := frame.WriteHTML(&buf, doc); err != nil {
			logging.Error("frame_html_error", map[string]any{"request_id": RequestIDFrom(ctx), "error": err})
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(buf.Bytes())

		logging.Info("frame", map[string]any{
			"request_id": RequestIDFrom(ctx),
			"screen":     string(screen),
			"outcome":    string(panel.Outcome),
			"viewer":     viewer,
		})
	}
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	img, err := s.signer.Parse(r.URL.Query().Get("t"))
	if err != nil {
		logging.Warn("image_bad_token", map[string]any{"request_id": RequestIDFrom(r.Context()), "error": err})
		http.Error(w, "bad image token", http.StatusBadRequest)
		return
	}
	var buf bytes.Buffer
	if err := s.renderer.WritePNG(&buf, img); err != nil {
		logging.Error("image_encode_error", map[string]any{"request_id": RequestIDFrom(r.Context()), "error": err})
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.Write(buf.Bytes())
}

// baseURL is the absolute URL of the frame base path as seen by the host.
func (s *Server) baseURL(r *http.Request) string {
	origin := strings.TrimRight(s.cfg.Server.PublicURL, "/")
	if origin == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
			scheme = strings.TrimSpace(strings.Split(p, ",")[0])
		}
		host := r.Host
		if h := r.Header.Get("X-Forwarded-Host"); h != "" {
			host = strings.TrimSpace(strings.Split(h, ",")[0])
		}
		origin = scheme + "://" + host
	}
	return origin + s.cfg.Frame.BasePath
}
