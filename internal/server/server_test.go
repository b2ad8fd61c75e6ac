package server

import (
	"context"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"framecheck/internal/config"
	"framecheck/internal/frame"
	"framecheck/internal/model"
	"framecheck/internal/reactions"
)

type fakeLooker struct {
	mu    sync.Mutex
	res   model.InteractionResult
	err   error
	calls [][2]string
}

func (f *fakeLooker) Lookup(ctx context.Context, postID, viewerID string) (model.InteractionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, [2]string{postID, viewerID})
	return f.res, f.err
}

func (f *fakeLooker) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestServer(t *testing.T, looker Looker) (*Server, config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Post.ID = "0xabc"
	cfg.Server.PublicURL = ""
	signer, err := frame.NewSigner([]byte("test-key"))
	if err != nil {
		t.Fatal(err)
	}
	return New(cfg, looker, frame.NewRenderer(191, 100, nil), signer), cfg
}

func TestDispatchWithoutViewerMakesNoCall(t *testing.T) {
	lk := &fakeLooker{}
	s, _ := newTestServer(t, lk)
	p := s.Dispatch(context.Background(), frame.CheckInteraction, "")
	if p.Outcome != frame.OutcomeNoViewer {
		t.Fatalf("outcome %q", p.Outcome)
	}
	if lk.count() != 0 {
		t.Fatalf("expected no lookup, got %d", lk.count())
	}
}

func TestDispatchStaticScreens(t *testing.T) {
	lk := &fakeLooker{}
	s, _ := newTestServer(t, lk)
	for _, sc := range []frame.Screen{frame.Home, frame.Recasted, frame.Liked} {
		if p := s.Dispatch(context.Background(), sc, "42"); p.Screen != sc || p.Outcome != frame.OutcomeStatic {
			t.Fatalf("%s rendered as %s/%s", sc, p.Screen, p.Outcome)
		}
	}
	if lk.count() != 0 {
		t.Fatalf("static screens must not look anything up")
	}
}

func TestDispatchFound(t *testing.T) {
	lk := &fakeLooker{res: model.InteractionResult{RecastCount: 5, LikeCount: 12, ViewerHasRecasted: true}}
	s, _ := newTestServer(t, lk)
	p := s.Dispatch(context.Background(), frame.CheckInteraction, "42")
	if p.Outcome != frame.OutcomeFound || p.HasAction(frame.ActionRecast) {
		t.Fatalf("unexpected panel: %+v", p)
	}
	if p.Image.Lines[1] != "Likes: 12" {
		t.Fatalf("likes line: %q", p.Image.Lines[1])
	}
	if lk.count() != 1 || lk.calls[0] != [2]string{"0xabc", "42"} {
		t.Fatalf("calls: %v", lk.calls)
	}
}

func TestDispatchErrors(t *testing.T) {
	cases := []struct {
		err  error
		want frame.OutcomeKind
	}{
		{reactions.ErrNotFound, frame.OutcomeNotFound},
		{fmt.Errorf("%w: CheckRecast: %w", reactions.ErrLookupFailed, context.DeadlineExceeded), frame.OutcomeFailed},
		{io.ErrUnexpectedEOF, frame.OutcomeFailed},
	}
	for _, c := range cases {
		s, _ := newTestServer(t, &fakeLooker{err: c.err})
		p := s.Dispatch(context.Background(), frame.CheckInteraction, "42")
		if p.Outcome != c.want {
			t.Fatalf("%v: outcome %q, want %q", c.err, p.Outcome, c.want)
		}
		if !p.HasAction(frame.ActionHome) || !p.HasAction(frame.ActionRetry) {
			t.Fatalf("%v: expected Home and Try Again, got %+v", c.err, p.Buttons)
		}
	}
}

var imageMeta = regexp.MustCompile(`property="fc:frame:image" content="([^"]+)"`)

func TestCheckInteractionOverHTTP(t *testing.T) {
	lk := &fakeLooker{res: model.InteractionResult{RecastCount: 0, LikeCount: 3}}
	s, _ := newTestServer(t, lk)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/check-interaction", "application/json",
		strings.NewReader(`{"untrustedData":{"fid":42,"buttonIndex":1}}`))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("missing request id")
	}
	html := string(body)
	for _, want := range []string{
		`content="Recast"`,
		`content="` + ts.URL + `/api/recast"`,
		`content="` + ts.URL + `/api/like"`,
		`content="` + ts.URL + `/api/"`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("missing %s in:\n%s", want, html)
		}
	}
	if lk.count() != 1 || lk.calls[0][1] != "42" {
		t.Fatalf("calls: %v", lk.calls)
	}

	m := imageMeta.FindStringSubmatch(html)
	if m == nil {
		t.Fatalf("no image meta in:\n%s", html)
	}
	img, err := http.Get(m[1])
	if err != nil {
		t.Fatal(err)
	}
	defer img.Body.Close()
	if img.StatusCode != http.StatusOK || img.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("image: status %d type %q", img.StatusCode, img.Header.Get("Content-Type"))
	}
	if !strings.Contains(img.Header.Get("Cache-Control"), "immutable") {
		t.Fatalf("image cache header: %q", img.Header.Get("Cache-Control"))
	}
	decoded, err := png.Decode(img.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := decoded.Bounds(); b.Dx() != 191 || b.Dy() != 100 {
		t.Fatalf("image size %v", b)
	}
}

func TestMalformedPayloadHasNoViewer(t *testing.T) {
	lk := &fakeLooker{}
	s, _ := newTestServer(t, lk)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	for _, body := range []string{`{not json`, `{"untrustedData":{}}`, `{"untrustedData":{"fid":0}}`, strings.Repeat("x", maxPayload+10)} {
		resp, err := http.Post(ts.URL+"/api/check-interaction", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		out, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d", resp.StatusCode)
		}
		if !strings.Contains(string(out), `content="Back to Home"`) || strings.Contains(string(out), `content="Try Again"`) {
			t.Fatalf("expected no-viewer panel, got:\n%s", out)
		}
	}
	if lk.count() != 0 {
		t.Fatalf("expected no lookups, got %d", lk.count())
	}
}

func TestRoutes(t *testing.T) {
	s, _ := newTestServer(t, &fakeLooker{})
	h := s.Handler()
	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/", http.StatusOK},
		{http.MethodGet, "/api", http.StatusOK},
		{http.MethodPost, "/api/recast", http.StatusOK},
		{http.MethodGet, "/api/like", http.StatusOK},
		{http.MethodGet, "/api/share", http.StatusNotFound},
		{http.MethodGet, "/api/image?t=bogus", http.StatusBadRequest},
		{http.MethodGet, "/api/image", http.StatusBadRequest},
		{http.MethodDelete, "/api/", http.StatusMethodNotAllowed},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
	}
	for _, c := range cases {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(c.method, c.path, nil))
		if rr.Code != c.want {
			t.Fatalf("%s %s: status %d, want %d", c.method, c.path, rr.Code, c.want)
		}
	}
}

func TestForwardedBaseURL(t *testing.T) {
	s, _ := newTestServer(t, &fakeLooker{})
	req := httptest.NewRequest(http.MethodGet, "/api/", nil)
	req.Host = "internal:3000"
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "frames.example")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if !strings.Contains(rr.Body.String(), `content="https://frames.example/api/check-interaction"`) {
		t.Fatalf("forwarded origin not used:\n%s", rr.Body.String())
	}

	s.cfg.Server.PublicURL = "https://public.example/"
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if !strings.Contains(rr.Body.String(), `content="https://public.example/api/check-interaction"`) {
		t.Fatalf("public url not used:\n%s", rr.Body.String())
	}
}

func TestRequestIDPropagates(t *testing.T) {
	s, _ := newTestServer(t, &fakeLooker{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("request id %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, &fakeLooker{})
	req := httptest.NewRequest(http.MethodOptions, "/api/check-interaction", nil)
	req.Header.Set("Origin", "https://warpcast.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://warpcast.com" {
		t.Fatalf("allow origin %q", got)
	}
}
