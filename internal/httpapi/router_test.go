package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pagestack/internal/adapters/storage/localfs"
	"pagestack/internal/convert"
	"pagestack/internal/pkg/errors"
	"pagestack/internal/pkg/logger"
	"pagestack/internal/store"
)

// stubRenderer yields fixed-size gray pages, or fails at open.
type stubRenderer struct {
	pages       [][2]int
	openErr     error
	gateStarted chan struct{}
	gateRelease chan struct{}
}

func (r *stubRenderer) Open(data []byte) (convert.Document, error) {
	if r.gateStarted != nil {
		close(r.gateStarted)
		<-r.gateRelease
	}
	if r.openErr != nil {
		return nil, r.openErr
	}
	return &stubDocument{pages: r.pages}, nil
}

type stubDocument struct {
	pages [][2]int
}

func (d *stubDocument) PageCount() int { return len(d.pages) }

func (d *stubDocument) RenderPage(index int, dpi float64) (*convert.PageRaster, error) {
	size := d.pages[index]
	img := image.NewRGBA(image.Rect(0, 0, size[0], size[1]))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{90, 90, 90, 255}), image.Point{}, draw.Src)
	return &convert.PageRaster{Width: size[0], Height: size[1], Image: img}, nil
}

func (d *stubDocument) Close() error { return nil }

func newTestRouter(t *testing.T, renderer convert.Renderer) (http.Handler, *store.MemoryStore) {
	t.Helper()

	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "error", Format: "json", Output: &buf})

	jobs := store.NewMemoryStore()
	artifacts := localfs.New(t.TempDir())
	conv := convert.NewOrchestrator(convert.Deps{
		Jobs:      jobs,
		Artifacts: artifacts,
		Renderer:  renderer,
		Fetcher:   convert.NewFetcher(time.Second),
		Log:       log,
	})

	router := NewRouter(Deps{
		Jobs:      jobs,
		Artifacts: artifacts,
		Conv:      conv,
		Log:       log,
	})
	return router, jobs
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitValidation(t *testing.T) {
	router, _ := newTestRouter(t, &stubRenderer{pages: [][2]int{{100, 100}}})

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/convert", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != 400 {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("missing input", func(t *testing.T) {
		rec := doJSON(t, router, "POST", "/convert", map[string]any{})
		if rec.Code != 400 {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "missing input") {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("conflicting input", func(t *testing.T) {
		rec := doJSON(t, router, "POST", "/convert", map[string]any{
			"url":     "https://example.com/doc.pdf",
			"payload": base64.StdEncoding.EncodeToString([]byte("doc")),
		})
		if rec.Code != 400 {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "conflicting input") {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("malformed payload", func(t *testing.T) {
		rec := doJSON(t, router, "POST", "/convert", map[string]any{"payload": "!!!"})
		if rec.Code != 400 {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "malformed payload") {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})
}

func submitPayload(t *testing.T, router http.Handler, doc []byte) map[string]string {
	t.Helper()
	rec := doJSON(t, router, "POST", "/convert", map[string]any{
		"payload": base64.StdEncoding.EncodeToString(doc),
	})
	if rec.Code != 201 {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse submit response: %v", err)
	}
	if resp["id"] == "" {
		t.Fatal("expected job id in submit response")
	}
	return resp
}

func TestInlineLifecycle(t *testing.T) {
	router, _ := newTestRouter(t, &stubRenderer{pages: [][2]int{{120, 200}, {80, 100}}})

	resp := submitPayload(t, router, []byte("%PDF-1.4 inline"))

	// Status: completed by the time the submission response is in hand.
	rec := doJSON(t, router, "GET", resp["statusEndpoint"], nil)
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &status)
	if status["status"] != "completed" {
		t.Fatalf("expected completed, got %v", status)
	}
	if _, ok := status["errorMessage"]; ok {
		t.Error("completed status must not carry an errorMessage")
	}

	// Artifact: a decodable JPEG with the stacked dimensions.
	rec = doJSON(t, router, "GET", resp["artifactEndpoint"], nil)
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", ct)
	}
	img, err := jpeg.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("artifact is not a valid jpeg: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 300 {
		t.Errorf("expected 120x300 composite, got %dx%d", b.Dx(), b.Dy())
	}

	// Delete removes record and artifact.
	rec = doJSON(t, router, "DELETE", resp["deleteEndpoint"], nil)
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, router, "GET", resp["statusEndpoint"], nil)
	if rec.Code != 404 {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}

	// Second delete is a 404, not a crash.
	rec = doJSON(t, router, "DELETE", resp["deleteEndpoint"], nil)
	if rec.Code != 404 {
		t.Errorf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestFailedJobSurfaceArea(t *testing.T) {
	router, _ := newTestRouter(t, &stubRenderer{openErr: errors.Render("corrupt or unsupported document")})

	resp := submitPayload(t, router, []byte("garbage"))

	rec := doJSON(t, router, "GET", resp["statusEndpoint"], nil)
	var status map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &status)
	if status["status"] != "failed" {
		t.Fatalf("expected failed, got %v", status)
	}
	if msg, _ := status["errorMessage"].(string); msg == "" {
		t.Error("expected non-empty errorMessage")
	}

	// Artifact retrieval for a failed job is an error, never partial bytes.
	rec = doJSON(t, router, "GET", resp["artifactEndpoint"], nil)
	if rec.Code != 500 {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "corrupt or unsupported document") {
		t.Errorf("expected recorded error in body, got: %s", rec.Body.String())
	}
}

func TestArtifactWhileProcessing(t *testing.T) {
	renderer := &stubRenderer{
		pages:       [][2]int{{100, 100}},
		gateStarted: make(chan struct{}),
		gateRelease: make(chan struct{}),
	}
	router, jobs := newTestRouter(t, renderer)

	docSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4 remote"))
	}))
	defer docSrv.Close()

	rec := doJSON(t, router, "POST", "/convert", map[string]any{"url": docSrv.URL})
	if rec.Code != 201 {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)

	// Pipeline is parked inside the renderer: the job is still processing.
	<-renderer.gateStarted

	rec = doJSON(t, router, "GET", resp["statusEndpoint"], nil)
	var status map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &status)
	if status["status"] != "processing" {
		t.Fatalf("expected processing, got %v", status)
	}

	rec = doJSON(t, router, "GET", resp["artifactEndpoint"], nil)
	if rec.Code != 202 {
		t.Errorf("expected 202 while processing, got %d", rec.Code)
	}

	close(renderer.gateRelease)

	// Wait for the deferred pipeline to finish.
	deadline := time.Now().Add(5 * time.Second)
	for {
		job, err := jobs.Get(context.Background(), resp["id"])
		if err == nil && job.Terminal() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("job never completed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	rec = doJSON(t, router, "GET", resp["artifactEndpoint"], nil)
	if rec.Code != 200 {
		t.Errorf("expected 200 after completion, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestStatusUnknownID(t *testing.T) {
	router, _ := newTestRouter(t, &stubRenderer{pages: [][2]int{{100, 100}}})

	rec := doJSON(t, router, "GET", "/status/does-not-exist", nil)
	if rec.Code != 404 {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, router, "GET", "/artifact/does-not-exist", nil)
	if rec.Code != 404 {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, router, "DELETE", "/artifact/does-not-exist", nil)
	if rec.Code != 404 {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, &stubRenderer{pages: [][2]int{{100, 100}}})

	rec := doJSON(t, router, "GET", "/health", nil)
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, router, "GET", "/health?deep=true", nil)
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var health map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &health)
	if health["status"] != "ok" {
		t.Errorf("expected ok health with memory store, got %v", health)
	}
}
