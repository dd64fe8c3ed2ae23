package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/veletrh/pattern-kiosk/internal/config"
	"github.com/veletrh/pattern-kiosk/internal/metrics"
	"github.com/veletrh/pattern-kiosk/internal/postcard"
	"github.com/veletrh/pattern-kiosk/internal/render"
	"github.com/veletrh/pattern-kiosk/pkg/models"
)

// fakeRenderer records the last request and returns a canned artifact
type fakeRenderer struct {
	last   *postcard.Request
	format string
	tier   postcard.Capability
	err    error
}

func (f *fakeRenderer) Render(ctx context.Context, req *postcard.Request) (*postcard.Artifact, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &postcard.Artifact{
		Filename:   fmt.Sprintf("postcard_%s_20261015_120000_000001.%s", req.SimulationKind, f.format),
		Capability: f.tier,
		Format:     f.format,
		CreatedAt:  time.Now(),
	}, nil
}

type fakeStatus struct {
	tier     postcard.Capability
	notifier bool
}

func (s fakeStatus) Capability() postcard.Capability { return s.tier }
func (s fakeStatus) NotifierEnabled() bool           { return s.notifier }

func setupTestHandler(t *testing.T, renderer Renderer, status Status) (*KioskHandler, *http.ServeMux) {
	t.Helper()

	staticDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<html>kiosk</html>"), 0644); err != nil {
		t.Fatalf("Failed to write index.html: %v", err)
	}
	if err := os.WriteFile(filepath.Join(staticDir, "app.js"), []byte("console.log(1)"), 0644); err != nil {
		t.Fatalf("Failed to write app.js: %v", err)
	}

	kiosk := config.DefaultKiosk()
	logger := zap.NewNop()
	snapshots := NewSnapshotHandler(renderer, kiosk.Branding, logger)
	h := NewKioskHandler(snapshots, kiosk, status, KioskOptions{
		StaticDir:    staticDir,
		MaxBodyBytes: 1 << 20,
		Metrics:      metrics.New().Handler(),
	}, logger)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return h, mux
}

func testImageURI(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 12, 8))); err != nil {
		t.Fatalf("Failed to encode image: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func postSnapshot(mux *http.ServeMux, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/snapshot", reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	return resp
}

// --- Health endpoint ---

func TestHealth(t *testing.T) {
	_, mux := setupTestHandler(t, &fakeRenderer{}, fakeStatus{tier: postcard.RasterOnly})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	resp := decodeBody(t, w)
	if resp["status"] != "healthy" || resp["service"] != "pattern-kiosk" {
		t.Errorf("unexpected health body: %v", resp)
	}
	if resp["tier"] != "raster" || resp["notifier"] != "disabled" {
		t.Errorf("unexpected tier/notifier: %v", resp)
	}
}

func TestHealth_WrongMethod(t *testing.T) {
	_, mux := setupTestHandler(t, &fakeRenderer{}, fakeStatus{})

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", w.Code)
	}
}

func TestHealth_NotifierUnreachable(t *testing.T) {
	h, _ := setupTestHandler(t, &fakeRenderer{}, fakeStatus{tier: postcard.VectorPDF, notifier: true})
	h.opts.NotifierHealthy = func() bool { return false }

	w := httptest.NewRecorder()
	h.handleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if resp := decodeBody(t, w); resp["notifier"] != "unreachable" {
		t.Errorf("notifier = %v, want unreachable", resp["notifier"])
	}
}

// --- Static files ---

func TestIndexAndStatic(t *testing.T) {
	_, mux := setupTestHandler(t, &fakeRenderer{}, fakeStatus{})

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{"/", http.StatusOK, "kiosk"},
		{"/static/app.js", http.StatusOK, "console.log"},
		{"/static/missing.js", http.StatusNotFound, ""},
		{"/nowhere", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if w.Code != tt.wantCode {
			t.Errorf("GET %s = %d, want %d", tt.path, w.Code, tt.wantCode)
		}
		if tt.wantBody != "" && !strings.Contains(w.Body.String(), tt.wantBody) {
			t.Errorf("GET %s body = %q", tt.path, w.Body.String())
		}
	}
}

// --- Config endpoint ---

func TestConfig(t *testing.T) {
	_, mux := setupTestHandler(t, &fakeRenderer{}, fakeStatus{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		Simulations []string        `json:"simulations"`
		Branding    config.Branding `json:"branding"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if strings.Join(resp.Simulations, ",") != "rd,osc,boids" {
		t.Errorf("simulations = %v", resp.Simulations)
	}
	if resp.Branding.TitleEN != "From Simple to Complex" || resp.Branding.DefaultLang != "cs" {
		t.Errorf("branding = %+v", resp.Branding)
	}
}

// --- Snapshot endpoint ---

func TestSnapshot_Success(t *testing.T) {
	renderer := &fakeRenderer{format: "pdf", tier: postcard.VectorPDF}
	_, mux := setupTestHandler(t, renderer, fakeStatus{})

	w := postSnapshot(mux, models.SnapshotRequest{
		Image:    testImageURI(t),
		Title:    "Turing Patterns",
		SimType:  "rd",
		Lang:     "en",
		Subtitle: "",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var result models.SnapshotResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if !result.OK || result.Filename == "" || result.PDFFilename != result.Filename {
		t.Errorf("result = %+v", result)
	}
	if result.Tier != "pdf" || result.Format != "pdf" {
		t.Errorf("tier/format = %s/%s", result.Tier, result.Format)
	}
	if renderer.last.Title != "Turing Patterns" || renderer.last.Language != "en" {
		t.Errorf("request = %+v", renderer.last)
	}
}

func TestSnapshot_Defaults(t *testing.T) {
	renderer := &fakeRenderer{format: "png", tier: postcard.RasterOnly}
	_, mux := setupTestHandler(t, renderer, fakeStatus{})

	w := postSnapshot(mux, map[string]string{"image": testImageURI(t)})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if renderer.last.SimulationKind != "unknown" {
		t.Errorf("SimulationKind = %q, want unknown", renderer.last.SimulationKind)
	}
	if renderer.last.Language != "cs" {
		t.Errorf("Language = %q, want cs", renderer.last.Language)
	}
	if renderer.last.Title != "Turingovy vzory" {
		t.Errorf("Title = %q, want Turingovy vzory", renderer.last.Title)
	}

	resp := decodeBody(t, w)
	if _, ok := resp["pdf_filename"]; ok {
		t.Error("pdf_filename set for a PNG postcard")
	}
}

func TestSnapshot_Errors(t *testing.T) {
	tests := []struct {
		name      string
		body      interface{}
		renderErr error
		wantCode  int
		wantError string
	}{
		{"missing image", map[string]string{"title": "x"}, nil, http.StatusBadRequest, "No image data"},
		{"empty body", "", nil, http.StatusBadRequest, "No image data"},
		{"bad json", "{not json", nil, http.StatusBadRequest, "Invalid request body"},
		{"truncated json", `{"image": "aGVs`, nil, http.StatusBadRequest, "Invalid request body"},
		{"plain text", "hello kiosk", nil, http.StatusBadRequest, "Invalid request body"},
		{"bad base64", map[string]string{"image": "data:image/png;base64,@@@@"}, nil, http.StatusBadRequest, "Invalid image data"},
		{"not an image", map[string]string{"image": "aGVsbG8="}, fmt.Errorf("decode: %w", postcard.ErrInvalidImage), http.StatusBadRequest, "Invalid image data"},
		{"write failure", map[string]string{"image": "aGVsbG8="}, errors.New("disk full"), http.StatusInternalServerError, "Failed to save postcard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mux := setupTestHandler(t, &fakeRenderer{err: tt.renderErr}, fakeStatus{})

			w := postSnapshot(mux, tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("Expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			if resp := decodeBody(t, w); resp["error"] != tt.wantError {
				t.Errorf("error = %v, want %q", resp["error"], tt.wantError)
			}
		})
	}
}

func TestSnapshot_WrongMethod(t *testing.T) {
	_, mux := setupTestHandler(t, &fakeRenderer{}, fakeStatus{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", w.Code)
	}
}

func TestSnapshot_TooLarge(t *testing.T) {
	h, mux := setupTestHandler(t, &fakeRenderer{}, fakeStatus{})
	h.opts.MaxBodyBytes = 64

	w := postSnapshot(mux, map[string]string{"image": strings.Repeat("A", 1024)})
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", w.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	_, mux := setupTestHandler(t, &fakeRenderer{}, fakeStatus{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

// --- End to end through the real composer ---

func TestSnapshot_RawTierEndToEnd(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "postcards")
	logger := zap.NewNop()
	composer := postcard.New(postcard.Settings{OutputDir: outDir}, logger)
	processor := render.NewProcessor(composer, 1, 1, metrics.New(), nil, logger)
	defer processor.Close()

	_, mux := setupTestHandler(t, processor, processor)

	w := postSnapshot(mux, map[string]string{"sim_type": "osc"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if entries, _ := os.ReadDir(outDir); len(entries) != 0 {
		t.Fatalf("Expected no files after rejected request, got %d", len(entries))
	}

	w = postSnapshot(mux, map[string]string{"image": testImageURI(t), "sim_type": "osc"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	name, _ := resp["filename"].(string)
	if !strings.HasPrefix(name, "snapshot_osc_") || !strings.HasSuffix(name, ".png") {
		t.Errorf("filename = %q", name)
	}
	if resp["tier"] != "raw" {
		t.Errorf("tier = %v, want raw", resp["tier"])
	}
	if entries, _ := os.ReadDir(outDir); len(entries) != 1 {
		t.Errorf("Expected 1 file, got %d", len(entries))
	}
}
