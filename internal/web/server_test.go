package web

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmarc580625/medialocate/internal/grouping"
	"github.com/jmarc580625/medialocate/internal/locator"
	"github.com/jmarc580625/medialocate/internal/proxying"
)

const testKey = "0123456789abcdef0123456789abcdef"

// newTestServer builds a processed media tree and a server over it.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	root := t.TempDir()
	workDir := filepath.Join(root, locator.WorkDirName)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		t.Fatal(err)
	}

	files := map[string]string{
		filepath.Join(root, "a.jpg"):                      "fake image bytes",
		filepath.Join(root, "notes.txt"):                  "not media",
		filepath.Join(root, "medialocate.html"):           "<!DOCTYPE html><html></html>",
		filepath.Join(workDir, locator.StoreName):         `{"k":{"mediasource":"a.jpg"}}`,
		filepath.Join(workDir, grouping.StoreName):        `{"grouping_threshold":1,"groups":[]}`,
		filepath.Join(workDir, proxying.StoreName):        `{"label":"root","proxies":{}}`,
		filepath.Join(workDir, testKey+".jpg"):            "fake thumbnail bytes",
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	s, err := NewServer(root)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestNewServerValidation(t *testing.T) {
	if _, err := NewServer(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("NewServer with missing root did not fail")
	}

	file := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewServer(file); err == nil {
		t.Error("NewServer with file root did not fail")
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestLocations(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/api/locations")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "mediasource") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestLocationsMissing(t *testing.T) {
	root := t.TempDir()
	s, err := NewServer(root)
	if err != nil {
		t.Fatal(err)
	}
	rec := get(t, s, "/api/locations")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGroups(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/api/groups")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "grouping_threshold") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestProxies(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/api/proxies")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `"label"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestMedia(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/media/a.jpg")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg", ct)
	}

	rec = get(t, s, "/media/missing.jpg")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing file status = %d, want 404", rec.Code)
	}

	rec = get(t, s, "/media/notes.txt")
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-media status = %d, want 403", rec.Code)
	}
}

func TestMediaRangeRequest(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/media/a.jpg", nil)
	req.Header.Set("Range", "bytes=0-3")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if rec.Body.String() != "fake" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	s := newTestServer(t)
	tests := []string{"../outside", "a/../../outside", ""}
	for _, rel := range tests {
		if _, err := s.resolve(rel); err == nil {
			t.Errorf("resolve(%q) did not fail", rel)
		}
	}
	if _, err := s.resolve("sub/a.jpg"); err != nil {
		t.Errorf("resolve(sub/a.jpg) failed: %v", err)
	}
}

func TestThumbnail(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/thumbnail/"+testKey+".jpg")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content type = %q", ct)
	}

	// Key without the .jpg suffix also resolves.
	rec = get(t, s, "/thumbnail/"+testKey)
	if rec.Code != http.StatusOK {
		t.Errorf("bare key status = %d", rec.Code)
	}

	rec = get(t, s, "/thumbnail/not-a-key")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid key status = %d, want 400", rec.Code)
	}

	rec = get(t, s, "/thumbnail/ffffffffffffffffffffffffffffffff")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown key status = %d, want 404", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "medialocate_") {
		t.Error("metrics output missing medialocate namespace")
	}
}

func TestViewerPageFallback(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/medialocate.html")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<!DOCTYPE html>") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/media/some/deep/file.jpg", "/media/{path}"},
		{"/thumbnail/abc.jpg", "/thumbnail/{key}"},
		{"/api/locations", "/api/locations"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.in); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
