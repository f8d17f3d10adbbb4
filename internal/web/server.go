package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmarc580625/medialocate/internal/grouping"
	"github.com/jmarc580625/medialocate/internal/locator"
	"github.com/jmarc580625/medialocate/internal/logging"
	"github.com/jmarc580625/medialocate/internal/mediatypes"
	"github.com/jmarc580625/medialocate/internal/proxying"
)

// DefaultPort is the port the media server listens on when not
// overridden.
const DefaultPort = 8080

var thumbnailKeyPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// Server serves a processed media tree: the generated viewer page, the
// location and group data, the media files themselves and their
// thumbnails. It is strictly read-only.
type Server struct {
	root    string
	workDir string
	router  *mux.Router
}

// NewServer creates a server rooted at a directory that has been
// processed by the locator. The directory must exist.
func NewServer(root string) (*Server, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("media root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("media root %s is not a directory", abs)
	}

	s := &Server{
		root:    abs,
		workDir: filepath.Join(abs, locator.WorkDirName),
	}
	s.router = s.buildRouter()
	return s, nil
}

// Router returns the fully wired HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// ListenAndServe starts serving on the given port.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("media server listening on %s, serving %s", addr, s.root)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) buildRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/locations", s.handleLocations).Methods("GET")
	api.HandleFunc("/groups", s.handleGroups).Methods("GET")
	api.HandleFunc("/proxies", s.handleProxies).Methods("GET")

	r.HandleFunc("/media/{path:.*}", s.handleMedia).Methods("GET")
	r.HandleFunc("/thumbnail/{key}", s.handleThumbnail).Methods("GET")

	// The viewer page and its assets live at the tree root.
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.root)))

	r.Use(Logger())
	r.Use(Metrics())
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleLocations serves the raw location store.
func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	s.serveJSONFile(w, r, filepath.Join(s.workDir, locator.StoreName))
}

// handleGroups serves the group store produced by the grouping tool.
func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	s.serveJSONFile(w, r, filepath.Join(s.workDir, grouping.StoreName))
}

// handleProxies serves the cross-tree proxy store produced by the
// proxying tool.
func (s *Server) handleProxies(w http.ResponseWriter, r *http.Request) {
	s.serveJSONFile(w, r, filepath.Join(s.workDir, proxying.StoreName))
}

func (s *Server) serveJSONFile(w http.ResponseWriter, r *http.Request, path string) {
	f, err := os.Open(path)
	if err != nil {
		http.Error(w, "no data available", http.StatusNotFound)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		http.Error(w, "no data available", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}

// handleMedia streams a media file from the tree. Range requests are
// honored by http.ServeFile.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	rel := mux.Vars(r)["path"]
	path, err := s.resolve(rel)
	if err != nil {
		logging.Warn("media request rejected: %s: %v", rel, err)
		http.Error(w, "invalid media path", http.StatusBadRequest)
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		http.Error(w, "media file not found", http.StatusNotFound)
		return
	}
	if !mediatypes.IsMediaFile(path) {
		http.Error(w, "not a media file", http.StatusForbidden)
		return
	}
	w.Header().Set("Content-Type", mediatypes.ContentType(path))
	http.ServeFile(w, r, path)
}

// handleThumbnail serves a generated thumbnail by its media key.
func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSuffix(mux.Vars(r)["key"], ".jpg")
	if !thumbnailKeyPattern.MatchString(key) {
		http.Error(w, "invalid thumbnail key", http.StatusBadRequest)
		return
	}
	path := filepath.Join(s.workDir, key+".jpg")
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "thumbnail not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, path)
}

// resolve maps a request-relative path to an absolute path inside the
// media root, rejecting traversal outside it.
func (s *Server) resolve(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("empty path")
	}
	path := filepath.Join(s.root, filepath.FromSlash(rel))
	path = filepath.Clean(path)
	if path != s.root && !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes media root")
	}
	return path, nil
}
