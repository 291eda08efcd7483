// Package fetchtest provides archive fixtures and a counting HTTP server for
// tests of the download paths.
package fetchtest

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
)

// ZipBytes builds an in-memory zip archive holding files (name -> content).
// Members are written in name order.
func ZipBytes(t testing.TB, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// Server serves fixed bodies by URL path and answers 404 for everything
// else. It records every requested path.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	bodies   map[string][]byte
	statuses map[string]int
	requests []string
}

// NewServer starts a Server closed automatically at the end of the test.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{bodies: map[string][]byte{}, statuses: map[string]int{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Handle registers body for path.
func (s *Server) Handle(path string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[path] = body
}

// Fail makes path answer with status.
func (s *Server) Fail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[path] = status
}

// Requests returns the paths requested so far, in order.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.URL.Path)
	status, failed := s.statuses[r.URL.Path]
	body, ok := s.bodies[r.URL.Path]
	s.mu.Unlock()

	if failed {
		w.WriteHeader(status)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	_, _ = w.Write(body)
}
