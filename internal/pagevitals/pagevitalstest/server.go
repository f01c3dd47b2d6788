// Package pagevitalstest provides an in-memory PageVitals API for tests.
package pagevitalstest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/vitals/internal/model"
)

// APIKey is the key the fake server accepts.
const APIKey = "pv_test_0123456789abcdef"

// Server is a fake PageVitals API backed by httptest.Server.
// It serves /websites, /{websiteId}/pages and
// /{websiteId}/pages/{pageId}/timeline from fixtures.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	websites  []model.Website
	pages     map[model.ID][]model.Page
	timelines map[string][]model.TimelineEntry
	failures  map[string]int
	requests  []*http.Request
}

// NewServer starts a fake server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		pages:     make(map[model.ID][]model.Page),
		timelines: make(map[string][]model.TimelineEntry),
		failures:  make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// AddWebsite registers a website and its pages.
func (s *Server) AddWebsite(w model.Website, pages ...model.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.websites = append(s.websites, w)
	s.pages[w.ID] = append(s.pages[w.ID], pages...)
}

// SetTimeline registers the timeline of a page.
func (s *Server) SetTimeline(websiteID, pageID model.ID, entries ...model.TimelineEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timelines[timelineKey(websiteID, pageID)] = entries
}

// Fail makes every request to path answer with status.
func (s *Server) Fail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

// Hits returns the number of requests received.
func (s *Server) Hits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Requests returns copies of the received requests in arrival order.
func (s *Server) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*http.Request(nil), s.requests...)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, r.Clone(r.Context()))

	if r.Header.Get("Authorization") != "Bearer "+APIKey {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
		return
	}
	if status, ok := s.failures[r.URL.Path]; ok {
		writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
		return
	}

	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(segments) == 1 && segments[0] == "websites":
		writeJSON(w, http.StatusOK, listEnvelope(s.websites))
	case len(segments) == 2 && segments[1] == "pages":
		pages, ok := s.pagesOf(model.ID(segments[0]))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "website not found"})
			return
		}
		writeJSON(w, http.StatusOK, listEnvelope(pages))
	case len(segments) == 4 && segments[1] == "pages" && segments[3] == "timeline":
		start, end := r.URL.Query().Get("startDate"), r.URL.Query().Get("endDate")
		var entries []model.TimelineEntry
		for _, e := range s.timelines[timelineKey(model.ID(segments[0]), model.ID(segments[2]))] {
			if (start == "" || e.Date >= start) && (end == "" || e.Date <= end) {
				entries = append(entries, e)
			}
		}
		if entries == nil {
			entries = []model.TimelineEntry{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"result": entries})
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func (s *Server) pagesOf(id model.ID) ([]model.Page, bool) {
	for _, w := range s.websites {
		if w.ID == id {
			pages := s.pages[id]
			if pages == nil {
				pages = []model.Page{}
			}
			return pages, true
		}
	}
	return nil, false
}

func listEnvelope[T any](list []T) map[string]any {
	if list == nil {
		list = []T{}
	}
	return map[string]any{"result": map[string]any{"list": list}}
}

func timelineKey(websiteID, pageID model.ID) string {
	return websiteID.String() + "/" + pageID.String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
