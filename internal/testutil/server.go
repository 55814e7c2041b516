// Package testutil provides an in-memory stand-in for the entity API used by
// package tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/contamio/recallctl/internal/constants"
	"github.com/contamio/recallctl/pkg/recall"
)

// EntityPath is where the fake server mounts the Recall collection.
const EntityPath = "/api/apps/test-app/entities/Recall"

// RecallServer serves GET {base}, GET {base}/{id} and PUT {base}/{id} from an
// in-memory collection and counts every call.
type RecallServer struct {
	server *httptest.Server
	apiKey string

	mu         sync.Mutex
	records    []recall.Record
	calls      map[string]int
	failStatus int
	failBody   string
	listBody   string
}

// NewRecallServer starts a server holding records. It is closed when the
// test ends. An empty apiKey accepts any request.
func NewRecallServer(t testing.TB, apiKey string, records ...recall.Record) *RecallServer {
	t.Helper()

	server := &RecallServer{
		apiKey:  apiKey,
		calls:   make(map[string]int),
		records: make([]recall.Record, 0, len(records)),
	}

	for _, record := range records {
		server.records = append(server.records, record.Clone())
	}

	server.server = httptest.NewServer(http.HandlerFunc(server.handle))
	t.Cleanup(server.server.Close)

	return server
}

// BaseURL returns the entity collection URL.
func (s *RecallServer) BaseURL() string {
	return s.server.URL + EntityPath
}

// Close stops the server early, so later calls fail to connect.
func (s *RecallServer) Close() {
	s.server.Close()
}

// Calls returns how many times method was called on the collection (id "")
// or on one record.
func (s *RecallServer) Calls(method, id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls[callKey(method, id)]
}

// TotalCalls returns the number of requests served.
func (s *RecallServer) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, count := range s.calls {
		total += count
	}

	return total
}

// FailWith makes every following request answer status with body. A zero
// status restores normal behavior.
func (s *RecallServer) FailWith(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failStatus = status
	s.failBody = body
}

// SetListBody replaces the list response with a raw body.
func (s *RecallServer) SetListBody(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listBody = body
}

// Record returns the stored record with id.
func (s *RecallServer) Record(id string) (recall.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := recall.Collection(s.records).Find(id)
	if !ok {
		return nil, false
	}

	return record.Clone(), true
}

// Put replaces or appends a record behind the client's back.
func (s *RecallServer) Put(record recall.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexOf(record.ID())
	if index < 0 {
		s.records = append(s.records, record.Clone())

		return
	}

	s.records[index] = record.Clone()
}

func (s *RecallServer) handle(writer http.ResponseWriter, request *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !strings.HasPrefix(request.URL.Path, EntityPath) {
		writeJSON(writer, http.StatusNotFound, map[string]string{"message": "App not found"})

		return
	}

	id, err := url.PathUnescape(strings.TrimPrefix(strings.TrimPrefix(request.URL.Path, EntityPath), "/"))
	if err != nil {
		writeJSON(writer, http.StatusBadRequest, map[string]string{"message": err.Error()})

		return
	}

	s.calls[callKey(request.Method, id)]++

	if s.apiKey != "" && request.Header.Get(constants.DefaultAPIKeyHeader) != s.apiKey {
		writeJSON(writer, http.StatusUnauthorized, map[string]string{"message": "Invalid API key"})

		return
	}

	if s.failStatus != 0 {
		writer.WriteHeader(s.failStatus)
		_, _ = writer.Write([]byte(s.failBody))

		return
	}

	switch {
	case id == "" && request.Method == http.MethodGet:
		s.handleList(writer)
	case id != "" && request.Method == http.MethodGet:
		s.handleGet(writer, id)
	case id != "" && request.Method == http.MethodPut:
		s.handlePut(writer, request, id)
	default:
		writeJSON(writer, http.StatusMethodNotAllowed, map[string]string{"message": "Method not allowed"})
	}
}

func (s *RecallServer) handleList(writer http.ResponseWriter) {
	if s.listBody != "" {
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(s.listBody))

		return
	}

	writeJSON(writer, http.StatusOK, s.records)
}

func (s *RecallServer) handleGet(writer http.ResponseWriter, id string) {
	index := s.indexOf(id)
	if index < 0 {
		writeJSON(writer, http.StatusNotFound, map[string]string{"message": "Entity not found"})

		return
	}

	writeJSON(writer, http.StatusOK, s.records[index])
}

func (s *RecallServer) handlePut(writer http.ResponseWriter, request *http.Request, id string) {
	index := s.indexOf(id)
	if index < 0 {
		writeJSON(writer, http.StatusNotFound, map[string]string{"message": "Entity not found"})

		return
	}

	var payload recall.UpdatePayload

	err := json.NewDecoder(request.Body).Decode(&payload)
	if err != nil {
		writeJSON(writer, http.StatusBadRequest, map[string]string{"message": "Invalid JSON"})

		return
	}

	updated := payload.Apply(s.records[index])
	s.records[index] = updated

	writeJSON(writer, http.StatusOK, updated)
}

func (s *RecallServer) indexOf(id string) int {
	for index, record := range s.records {
		if record.ID() == id {
			return index
		}
	}

	return -1
}

func callKey(method, id string) string {
	return method + " /" + id
}

func writeJSON(writer http.ResponseWriter, status int, body interface{}) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(body)
}

// SampleRecords returns a small fleet of recalls across regions and severities.
func SampleRecords() []recall.Record {
	return []recall.Record{
		{"id": "r-1", "title": "Brake hose chafing", "region": "EU", "severity": "high", "status": "open", "corrective_action": ""},
		{"id": "r-2", "title": "Airbag inflator", "region": "US", "severity": "critical", "status": "in_progress", "corrective_action": "Replace inflator"},
		{"id": "r-3", "title": "Seat belt latch", "region": "EU", "severity": "low", "status": "closed", "corrective_action": "Replace latch"},
		{"id": "r-4", "title": "Fuel pump relay", "region": "APAC", "severity": "medium", "status": "pending_review", "corrective_action": ""},
	}
}
