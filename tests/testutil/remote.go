package testutil

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/nhle/task-rewards/internal/model"
)

// Token is the write credential FakeRemote accepts.
const Token = "test-token"

// Write is one accepted PUT against the contents endpoint.
type Write struct {
	Message string
	Branch  string
	SHA     string
	Content []byte
}

// FakeRemote serves a document at /data.json and a contents API at
// /contents that stores base64-decoded writes and serves them back.
type FakeRemote struct {
	Server *httptest.Server

	mu        sync.Mutex
	content   []byte
	sha       string
	writes    []Write
	failFetch int
	failWrite int
	requests  int
}

// NewFakeRemote starts a FakeRemote with no document. It shuts down when
// the test completes.
func NewFakeRemote(t *testing.T) *FakeRemote {
	t.Helper()

	f := &FakeRemote{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /data.json", f.serveDocument)
	mux.HandleFunc("GET /contents", f.serveMetadata)
	mux.HandleFunc("PUT /contents", f.serveWrite)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// Config returns a RemoteConfig pointing at the fake.
func (f *FakeRemote) Config() model.RemoteConfig {
	return model.RemoteConfig{
		DocumentURL:   f.Server.URL + "/data.json",
		ContentsURL:   f.Server.URL + "/contents",
		CommitMessage: "test write",
		Timeout:       2 * time.Second,
	}
}

// SetDocument replaces the served document with doc marshaled to JSON.
func (f *FakeRemote) SetDocument(t *testing.T, doc *model.Document) {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshaling document: %v", err)
	}
	f.SetRaw(data)
}

// SetRaw replaces the served document body.
func (f *FakeRemote) SetRaw(body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content = append([]byte(nil), body...)
	f.sha = digest(body)
}

// Document decodes the currently stored document.
func (f *FakeRemote) Document(t *testing.T) *model.Document {
	t.Helper()
	f.mu.Lock()
	body := append([]byte(nil), f.content...)
	f.mu.Unlock()

	doc := model.NewDocument()
	if len(body) == 0 {
		return doc
	}
	if err := json.Unmarshal(body, doc); err != nil {
		t.Fatalf("decoding stored document: %v", err)
	}
	return doc
}

// FailFetches makes the next n document reads answer 503.
func (f *FakeRemote) FailFetches(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failFetch = n
}

// FailWrites makes the next n writes answer 500.
func (f *FakeRemote) FailWrites(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrite = n
}

// Writes returns the accepted writes in order.
func (f *FakeRemote) Writes() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Write(nil), f.writes...)
}

// Requests counts every request the fake has seen.
func (f *FakeRemote) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func (f *FakeRemote) serveDocument(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++

	if f.failFetch > 0 {
		f.failFetch--
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	if f.content == nil {
		http.NotFound(w, nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(f.content)
}

func (f *FakeRemote) serveMetadata(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++

	if !authorized(r) {
		writeError(w, http.StatusUnauthorized, "Bad credentials")
		return
	}
	if f.content == nil {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sha": f.sha, "path": "data.json", "size": len(f.content)})
}

func (f *FakeRemote) serveWrite(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++

	if !authorized(r) {
		writeError(w, http.StatusUnauthorized, "Bad credentials")
		return
	}
	if f.failWrite > 0 {
		f.failWrite--
		writeError(w, http.StatusInternalServerError, "Server Error")
		return
	}

	var req struct {
		Message string `json:"message"`
		Content string `json:"content"`
		SHA     string `json:"sha"`
		Branch  string `json:"branch"`
	}
	raw, _ := io.ReadAll(r.Body)
	if err := json.Unmarshal(raw, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}
	if req.SHA != f.sha {
		writeError(w, http.StatusConflict, "data.json does not match "+req.SHA)
		return
	}
	body, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "content is not valid Base64")
		return
	}

	f.content = body
	f.sha = digest(body)
	f.writes = append(f.writes, Write{Message: req.Message, Branch: req.Branch, SHA: req.SHA, Content: body})
	writeJSON(w, http.StatusOK, map[string]any{"content": map[string]any{"sha": f.sha}})
}

func authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+Token
}

func digest(body []byte) string {
	sum := sha1.Sum(body)
	return hex.EncodeToString(sum[:])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
