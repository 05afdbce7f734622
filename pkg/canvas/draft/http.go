package draft

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/flowcanvas/flowcanvas/pkg/canvas/graph"
)

// HTTPStore persists drafts through the workflow persistence REST API:
//
//	GET  {base}/workflows/{id}           fetch the workflow envelope
//	PUT  {base}/workflows/{id}/draft     save a new draft version
//	POST {base}/workflows/{id}/activate  set {"is_active": bool}
//	GET  {base}/workflows/{id}/versions  list saved versions
//
// Load is deliberately tolerant: a workflow without a stored graph, or one
// whose envelope cannot be decoded, hydrates to an empty graph rather than
// failing, so a fresh or damaged workflow still opens in the editor.
type HTTPStore struct {
	baseURL string
	httpc   *http.Client
	mu      sync.RWMutex
	closed  bool
}

var _ Store = (*HTTPStore)(nil)

// RequestError describes a non-success response from the persistence API.
type RequestError struct {
	Status int
	Body   string
}

// Error implements error.
func (e *RequestError) Error() string {
	return fmt.Sprintf("persistence request failed: status %d: %s", e.Status, e.Body)
}

// HTTPStoreOption configures an HTTPStore.
type HTTPStoreOption func(*HTTPStore)

// WithHTTPClient sets the HTTP client used for persistence requests.
func WithHTTPClient(client *http.Client) HTTPStoreOption {
	return func(s *HTTPStore) {
		if client != nil {
			s.httpc = client
		}
	}
}

// NewHTTPStore creates a draft store backed by the persistence API at
// baseURL.
func NewHTTPStore(baseURL string, opts ...HTTPStoreOption) *HTTPStore {
	s := &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load implements Store.
func (s *HTTPStore) Load(ctx context.Context, workflowID string) (graph.Graph, error) {
	if err := s.check(); err != nil {
		return graph.New(), err
	}

	status, body, err := s.do(ctx, http.MethodGet, s.workflowURL(workflowID, ""), nil)
	if err != nil {
		return graph.New(), err
	}
	if status == http.StatusNotFound {
		return graph.New(), ErrNotFound
	}
	if status != http.StatusOK {
		return graph.New(), &RequestError{Status: status, Body: strings.TrimSpace(string(body))}
	}

	var envelope struct {
		CurrentVersion struct {
			Graph json.RawMessage `json:"graph"`
		} `json:"current_version"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return graph.New(), nil
	}
	raw := envelope.CurrentVersion.Graph
	if len(raw) == 0 || string(raw) == "null" {
		return graph.New(), nil
	}
	g, err := graph.Unmarshal(raw)
	if err != nil {
		return graph.New(), nil
	}
	return g, nil
}

// SaveDraft implements Store.
func (s *HTTPStore) SaveDraft(ctx context.Context, workflowID string, g graph.Graph) error {
	if err := s.check(); err != nil {
		return err
	}

	data, err := graph.Marshal(g)
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	payload, err := json.Marshal(struct {
		Graph json.RawMessage `json:"graph"`
	}{Graph: data})
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}

	status, body, err := s.do(ctx, http.MethodPut, s.workflowURL(workflowID, "/draft"), payload)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return ErrNotFound
	}
	if status < 200 || status > 299 {
		return &RequestError{Status: status, Body: strings.TrimSpace(string(body))}
	}
	return nil
}

// Activate implements Store.
func (s *HTTPStore) Activate(ctx context.Context, workflowID string, active bool) error {
	if err := s.check(); err != nil {
		return err
	}

	payload, err := json.Marshal(struct {
		IsActive bool `json:"is_active"`
	}{IsActive: active})
	if err != nil {
		return fmt.Errorf("activate draft: %w", err)
	}

	status, body, err := s.do(ctx, http.MethodPost, s.workflowURL(workflowID, "/activate"), payload)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return ErrNotFound
	}
	if status < 200 || status > 299 {
		return &RequestError{Status: status, Body: strings.TrimSpace(string(body))}
	}
	return nil
}

// ListVersions implements Store.
func (s *HTTPStore) ListVersions(ctx context.Context, workflowID string) ([]VersionInfo, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	status, body, err := s.do(ctx, http.MethodGet, s.workflowURL(workflowID, "/versions"), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, &RequestError{Status: status, Body: strings.TrimSpace(string(body))}
	}

	var infos []VersionInfo
	if err := json.Unmarshal(body, &infos); err != nil {
		return nil, fmt.Errorf("decode version list: %w", err)
	}
	return infos, nil
}

// Close implements Store. The underlying HTTP client needs no teardown;
// Close only fences off further use.
func (s *HTTPStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func (s *HTTPStore) check() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

func (s *HTTPStore) workflowURL(workflowID, suffix string) string {
	return s.baseURL + "/workflows/" + url.PathEscape(workflowID) + suffix
}

func (s *HTTPStore) do(ctx context.Context, method, rawURL string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build persistence request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("persistence request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read persistence response: %w", err)
	}
	return resp.StatusCode, data, nil
}
