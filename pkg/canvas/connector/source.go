package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Source serves the connector catalog.
type Source interface {
	// List returns every connector in the catalog.
	List(ctx context.Context) ([]Connector, error)
	// Get returns the connector with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (Connector, error)
}

// StaticSource is a fixed in-memory catalog. It backs tests and deployments
// that embed their connector set.
type StaticSource []Connector

var _ Source = (StaticSource)(nil)

// List implements Source.
func (s StaticSource) List(ctx context.Context) ([]Connector, error) {
	out := make([]Connector, len(s))
	copy(out, s)
	return out, nil
}

// Get implements Source.
func (s StaticSource) Get(ctx context.Context, id string) (Connector, error) {
	for _, c := range s {
		if c.ID == id {
			return c, nil
		}
	}
	return Connector{}, fmt.Errorf("connector %q: %w", id, ErrNotFound)
}

// HTTPSource fetches the catalog from a REST API:
//
//	GET {base}/connectors        list the catalog
//	GET {base}/connectors/{id}   fetch one connector
type HTTPSource struct {
	baseURL string
	httpc   *http.Client
}

var _ Source = (*HTTPSource)(nil)

// HTTPSourceOption configures an HTTPSource.
type HTTPSourceOption func(*HTTPSource)

// WithHTTPClient sets the HTTP client used for catalog requests.
func WithHTTPClient(client *http.Client) HTTPSourceOption {
	return func(s *HTTPSource) {
		if client != nil {
			s.httpc = client
		}
	}
}

// NewHTTPSource creates a catalog client against baseURL.
func NewHTTPSource(baseURL string, opts ...HTTPSourceOption) *HTTPSource {
	s := &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List implements Source.
func (s *HTTPSource) List(ctx context.Context) ([]Connector, error) {
	body, err := s.get(ctx, s.baseURL+"/connectors")
	if err != nil {
		return nil, err
	}
	var connectors []Connector
	if err := json.Unmarshal(body, &connectors); err != nil {
		return nil, fmt.Errorf("decode connector list: %w", err)
	}
	return connectors, nil
}

// Get implements Source.
func (s *HTTPSource) Get(ctx context.Context, id string) (Connector, error) {
	body, err := s.get(ctx, s.baseURL+"/connectors/"+url.PathEscape(id))
	if err != nil {
		return Connector{}, err
	}
	var c Connector
	if err := json.Unmarshal(body, &c); err != nil {
		return Connector{}, fmt.Errorf("decode connector: %w", err)
	}
	return c, nil
}

func (s *HTTPSource) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrNotFound)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog request: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
