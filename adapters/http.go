package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/brettbedarf/fakefs"
	"github.com/brettbedarf/fakefs/internal/util"
)

type HTTPMethod = string

const (
	HTTPMethodGet  HTTPMethod = "GET"
	HTTPMethodPost HTTPMethod = "POST"
)

var ErrInvalidURL = errors.New("invalid source url")

// HTTPClient is the subset of *http.Client used by [HTTPAdapter]
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPSource contains http-specific source request fields
type HTTPSource struct {
	URL     string            `json:"url"`
	Method  *HTTPMethod       `json:"method,omitempty"` // Default is GET
	Headers map[string]string `json:"headers,omitempty"`
}

// HTTPProvider builds adapters for [HTTPSource] configs sharing one client
type HTTPProvider struct {
	client HTTPClient
}

// NewHTTPProvider returns a provider using client; nil uses http.DefaultClient
func NewHTTPProvider(client HTTPClient) *HTTPProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProvider{client: client}
}

func RegisterHTTP(r *Registry) {
	r.Register(HTTPAdapterType, NewHTTPProvider(nil))
}

func (p *HTTPProvider) NewAdapter(raw []byte) (fakefs.ContentAdapter, error) {
	var src HTTPSource
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, fmt.Errorf("http source: %w", err)
	}
	u, err := validateURL(src.URL)
	if err != nil {
		return nil, err
	}
	src.URL = u
	return &HTTPAdapter{config: &src, client: p.client}, nil
}

// validateURL accepts absolute http(s) URLs without user info and returns the
// trimmed form
func validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if u.User != nil {
		return "", fmt.Errorf("%w: user info not allowed", ErrInvalidURL)
	}
	return raw, nil
}

// HTTPAdapter implements [fakefs.ContentAdapter] for HTTP sources
type HTTPAdapter struct {
	config *HTTPSource
	client HTTPClient
}

func (h *HTTPAdapter) newRequest(ctx context.Context, method HTTPMethod) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, h.config.URL, nil)
	if err != nil {
		return nil, err
	}

	// Add custom headers
	for k, v := range h.config.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// Open performs the request and returns the response body. Non-2xx responses
// are errors.
func (h *HTTPAdapter) Open(ctx context.Context) (io.ReadCloser, error) {
	logger := util.GetLogger("HTTPAdapter")

	req, err := h.newRequest(ctx, h.getMethod())
	if err != nil {
		return nil, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: unexpected status %s", req.Method, h.config.URL, resp.Status)
	}
	logger.Debug().Str("url", h.config.URL).Int("status", resp.StatusCode).Msg("Opened http source")

	return resp.Body, nil
}

func (h *HTTPAdapter) getMethod() HTTPMethod {
	if h.config.Method != nil {
		return *h.config.Method
	}
	return HTTPMethodGet
}

var (
	_ fakefs.AdapterProvider = (*HTTPProvider)(nil)
	_ fakefs.ContentAdapter  = (*HTTPAdapter)(nil)
)
