// Package toolhost talks to the tool-hosting service: it lists the tools a
// connection exposes and runs individual tool calls on a provider's behalf.
package toolhost

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"cdr.dev/slog/v3"

	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/errs"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/json"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/tools"
)

// HTTPDoer is implemented by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// errorBodyLimit caps how much of a failed response ends up in an error.
const errorBodyLimit = 4096

type clientConfig struct {
	httpClient HTTPDoer
	logger     slog.Logger
}

// Option configures a Client.
type Option func(*clientConfig)

// WithHTTPClient overrides the HTTP client. No timeout is set by default.
func WithHTTPClient(client HTTPDoer) Option {
	return func(cfg *clientConfig) {
		cfg.httpClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger slog.Logger) Option {
	return func(cfg *clientConfig) {
		cfg.logger = logger
	}
}

// Client is the ToolCatalogClient.
type Client struct {
	endpoints  Endpoints
	httpClient HTTPDoer
	logger     slog.Logger
}

// NewClient returns a client for the tool host at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	endpoints, err := NewEndpoints(baseURL)
	if err != nil {
		return nil, err
	}
	cfg := &clientConfig{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = http.DefaultClient
	}
	return &Client{
		endpoints:  endpoints,
		httpClient: cfg.httpClient,
		logger:     cfg.logger,
	}, nil
}

// Endpoints exposes the URL builders so providers can hand session URLs
// to their back ends.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// Catalog is a tool list as returned by the host. Raw is the body verbatim.
type Catalog struct {
	Raw json.RawMessage
}

// Descriptors decodes the catalog into tool descriptors.
func (c Catalog) Descriptors() ([]tools.ToolDescriptor, error) {
	td, err := tools.DecodeCatalog(c.Raw)
	if err != nil {
		return nil, errs.New(errs.KindMalformedResponse, "decode tool catalog", err)
	}
	return td, nil
}

// ListTools fetches the tools available to the connection.
func (c *Client) ListTools(ctx context.Context, conn ConnectionContext) (Catalog, error) {
	const op = "list tools"
	if err := conn.Validate(); err != nil {
		return Catalog{}, err
	}

	target := c.endpoints.Tools(conn)
	c.logger.Debug(ctx, "fetching tool catalog", slog.F("url", Redact(target)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Catalog{}, errs.New(errs.KindServiceUnavailable, op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Catalog{}, errs.New(errs.KindServiceUnavailable, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return Catalog{}, errs.Newf(errs.KindServiceUnavailable, op, "tool host returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Catalog{}, errs.New(errs.KindServiceUnavailable, op, err)
	}
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return Catalog{}, errs.Newf(errs.KindMalformedResponse, op, "tool host returned a non-JSON body")
	}

	c.logger.Debug(ctx, "tool catalog fetched", slog.F("bytes", len(body)))
	return Catalog{Raw: json.RawMessage(body)}, nil
}
