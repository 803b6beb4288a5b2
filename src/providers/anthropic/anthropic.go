// Package anthropic is the Anthropic-style adapter. The beta Messages API
// receives the tool host's SSE session as an MCP server; the reply is a
// single message object.
package anthropic

import (
	"context"
	"errors"
	"net/http"

	"cdr.dev/slog/v3"
	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/config"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/errs"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/json"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/toolhost"
)

const (
	// ServerName names the MCP server in the request.
	ServerName = "unifiedMCP"
	// SessionType is the provider tag on the session URL.
	SessionType = "anthropic"
)

type providerConfig struct {
	httpClient *http.Client
	baseURL    string
	maxTokens  int64
	logger     slog.Logger
}

// Option configures a Provider.
type Option func(*providerConfig)

// WithHTTPClient overrides the HTTP client handed to the SDK.
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *providerConfig) {
		cfg.httpClient = client
	}
}

// WithBaseURL points the SDK at another API root.
func WithBaseURL(baseURL string) Option {
	return func(cfg *providerConfig) {
		cfg.baseURL = baseURL
	}
}

// WithMaxTokens bounds the completion length.
func WithMaxTokens(n int64) Option {
	return func(cfg *providerConfig) {
		if n > 0 {
			cfg.maxTokens = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger slog.Logger) Option {
	return func(cfg *providerConfig) {
		cfg.logger = logger
	}
}

// Provider implements base.Provider for Anthropic.
type Provider struct {
	client    anthropicsdk.Client
	endpoints toolhost.Endpoints
	maxTokens int64
	logger    slog.Logger
}

var _ base.Provider = (*Provider)(nil)

// New builds the adapter. A missing API key fails here, before any call.
func New(creds config.Provider, endpoints toolhost.Endpoints, opts ...Option) (*Provider, error) {
	key, err := creds.RequireAPIKey()
	if err != nil {
		return nil, errs.New(errs.KindCredential, "anthropic", err)
	}

	cfg := &providerConfig{
		baseURL:   creds.BaseURL,
		maxTokens: config.DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(cfg.httpClient))
	}

	return &Provider{
		client:    anthropicsdk.NewClient(reqOpts...),
		endpoints: endpoints,
		maxTokens: cfg.maxTokens,
		logger:    cfg.logger,
	}, nil
}

func (*Provider) Kind() base.Kind { return base.Anthropic }

func (*Provider) Pattern() base.Pattern { return base.PatternNative }

// ListModels returns the first page of models, newest first.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	page, err := p.client.Models.List(ctx, anthropicsdk.ModelListParams{})
	if err != nil {
		return nil, classify("list anthropic models", err)
	}
	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// Invoke sends the message with the session URL in mcp_servers. The
// message returned is the only chunk.
func (p *Provider) Invoke(ctx context.Context, req base.Request) (*base.Response, error) {
	serverURL := p.endpoints.SSE(req.Connection, SessionType)
	p.logger.Info(ctx, "remote tool session", slog.F("server_url", toolhost.Redact(serverURL)))

	msg, err := p.client.Beta.Messages.New(ctx, anthropicsdk.BetaMessageNewParams{
		Model:     anthropicsdk.Model(req.Model),
		MaxTokens: p.maxTokens,
		Messages: []anthropicsdk.BetaMessageParam{
			anthropicsdk.NewBetaUserMessage(anthropicsdk.NewBetaTextBlock(req.Message)),
		},
		MCPServers: []anthropicsdk.BetaRequestMCPServerURLDefinitionParam{{
			Name: ServerName,
			URL:  serverURL,
		}},
		Betas: []anthropicsdk.AnthropicBeta{anthropicsdk.AnthropicBetaMCPClient2025_04_04},
	})
	if err != nil {
		return nil, classify("anthropic message", err)
	}

	p.logger.Debug(ctx, "anthropic message received",
		slog.F("message_id", msg.ID),
		slog.F("stop_reason", msg.StopReason),
	)
	chunk := base.Chunk{Label: "message", Data: json.RawMessage(msg.RawJSON())}
	return &base.Response{Output: base.NewSliceStream([]base.Chunk{chunk}, nil)}, nil
}

func classify(op string, err error) error {
	var apiErr *anthropicsdk.Error
	if errors.As(err, &apiErr) {
		return errs.New(errs.FromStatus(apiErr.StatusCode), op, err)
	}
	if errs.IsNetwork(err) {
		return errs.New(errs.KindNetwork, op, err)
	}
	return errs.New(errs.KindProviderRejected, op, err)
}
