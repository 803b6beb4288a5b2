// Package openai is the OpenAI-style adapter. The Responses API is given a
// remote MCP tool pointing at the tool host's SSE session; OpenAI opens the
// session and runs the tools itself.
package openai

import (
	"context"
	"errors"
	"net/http"

	"cdr.dev/slog/v3"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/config"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/errs"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/json"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/toolhost"
)

const (
	// ServerLabel names the remote tool server in the request.
	ServerLabel = "unifiedMCP"
	// SessionType is the provider tag on the session URL.
	SessionType = "openai"
	// approvalNever lets the model call tools without asking.
	approvalNever = "never"
)

type providerConfig struct {
	httpClient   *http.Client
	baseURL      string
	instructions string
	logger       slog.Logger
}

// Option configures a Provider.
type Option func(*providerConfig)

// WithHTTPClient overrides the HTTP client handed to the SDK.
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *providerConfig) {
		cfg.httpClient = client
	}
}

// WithBaseURL points the SDK at another API root. Mostly for tests.
func WithBaseURL(baseURL string) Option {
	return func(cfg *providerConfig) {
		cfg.baseURL = baseURL
	}
}

// WithInstructions sets the system instructions sent with every request.
func WithInstructions(instructions string) Option {
	return func(cfg *providerConfig) {
		cfg.instructions = instructions
	}
}

// WithLogger sets the logger.
func WithLogger(logger slog.Logger) Option {
	return func(cfg *providerConfig) {
		cfg.logger = logger
	}
}

// Provider implements base.Provider for OpenAI.
type Provider struct {
	client       openaisdk.Client
	endpoints    toolhost.Endpoints
	instructions string
	logger       slog.Logger
}

var _ base.Provider = (*Provider)(nil)

// New builds the adapter. A missing API key fails here, before any call.
func New(creds config.Provider, endpoints toolhost.Endpoints, opts ...Option) (*Provider, error) {
	key, err := creds.RequireAPIKey()
	if err != nil {
		return nil, errs.New(errs.KindCredential, "openai", err)
	}

	cfg := &providerConfig{
		baseURL:      creds.BaseURL,
		instructions: config.DefaultInstructions,
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
		client:       openaisdk.NewClient(reqOpts...),
		endpoints:    endpoints,
		instructions: cfg.instructions,
		logger:       cfg.logger,
	}, nil
}

func (*Provider) Kind() base.Kind { return base.OpenAI }

func (*Provider) Pattern() base.Pattern { return base.PatternNative }

// ListModels returns model ids in listing order.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	page, err := p.client.Models.List(ctx)
	if err != nil {
		return nil, classify("list openai models", err)
	}
	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// Invoke sends the message with the tool host's session as a remote MCP
// tool. Each output item of the response becomes one chunk.
func (p *Provider) Invoke(ctx context.Context, req base.Request) (*base.Response, error) {
	serverURL := p.endpoints.SSE(req.Connection, SessionType)
	p.logger.Info(ctx, "remote tool session", slog.F("server_url", toolhost.Redact(serverURL)))

	params := responses.ResponseNewParams{
		Model:        shared.ResponsesModel(req.Model),
		Instructions: openaisdk.String(p.instructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openaisdk.String(req.Message),
		},
		Tools: []responses.ToolUnionParam{{
			OfMcp: &responses.ToolMcpParam{
				ServerLabel: ServerLabel,
				ServerURL:   serverURL,
				RequireApproval: responses.ToolMcpRequireApprovalUnionParam{
					OfMcpToolApprovalSetting: openaisdk.String(approvalNever),
				},
			},
		}},
	}

	resp, err := p.client.Responses.New(ctx, params)
	if err != nil {
		return nil, classify("openai response", err)
	}

	chunks := make([]base.Chunk, 0, len(resp.Output))
	for _, item := range resp.Output {
		chunks = append(chunks, base.Chunk{
			Label: "output",
			Data:  json.RawMessage(item.RawJSON()),
		})
	}
	p.logger.Debug(ctx, "openai response received",
		slog.F("response_id", resp.ID),
		slog.F("output_items", len(chunks)),
	)
	return &base.Response{Output: base.NewSliceStream(chunks, nil)}, nil
}

func classify(op string, err error) error {
	var apiErr *openaisdk.Error
	if errors.As(err, &apiErr) {
		return errs.New(errs.FromStatus(apiErr.StatusCode), op, err)
	}
	if errs.IsNetwork(err) {
		return errs.New(errs.KindNetwork, op, err)
	}
	return errs.New(errs.KindProviderRejected, op, err)
}
