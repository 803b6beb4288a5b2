// Package cohere is the manual-pattern adapter. Cohere has no remote tool
// support, so the catalog is fetched from the tool host and sent as
// function definitions; the tool calls Cohere asks for are returned as
// intents for the caller to run.
package cohere

import (
	"context"
	"errors"
	"strings"

	"cdr.dev/slog/v3"
	cohereapi "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/core"
	"github.com/cohere-ai/cohere-go/v2/option"

	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/config"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/errs"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/json"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/toolhost"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/tools"
)

// modelPageSize is large enough to return the whole catalog in one page.
const modelPageSize = 1000

type providerConfig struct {
	httpClient toolhost.HTTPDoer
	baseURL    string
	logger     slog.Logger
}

// Option configures a Provider.
type Option func(*providerConfig)

// WithHTTPClient overrides the HTTP client handed to the SDK.
func WithHTTPClient(client toolhost.HTTPDoer) Option {
	return func(cfg *providerConfig) {
		cfg.httpClient = client
	}
}

// WithBaseURL sets a custom API root. This is primarily useful for testing.
func WithBaseURL(baseURL string) Option {
	return func(cfg *providerConfig) {
		if strings.TrimSpace(baseURL) != "" {
			cfg.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger slog.Logger) Option {
	return func(cfg *providerConfig) {
		cfg.logger = logger
	}
}

// Provider implements base.Provider for Cohere.
type Provider struct {
	client  *cohereclient.Client
	catalog *toolhost.Client
	logger  slog.Logger
}

var _ base.Provider = (*Provider)(nil)

// New builds the adapter. catalog is used to fetch tool definitions before
// each chat request.
func New(creds config.Provider, catalog *toolhost.Client, opts ...Option) (*Provider, error) {
	key, err := creds.RequireAPIKey()
	if err != nil {
		return nil, errs.New(errs.KindCredential, "cohere", err)
	}

	cfg := &providerConfig{}
	WithBaseURL(creds.BaseURL)(cfg)
	for _, opt := range opts {
		opt(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithToken(key),
		option.WithMaxAttempts(1),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(cfg.httpClient))
	}

	return &Provider{
		client:  cohereclient.NewClient(reqOpts...),
		catalog: catalog,
		logger:  cfg.logger,
	}, nil
}

func (*Provider) Kind() base.Kind { return base.Cohere }

func (*Provider) Pattern() base.Pattern { return base.PatternManual }

// ListModels returns the names of the chat-capable models in catalog order.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	resp, err := p.client.Models.List(ctx, &cohereapi.ModelsListRequest{
		PageSize: cohereapi.Float64(modelPageSize),
		Endpoint: cohereapi.CompatibleEndpointChat.Ptr(),
	})
	if err != nil {
		return nil, classify("list cohere models", err)
	}
	ids := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		if m == nil || m.Name == nil {
			continue
		}
		ids = append(ids, *m.Name)
	}
	return ids, nil
}

// Invoke fetches the connection's tool catalog, sends it with the message
// and returns Cohere's reply together with any tool calls it requested.
// The calls are not run here and their results are never sent back.
func (p *Provider) Invoke(ctx context.Context, req base.Request) (*base.Response, error) {
	catalog, err := p.catalog.ListTools(ctx, req.Connection)
	if err != nil {
		return nil, err
	}
	descriptors, err := catalog.Descriptors()
	if err != nil {
		return nil, err
	}
	toolDefs, err := functionTools(descriptors)
	if err != nil {
		return nil, err
	}

	chatReq := &cohereapi.V2ChatRequest{
		Model: req.Model,
		Messages: cohereapi.ChatMessages{
			{
				Role: "user",
				User: &cohereapi.UserMessage{
					Content: &cohereapi.UserMessageContent{String: req.Message},
				},
			},
		},
	}
	if len(toolDefs) > 0 {
		chatReq.Tools = toolDefs
	}
	p.logger.Debug(ctx, "cohere chat request", slog.F("model", req.Model), slog.F("tools", len(toolDefs)))

	resp, err := p.client.V2.Chat(ctx, chatReq)
	if err != nil {
		return nil, classify("cohere chat", err)
	}

	var intents []tools.ToolCallIntent
	if resp.Message != nil {
		for _, call := range resp.Message.ToolCalls {
			if call == nil {
				continue
			}
			intent := tools.ToolCallIntent{ID: deref(call.Id)}
			if call.Function != nil {
				intent.ToolName = deref(call.Function.Name)
				intent.ArgumentsJSON = deref(call.Function.Arguments)
			}
			intents = append(intents, intent)
		}
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return nil, errs.New(errs.KindMalformedResponse, "encode cohere response", err)
	}
	p.logger.Debug(ctx, "cohere chat response", slog.F("tool_calls", len(intents)))

	chunk := base.Chunk{Label: "message", Data: data}
	return &base.Response{
		Output:  base.NewSliceStream([]base.Chunk{chunk}, nil),
		Intents: intents,
	}, nil
}

// functionTools turns catalog descriptors into Cohere function tools.
func functionTools(descriptors []tools.ToolDescriptor) ([]*cohereapi.ToolV2, error) {
	out := make([]*cohereapi.ToolV2, 0, len(descriptors))
	for _, d := range descriptors {
		var params map[string]any
		if err := json.Unmarshal(d.Schema, &params); err != nil {
			return nil, errs.New(errs.KindMalformedResponse, "convert tool "+d.Name, err)
		}
		fn := &cohereapi.ToolV2Function{
			Name:       d.Name,
			Parameters: params,
		}
		if d.Description != "" {
			fn.Description = cohereapi.String(d.Description)
		}
		out = append(out, &cohereapi.ToolV2{Function: fn})
	}
	return out, nil
}

func classify(op string, err error) error {
	var apiErr *core.APIError
	if errors.As(err, &apiErr) {
		return errs.New(errs.FromStatus(apiErr.StatusCode), op, err)
	}
	if errs.IsNetwork(err) {
		return errs.New(errs.KindNetwork, op, err)
	}
	return errs.New(errs.KindProviderRejected, op, err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
