// Package gemini is the Gemini-style adapter. It opens an MCP session on
// the tool host itself, advertises the session's tools as function
// declarations and answers the model's function calls over that session
// until the model stops calling tools.
package gemini

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"cdr.dev/slog/v3"
	"google.golang.org/genai"

	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/config"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/errs"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/json"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/toolhost"
)

// SessionType is the provider tag on the session URL.
const SessionType = "gemini"

const generateContentAction = "generateContent"

type providerConfig struct {
	httpClient    *http.Client
	baseURL       string
	maxToolRounds int
	logger        slog.Logger
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

// WithMaxToolRounds bounds how many times function calls are answered.
func WithMaxToolRounds(n int) Option {
	return func(cfg *providerConfig) {
		if n > 0 {
			cfg.maxToolRounds = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger slog.Logger) Option {
	return func(cfg *providerConfig) {
		cfg.logger = logger
	}
}

// Provider implements base.Provider for Gemini.
type Provider struct {
	client        *genai.Client
	endpoints     toolhost.Endpoints
	maxToolRounds int
	logger        slog.Logger
}

var _ base.Provider = (*Provider)(nil)

// New builds the adapter. A missing API key fails here, before any call.
func New(ctx context.Context, creds config.Provider, endpoints toolhost.Endpoints, opts ...Option) (*Provider, error) {
	key, err := creds.RequireAPIKey()
	if err != nil {
		return nil, errs.New(errs.KindCredential, "gemini", err)
	}

	cfg := &providerConfig{
		baseURL:       creds.BaseURL,
		maxToolRounds: config.DefaultMaxToolRounds,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.httpClient,
	}
	if cfg.baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.baseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, errs.New(errs.KindCredential, "gemini", err)
	}

	return &Provider{
		client:        client,
		endpoints:     endpoints,
		maxToolRounds: cfg.maxToolRounds,
		logger:        cfg.logger,
	}, nil
}

func (*Provider) Kind() base.Kind { return base.Gemini }

func (*Provider) Pattern() base.Pattern { return base.PatternNative }

// ListModels returns the names of every model that can generate content,
// with their "models/" prefix, in catalog order.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	var ids []string
	for m, err := range p.client.Models.All(ctx) {
		if err != nil {
			return nil, classify("list gemini models", err)
		}
		if !slices.Contains(m.SupportedActions, generateContentAction) {
			continue
		}
		ids = append(ids, m.Name)
	}
	return ids, nil
}

// Invoke opens the tool session, then generates until the model returns no
// function calls or the round limit is hit. Each candidate of the final
// response is one chunk.
func (p *Provider) Invoke(ctx context.Context, req base.Request) (*base.Response, error) {
	serverURL := p.endpoints.MCP(req.Connection, SessionType)
	p.logger.Info(ctx, "remote tool session", slog.F("server_url", toolhost.Redact(serverURL)))

	sess, err := openSession(ctx, serverURL)
	if err != nil {
		return nil, errs.New(errs.KindServiceUnavailable, "open gemini tool session", err)
	}
	defer sess.Close()

	decls, err := sess.declarations()
	if err != nil {
		return nil, errs.New(errs.KindMalformedResponse, "advertise session tools", err)
	}
	p.logger.Debug(ctx, "session tools", slog.F("count", len(decls)))

	genCfg := &genai.GenerateContentConfig{}
	if len(decls) > 0 {
		genCfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	contents := []*genai.Content{genai.NewContentFromText(req.Message, genai.RoleUser)}

	var resp *genai.GenerateContentResponse
	for round := 0; ; round++ {
		resp, err = p.client.Models.GenerateContent(ctx, req.Model, contents, genCfg)
		if err != nil {
			return nil, classify("gemini generate content", err)
		}
		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			break
		}
		if round >= p.maxToolRounds {
			p.logger.Warn(ctx, "tool round limit reached; returning last response",
				slog.F("rounds", round),
				slog.F("pending_calls", len(calls)),
			)
			break
		}
		if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
			contents = append(contents, resp.Candidates[0].Content)
		}

		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			part := genai.NewPartFromFunctionResponse(call.Name, p.runTool(ctx, sess, call))
			part.FunctionResponse.ID = call.ID
			parts = append(parts, part)
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
	}

	chunks := make([]base.Chunk, 0, len(resp.Candidates))
	for _, cand := range resp.Candidates {
		data, err := json.Marshal(cand)
		if err != nil {
			return nil, errs.New(errs.KindMalformedResponse, "encode gemini candidate", err)
		}
		chunks = append(chunks, base.Chunk{Label: "candidate", Data: data})
	}
	return &base.Response{Output: base.NewSliceStream(chunks, nil)}, nil
}

// runTool answers one function call. A failed call is reported back to the
// model instead of ending the invocation.
func (p *Provider) runTool(ctx context.Context, sess *session, call *genai.FunctionCall) map[string]any {
	p.logger.Info(ctx, "remote tool call", slog.F("tool", call.Name), slog.F("id", call.ID))
	out, err := sess.call(ctx, call.Name, call.Args)
	if err != nil {
		p.logger.Warn(ctx, "remote tool call failed", slog.F("tool", call.Name), slog.Error(err))
		resp := map[string]any{"error": err.Error()}
		if out != nil {
			resp["output"] = out
		}
		return resp
	}
	return map[string]any{"output": out}
}

func classify(op string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return errs.New(errs.FromStatus(apiErr.Code), op, err)
	}
	if errs.IsNetwork(err) {
		return errs.New(errs.KindNetwork, op, err)
	}
	return errs.New(errs.KindProviderRejected, op, err)
}
