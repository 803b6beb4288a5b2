// Package providers builds provider adapters from configuration.
package providers

import (
	"context"
	"net/http"

	"cdr.dev/slog/v3"

	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/config"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/errs"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/providers/anthropic"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/providers/cohere"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/providers/gemini"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/providers/openai"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/toolhost"
)

// Registry creates the adapter for a provider kind on demand, so only the
// selected provider's credentials are ever checked.
type Registry struct {
	cfg        config.Config
	toolHost   *toolhost.Client
	httpClient *http.Client
	logger     slog.Logger
}

// NewRegistry returns a registry. httpClient may be nil for the default.
func NewRegistry(cfg config.Config, toolHost *toolhost.Client, httpClient *http.Client, logger slog.Logger) *Registry {
	return &Registry{
		cfg:        cfg,
		toolHost:   toolHost,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Provider builds the adapter for kind.
func (r *Registry) Provider(ctx context.Context, kind base.Kind) (base.Provider, error) {
	logger := r.logger.Named(kind.String())
	endpoints := r.toolHost.Endpoints()

	switch kind {
	case base.OpenAI:
		return adapter(openai.New(r.cfg.OpenAI, endpoints,
			openai.WithHTTPClient(r.httpClient),
			openai.WithInstructions(r.cfg.Instructions),
			openai.WithLogger(logger),
		))
	case base.Anthropic:
		return adapter(anthropic.New(r.cfg.Anthropic, endpoints,
			anthropic.WithHTTPClient(r.httpClient),
			anthropic.WithMaxTokens(r.cfg.MaxTokens),
			anthropic.WithLogger(logger),
		))
	case base.Gemini:
		return adapter(gemini.New(ctx, r.cfg.Gemini, endpoints,
			gemini.WithHTTPClient(r.httpClient),
			gemini.WithMaxToolRounds(r.cfg.MaxToolRounds),
			gemini.WithLogger(logger),
		))
	case base.Cohere:
		opts := []cohere.Option{cohere.WithLogger(logger)}
		if r.httpClient != nil {
			opts = append(opts, cohere.WithHTTPClient(r.httpClient))
		}
		return adapter(cohere.New(r.cfg.Cohere, r.toolHost, opts...))
	default:
		return nil, errs.Newf(errs.KindInputValidation, "select provider", "unknown provider %q", kind)
	}
}

// adapter keeps a failed constructor from yielding a non-nil interface
// holding a nil pointer.
func adapter[P base.Provider](p P, err error) (base.Provider, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}
