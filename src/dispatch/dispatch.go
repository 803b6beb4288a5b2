// Package dispatch runs one invocation: it validates the request, resolves
// the model, invokes the provider, runs tool-call intents for the manual
// pattern and renders the output.
package dispatch

import (
	"context"
	"strings"

	"cdr.dev/slog/v3"
	"github.com/google/uuid"

	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/errs"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/render"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/resolver"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/toolhost"
)

// Action is what the invocation does.
type Action string

const (
	ActionGetTools Action = "gettools"
	ActionPrompt   Action = "prompt"
)

// FallbackProvider runs when --model names no known provider.
const FallbackProvider = base.OpenAI

// Request is the validated front-end input.
type Request struct {
	Connection   toolhost.ConnectionContext
	Action       Action
	Model        string
	Message      string
	ModelVersion string
}

// State is a stage of an invocation.
type State string

const (
	StateValidating     State = "Validating"
	StateFetchingTools  State = "FetchingTools"
	StateResolvingModel State = "ResolvingModel"
	StateInvoking       State = "Invoking"
	StateExecutingTools State = "ExecutingTools"
	StateRendering      State = "Rendering"
	StateDone           State = "Done"
	StateFailed         State = "Failed"
)

// ProviderSource hands out the adapter for a provider kind.
type ProviderSource interface {
	Provider(ctx context.Context, kind base.Kind) (base.Provider, error)
}

// Report describes a finished invocation.
type Report struct {
	InvocationID string
	States       []State
	Provider     base.Kind
	Model        resolver.ResolvedModel
	Chunks       int
	Outcomes     []toolhost.Outcome
}

func (r *Report) enter(s State) {
	r.States = append(r.States, s)
}

// Options are the Runner's collaborators.
type Options struct {
	ToolHost  *toolhost.Client
	Providers ProviderSource
	Renderer  *render.Renderer
	Logger    slog.Logger
}

// Runner drives invocations. It holds no per-invocation state.
type Runner struct {
	toolHost  *toolhost.Client
	executor  *toolhost.Executor
	resolver  *resolver.Resolver
	providers ProviderSource
	renderer  *render.Renderer
	logger    slog.Logger
}

func NewRunner(opts Options) *Runner {
	return &Runner{
		toolHost:  opts.ToolHost,
		executor:  toolhost.NewExecutor(opts.ToolHost),
		resolver:  resolver.New(opts.Logger.Named("resolver")),
		providers: opts.Providers,
		renderer:  opts.Renderer,
		logger:    opts.Logger,
	}
}

// Run executes one invocation. The returned report is never nil; its last
// state is Done or Failed.
func (r *Runner) Run(ctx context.Context, req Request) (*Report, error) {
	report := &Report{InvocationID: uuid.NewString()}
	logger := r.logger.With(
		slog.F("invocation_id", report.InvocationID),
		slog.F("action", req.Action),
	)

	err := r.run(ctx, logger, req, report)
	if err != nil {
		report.enter(StateFailed)
		logger.Debug(ctx, "invocation failed",
			slog.F("states", report.States),
			slog.F("kind", errs.KindOf(err)),
			slog.Error(err),
		)
		return report, err
	}
	report.enter(StateDone)
	logger.Debug(ctx, "invocation done", slog.F("states", report.States))
	return report, nil
}

func (r *Runner) run(ctx context.Context, logger slog.Logger, req Request, report *Report) error {
	report.enter(StateValidating)
	kind, known, err := Validate(req)
	if err != nil {
		return err
	}

	switch req.Action {
	case ActionGetTools:
		report.enter(StateFetchingTools)
		catalog, err := r.toolHost.ListTools(ctx, req.Connection)
		if err != nil {
			return err
		}
		report.enter(StateRendering)
		return r.renderer.Catalog(catalog)

	case ActionPrompt:
		if !known {
			logger.Warn(ctx, "unrecognized model, falling back",
				slog.F("model", req.Model),
				slog.F("fallback", FallbackProvider),
			)
		}
		if err := r.prompt(ctx, logger, req, kind, report); err != nil {
			return err
		}
		if !known {
			return errs.Newf(errs.KindInputValidation, "", "unrecognized model %q; ran %s instead", req.Model, FallbackProvider)
		}
		return nil
	}
	return nil
}

func (r *Runner) prompt(ctx context.Context, logger slog.Logger, req Request, kind base.Kind, report *Report) error {
	report.Provider = kind
	report.enter(StateResolvingModel)
	provider, err := r.providers.Provider(ctx, kind)
	if err != nil {
		return err
	}
	model, err := r.resolver.Resolve(ctx, provider, req.ModelVersion)
	if err != nil {
		return err
	}
	report.Model = model
	logger = logger.With(slog.F("provider", kind), slog.F("model", model.ProviderModelID))

	report.enter(StateInvoking)
	resp, err := provider.Invoke(ctx, base.Request{
		Connection: req.Connection,
		Message:    req.Message,
		Model:      model.ProviderModelID,
	})
	if err != nil {
		return err
	}

	if provider.Pattern() == base.PatternManual && len(resp.Intents) > 0 {
		report.enter(StateExecutingTools)
		logger.Info(ctx, "running tool calls", slog.F("count", len(resp.Intents)))
		report.Outcomes = r.executor.ExecuteAll(ctx, req.Connection, resp.Intents)
	}

	report.enter(StateRendering)
	n, err := r.renderer.Stream(resp.Output)
	report.Chunks = n
	if err != nil {
		return err
	}
	return r.renderer.Outcomes(report.Outcomes)
}

// Validate checks the request before any call is made. It returns the
// provider to use and whether --model named it; an unknown model maps to
// FallbackProvider.
func Validate(req Request) (base.Kind, bool, error) {
	if err := req.Connection.Validate(); err != nil {
		return "", false, err
	}
	switch {
	case strings.TrimSpace(string(req.Action)) == "":
		return "", false, errs.Newf(errs.KindInputValidation, "", "Missing required argument: --action")
	case req.Action == ActionGetTools:
		return "", false, nil
	case req.Action != ActionPrompt:
		return "", false, errs.Newf(errs.KindInputValidation, "", "unknown action %q (want %s or %s)", req.Action, ActionGetTools, ActionPrompt)
	case strings.TrimSpace(req.Message) == "":
		return "", false, errs.Newf(errs.KindInputValidation, "", "Missing required argument: --message (required for prompt action)")
	}

	kind, ok := base.ParseKind(req.Model)
	if !ok {
		return FallbackProvider, false, nil
	}
	return kind, true, nil
}
