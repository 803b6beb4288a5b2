// Package resolver decides which concrete model id a prompt is sent to.
package resolver

import (
	"context"
	"regexp"
	"strings"

	"cdr.dev/slog/v3"

	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/errs"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/providers/base"
)

// Latest asks for a live lookup of the provider's current model.
const Latest = "latest"

// Rule is a provider's "best model" selection rule.
type Rule struct {
	// Ordered providers list newest first; the first id is taken.
	// Otherwise the catalog is filtered with Match and the last hit taken.
	Ordered bool
	Match   *regexp.Regexp
	// Exclude drops ids Match lets through.
	Exclude *regexp.Regexp
	// Trim is stripped from the selected id.
	Trim string
	// Default is used when nothing is selected.
	Default string
}

// Select applies the rule to a listing.
func (r Rule) Select(ids []string) string {
	if r.Ordered {
		if len(ids) > 0 && ids[0] != "" {
			return strings.TrimPrefix(ids[0], r.Trim)
		}
		return r.Default
	}
	selected := ""
	for _, id := range ids {
		if r.Match != nil && !r.Match.MatchString(id) {
			continue
		}
		if r.Exclude != nil && r.Exclude.MatchString(id) {
			continue
		}
		selected = id
	}
	if selected == "" {
		return r.Default
	}
	return strings.TrimPrefix(selected, r.Trim)
}

// DefaultRules are the selection rules per provider.
var DefaultRules = map[base.Kind]Rule{
	base.OpenAI: {
		Ordered: true,
		Default: "gpt-4o",
	},
	base.Anthropic: {
		Ordered: true,
		Default: "claude-sonnet-4-20250514",
	},
	base.Gemini: {
		Match:   regexp.MustCompile(`^(models/)?gemini-`),
		Exclude: regexp.MustCompile(`embedding|aqa|tts|image`),
		Trim:    "models/",
		Default: "gemini-2.5-flash",
	},
	base.Cohere: {
		Match:   regexp.MustCompile(`^command(-|$)`),
		Exclude: regexp.MustCompile(`embed|rerank`),
		Default: "command-a-03-2025",
	},
}

// ModelLister is the part of a provider the resolver needs.
type ModelLister interface {
	Kind() base.Kind
	ListModels(ctx context.Context) ([]string, error)
}

// ResolvedModel is the model id a request goes to. Listed reports whether
// it came from a live listing.
type ResolvedModel struct {
	ProviderModelID string
	Listed          bool
}

// Resolver is the ModelResolver.
type Resolver struct {
	rules  map[base.Kind]Rule
	logger slog.Logger
}

// New returns a resolver using DefaultRules.
func New(logger slog.Logger) *Resolver {
	return &Resolver{rules: DefaultRules, logger: logger}
}

// Resolve returns the pinned version verbatim, or for "latest" (or empty)
// lists the provider's models and applies its rule. A pinned id is not
// checked against the catalog.
func (r *Resolver) Resolve(ctx context.Context, p ModelLister, version string) (ResolvedModel, error) {
	if v := strings.TrimSpace(version); v != "" && v != Latest {
		r.logger.Debug(ctx, "using pinned model", slog.F("provider", p.Kind()), slog.F("model", version))
		return ResolvedModel{ProviderModelID: version}, nil
	}

	rule, ok := r.rules[p.Kind()]
	if !ok {
		return ResolvedModel{}, errs.Newf(errs.KindInputValidation, "resolve model", "no selection rule for provider %q", p.Kind())
	}

	ids, err := p.ListModels(ctx)
	if err != nil {
		if errs.Is(err, errs.KindCredential) {
			return ResolvedModel{}, err
		}
		return ResolvedModel{}, errs.New(errs.KindProviderUnavailable, "list "+p.Kind().String()+" models", err)
	}

	id := rule.Select(ids)
	r.logger.Info(ctx, "resolved latest model",
		slog.F("provider", p.Kind()),
		slog.F("model", id),
		slog.F("listed", len(ids)),
	)
	return ResolvedModel{ProviderModelID: id, Listed: true}, nil
}
