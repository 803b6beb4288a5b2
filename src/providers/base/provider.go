// Package base holds the types every provider adapter shares.
package base

import (
	"context"
	"strings"

	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/toolhost"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/tools"
)

// Kind names a provider variant. The set is closed.
type Kind string

const (
	OpenAI    Kind = "openai"
	Anthropic Kind = "anthropic"
	Cohere    Kind = "cohere"
	Gemini    Kind = "gemini"
)

// Kinds lists every provider in a stable order.
var Kinds = []Kind{OpenAI, Anthropic, Cohere, Gemini}

// ParseKind maps a --model value to a Kind.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

func (k Kind) String() string { return string(k) }

// Pattern is how a provider gets at remote tools.
type Pattern int

const (
	// PatternNative providers reach the tool host themselves during
	// generation.
	PatternNative Pattern = iota
	// PatternManual providers return tool-call intents the caller runs.
	PatternManual
)

// Request is one prompt for one resolved model.
type Request struct {
	Connection toolhost.ConnectionContext
	Message    string
	Model      string
}

// Response is what Invoke hands back. Native providers fill Output only;
// manual providers may also return intents.
type Response struct {
	Output  Stream
	Intents []tools.ToolCallIntent
}

// Provider is one LLM back end.
type Provider interface {
	Kind() Kind
	Pattern() Pattern
	// ListModels returns model ids in the order the provider lists them.
	ListModels(ctx context.Context) ([]string, error)
	Invoke(ctx context.Context, req Request) (*Response, error)
}
