package providers

import (
	"context"
	"testing"

	"cdr.dev/slog/v3/sloggers/slogtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/config"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/errs"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/toolhost"
)

func newRegistry(t *testing.T, cfg config.Config) *Registry {
	t.Helper()
	host, err := toolhost.NewClient("https://mcp.example")
	require.NoError(t, err)
	return NewRegistry(cfg, host, nil, slogtest.Make(t, nil))
}

func TestRegistryBuildsEveryKind(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(config.Sources{Environ: map[string]string{
		config.EnvOpenAIAPIKey:    "a",
		config.EnvAnthropicAPIKey: "b",
		config.EnvCohereAPIKey:    "c",
		config.EnvGeminiAPIKey:    "d",
	}})
	require.NoError(t, err)
	reg := newRegistry(t, cfg)

	patterns := map[base.Kind]base.Pattern{
		base.OpenAI:    base.PatternNative,
		base.Anthropic: base.PatternNative,
		base.Gemini:    base.PatternNative,
		base.Cohere:    base.PatternManual,
	}
	for _, kind := range base.Kinds {
		p, err := reg.Provider(context.Background(), kind)
		require.NoError(t, err, kind)
		assert.Equal(t, kind, p.Kind())
		assert.Equal(t, patterns[kind], p.Pattern(), kind)
	}
}

func TestRegistryMissingCredentials(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(config.Sources{})
	require.NoError(t, err)
	reg := newRegistry(t, cfg)

	for _, kind := range base.Kinds {
		_, err := reg.Provider(context.Background(), kind)
		require.Error(t, err, kind)
		assert.True(t, errs.Is(err, errs.KindCredential), kind)
	}

	_, err = reg.Provider(context.Background(), base.Kind("mistral"))
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindInputValidation))
}
