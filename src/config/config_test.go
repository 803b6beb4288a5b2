package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(Sources{})
	require.NoError(t, err)
	assert.Equal(t, DefaultMCPURL, cfg.MCPURL)
	assert.Empty(t, cfg.UnifiedAPIKey)
	assert.Equal(t, DefaultInstructions, cfg.Instructions)
	assert.EqualValues(t, DefaultMaxTokens, cfg.MaxTokens)
	assert.Equal(t, DefaultMaxToolRounds, cfg.MaxToolRounds)
	assert.Equal(t, EnvOpenAIAPIKey, cfg.OpenAI.APIKeyName)
}

func TestLoadPrecedence(t *testing.T) {
	t.Parallel()

	envFile := writeFile(t, ".env", "UNIFIED_MCP_URL=https://dotenv.example\nUNIFIED_API_KEY=from-dotenv\nCOHERE_API_KEY=co-dotenv\n")
	yamlFile := writeFile(t, "config.yaml", "unified_mcp_url: https://yaml.example\ncohere_api_key: co-yaml\ngemini_api_key: gem-yaml\nmcp_prompt_max_tokens: 2048\n")

	src := Sources{
		Environ: map[string]string{
			"UNIFIED_MCP_URL": "https://env.example/",
			"OPENAI_API_KEY":  "sk-env",
		},
		EnvFile: envFile,
		File:    yamlFile,
	}

	cfg, err := Load(src)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example", cfg.MCPURL)
	assert.Equal(t, "from-dotenv", cfg.UnifiedAPIKey)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "co-dotenv", cfg.Cohere.APIKey)
	assert.Equal(t, "gem-yaml", cfg.Gemini.APIKey)
	assert.EqualValues(t, 2048, cfg.MaxTokens)

	src.Flags = Flags{MCPURL: "http://localhost:9000", MaxTokens: 64}
	cfg, err = Load(src)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", cfg.MCPURL)
	assert.EqualValues(t, 64, cfg.MaxTokens)
}

func TestLoadMissingEnvFileIgnored(t *testing.T) {
	t.Parallel()

	cfg, err := Load(Sources{EnvFile: filepath.Join(t.TempDir(), "nope.env")})
	require.NoError(t, err)
	assert.Equal(t, DefaultMCPURL, cfg.MCPURL)
}

func TestLoadBadConfigFile(t *testing.T) {
	t.Parallel()

	_, err := Load(Sources{File: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)

	_, err = Load(Sources{File: writeFile(t, "bad.yaml", "a: [unterminated")})
	require.Error(t, err)

	_, err = Load(Sources{Environ: map[string]string{EnvMaxTokens: "lots"}})
	require.Error(t, err)

	_, err = Load(Sources{Environ: map[string]string{EnvMaxToolRounds: "0"}})
	require.Error(t, err)
}

func TestRequireAPIKey(t *testing.T) {
	t.Parallel()

	_, err := Provider{APIKeyName: EnvGeminiAPIKey}.RequireAPIKey()
	var missing *MissingVariableError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, EnvGeminiAPIKey, missing.VariableName)
	assert.Contains(t, err.Error(), EnvGeminiAPIKey)

	key, err := Provider{APIKey: "k"}.RequireAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "k", key)
}

func TestEnviron(t *testing.T) {
	t.Parallel()

	m := Environ([]string{"A=1", "B=x=y", "broken"})
	assert.Equal(t, map[string]string{"A": "1", "B": "x=y"}, m)
}
