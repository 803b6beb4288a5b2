// Package config builds the single Config value the rest of the module
// receives. It is the only package that reads the environment or disk.
//
// A setting is taken from the first source that has it:
// explicit flag, process environment, .env file, YAML config file, built-in
// default.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

// Environment variable names. The YAML config file uses the same names in
// lower case.
const (
	EnvUnifiedAPIKey   = "UNIFIED_API_KEY"
	EnvMCPURL          = "UNIFIED_MCP_URL"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvCohereAPIKey    = "COHERE_API_KEY"
	EnvGeminiAPIKey    = "GEMINI_API_KEY"

	EnvOpenAIBaseURL    = "OPENAI_BASE_URL"
	EnvAnthropicBaseURL = "ANTHROPIC_BASE_URL"
	EnvCohereBaseURL    = "COHERE_BASE_URL"
	EnvGeminiBaseURL    = "GEMINI_BASE_URL"

	EnvInstructions  = "MCP_PROMPT_INSTRUCTIONS"
	EnvMaxTokens     = "MCP_PROMPT_MAX_TOKENS"
	EnvMaxToolRounds = "MCP_PROMPT_MAX_TOOL_ROUNDS"
)

// Built-in defaults.
const (
	DefaultMCPURL        = "https://mcp-api.unified.to"
	DefaultInstructions  = "You are a helpful assistant."
	DefaultMaxTokens     = 1024
	DefaultMaxToolRounds = 10
	DefaultEnvFile       = ".env"
)

// Provider holds the credentials and endpoint override of one LLM provider.
// An empty BaseURL means the SDK default.
type Provider struct {
	APIKey     string
	APIKeyName string
	BaseURL    string
}

// Config is constructed once at startup and passed to every component.
type Config struct {
	MCPURL        string
	UnifiedAPIKey string

	OpenAI    Provider
	Anthropic Provider
	Cohere    Provider
	Gemini    Provider

	// Instructions is the system prompt for providers that take one.
	Instructions string
	// MaxTokens bounds Anthropic completions.
	MaxTokens int64
	// MaxToolRounds bounds the Gemini remote tool session.
	MaxToolRounds int
}

// Flags are values given explicitly on the command line. Zero values mean
// "not given".
type Flags struct {
	MCPURL        string
	Instructions  string
	MaxTokens     int64
	MaxToolRounds int
}

// Sources lists where Load looks.
type Sources struct {
	Flags Flags
	// Environ is the process environment.
	Environ map[string]string
	// EnvFile is a dotenv file. A missing file is ignored.
	EnvFile string
	// File is an optional YAML config file. A missing file is an error.
	File string
}

// MissingVariableError reports a setting no source provided.
type MissingVariableError struct {
	VariableName string
}

func (e *MissingVariableError) Error() string {
	return "variable " + e.VariableName + " is not set; add it to the environment, the .env file or the config file"
}

// Load resolves every setting.
func Load(src Sources) (Config, error) {
	layers := []map[string]string{flagLayer(src.Flags), src.Environ}

	if src.EnvFile != "" {
		dotenv, err := godotenv.Read(src.EnvFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, xerrors.Errorf("read env file %q: %w", src.EnvFile, err)
		default:
			layers = append(layers, dotenv)
		}
	}

	if src.File != "" {
		fileVars, err := readFile(src.File)
		if err != nil {
			return Config{}, err
		}
		layers = append(layers, fileVars)
	}

	lookup := func(name, def string) string {
		for _, layer := range layers {
			if v, ok := layer[name]; ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
		return def
	}

	maxTokens, err := cast.ToInt64E(lookup(EnvMaxTokens, cast.ToString(DefaultMaxTokens)))
	if err != nil || maxTokens <= 0 {
		return Config{}, xerrors.Errorf("%s must be a positive integer", EnvMaxTokens)
	}
	maxRounds, err := cast.ToIntE(lookup(EnvMaxToolRounds, cast.ToString(DefaultMaxToolRounds)))
	if err != nil || maxRounds <= 0 {
		return Config{}, xerrors.Errorf("%s must be a positive integer", EnvMaxToolRounds)
	}

	provider := func(keyName, urlName string) Provider {
		return Provider{
			APIKey:     lookup(keyName, ""),
			APIKeyName: keyName,
			BaseURL:    lookup(urlName, ""),
		}
	}

	return Config{
		MCPURL:        strings.TrimRight(lookup(EnvMCPURL, DefaultMCPURL), "/"),
		UnifiedAPIKey: lookup(EnvUnifiedAPIKey, ""),
		OpenAI:        provider(EnvOpenAIAPIKey, EnvOpenAIBaseURL),
		Anthropic:     provider(EnvAnthropicAPIKey, EnvAnthropicBaseURL),
		Cohere:        provider(EnvCohereAPIKey, EnvCohereBaseURL),
		Gemini:        provider(EnvGeminiAPIKey, EnvGeminiBaseURL),
		Instructions:  lookup(EnvInstructions, DefaultInstructions),
		MaxTokens:     maxTokens,
		MaxToolRounds: maxRounds,
	}, nil
}

// RequireAPIKey returns the provider's key or a MissingVariableError.
func (p Provider) RequireAPIKey() (string, error) {
	if p.APIKey == "" {
		return "", &MissingVariableError{VariableName: p.APIKeyName}
	}
	return p.APIKey, nil
}

func flagLayer(f Flags) map[string]string {
	m := map[string]string{}
	if f.MCPURL != "" {
		m[EnvMCPURL] = f.MCPURL
	}
	if f.Instructions != "" {
		m[EnvInstructions] = f.Instructions
	}
	if f.MaxTokens > 0 {
		m[EnvMaxTokens] = cast.ToString(f.MaxTokens)
	}
	if f.MaxToolRounds > 0 {
		m[EnvMaxToolRounds] = cast.ToString(f.MaxToolRounds)
	}
	return m
}

// readFile loads a YAML mapping and upper-cases its keys so they line up
// with the environment names.
func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("read config file %q: %w", path, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, xerrors.Errorf("parse config file %q: %w", path, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, xerrors.Errorf("config file %q: key %q: %w", path, k, err)
		}
		out[strings.ToUpper(k)] = s
	}
	return out, nil
}

// Environ turns KEY=VALUE pairs, as from os.Environ, into a map.
func Environ(pairs []string) map[string]string {
	m := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		m[k] = v
	}
	return m
}
