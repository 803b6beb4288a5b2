// Command mcpprompt sends one prompt to an LLM provider with the tools of a
// tool-hosting connection attached, or lists those tools.
package main

import (
	"errors"
	"os"

	"cdr.dev/slog/v3"
	"cdr.dev/slog/v3/sloggers/sloghuman"
	"github.com/coder/serpent"
	"github.com/spf13/cast"
	"golang.org/x/xerrors"

	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/config"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/dispatch"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/providers"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/render"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/resolver"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/toolhost"
)

func main() {
	err := commandError(newCommand().Invoke().WithOS().Run())
	if err != nil {
		render.New(os.Stdout, os.Stderr).Error(err)
		os.Exit(1)
	}
}

// commandError strips serpent's "running command" wrapper so the handler's
// message is printed as is.
func commandError(err error) error {
	var runErr *serpent.RunCommandError
	if errors.As(err, &runErr) && runErr.Err != nil {
		return runErr.Err
	}
	return err
}

func newCommand() *serpent.Command {
	var (
		connection      string
		action          string
		model           string
		message         string
		dc              string
		includeExternal string
		modelVersion    string

		mcpURL        string
		envFile       string
		configFile    string
		instructions  string
		maxTokens     int64
		maxToolRounds int64
		verbose       bool
	)

	return &serpent.Command{
		Use:   "mcpprompt",
		Short: "Prompt an LLM provider with the tools of a tool-hosting connection",
		Long: "Lists the tools a connection exposes (--action gettools) or sends one message to " +
			"openai, anthropic, gemini or cohere with those tools attached (--action prompt).",
		Options: serpent.OptionSet{
			{
				Name:        "connection",
				Description: "Connection id the tools are scoped to.",
				Flag:        "connection",
				Value:       serpent.StringOf(&connection),
			},
			{
				Name:        "action",
				Description: "Action to run: gettools or prompt.",
				Flag:        "action",
				Value:       serpent.StringOf(&action),
			},
			{
				Name:        "model",
				Description: "Provider for prompt: openai, anthropic, cohere or gemini.",
				Flag:        "model",
				Value:       serpent.StringOf(&model),
			},
			{
				Name:        "message",
				Description: "Message to send (prompt only).",
				Flag:        "message",
				Value:       serpent.StringOf(&message),
			},
			{
				Name:        "dc",
				Description: "Data-center region of the tool host: local, dev, prod, eu.",
				Flag:        "dc",
				Default:     string(toolhost.DefaultRegion),
				Value:       serpent.StringOf(&dc),
			},
			{
				Name:        "include-external",
				Description: "Also expose the connection's external tools (true or false).",
				Flag:        "include-external",
				Default:     "false",
				Value:       serpent.StringOf(&includeExternal),
			},
			{
				Name:        "model-version",
				Description: "Model version: latest, or an exact provider model id.",
				Flag:        "model-version",
				Default:     resolver.Latest,
				Value:       serpent.StringOf(&modelVersion),
			},
			{
				Name:        "mcp-url",
				Description: "Base URL of the tool host. Overrides " + config.EnvMCPURL + ".",
				Flag:        "mcp-url",
				Value:       serpent.StringOf(&mcpURL),
			},
			{
				Name:        "env-file",
				Description: "Dotenv file to read settings from. A missing file is ignored.",
				Flag:        "env-file",
				Default:     config.DefaultEnvFile,
				Value:       serpent.StringOf(&envFile),
			},
			{
				Name:        "config",
				Description: "YAML file with settings, keyed by lower-case variable name.",
				Flag:        "config",
				Value:       serpent.StringOf(&configFile),
			},
			{
				Name:        "instructions",
				Description: "System instructions for providers that take them.",
				Flag:        "instructions",
				Value:       serpent.StringOf(&instructions),
			},
			{
				Name:        "max-tokens",
				Description: "Completion token limit for anthropic.",
				Flag:        "max-tokens",
				Value:       serpent.Int64Of(&maxTokens),
			},
			{
				Name:        "max-tool-rounds",
				Description: "How many rounds of tool calls gemini may make.",
				Flag:        "max-tool-rounds",
				Value:       serpent.Int64Of(&maxToolRounds),
			},
			{
				Name:        "verbose",
				Description: "Log debug output to stderr.",
				Flag:        "verbose",
				Value:       serpent.BoolOf(&verbose),
			},
		},
		Handler: func(inv *serpent.Invocation) error {
			ctx := inv.Context()

			logger := slog.Make(sloghuman.Sink(inv.Stderr)).Leveled(slog.LevelInfo)
			if verbose {
				logger = logger.Leveled(slog.LevelDebug)
			}

			external, err := cast.ToBoolE(includeExternal)
			if err != nil {
				return xerrors.Errorf("--include-external must be true or false, got %q", includeExternal)
			}

			cfg, err := config.Load(config.Sources{
				Flags: config.Flags{
					MCPURL:        mcpURL,
					Instructions:  instructions,
					MaxTokens:     maxTokens,
					MaxToolRounds: int(maxToolRounds),
				},
				Environ: config.Environ(inv.Environ.ToOS()),
				EnvFile: envFile,
				File:    configFile,
			})
			if err != nil {
				return err
			}

			host, err := toolhost.NewClient(cfg.MCPURL, toolhost.WithLogger(logger.Named("toolhost")))
			if err != nil {
				return xerrors.Errorf("tool host url: %w", err)
			}

			runner := dispatch.NewRunner(dispatch.Options{
				ToolHost:  host,
				Providers: providers.NewRegistry(cfg, host, nil, logger.Named("providers")),
				Renderer:  render.New(inv.Stdout, inv.Stderr),
				Logger:    logger.Named("dispatch"),
			})
			_, err = runner.Run(ctx, dispatch.Request{
				Connection: toolhost.ConnectionContext{
					ConnectionID:         connection,
					Region:               toolhost.Region(dc),
					AccessToken:          cfg.UnifiedAPIKey,
					IncludeExternalTools: external,
				},
				Action:       dispatch.Action(action),
				Model:        model,
				Message:      message,
				ModelVersion: modelVersion,
			})
			return err
		},
	}
}
