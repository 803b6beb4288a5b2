package toolhost

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"cdr.dev/slog/v3"

	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/errs"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/json"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/tools"
)

// Executor is the ToolCallExecutor: it runs tool-call intents emitted by a
// manual-pattern provider against the tool host.
type Executor struct {
	client *Client
}

// NewExecutor shares the client's endpoints, HTTP client and logger.
func NewExecutor(client *Client) *Executor {
	return &Executor{client: client}
}

// Execute POSTs the intent's arguments to the tool's call endpoint. Every
// failure is reported as a tool execution error so callers can keep going.
func (e *Executor) Execute(ctx context.Context, conn ConnectionContext, intent tools.ToolCallIntent) (tools.ToolCallResult, error) {
	op := "call tool " + intent.ToolName
	if strings.TrimSpace(intent.ToolName) == "" {
		return tools.ToolCallResult{}, errs.Newf(errs.KindToolExecution, "call tool", "intent has no tool name")
	}

	args := strings.TrimSpace(intent.ArgumentsJSON)
	if args == "" {
		args = "{}"
	}

	target := e.client.endpoints.ToolCall(conn, intent.ToolName)
	e.client.logger.Debug(ctx, "calling tool",
		slog.F("tool", intent.ToolName),
		slog.F("url", Redact(target)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(args))
	if err != nil {
		return tools.ToolCallResult{}, errs.New(errs.KindToolExecution, op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.httpClient.Do(req)
	if err != nil {
		return tools.ToolCallResult{}, errs.New(errs.KindToolExecution, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return tools.ToolCallResult{}, errs.Newf(errs.KindToolExecution, op, "tool host returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return tools.ToolCallResult{}, errs.New(errs.KindToolExecution, op, err)
	}
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return tools.ToolCallResult{}, errs.Newf(errs.KindToolExecution, op, "tool host returned a non-JSON result")
	}
	return tools.ToolCallResult{ResultJSON: json.RawMessage(body)}, nil
}

// Outcome is the result of one intent in a batch.
type Outcome struct {
	Intent tools.ToolCallIntent
	Result tools.ToolCallResult
	Err    error
}

// ExecuteAll runs intents one after another in the order given. A failing
// intent is recorded in its Outcome and does not stop the rest.
func (e *Executor) ExecuteAll(ctx context.Context, conn ConnectionContext, intents []tools.ToolCallIntent) []Outcome {
	outcomes := make([]Outcome, 0, len(intents))
	for _, intent := range intents {
		res, err := e.Execute(ctx, conn, intent)
		if err != nil {
			e.client.logger.Warn(ctx, "tool call failed",
				slog.F("tool", intent.ToolName),
				slog.Error(err),
			)
		}
		outcomes = append(outcomes, Outcome{Intent: intent, Result: res, Err: err})
	}
	return outcomes
}
