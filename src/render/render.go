// Package render writes program output. Results go to stdout as indented
// JSON; per-tool failures and fatal errors go to stderr.
package render

import (
	"fmt"
	"io"

	"golang.org/x/xerrors"

	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/json"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/toolhost"
)

// Renderer is the OutputRenderer.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
}

func New(stdout, stderr io.Writer) *Renderer {
	return &Renderer{stdout: stdout, stderr: stderr}
}

// Catalog prints the tool host's catalog body, re-indented only.
func (r *Renderer) Catalog(c toolhost.Catalog) error {
	return r.writeJSON(c.Raw)
}

// Chunk prints one output item.
func (r *Renderer) Chunk(c base.Chunk) error {
	return r.writeJSON(c.Data)
}

// Stream prints chunks as they are pulled, in order, and closes the stream.
// It returns the number of chunks printed.
func (r *Renderer) Stream(s base.Stream) (int, error) {
	defer s.Close()
	n := 0
	for {
		c, err := s.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, xerrors.Errorf("read output: %w", err)
		}
		if err := r.Chunk(c); err != nil {
			return n, err
		}
		n++
	}
}

type toolOutput struct {
	Tool   string          `json:"tool"`
	ID     string          `json:"id,omitempty"`
	Result json.RawMessage `json:"result"`
}

// Outcomes prints each successful tool result to stdout and each failure
// to stderr, in order.
func (r *Renderer) Outcomes(outcomes []toolhost.Outcome) error {
	for _, o := range outcomes {
		if o.Err != nil {
			if _, err := fmt.Fprintf(r.stderr, "tool %s failed: %v\n", o.Intent.ToolName, o.Err); err != nil {
				return err
			}
			continue
		}
		encoded, err := json.Marshal(toolOutput{
			Tool:   o.Intent.ToolName,
			ID:     o.Intent.ID,
			Result: o.Result.ResultJSON,
		})
		if err != nil {
			return xerrors.Errorf("encode result of %s: %w", o.Intent.ToolName, err)
		}
		if err := r.writeJSON(encoded); err != nil {
			return err
		}
	}
	return nil
}

// Error prints a fatal error.
func (r *Renderer) Error(err error) {
	_, _ = fmt.Fprintf(r.stderr, "error: %v\n", err)
}

func (r *Renderer) writeJSON(raw []byte) error {
	out := json.Pretty(raw)
	out = append(out, '\n')
	if _, err := r.stdout.Write(out); err != nil {
		return xerrors.Errorf("write output: %w", err)
	}
	return nil
}
