package tools

import (
	"bytes"

	"github.com/tidwall/gjson"
	"golang.org/x/xerrors"

	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/json"
)

// ToolDescriptor is one callable tool advertised by the tool-hosting
// service. Schema is the JSON-schema object for the tool's arguments, kept
// verbatim so it can be handed to a provider without re-encoding.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Schema      json.RawMessage `json:"parameters,omitempty"`
}

// ToolCallIntent is a tool call a provider wants the caller to run.
// ArgumentsJSON is the raw JSON object the provider emitted.
type ToolCallIntent struct {
	ID            string `json:"id,omitempty"`
	ToolName      string `json:"name"`
	ArgumentsJSON string `json:"arguments"`
}

// ToolCallResult is the JSON returned by the tool host for one intent.
type ToolCallResult struct {
	ResultJSON json.RawMessage `json:"result"`
}

// emptySchema is advertised for tools that publish no argument schema.
var emptySchema = json.RawMessage(`{"type":"object","properties":{}}`)

// The tool host has published descriptors under several key spellings;
// the first present path wins.
var (
	namePaths        = []string{"name", "function.name"}
	descriptionPaths = []string{"description", "function.description"}
	schemaPaths      = []string{"parameters", "inputSchema", "input_schema", "function.parameters", "inputs"}
)

// DecodeCatalog parses a tool catalog body. The body is either a JSON array
// of descriptors or an object holding one under "tools" or "data".
func DecodeCatalog(raw []byte) ([]ToolDescriptor, error) {
	if !gjson.ValidBytes(raw) {
		return nil, xerrors.New("tool catalog is not valid JSON")
	}
	list := gjson.ParseBytes(raw)
	if !list.IsArray() {
		switch {
		case list.Get("tools").IsArray():
			list = list.Get("tools")
		case list.Get("data").IsArray():
			list = list.Get("data")
		default:
			return nil, xerrors.New("tool catalog is neither an array nor an object with a tools array")
		}
	}

	var out []ToolDescriptor
	var decodeErr error
	list.ForEach(func(_, item gjson.Result) bool {
		name := first(item, namePaths)
		if !name.Exists() || name.String() == "" {
			decodeErr = xerrors.Errorf("tool descriptor without a name: %s", item.Raw)
			return false
		}
		td := ToolDescriptor{
			Name:        name.String(),
			Description: first(item, descriptionPaths).String(),
			Schema:      emptySchema,
		}
		if schema := first(item, schemaPaths); schema.IsObject() {
			td.Schema = json.RawMessage(bytes.Clone([]byte(schema.Raw)))
		}
		out = append(out, td)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return out, nil
}

func first(item gjson.Result, paths []string) gjson.Result {
	for _, p := range paths {
		if r := item.Get(p); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}
