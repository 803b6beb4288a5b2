// Package json is the codec used across the module. It routes through
// json-iterator in standard library compatible mode.
package json

import (
	"bytes"
	stdjson "encoding/json"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	Marshal    = json.Marshal
	Unmarshal  = json.Unmarshal
	NewDecoder = json.NewDecoder
	Valid      = json.Valid
)

type RawMessage = jsoniter.RawMessage

type Decoder = jsoniter.Decoder

// Pretty re-indents raw JSON with two spaces, keeping key order. Invalid
// input is returned trimmed but otherwise unchanged.
func Pretty(raw []byte) []byte {
	raw = bytes.TrimSpace(raw)
	var buf bytes.Buffer
	// jsoniter has no Indent; the stdlib one works on bytes and keeps order.
	if err := stdjson.Indent(&buf, raw, "", "  "); err != nil {
		return raw
	}
	return buf.Bytes()
}
