package toolhost

import (
	"net/url"
	"path"
	"strconv"
	"strings"

	"golang.org/x/xerrors"

	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/errs"
)

// Region is the data-center tag ("dc") that picks the backend instance
// serving a connection.
type Region string

const (
	RegionLocal Region = "local"
	RegionDev   Region = "dev"
	RegionProd  Region = "prod"
	RegionEU    Region = "eu"
)

// DefaultRegion is used when no --dc is given.
const DefaultRegion = RegionLocal

// ConnectionContext scopes every tool-hosting request to one connection.
// It is built once per invocation and passed by value.
type ConnectionContext struct {
	ConnectionID         string
	Region               Region
	AccessToken          string
	IncludeExternalTools bool
}

// Validate checks the fields every request needs. The access token may be
// empty: the host rejects it, not us.
func (c ConnectionContext) Validate() error {
	if strings.TrimSpace(c.ConnectionID) == "" {
		return errs.Newf(errs.KindInputValidation, "", "Missing required argument: --connection")
	}
	if strings.TrimSpace(string(c.Region)) == "" {
		return errs.Newf(errs.KindInputValidation, "", "empty region")
	}
	return nil
}

// Query is the parameter set sent with catalog and tool-call requests.
func (c ConnectionContext) Query() url.Values {
	return url.Values{
		"token":                  {c.AccessToken},
		"connection":             {c.ConnectionID},
		"dc":                     {string(c.Region)},
		"include_external_tools": {strconv.FormatBool(c.IncludeExternalTools)},
	}
}

// SessionQuery is Query plus the provider-type tag the host uses to pick
// its session framing.
func (c ConnectionContext) SessionQuery(providerType string) url.Values {
	q := c.Query()
	q.Set("type", providerType)
	return q
}

// Endpoints builds tool-hosting URLs under a base URL.
type Endpoints struct {
	base url.URL
}

// NewEndpoints parses the tool-hosting base URL.
func NewEndpoints(base string) (Endpoints, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return Endpoints{}, xerrors.Errorf("parse tool host url %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Endpoints{}, xerrors.Errorf("tool host url %q must be absolute", base)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return Endpoints{base: *u}, nil
}

// Base returns the base URL as given.
func (e Endpoints) Base() string {
	return e.base.String()
}

// Tools is GET {base}/tools?token&connection&dc&include_external_tools.
func (e Endpoints) Tools(c ConnectionContext) string {
	return e.build(c.Query(), "tools")
}

// SSE is the session endpoint a provider connects to on its own.
func (e Endpoints) SSE(c ConnectionContext, providerType string) string {
	return e.build(c.SessionQuery(providerType), "sse")
}

// MCP is the streamable session endpoint for clients that run the
// transport handshake themselves.
func (e Endpoints) MCP(c ConnectionContext, providerType string) string {
	return e.build(c.SessionQuery(providerType), "mcp")
}

// ToolCall is POST {base}/mcp/tools/{name}/call.
func (e Endpoints) ToolCall(c ConnectionContext, toolName string) string {
	return e.build(c.Query(), "mcp", "tools", toolName, "call")
}

func (e Endpoints) build(q url.Values, elems ...string) string {
	u := e.base
	plain := []string{"/", u.Path}
	escaped := []string{"/", u.EscapedPath()}
	for _, el := range elems {
		plain = append(plain, el)
		escaped = append(escaped, url.PathEscape(el))
	}
	u.Path = path.Join(plain...)
	u.RawPath = path.Join(escaped...)
	u.RawQuery = q.Encode()
	return u.String()
}

// Redact replaces the token parameter of a URL for logging.
func Redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
