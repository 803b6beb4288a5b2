package gemini

import (
	"context"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/xerrors"
	"google.golang.org/genai"

	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/json"
)

// clientName is how the session identifies itself to the tool host.
const clientName = "mcpprompt"

// session is an initialized MCP client on the tool host's /mcp endpoint.
type session struct {
	client *mcpclient.Client
	tools  []mcp.Tool
}

// openSession performs the transport handshake and lists the session's
// tools. The caller closes the session.
func openSession(ctx context.Context, serverURL string) (*session, error) {
	cli, err := mcpclient.NewStreamableHttpClient(serverURL)
	if err != nil {
		return nil, xerrors.Errorf("create mcp client: %w", err)
	}
	if err := cli.Start(ctx); err != nil {
		return nil, xerrors.Errorf("start mcp client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: "1.0.0"}
	if _, err := cli.Initialize(ctx, initReq); err != nil {
		_ = cli.Close()
		return nil, xerrors.Errorf("initialize mcp session: %w", err)
	}

	listed, err := cli.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		_ = cli.Close()
		return nil, xerrors.Errorf("list session tools: %w", err)
	}
	return &session{client: cli, tools: listed.Tools}, nil
}

// declarations advertises the session's tools to Gemini.
func (s *session) declarations() ([]*genai.FunctionDeclaration, error) {
	decls := make([]*genai.FunctionDeclaration, 0, len(s.tools))
	for _, tl := range s.tools {
		raw := []byte(tl.RawInputSchema)
		if len(raw) == 0 {
			var err error
			raw, err = json.Marshal(tl.InputSchema)
			if err != nil {
				return nil, xerrors.Errorf("encode schema of %q: %w", tl.Name, err)
			}
		}
		// genai encodes with encoding/json, so the schema goes over as a
		// plain map rather than raw bytes.
		var schema map[string]any
		if err := json.Unmarshal(raw, &schema); err != nil {
			return nil, xerrors.Errorf("decode schema of %q: %w", tl.Name, err)
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:                 tl.Name,
			Description:          tl.Description,
			ParametersJsonSchema: schema,
		})
	}
	return decls, nil
}

// call runs one tool over the session. A result flagged as an error is
// returned together with a non-nil error.
func (s *session) call(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := s.client.CallTool(ctx, req)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(res)
	if err != nil {
		return nil, xerrors.Errorf("encode result of %q: %w", name, err)
	}
	var out map[string]any
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, xerrors.Errorf("decode result of %q: %w", name, err)
	}
	if res.IsError {
		return out, xerrors.Errorf("tool %q reported an error", name)
	}
	return out, nil
}

func (s *session) Close() error {
	return s.client.Close()
}
