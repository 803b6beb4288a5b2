package toolhost

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"cdr.dev/slog/v3/sloggers/slogtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/errs"
	"github.com/universal-tool-calling-protocol/go-mcpprompt/src/tools"
)

func testConn() ConnectionContext {
	return ConnectionContext{
		ConnectionID: "c1",
		Region:       RegionDev,
		AccessToken:  "tok en&1",
	}
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(srv.URL,
		WithHTTPClient(srv.Client()),
		WithLogger(slogtest.Make(t, &slogtest.Options{IgnoreErrors: true})),
	)
	require.NoError(t, err)
	return c
}

func TestEndpoints(t *testing.T) {
	t.Parallel()

	e, err := NewEndpoints("https://mcp-api.unified.to/")
	require.NoError(t, err)
	conn := testConn()
	conn.IncludeExternalTools = true

	assert.Equal(t,
		"https://mcp-api.unified.to/tools?connection=c1&dc=dev&include_external_tools=true&token=tok+en%261",
		e.Tools(conn))
	assert.Equal(t,
		"https://mcp-api.unified.to/sse?connection=c1&dc=dev&include_external_tools=true&token=tok+en%261&type=openai",
		e.SSE(conn, "openai"))
	assert.Equal(t,
		"https://mcp-api.unified.to/mcp?connection=c1&dc=dev&include_external_tools=true&token=tok+en%261&type=gemini",
		e.MCP(conn, "gemini"))
	assert.Equal(t,
		"https://mcp-api.unified.to/mcp/tools/crm%2Fcontact/call?connection=c1&dc=dev&include_external_tools=true&token=tok+en%261",
		e.ToolCall(conn, "crm/contact"))
}

func TestEndpointsBasePath(t *testing.T) {
	t.Parallel()

	e, err := NewEndpoints("http://localhost:8080/api/v1?ignored=1")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api/v1/mcp/tools/list_candidates/call?connection=c1&dc=dev&include_external_tools=false&token=tok+en%261",
		e.ToolCall(testConn(), "list_candidates"))

	_, err = NewEndpoints("not a url")
	require.Error(t, err)
}

func TestRedact(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://h/sse?connection=c1&token=REDACTED", Redact("https://h/sse?token=secret&connection=c1"))
	assert.Equal(t, "https://h/x", Redact("https://h/x"))
}

func TestListTools(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/tools", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "tok en&1", q.Get("token"))
		assert.Equal(t, "c1", q.Get("connection"))
		assert.Equal(t, "dev", q.Get("dc"))
		assert.Equal(t, "false", q.Get("include_external_tools"))
		_, _ = w.Write([]byte(`[{"name":"list_candidates","parameters":{"type":"object"}}]` + "\n"))
	}))
	t.Cleanup(srv.Close)

	cat, err := newTestClient(t, srv).ListTools(context.Background(), testConn())
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, `[{"name":"list_candidates","parameters":{"type":"object"}}]`, string(cat.Raw))

	td, err := cat.Descriptors()
	require.NoError(t, err)
	require.Len(t, td, 1)
	assert.Equal(t, "list_candidates", td[0].Name)
}

func TestListToolsFailures(t *testing.T) {
	t.Parallel()

	t.Run("Status", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad token", http.StatusUnauthorized)
		}))
		t.Cleanup(srv.Close)

		_, err := newTestClient(t, srv).ListTools(context.Background(), testConn())
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.KindServiceUnavailable))
		assert.Contains(t, err.Error(), "bad token")
	})

	t.Run("NotJSON", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		}))
		t.Cleanup(srv.Close)

		_, err := newTestClient(t, srv).ListTools(context.Background(), testConn())
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.KindMalformedResponse))
	})

	t.Run("Unreachable", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.NotFoundHandler())
		c := newTestClient(t, srv)
		srv.Close()

		_, err := c.ListTools(context.Background(), testConn())
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.KindServiceUnavailable))
	})

	t.Run("NoConnection", func(t *testing.T) {
		t.Parallel()
		var hit atomic.Bool
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hit.Store(true)
		}))
		t.Cleanup(srv.Close)

		conn := testConn()
		conn.ConnectionID = ""
		_, err := newTestClient(t, srv).ListTools(context.Background(), conn)
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.KindInputValidation))
		assert.False(t, hit.Load())
	})
}

func TestCatalogDescriptorsMalformed(t *testing.T) {
	t.Parallel()

	_, err := Catalog{Raw: []byte(`{"count":1}`)}.Descriptors()
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindMalformedResponse))
}

func TestExecute(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/mcp/tools/get_contact/call", r.URL.Path)
		assert.Equal(t, "c1", r.URL.Query().Get("connection"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"id":"42"}`, string(body))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Ada"}]}`))
	}))
	t.Cleanup(srv.Close)

	ex := NewExecutor(newTestClient(t, srv))
	res, err := ex.Execute(context.Background(), testConn(), tools.ToolCallIntent{ToolName: "get_contact", ArgumentsJSON: `{"id":"42"}`})
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":[{"type":"text","text":"Ada"}]}`, string(res.ResultJSON))
}

func TestExecuteEmptyArguments(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{}`, string(body))
		_, _ = w.Write([]byte(`true`))
	}))
	t.Cleanup(srv.Close)

	res, err := NewExecutor(newTestClient(t, srv)).Execute(context.Background(), testConn(), tools.ToolCallIntent{ToolName: "ping"})
	require.NoError(t, err)
	assert.Equal(t, "true", string(res.ResultJSON))
}

func TestExecuteAllIsolatesFailures(t *testing.T) {
	t.Parallel()

	var order []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/mcp/tools/"), "/call")
		order = append(order, name)
		if name == "broken" {
			http.Error(w, `{"error":"upstream 500"}`, http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":"` + name + `"}`))
	}))
	t.Cleanup(srv.Close)

	intents := []tools.ToolCallIntent{
		{ToolName: "first", ArgumentsJSON: `{}`},
		{ToolName: "broken", ArgumentsJSON: `{}`},
		{ToolName: "third", ArgumentsJSON: `{}`},
	}
	outcomes := NewExecutor(newTestClient(t, srv)).ExecuteAll(context.Background(), testConn(), intents)
	require.Len(t, outcomes, 3)
	assert.Equal(t, []string{"first", "broken", "third"}, order)

	require.NoError(t, outcomes[0].Err)
	assert.JSONEq(t, `{"ok":"first"}`, string(outcomes[0].Result.ResultJSON))

	require.Error(t, outcomes[1].Err)
	assert.True(t, errs.Is(outcomes[1].Err, errs.KindToolExecution))
	assert.Contains(t, outcomes[1].Err.Error(), "upstream 500")

	require.NoError(t, outcomes[2].Err)
	assert.JSONEq(t, `{"ok":"third"}`, string(outcomes[2].Result.ResultJSON))
}

func TestExecuteNoName(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	_, err := NewExecutor(newTestClient(t, srv)).Execute(context.Background(), testConn(), tools.ToolCallIntent{})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindToolExecution))
}
