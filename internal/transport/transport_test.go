package transport

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashfox/ashfox-mcp/internal/logging"
	"github.com/ashfox/ashfox-mcp/internal/mcp"
	"github.com/ashfox/ashfox-mcp/internal/resources"
	"github.com/ashfox/ashfox-mcp/internal/router"
	"github.com/ashfox/ashfox-mcp/internal/session"
	"github.com/ashfox/ashfox-mcp/internal/tools"
)

type fixture struct {
	srv   *httptest.Server
	store *session.Store
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	log := logging.New("transport-test", "error")
	store := session.NewStore(session.DefaultTTL, log)
	svc, err := tools.NewService(nil, nil, log)
	require.NoError(t, err)
	rt := router.New(store, svc, resources.NewStore(), log, mcp.ServerInfo{Name: "ashfox", Version: "test"})
	if cfg.Version == "" {
		cfg.Version = "test"
	}
	server := NewServer(cfg, rt, NewMetrics(), log)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return &fixture{srv: ts, store: store}
}

func (f *fixture) post(t *testing.T, sessionID, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, f.srv.URL+"/mcp", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeRPC(t *testing.T, resp *http.Response) mcp.JSONRPCResponse {
	t.Helper()
	defer resp.Body.Close()
	var out mcp.JSONRPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestInitializeHandshakeOverHTTP(t *testing.T) {
	f := newFixture(t, Config{BasePath: "/mcp"})

	resp := f.post(t, "", `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sessionID := resp.Header.Get("Mcp-Session-Id")
	require.NotEmpty(t, sessionID)

	rpc := decodeRPC(t, resp)
	require.Nil(t, rpc.Error)
	var result mcp.InitializeResult
	require.NoError(t, json.Unmarshal(rpc.Result, &result))
	assert.Equal(t, "2025-06-18", result.ProtocolVersion)

	note := f.post(t, sessionID, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	defer note.Body.Close()
	assert.Equal(t, http.StatusAccepted, note.StatusCode)
	body, _ := io.ReadAll(note.Body)
	assert.Empty(t, body)

	list := decodeRPC(t, f.post(t, sessionID, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))
	require.Nil(t, list.Error)
}

func TestImplicitSessionOverHTTP(t *testing.T) {
	f := newFixture(t, Config{BasePath: "/mcp"})
	resp := f.post(t, "", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Mcp-Session-Id"))
	rpc := decodeRPC(t, resp)
	assert.Nil(t, rpc.Error)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, Config{BasePath: "/mcp"})
	req, _ := http.NewRequest(http.MethodPut, f.srv.URL+"/mcp", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestUnknownPath(t *testing.T) {
	f := newFixture(t, Config{BasePath: "/mcp"})
	resp, err := http.Post(f.srv.URL+"/other", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestContentTypeRequired(t *testing.T) {
	f := newFixture(t, Config{BasePath: "/mcp"})
	resp, err := http.Post(f.srv.URL+"/mcp", "text/plain", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	// A POST with no Content-Type header at all is rejected the same way.
	req, err := http.NewRequest(http.MethodPost, f.srv.URL+"/mcp", strings.NewReader(`{}`))
	require.NoError(t, err)
	bare, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer bare.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, bare.StatusCode)
}

func TestBearerToken(t *testing.T) {
	f := newFixture(t, Config{BasePath: "/mcp", Token: "hunter2"})

	resp := f.post(t, "", `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodPost, f.srv.URL+"/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer hunter2")
	ok, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer ok.Body.Close()
	assert.Equal(t, http.StatusOK, ok.StatusCode)
}

func TestBodySizeLimit(t *testing.T) {
	f := newFixture(t, Config{BasePath: "/mcp"})

	small := `{"jsonrpc":"2.0","id":1,"method":"ping"}`

	// Exactly at the limit succeeds; one byte over is rejected.
	atLimit := small + strings.Repeat(" ", maxBodyBytes-len(small))
	resp := f.post(t, "", atLimit)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	over := f.post(t, "", atLimit+" ")
	defer over.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, over.StatusCode)
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(over.Body).Decode(&payload))
	assert.Equal(t, "payload_too_large", payload.Error.Code)
}

func TestParseErrorReturns200WithRPCError(t *testing.T) {
	f := newFixture(t, Config{BasePath: "/mcp"})
	resp := f.post(t, "", `{broken`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rpc := decodeRPC(t, resp)
	require.NotNil(t, rpc.Error)
	assert.Equal(t, mcp.CodeParseError, rpc.Error.Code)
}

func TestPostWithSSEAcceptReturnsSingleEvent(t *testing.T) {
	f := newFixture(t, Config{BasePath: "/mcp"})

	req, _ := http.NewRequest(http.MethodPost, f.srv.URL+"/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("id: 1\nevent: message\ndata: ")))
	assert.True(t, bytes.HasSuffix(body, []byte("\n\n")))
}

func TestGetWithoutSSEAcceptRejected(t *testing.T) {
	f := newFixture(t, Config{BasePath: "/mcp"})
	resp, err := http.Get(f.srv.URL + "/mcp")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotAcceptable, resp.StatusCode)
}

func TestSSEStreamLifecycle(t *testing.T) {
	f := newFixture(t, Config{BasePath: "/mcp"})

	init := f.post(t, "", `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	init.Body.Close()
	sessionID := init.Header.Get("Mcp-Session-Id")
	require.NotEmpty(t, sessionID)

	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+"/mcp", nil)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Mcp-Session-Id", sessionID)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(resp.Body)
	first, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": keepalive\n", first)

	// A published notification arrives as an SSE message frame.
	sess, ok := f.store.Get(sessionID)
	require.True(t, ok)
	require.Eventually(t, func() bool { return sess.SubscriberCount() == 1 }, time.Second, 10*time.Millisecond)
	sess.Publish([]byte(`{"jsonrpc":"2.0","method":"notifications/tools/list_changed"}`))

	var frame []string
	for len(frame) < 3 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line != "\n" {
			frame = append(frame, line)
		}
	}
	assert.True(t, strings.HasPrefix(frame[0], "id: "))
	assert.Equal(t, "event: message\n", frame[1])
	assert.True(t, strings.HasPrefix(frame[2], "data: {"))

	// Deleting the session terminates the stream.
	del, _ := http.NewRequest(http.MethodDelete, f.srv.URL+"/mcp", nil)
	del.Header.Set("Mcp-Session-Id", sessionID)
	delResp, err := http.DefaultClient.Do(del)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusOK, delResp.StatusCode)

	done := make(chan struct{})
	go func() {
		for {
			if _, err := reader.ReadString('\n'); err != nil {
				close(done)
				return
			}
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close after session delete")
	}
}

func TestDeleteUnknownSession(t *testing.T) {
	f := newFixture(t, Config{BasePath: "/mcp"})
	req, _ := http.NewRequest(http.MethodDelete, f.srv.URL+"/mcp", nil)
	req.Header.Set("Mcp-Session-Id", "nope")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, Config{BasePath: "/mcp", Version: "1.2.3"})

	init := f.post(t, "", `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	init.Body.Close()

	resp, err := http.Get(f.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health struct {
		Status   string `json:"status"`
		Version  string `json:"version"`
		Sessions int    `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "1.2.3", health.Version)
	assert.Equal(t, 1, health.Sessions)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, Config{BasePath: "/mcp"})
	f.post(t, "", `{"jsonrpc":"2.0","id":1,"method":"ping"}`).Body.Close()

	resp, err := http.Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "mcp_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, Config{BasePath: "/api/mcp"})

	req, _ := http.NewRequest(http.MethodOptions, f.srv.URL+"/api/mcp", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET,POST,OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "content-type,last-event-id,authorization", resp.Header.Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "86400", resp.Header.Get("Access-Control-Max-Age"))
}

func TestNormalizeBasePath(t *testing.T) {
	assert.Equal(t, "/mcp", NormalizeBasePath(""))
	assert.Equal(t, "/mcp", NormalizeBasePath("mcp"))
	assert.Equal(t, "/mcp", NormalizeBasePath("/mcp/"))
	assert.Equal(t, "/api/mcp", NormalizeBasePath("api/mcp"))
	assert.Equal(t, "/", NormalizeBasePath("/"))
}
