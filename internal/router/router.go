// router.go — JSON-RPC method routing and session resolution.
// The transport hands the router a normalized request (body plus the MCP
// headers); the router decodes JSON-RPC, resolves or mints the session,
// dispatches the method, and returns a ResponsePlan the transport writes.
// The router never touches HTTP details beyond the plan.
package router

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ashfox/ashfox-mcp/internal/logging"
	"github.com/ashfox/ashfox-mcp/internal/mcp"
	"github.com/ashfox/ashfox-mcp/internal/resources"
	"github.com/ashfox/ashfox-mcp/internal/session"
	"github.com/ashfox/ashfox-mcp/internal/tools"
)

// PlanKind selects how the transport writes the response.
type PlanKind int

const (
	// PlanJSON writes the body as application/json.
	PlanJSON PlanKind = iota
	// PlanSSE writes the body as a single SSE event and closes.
	PlanSSE
	// PlanEmpty writes only the status (accepted notification).
	PlanEmpty
)

// ResponsePlan is the transport-agnostic response description.
type ResponsePlan struct {
	Kind      PlanKind
	Status    int
	SessionID string
	Body      []byte
}

// Request is the normalized POST request handed in by the transport.
type Request struct {
	Ctx             context.Context
	Body            []byte
	SessionID       string
	ProtocolVersion string
	AcceptSSE       bool
}

// Router dispatches MCP methods.
type Router struct {
	sessions  *session.Store
	service   *tools.Service
	resources *resources.Store
	log       *logging.Logger
	info      mcp.ServerInfo
}

// methodFunc handles one JSON-RPC method for a resolved session.
type methodFunc func(rt *Router, req *Request, rpc *mcp.JSONRPCRequest, sess *session.Session) mcp.JSONRPCResponse

// methodHandlers is the routing table. notifications/initialized and
// initialize are handled before session resolution and are absent here.
var methodHandlers = map[string]methodFunc{
	"tools/list":               (*Router).handleToolsList,
	"tools/call":               (*Router).handleToolsCall,
	"resources/list":           (*Router).handleResourcesList,
	"resources/read":           (*Router).handleResourcesRead,
	"resources/templates/list": (*Router).handleResourceTemplates,
	"ping":                     (*Router).handlePing,
}

// implicitSessionMethods may run without a Mcp-Session-Id header; the router
// mints an ephemeral initialized session for them.
var implicitSessionMethods = map[string]bool{
	"tools/list":               true,
	"tools/call":               true,
	"resources/list":           true,
	"resources/read":           true,
	"resources/templates/list": true,
	"ping":                     true,
}

// New wires the router. Registry changes broadcast
// notifications/tools/list_changed to every attached stream.
func New(sessions *session.Store, service *tools.Service, res *resources.Store, log *logging.Logger, info mcp.ServerInfo) *Router {
	rt := &Router{sessions: sessions, service: service, resources: res, log: log, info: info}
	service.Registry().OnChange(func() {
		data := mcp.SafeMarshal(mcp.ToolListChangedNotification(), `{}`)
		sessions.Broadcast(data)
	})
	return rt
}

// HandlePost processes one JSON-RPC POST body.
func (rt *Router) HandlePost(req *Request) ResponsePlan {
	var rpc mcp.JSONRPCRequest
	if err := json.Unmarshal(req.Body, &rpc); err != nil {
		return rt.respond(req, "", mcp.NewError(nil, mcp.CodeParseError, "Parse error"))
	}
	if rpc.JSONRPC != "2.0" || rpc.Method == "" {
		return rt.respond(req, req.SessionID, mcp.NewError(rpc.ID, mcp.CodeInvalidRequest, "Invalid Request"))
	}
	if rpc.HasInvalidID() {
		return rt.respond(req, req.SessionID, mcp.NewError(nil, mcp.CodeInvalidRequest, "Invalid Request: id must be a string or number"))
	}

	switch rpc.Method {
	case "initialize":
		return rt.handleInitialize(req, &rpc)
	case "notifications/initialized":
		return rt.handleInitialized(req)
	}
	if !rpc.HasID() {
		// Unknown notifications are accepted and dropped.
		return ResponsePlan{Kind: PlanEmpty, Status: http.StatusAccepted, SessionID: req.SessionID}
	}

	sess, errResp := rt.resolveSession(req, &rpc)
	if errResp != nil {
		return rt.respond(req, req.SessionID, *errResp)
	}

	handler, ok := methodHandlers[rpc.Method]
	if !ok {
		return rt.respond(req, sess.ID, mcp.NewError(rpc.ID, mcp.CodeMethodNotFound, "Method not found: "+rpc.Method))
	}
	return rt.respond(req, sess.ID, handler(rt, req, &rpc, sess))
}

// handleInitialize negotiates the protocol version and mints a session.
func (rt *Router) handleInitialize(req *Request, rpc *mcp.JSONRPCRequest) ResponsePlan {
	if !rpc.HasID() {
		return rt.respond(req, req.SessionID,
			mcp.NewError(nil, mcp.CodeInvalidRequest, "initialize requires an id"))
	}

	var params struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	if len(rpc.Params) > 0 {
		if err := json.Unmarshal(rpc.Params, &params); err != nil {
			return rt.respond(req, req.SessionID,
				mcp.NewError(rpc.ID, mcp.CodeInvalidParams, "invalid initialize params"))
		}
	}
	version := mcp.NegotiateProtocolVersion(params.ProtocolVersion)
	sess := rt.sessions.Create(version)
	rt.log.Info("session initialized", map[string]any{
		"sessionId":       sess.ID,
		"protocolVersion": version,
	})

	result := mcp.InitializeResult{
		ProtocolVersion: version,
		ServerInfo:      rt.info,
		Capabilities: mcp.Capabilities{
			Tools: mcp.ToolsCapability{ListChanged: true},
		},
	}
	return rt.respond(req, sess.ID, mcp.NewResult(rpc.ID, result))
}

// handleInitialized completes the handshake for the named session.
func (rt *Router) handleInitialized(req *Request) ResponsePlan {
	if sess, ok := rt.sessions.Get(req.SessionID); ok {
		sess.MarkInitialized()
	}
	return ResponsePlan{Kind: PlanEmpty, Status: http.StatusAccepted, SessionID: req.SessionID}
}

// resolveSession finds the request's session, minting an ephemeral one for
// implicit-session methods. A non-nil response is the error to return.
func (rt *Router) resolveSession(req *Request, rpc *mcp.JSONRPCRequest) (*session.Session, *mcp.JSONRPCResponse) {
	if req.SessionID == "" {
		if !implicitSessionMethods[rpc.Method] {
			resp := mcp.NewError(rpc.ID, mcp.CodeNotInitialized, "Server not initialized: call initialize first")
			return nil, &resp
		}
		sess := rt.sessions.Create(mcp.NegotiateProtocolVersion(req.ProtocolVersion))
		sess.MarkInitialized()
		return sess, nil
	}

	sess, ok := rt.sessions.Get(req.SessionID)
	if !ok {
		resp := mcp.NewError(rpc.ID, mcp.CodeNotInitialized, "Unknown session: initialize again")
		return nil, &resp
	}
	if !sess.Initialized() && !implicitSessionMethods[rpc.Method] {
		resp := mcp.NewError(rpc.ID, mcp.CodeNotInitialized, "Session not initialized: send notifications/initialized")
		return nil, &resp
	}
	if req.ProtocolVersion != "" && req.ProtocolVersion != sess.ProtocolVersion() {
		resp := mcp.NewError(rpc.ID, mcp.CodeInvalidRequest,
			"Protocol version mismatch: session negotiated "+sess.ProtocolVersion())
		return nil, &resp
	}
	return sess, nil
}

// AttachStream validates a session for a long-lived GET stream.
func (rt *Router) AttachStream(sessionID string) (*session.Session, bool) {
	if sessionID == "" {
		return nil, false
	}
	return rt.sessions.Get(sessionID)
}

// EndSession terminates a session for DELETE.
func (rt *Router) EndSession(sessionID string) bool {
	return rt.sessions.Delete(sessionID)
}

// SessionCount reports live sessions for health output.
func (rt *Router) SessionCount() int { return rt.sessions.Count() }

// respond encodes a JSON-RPC response into a plan, honoring Accept.
func (rt *Router) respond(req *Request, sessionID string, resp mcp.JSONRPCResponse) ResponsePlan {
	body := mcp.SafeMarshal(resp, `{"jsonrpc":"2.0","id":null,"error":{"code":-32603,"message":"Internal error"}}`)
	kind := PlanJSON
	if req.AcceptSSE {
		kind = PlanSSE
	}
	return ResponsePlan{Kind: kind, Status: http.StatusOK, SessionID: sessionID, Body: body}
}
