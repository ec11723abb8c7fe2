// methods.go — Per-method JSON-RPC handlers.
package router

import (
	"encoding/json"

	"github.com/ashfox/ashfox-mcp/internal/mcp"
	"github.com/ashfox/ashfox-mcp/internal/project"
	"github.com/ashfox/ashfox-mcp/internal/session"
	"github.com/ashfox/ashfox-mcp/internal/tools"
)

func (rt *Router) handlePing(_ *Request, rpc *mcp.JSONRPCRequest, _ *session.Session) mcp.JSONRPCResponse {
	return mcp.NewResult(rpc.ID, struct{}{})
}

func (rt *Router) handleToolsList(_ *Request, rpc *mcp.JSONRPCRequest, _ *session.Session) mcp.JSONRPCResponse {
	return mcp.NewResult(rpc.ID, mcp.ToolsListResult{Tools: rt.service.Registry().List()})
}

// toolsCallParams is the tools/call parameter shape.
type toolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (rt *Router) handleToolsCall(req *Request, rpc *mcp.JSONRPCRequest, sess *session.Session) mcp.JSONRPCResponse {
	var params toolsCallParams
	if len(rpc.Params) > 0 {
		if err := json.Unmarshal(rpc.Params, &params); err != nil {
			return mcp.NewError(rpc.ID, mcp.CodeInvalidParams, "invalid tools/call params")
		}
	}
	if params.Name == "" {
		return mcp.NewError(rpc.ID, mcp.CodeInvalidParams, "tools/call requires a tool name")
	}

	var (
		toolResp mcp.ToolResponse
		rpcErr   *mcp.JSONRPCError
	)
	_ = sess.WithProject(func(p *project.Project) error {
		toolResp, rpcErr = rt.service.Dispatch(&tools.Call{
			Ctx:     req.Ctx,
			Project: p,
			Args:    params.Arguments,
		}, params.Name)
		return nil
	})
	if rpcErr != nil {
		return mcp.JSONRPCResponse{JSONRPC: "2.0", ID: rpc.ID, Error: rpcErr}
	}
	return mcp.ToolCallResponse(rpc.ID, toolResp)
}

func (rt *Router) handleResourcesList(_ *Request, rpc *mcp.JSONRPCRequest, _ *session.Session) mcp.JSONRPCResponse {
	return mcp.NewResult(rpc.ID, mcp.ResourcesListResult{Resources: rt.resources.List()})
}

func (rt *Router) handleResourcesRead(_ *Request, rpc *mcp.JSONRPCRequest, _ *session.Session) mcp.JSONRPCResponse {
	var params struct {
		URI string `json:"uri"`
	}
	if len(rpc.Params) > 0 {
		if err := json.Unmarshal(rpc.Params, &params); err != nil {
			return mcp.NewError(rpc.ID, mcp.CodeInvalidParams, "invalid resources/read params")
		}
	}
	if params.URI == "" {
		return mcp.NewError(rpc.ID, mcp.CodeInvalidParams, "resources/read requires a uri")
	}

	content, err := rt.resources.Read(params.URI)
	if err != nil {
		return mcp.NewError(rpc.ID, mcp.CodeInvalidParams, "Resource not found: "+params.URI)
	}
	return mcp.NewResult(rpc.ID, mcp.ResourcesReadResult{Contents: []mcp.ResourceContent{*content}})
}

func (rt *Router) handleResourceTemplates(_ *Request, rpc *mcp.JSONRPCRequest, _ *session.Session) mcp.JSONRPCResponse {
	return mcp.NewResult(rpc.ID, mcp.ResourceTemplatesListResult{ResourceTemplates: rt.resources.ListTemplates()})
}
