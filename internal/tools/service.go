// service.go — Tool service facade and dispatch pipeline.
// The Service owns the registry, the editor/snapshot ports, and the trace
// recorder. Dispatch implements the tools/call steps: registry lookup, schema
// validation, handler execution, then the response pipeline (meta.state,
// meta.diff, trace, duration observer).
package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ashfox/ashfox-mcp/internal/logging"
	"github.com/ashfox/ashfox-mcp/internal/mcp"
	"github.com/ashfox/ashfox-mcp/internal/project"
)

// Call is the per-invocation context handed to tool handlers. Project access
// is already serialized by the session lock when Dispatch runs.
type Call struct {
	Ctx     context.Context
	Project *project.Project
	Args    json.RawMessage
}

// Observer receives the duration of each completed tool call.
type Observer func(tool string, seconds float64, ok bool)

// Service wires tool handlers to their collaborators.
type Service struct {
	registry *Registry
	editor   EditorPort
	snapshot SnapshotPort
	log      *logging.Logger
	trace    *TraceRecorder
	observe  Observer
}

// NewService builds the service and registers the full tool catalog.
// snapshot may be nil when no host document source exists.
func NewService(editor EditorPort, snapshot SnapshotPort, log *logging.Logger) (*Service, error) {
	if editor == nil {
		editor = NullEditor{}
	}
	s := &Service{
		registry: NewRegistry(),
		editor:   editor,
		snapshot: snapshot,
		log:      log,
		trace:    NewTraceRecorder(log),
	}
	for _, reg := range []func() error{
		s.registerProjectTools,
		s.registerBoneTools,
		s.registerCubeTools,
		s.registerTextureTools,
		s.registerAnimationTools,
		s.registerExportTools,
	} {
		if err := reg(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Registry exposes the catalog for tools/list and change notifications.
func (s *Service) Registry() *Registry { return s.registry }

// Trace exposes the call trace recorder.
func (s *Service) Trace() *TraceRecorder { return s.trace }

// SetObserver installs the duration observer (metrics wiring).
func (s *Service) SetObserver(fn Observer) { s.observe = fn }

// pipelineOpts are the shared arguments every tool accepts.
type pipelineOpts struct {
	IncludeState bool `json:"includeState"`
	IncludeDiff  bool `json:"includeDiff"`
}

// stateDiff is attached under meta.diff when requested.
type stateDiff struct {
	Before  *project.Summary `json:"before,omitempty"`
	After   *project.Summary `json:"after,omitempty"`
	Changed bool             `json:"changed"`
}

// Dispatch runs one tools/call. A non-nil *JSONRPCError means the call failed
// at the protocol level (unknown tool, invalid arguments) and no ToolResponse
// exists; domain failures come back inside the ToolResponse.
func (s *Service) Dispatch(call *Call, name string) (mcp.ToolResponse, *mcp.JSONRPCError) {
	if s.registry.Len() == 0 {
		return mcp.FailureWith(mcp.ErrToolRegistryEmpty,
			"no tools registered", "retry after tools/list succeeds", nil), nil
	}
	reg, ok := s.registry.lookup(name)
	if !ok {
		return mcp.ToolResponse{}, &mcp.JSONRPCError{
			Code:    mcp.CodeInvalidParams,
			Message: "Unknown tool: " + name,
		}
	}
	if _, err := validateArgs(reg.schema, call.Args); err != nil {
		return mcp.ToolResponse{}, &mcp.JSONRPCError{
			Code:    mcp.CodeInvalidParams,
			Message: "Invalid arguments for " + name + ": " + err.Error(),
		}
	}

	var opts pipelineOpts
	if len(call.Args) > 0 {
		_ = json.Unmarshal(call.Args, &opts)
	}
	var before *project.Summary
	if opts.IncludeDiff {
		before = call.Project.Summary()
	}

	start := time.Now()
	resp := reg.handler(call)
	elapsed := time.Since(start)

	s.finalize(call, name, &resp, opts, before, elapsed)
	return resp, nil
}

// finalize applies the response pipeline to a completed call.
func (s *Service) finalize(call *Call, name string, resp *mcp.ToolResponse, opts pipelineOpts, before *project.Summary, elapsed time.Duration) {
	if opts.IncludeState || opts.IncludeDiff {
		if resp.Meta == nil {
			resp.Meta = make(map[string]any)
		}
		after := call.Project.Summary()
		if opts.IncludeState {
			resp.Meta["state"] = after
		}
		if opts.IncludeDiff {
			changed := revisionOf(before) != revisionOf(after)
			resp.Meta["diff"] = stateDiff{Before: before, After: after, Changed: changed}
		}
	}

	s.trace.Record(name, call.Project.Revision(), elapsed, resp.OK)
	if s.observe != nil {
		s.observe(name, elapsed.Seconds(), resp.OK)
	}
}

func revisionOf(sum *project.Summary) string {
	if sum == nil {
		return ""
	}
	return sum.Revision
}

// decodeArgs unmarshals raw arguments into a typed struct. Schema validation
// already ran, so a decode failure is an invalid_payload edge (for example a
// number overflowing an int).
func decodeArgs(raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return &mcp.ToolError{Code: mcp.ErrInvalidPayload, Message: "malformed arguments: " + err.Error()}
	}
	return nil
}
