// export_tools.go — Deterministic model export tool.
package tools

import (
	"path"

	"github.com/ashfox/ashfox-mcp/internal/export"
	"github.com/ashfox/ashfox-mcp/internal/mcp"
)

func (s *Service) registerExportTools() error {
	return s.registry.Register(mcp.Tool{
		Name:        "export_model",
		Description: "Build byte-stable geometry and animation artifacts; optionally write them through the editor",
		InputSchema: toolSchema(true, map[string]any{
			"writeFiles": schemaBool(),
			"directory":  schemaString(),
		}),
	}, s.exportModel)
}

type exportArgs struct {
	IfRevision *string `json:"ifRevision"`
	WriteFiles bool    `json:"writeFiles"`
	Directory  string  `json:"directory"`
}

// artifactInfo is the client-facing artifact descriptor; raw bytes stay
// server-side unless writeFiles is set.
type artifactInfo struct {
	Name   string `json:"name"`
	SHA256 string `json:"sha256"`
	Bytes  int    `json:"bytes"`
	Path   string `json:"path,omitempty"`
}

func (s *Service) exportModel(call *Call) mcp.ToolResponse {
	var args exportArgs
	if err := decodeArgs(call.Args, &args); err != nil {
		return mcp.FromError(err)
	}
	if err := call.Project.CheckRevision(args.IfRevision); err != nil {
		return mcp.FromError(err)
	}

	snap := call.Project.Snapshot()
	if snap == nil {
		return mcp.FailureWith(mcp.ErrInvalidState,
			"no active project", "call create_project first", nil)
	}
	if len(snap.Bones) == 0 {
		return mcp.FailureWith(mcp.ErrInvalidState,
			"nothing to export: project has no bones", "add at least one bone", nil)
	}

	result, err := export.Build(snap)
	if err != nil {
		return mcp.FromError(err)
	}

	artifacts := []artifactInfo{
		{Name: result.Geometry.Name, SHA256: result.Geometry.SHA256, Bytes: result.Geometry.Bytes},
		{Name: result.Animation.Name, SHA256: result.Animation.SHA256, Bytes: result.Animation.Bytes},
	}

	if args.WriteFiles {
		if !s.editor.Capabilities().WriteFiles {
			return mcp.FailureWith(mcp.ErrNotImplemented,
				"bound editor cannot write files", "drop writeFiles and fetch artifacts by hash", nil)
		}
		for i, artifact := range []export.Artifact{result.Geometry, result.Animation} {
			target := path.Join(args.Directory, artifact.Name)
			if err := s.editor.WriteFile(call.Ctx, target, artifact.Data); err != nil {
				return mcp.FailureWith(mcp.ErrIO,
					"write "+target+": "+err.Error(), "",
					map[string]any{"artifact": artifact.Name})
			}
			artifacts[i].Path = target
		}
	}

	call.Project.MarkClean()
	return mcp.Success(map[string]any{
		"revision":  call.Project.Revision(),
		"artifacts": artifacts,
		"written":   args.WriteFiles,
	})
}
