// project_tools.go — Project lifecycle and read-only state tools.
package tools

import (
	"github.com/ashfox/ashfox-mcp/internal/mcp"
	"github.com/ashfox/ashfox-mcp/internal/project"
)

func (s *Service) registerProjectTools() error {
	tools := []struct {
		def     mcp.Tool
		handler Handler
	}{
		{
			def: mcp.Tool{
				Name:        "create_project",
				Description: "Create a fresh project for this session, optionally seeded from the host editor's open document",
				InputSchema: toolSchema(true, map[string]any{
					"name":             schemaString(),
					"format":           schemaString(),
					"formatId":         schemaString(),
					"uvPixelsPerBlock": schemaInteger(),
					"fromSnapshot":     schemaBool(),
				}, "name"),
			},
			handler: s.createProject,
		},
		{
			def: mcp.Tool{
				Name:        "get_project_state",
				Description: "Return the normalized project summary, current revision, and model limits",
				InputSchema: toolSchema(false, nil),
			},
			handler: s.getProjectState,
		},
		{
			def: mcp.Tool{
				Name:        "get_texture_usage",
				Description: "Map every cube face to the texture it references, with a stable uvUsageId digest",
				InputSchema: toolSchema(false, nil),
			},
			handler: s.getTextureUsage,
		},
		{
			def: mcp.Tool{
				Name:        "list_animations",
				Description: "List animation clips with length, loop, fps, and track counts",
				InputSchema: toolSchema(false, nil),
			},
			handler: s.listAnimations,
		},
		{
			def: mcp.Tool{
				Name:        "apply_model_spec",
				Description: "Apply a whole model description (bones, cubes, textures, animations) as one atomic batch",
				InputSchema: toolSchema(true, map[string]any{
					"spec":    schemaModelSpec(),
					"replace": schemaBool(),
				}, "spec"),
			},
			handler: s.applyModelSpec,
		},
	}
	for _, t := range tools {
		if err := s.registry.Register(t.def, t.handler); err != nil {
			return err
		}
	}
	return nil
}

type createProjectArgs struct {
	IfRevision       *string `json:"ifRevision"`
	Name             string  `json:"name"`
	Format           string  `json:"format"`
	FormatID         string  `json:"formatId"`
	UVPixelsPerBlock int     `json:"uvPixelsPerBlock"`
	FromSnapshot     bool    `json:"fromSnapshot"`
}

func (s *Service) createProject(call *Call) mcp.ToolResponse {
	var args createProjectArgs
	if err := decodeArgs(call.Args, &args); err != nil {
		return mcp.FromError(err)
	}

	// Overwriting an existing project is gated; creating the first one is not.
	if call.Project.HasState() {
		if err := call.Project.CheckRevision(args.IfRevision); err != nil {
			return mcp.FromError(err)
		}
	}

	if args.FromSnapshot {
		if s.snapshot == nil {
			return mcp.FailureWith(mcp.ErrNotImplemented,
				"no snapshot source bound", "create the project without fromSnapshot", nil)
		}
		snap, err := s.snapshot.ReadSnapshot(call.Ctx)
		if err != nil {
			return mcp.Failure(mcp.ErrIO, "read snapshot: "+err.Error())
		}
		if snap == nil {
			return mcp.FailureWith(mcp.ErrInvalidState,
				"no document open in the host editor", "open a model or drop fromSnapshot", nil)
		}
		if args.Name != "" {
			snap = snap.Clone()
			snap.Name = args.Name
		}
		rev, err := call.Project.Seed(snap)
		if err != nil {
			return mcp.FromError(err)
		}
		return projectCreated(call.Project, rev)
	}

	rev, err := call.Project.Create(args.Name, args.Format, args.FormatID, args.UVPixelsPerBlock)
	if err != nil {
		return mcp.FromError(err)
	}
	return projectCreated(call.Project, rev)
}

func projectCreated(p *project.Project, rev string) mcp.ToolResponse {
	resp := mcp.Success(map[string]any{
		"projectId": p.Summary().ID,
		"revision":  rev,
	})
	resp.NextActions = []string{"add_bone", "apply_model_spec"}
	return resp
}

func (s *Service) getProjectState(call *Call) mcp.ToolResponse {
	sum := call.Project.Summary()
	if sum == nil {
		return mcp.FailureWith(mcp.ErrInvalidState,
			"no active project", "call create_project first", nil)
	}
	return mcp.Success(map[string]any{
		"state":    sum,
		"revision": sum.Revision,
		"limits":   call.Project.Limits(),
	})
}

func (s *Service) getTextureUsage(call *Call) mcp.ToolResponse {
	snap := call.Project.Snapshot()
	if snap == nil {
		return mcp.FailureWith(mcp.ErrInvalidState,
			"no active project", "call create_project first", nil)
	}
	usage := project.ComputeTextureUsage(snap)
	return mcp.Success(map[string]any{
		"usage":    usage,
		"revision": call.Project.Revision(),
	})
}

type animationEntry struct {
	Name     string  `json:"name"`
	Length   float64 `json:"length"`
	Loop     bool    `json:"loop"`
	FPS      float64 `json:"fps"`
	Channels int     `json:"channels"`
	Triggers int     `json:"triggers"`
}

func (s *Service) listAnimations(call *Call) mcp.ToolResponse {
	snap := call.Project.Snapshot()
	if snap == nil {
		return mcp.FailureWith(mcp.ErrInvalidState,
			"no active project", "call create_project first", nil)
	}
	entries := make([]animationEntry, 0, len(snap.Animations))
	for i := range snap.Animations {
		a := &snap.Animations[i]
		entries = append(entries, animationEntry{
			Name:     a.Name,
			Length:   a.Length,
			Loop:     a.Loop,
			FPS:      a.FPS,
			Channels: len(a.Channels),
			Triggers: len(a.Triggers),
		})
	}
	return mcp.Success(map[string]any{
		"animations": entries,
		"revision":   call.Project.Revision(),
	})
}
