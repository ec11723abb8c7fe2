// bone_tools.go — Bone CRUD tools.
package tools

import (
	"github.com/ashfox/ashfox-mcp/internal/mcp"
	"github.com/ashfox/ashfox-mcp/internal/project"
)

func (s *Service) registerBoneTools() error {
	tools := []struct {
		def     mcp.Tool
		handler Handler
	}{
		{
			def: mcp.Tool{
				Name:        "add_bone",
				Description: "Add a bone to the skeleton; names are unique within a project",
				InputSchema: toolSchema(true, map[string]any{
					"name":       schemaString(),
					"parent":     schemaString(),
					"pivot":      schemaVec3(),
					"rotation":   schemaVec3(),
					"scale":      schemaNumber(),
					"visibility": schemaBool(),
				}, "name"),
			},
			handler: s.addBone,
		},
		{
			def: mcp.Tool{
				Name:        "update_bone",
				Description: "Patch bone fields; renames ripple to child bones, cubes, and animation channels",
				InputSchema: toolSchema(true, map[string]any{
					"name":       schemaString(),
					"newName":    schemaString(),
					"parent":     schemaString(),
					"pivot":      schemaVec3(),
					"rotation":   schemaVec3(),
					"scale":      schemaNumber(),
					"visibility": schemaBool(),
				}, "name"),
			},
			handler: s.updateBone,
		},
		{
			def: mcp.Tool{
				Name:        "delete_bone",
				Description: "Delete a bone; cascade removes descendants and their cubes, reparent moves them up",
				InputSchema: toolSchema(true, map[string]any{
					"name":   schemaString(),
					"policy": schemaEnum(project.DeleteCascade, project.DeleteReparent),
				}, "name"),
			},
			handler: s.deleteBone,
		},
	}
	for _, t := range tools {
		if err := s.registry.Register(t.def, t.handler); err != nil {
			return err
		}
	}
	return nil
}

type addBoneArgs struct {
	IfRevision *string       `json:"ifRevision"`
	Name       string        `json:"name"`
	Parent     string        `json:"parent"`
	Pivot      *project.Vec3 `json:"pivot"`
	Rotation   *project.Vec3 `json:"rotation"`
	Scale      *float64      `json:"scale"`
	Visibility *bool         `json:"visibility"`
}

func (s *Service) addBone(call *Call) mcp.ToolResponse {
	var args addBoneArgs
	if err := decodeArgs(call.Args, &args); err != nil {
		return mcp.FromError(err)
	}
	if err := call.Project.CheckRevision(args.IfRevision); err != nil {
		return mcp.FromError(err)
	}

	bone := project.Bone{
		Name:       args.Name,
		Parent:     args.Parent,
		Rotation:   args.Rotation,
		Scale:      args.Scale,
		Visibility: args.Visibility,
	}
	if args.Pivot != nil {
		bone.Pivot = *args.Pivot
	}
	rev, err := call.Project.AddBone(bone)
	if err != nil {
		return mcp.FromError(err)
	}
	return mcp.Success(map[string]any{"revision": rev})
}

type updateBoneArgs struct {
	IfRevision *string       `json:"ifRevision"`
	Name       string        `json:"name"`
	NewName    *string       `json:"newName"`
	Parent     *string       `json:"parent"`
	Pivot      *project.Vec3 `json:"pivot"`
	Rotation   *project.Vec3 `json:"rotation"`
	Scale      *float64      `json:"scale"`
	Visibility *bool         `json:"visibility"`
}

func (s *Service) updateBone(call *Call) mcp.ToolResponse {
	var args updateBoneArgs
	if err := decodeArgs(call.Args, &args); err != nil {
		return mcp.FromError(err)
	}
	if err := call.Project.CheckRevision(args.IfRevision); err != nil {
		return mcp.FromError(err)
	}

	rev, err := call.Project.UpdateBone(args.Name, project.BonePatch{
		Name:       args.NewName,
		Parent:     args.Parent,
		Pivot:      args.Pivot,
		Rotation:   args.Rotation,
		Scale:      args.Scale,
		Visibility: args.Visibility,
	})
	if err != nil {
		return mcp.FromError(err)
	}
	return mcp.Success(map[string]any{"revision": rev})
}

type deleteBoneArgs struct {
	IfRevision *string `json:"ifRevision"`
	Name       string  `json:"name"`
	Policy     string  `json:"policy"`
}

func (s *Service) deleteBone(call *Call) mcp.ToolResponse {
	var args deleteBoneArgs
	if err := decodeArgs(call.Args, &args); err != nil {
		return mcp.FromError(err)
	}
	if err := call.Project.CheckRevision(args.IfRevision); err != nil {
		return mcp.FromError(err)
	}

	rev, err := call.Project.DeleteBone(args.Name, args.Policy)
	if err != nil {
		return mcp.FromError(err)
	}
	return mcp.Success(map[string]any{"revision": rev})
}
