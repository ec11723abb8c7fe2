// cube_tools.go — Cube CRUD tools.
package tools

import (
	"github.com/ashfox/ashfox-mcp/internal/mcp"
	"github.com/ashfox/ashfox-mcp/internal/project"
)

func (s *Service) registerCubeTools() error {
	tools := []struct {
		def     mcp.Tool
		handler Handler
	}{
		{
			def: mcp.Tool{
				Name:        "add_cube",
				Description: "Attach a cube to a bone; from/to are finite floats, uv must fit the texture resolution",
				InputSchema: toolSchema(true, map[string]any{
					"name":    schemaString(),
					"bone":    schemaString(),
					"from":    schemaVec3(),
					"to":      schemaVec3(),
					"uv":      schemaNumberArray(2),
					"inflate": schemaNumber(),
					"mirror":  schemaBool(),
					"faces":   schemaFaces(),
				}, "name", "bone", "from", "to"),
			},
			handler: s.addCube,
		},
		{
			def: mcp.Tool{
				Name:        "update_cube",
				Description: "Patch cube fields by name",
				InputSchema: toolSchema(true, map[string]any{
					"name":    schemaString(),
					"newName": schemaString(),
					"bone":    schemaString(),
					"from":    schemaVec3(),
					"to":      schemaVec3(),
					"uv":      schemaNumberArray(2),
					"inflate": schemaNumber(),
					"mirror":  schemaBool(),
					"faces":   schemaFaces(),
				}, "name"),
			},
			handler: s.updateCube,
		},
		{
			def: mcp.Tool{
				Name:        "delete_cube",
				Description: "Remove a cube by name",
				InputSchema: toolSchema(true, map[string]any{
					"name": schemaString(),
				}, "name"),
			},
			handler: s.deleteCube,
		},
	}
	for _, t := range tools {
		if err := s.registry.Register(t.def, t.handler); err != nil {
			return err
		}
	}
	return nil
}

type addCubeArgs struct {
	IfRevision *string                 `json:"ifRevision"`
	Name       string                  `json:"name"`
	Bone       string                  `json:"bone"`
	From       project.Vec3            `json:"from"`
	To         project.Vec3            `json:"to"`
	UV         *[2]float64             `json:"uv"`
	Inflate    *float64                `json:"inflate"`
	Mirror     *bool                   `json:"mirror"`
	Faces      map[string]project.Face `json:"faces"`
}

func (s *Service) addCube(call *Call) mcp.ToolResponse {
	var args addCubeArgs
	if err := decodeArgs(call.Args, &args); err != nil {
		return mcp.FromError(err)
	}
	if err := call.Project.CheckRevision(args.IfRevision); err != nil {
		return mcp.FromError(err)
	}

	rev, err := call.Project.AddCube(project.Cube{
		Name:    args.Name,
		Bone:    args.Bone,
		From:    args.From,
		To:      args.To,
		UV:      args.UV,
		Inflate: args.Inflate,
		Mirror:  args.Mirror,
		Faces:   args.Faces,
	})
	if err != nil {
		return mcp.FromError(err)
	}
	return mcp.Success(map[string]any{"revision": rev})
}

type updateCubeArgs struct {
	IfRevision *string                 `json:"ifRevision"`
	Name       string                  `json:"name"`
	NewName    *string                 `json:"newName"`
	Bone       *string                 `json:"bone"`
	From       *project.Vec3           `json:"from"`
	To         *project.Vec3           `json:"to"`
	UV         *[2]float64             `json:"uv"`
	Inflate    *float64                `json:"inflate"`
	Mirror     *bool                   `json:"mirror"`
	Faces      map[string]project.Face `json:"faces"`
}

func (s *Service) updateCube(call *Call) mcp.ToolResponse {
	var args updateCubeArgs
	if err := decodeArgs(call.Args, &args); err != nil {
		return mcp.FromError(err)
	}
	if err := call.Project.CheckRevision(args.IfRevision); err != nil {
		return mcp.FromError(err)
	}

	rev, err := call.Project.UpdateCube(args.Name, project.CubePatch{
		Name:    args.NewName,
		Bone:    args.Bone,
		From:    args.From,
		To:      args.To,
		UV:      args.UV,
		Inflate: args.Inflate,
		Mirror:  args.Mirror,
		Faces:   args.Faces,
	})
	if err != nil {
		return mcp.FromError(err)
	}
	return mcp.Success(map[string]any{"revision": rev})
}

type deleteCubeArgs struct {
	IfRevision *string `json:"ifRevision"`
	Name       string  `json:"name"`
}

func (s *Service) deleteCube(call *Call) mcp.ToolResponse {
	var args deleteCubeArgs
	if err := decodeArgs(call.Args, &args); err != nil {
		return mcp.FromError(err)
	}
	if err := call.Project.CheckRevision(args.IfRevision); err != nil {
		return mcp.FromError(err)
	}

	rev, err := call.Project.DeleteCube(args.Name)
	if err != nil {
		return mcp.FromError(err)
	}
	return mcp.Success(map[string]any{"revision": rev})
}
