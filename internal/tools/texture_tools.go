// texture_tools.go — Texture CRUD tools.
package tools

import (
	"github.com/ashfox/ashfox-mcp/internal/mcp"
	"github.com/ashfox/ashfox-mcp/internal/project"
)

func (s *Service) registerTextureTools() error {
	tools := []struct {
		def     mcp.Tool
		handler Handler
	}{
		{
			def: mcp.Tool{
				Name:        "create_texture",
				Description: "Register a texture with its dimensions; used for UV fit validation",
				InputSchema: toolSchema(true, map[string]any{
					"name":        schemaString(),
					"width":       schemaInteger(),
					"height":      schemaInteger(),
					"contentHash": schemaString(),
				}, "name", "width", "height"),
			},
			handler: s.createTexture,
		},
		{
			def: mcp.Tool{
				Name:        "update_texture",
				Description: "Replace a texture's dimensions or content; identical hash and dimensions is a no-op",
				InputSchema: toolSchema(true, map[string]any{
					"name":        schemaString(),
					"width":       schemaInteger(),
					"height":      schemaInteger(),
					"contentHash": schemaString(),
				}, "name", "width", "height"),
			},
			handler: s.updateTexture,
		},
		{
			def: mcp.Tool{
				Name:        "delete_texture",
				Description: "Remove a texture by name",
				InputSchema: toolSchema(true, map[string]any{
					"name": schemaString(),
				}, "name"),
			},
			handler: s.deleteTexture,
		},
	}
	for _, t := range tools {
		if err := s.registry.Register(t.def, t.handler); err != nil {
			return err
		}
	}
	return nil
}

type textureArgs struct {
	IfRevision  *string `json:"ifRevision"`
	Name        string  `json:"name"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	ContentHash string  `json:"contentHash"`
}

func (s *Service) createTexture(call *Call) mcp.ToolResponse {
	var args textureArgs
	if err := decodeArgs(call.Args, &args); err != nil {
		return mcp.FromError(err)
	}
	if err := call.Project.CheckRevision(args.IfRevision); err != nil {
		return mcp.FromError(err)
	}

	rev, err := call.Project.AddTexture(project.Texture{
		Name:        args.Name,
		Width:       args.Width,
		Height:      args.Height,
		ContentHash: args.ContentHash,
	})
	if err != nil {
		return mcp.FromError(err)
	}
	return mcp.Success(map[string]any{"revision": rev})
}

func (s *Service) updateTexture(call *Call) mcp.ToolResponse {
	var args textureArgs
	if err := decodeArgs(call.Args, &args); err != nil {
		return mcp.FromError(err)
	}
	if err := call.Project.CheckRevision(args.IfRevision); err != nil {
		return mcp.FromError(err)
	}

	rev, noChange, err := call.Project.UpdateTexture(args.Name, args.Width, args.Height, args.ContentHash)
	if err != nil {
		return mcp.FromError(err)
	}
	return mcp.Success(map[string]any{"revision": rev, "noChange": noChange})
}

type deleteTextureArgs struct {
	IfRevision *string `json:"ifRevision"`
	Name       string  `json:"name"`
}

func (s *Service) deleteTexture(call *Call) mcp.ToolResponse {
	var args deleteTextureArgs
	if err := decodeArgs(call.Args, &args); err != nil {
		return mcp.FromError(err)
	}
	if err := call.Project.CheckRevision(args.IfRevision); err != nil {
		return mcp.FromError(err)
	}

	rev, err := call.Project.DeleteTexture(args.Name)
	if err != nil {
		return mcp.FromError(err)
	}
	return mcp.Success(map[string]any{"revision": rev})
}
