// animation_tools.go — Animation clip and keyframe tools.
package tools

import (
	"github.com/ashfox/ashfox-mcp/internal/mcp"
	"github.com/ashfox/ashfox-mcp/internal/project"
)

func (s *Service) registerAnimationTools() error {
	tools := []struct {
		def     mcp.Tool
		handler Handler
	}{
		{
			def: mcp.Tool{
				Name:        "create_animation",
				Description: "Create an animation clip; length and fps must be positive",
				InputSchema: toolSchema(true, map[string]any{
					"name":   schemaString(),
					"length": schemaNumber(),
					"loop":   schemaBool(),
					"fps":    schemaNumber(),
				}, "name", "length", "fps"),
			},
			handler: s.createAnimation,
		},
		{
			def: mcp.Tool{
				Name:        "update_animation",
				Description: "Patch clip length, loop, or fps",
				InputSchema: toolSchema(true, map[string]any{
					"name":   schemaString(),
					"length": schemaNumber(),
					"loop":   schemaBool(),
					"fps":    schemaNumber(),
				}, "name"),
			},
			handler: s.updateAnimation,
		},
		{
			def: mcp.Tool{
				Name:        "delete_animation",
				Description: "Remove an animation clip by name",
				InputSchema: toolSchema(true, map[string]any{
					"name": schemaString(),
				}, "name"),
			},
			handler: s.deleteAnimation,
		},
		{
			def: mcp.Tool{
				Name:        "set_keyframes",
				Description: "Set keyframes on a (bone, channel) track; times in the same bucket merge last-write-wins",
				InputSchema: toolSchema(true, map[string]any{
					"animation": schemaString(),
					"bone":      schemaString(),
					"channel":   schemaEnum("rot", "pos", "scale"),
					"keys":      schemaKeyframes(),
				}, "animation", "bone", "channel", "keys"),
			},
			handler: s.setKeyframes,
		},
	}
	for _, t := range tools {
		if err := s.registry.Register(t.def, t.handler); err != nil {
			return err
		}
	}
	return nil
}

type animationArgs struct {
	IfRevision *string  `json:"ifRevision"`
	Name       string   `json:"name"`
	Length     *float64 `json:"length"`
	Loop       *bool    `json:"loop"`
	FPS        *float64 `json:"fps"`
}

func (s *Service) createAnimation(call *Call) mcp.ToolResponse {
	var args animationArgs
	if err := decodeArgs(call.Args, &args); err != nil {
		return mcp.FromError(err)
	}
	if err := call.Project.CheckRevision(args.IfRevision); err != nil {
		return mcp.FromError(err)
	}

	anim := project.Animation{Name: args.Name}
	if args.Length != nil {
		anim.Length = *args.Length
	}
	if args.Loop != nil {
		anim.Loop = *args.Loop
	}
	if args.FPS != nil {
		anim.FPS = *args.FPS
	}
	rev, err := call.Project.AddAnimation(anim)
	if err != nil {
		return mcp.FromError(err)
	}
	return mcp.Success(map[string]any{"revision": rev})
}

func (s *Service) updateAnimation(call *Call) mcp.ToolResponse {
	var args animationArgs
	if err := decodeArgs(call.Args, &args); err != nil {
		return mcp.FromError(err)
	}
	if err := call.Project.CheckRevision(args.IfRevision); err != nil {
		return mcp.FromError(err)
	}

	rev, err := call.Project.UpdateAnimation(args.Name, args.Length, args.Loop, args.FPS)
	if err != nil {
		return mcp.FromError(err)
	}
	return mcp.Success(map[string]any{"revision": rev})
}

type deleteAnimationArgs struct {
	IfRevision *string `json:"ifRevision"`
	Name       string  `json:"name"`
}

func (s *Service) deleteAnimation(call *Call) mcp.ToolResponse {
	var args deleteAnimationArgs
	if err := decodeArgs(call.Args, &args); err != nil {
		return mcp.FromError(err)
	}
	if err := call.Project.CheckRevision(args.IfRevision); err != nil {
		return mcp.FromError(err)
	}

	rev, err := call.Project.DeleteAnimation(args.Name)
	if err != nil {
		return mcp.FromError(err)
	}
	return mcp.Success(map[string]any{"revision": rev})
}

type setKeyframesArgs struct {
	IfRevision *string           `json:"ifRevision"`
	Animation  string            `json:"animation"`
	Bone       string            `json:"bone"`
	Channel    string            `json:"channel"`
	Keys       []project.Keyframe `json:"keys"`
}

func (s *Service) setKeyframes(call *Call) mcp.ToolResponse {
	var args setKeyframesArgs
	if err := decodeArgs(call.Args, &args); err != nil {
		return mcp.FromError(err)
	}
	if err := call.Project.CheckRevision(args.IfRevision); err != nil {
		return mcp.FromError(err)
	}

	rev, err := call.Project.SetKeyframes(args.Animation, args.Bone, args.Channel, args.Keys)
	if err != nil {
		return mcp.FromError(err)
	}
	return mcp.Success(map[string]any{"revision": rev})
}
