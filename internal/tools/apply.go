// apply.go — apply_model_spec planner and applier.
// A model spec describes a whole model in one document. The planner enumerates
// sub-operations in a deterministic order (bones parents-first, then cubes,
// textures, animations); the applier runs them under RunWithoutRevisionGuard
// after one outer revision assertion. Any sub-failure rolls the project back
// to the pre-call snapshot, so the batch is atomic.
package tools

import (
	"fmt"
	"sort"

	"github.com/ashfox/ashfox-mcp/internal/mcp"
	"github.com/ashfox/ashfox-mcp/internal/project"
)

type applyArgs struct {
	IfRevision *string   `json:"ifRevision"`
	Spec       modelSpec `json:"spec"`
	Replace    bool      `json:"replace"`
}

type modelSpec struct {
	Name             string              `json:"name"`
	Format           string              `json:"format"`
	FormatID         string              `json:"formatId"`
	UVPixelsPerBlock int                 `json:"uvPixelsPerBlock"`
	Bones            []project.Bone      `json:"bones"`
	Cubes            []project.Cube      `json:"cubes"`
	Textures         []project.Texture   `json:"textures"`
	Animations       []project.Animation `json:"animations"`
}

// applyOp is one planned sub-mutation.
type applyOp struct {
	desc string
	run  func(p *project.Project) error
}

func (s *Service) applyModelSpec(call *Call) mcp.ToolResponse {
	var args applyArgs
	if err := decodeArgs(call.Args, &args); err != nil {
		return mcp.FromError(err)
	}

	hadState := call.Project.HasState()
	if hadState {
		if err := call.Project.CheckRevision(args.IfRevision); err != nil {
			return mcp.FromError(err)
		}
	}

	ops := planOps(&args.Spec)
	pre := call.Project.Snapshot()

	var applied []string
	err := call.Project.RunWithoutRevisionGuard(func() error {
		if args.Replace || !hadState {
			name := args.Spec.Name
			if name == "" {
				name = "untitled"
			}
			if _, err := call.Project.Create(name, args.Spec.Format, args.Spec.FormatID, args.Spec.UVPixelsPerBlock); err != nil {
				return err
			}
		}
		for _, op := range ops {
			if err := op.run(call.Project); err != nil {
				return fmt.Errorf("%s: %w", op.desc, err)
			}
			applied = append(applied, op.desc)
		}
		return nil
	})
	if err != nil {
		rollback(call.Project, pre, hadState)
		resp := mcp.FromError(unwrapToolError(err))
		if resp.Err != nil {
			if resp.Err.Details == nil {
				resp.Err.Details = make(map[string]any)
			}
			resp.Err.Details["applied"] = applied
			resp.Err.Details["rolledBack"] = true
		}
		return resp
	}

	return mcp.Success(map[string]any{
		"revision": call.Project.Revision(),
		"applied":  len(ops),
	})
}

// rollback restores the pre-call snapshot. The snapshot was valid when taken,
// so re-seeding cannot fail; a session that had no project goes back to none.
func rollback(p *project.Project, pre *project.State, hadState bool) {
	if !hadState || pre == nil {
		p.Reset()
		return
	}
	_, _ = p.Seed(pre)
}

// unwrapToolError surfaces a wrapped *mcp.ToolError so its code survives the
// op-description prefix added by the applier.
func unwrapToolError(err error) error {
	e := err
	for e != nil {
		if te, ok := e.(*mcp.ToolError); ok {
			return &mcp.ToolError{Code: te.Code, Message: err.Error(), Fix: te.Fix, Details: te.Details}
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	return err
}

// planOps expands the spec into deterministic sub-operations.
func planOps(spec *modelSpec) []applyOp {
	var ops []applyOp

	for _, b := range sortBones(spec.Bones) {
		bone := b
		ops = append(ops, applyOp{
			desc: "add_bone " + bone.Name,
			run:  func(p *project.Project) error { _, err := p.AddBone(bone); return err },
		})
	}

	cubes := append([]project.Cube(nil), spec.Cubes...)
	sort.SliceStable(cubes, func(i, j int) bool {
		if cubes[i].Bone != cubes[j].Bone {
			return cubes[i].Bone < cubes[j].Bone
		}
		return cubes[i].Name < cubes[j].Name
	})
	for _, c := range cubes {
		cube := c
		ops = append(ops, applyOp{
			desc: "add_cube " + cube.Name,
			run:  func(p *project.Project) error { _, err := p.AddCube(cube); return err },
		})
	}

	textures := append([]project.Texture(nil), spec.Textures...)
	sort.SliceStable(textures, func(i, j int) bool { return textures[i].Name < textures[j].Name })
	for _, t := range textures {
		tex := t
		ops = append(ops, applyOp{
			desc: "create_texture " + tex.Name,
			run:  func(p *project.Project) error { _, err := p.AddTexture(tex); return err },
		})
	}

	animations := append([]project.Animation(nil), spec.Animations...)
	sort.SliceStable(animations, func(i, j int) bool { return animations[i].Name < animations[j].Name })
	for _, a := range animations {
		anim := a
		clip := anim
		clip.Channels = nil
		clip.Triggers = nil
		ops = append(ops, applyOp{
			desc: "create_animation " + clip.Name,
			run:  func(p *project.Project) error { _, err := p.AddAnimation(clip); return err },
		})

		channels := append([]project.Channel(nil), anim.Channels...)
		sort.SliceStable(channels, func(i, j int) bool {
			if channels[i].Bone != channels[j].Bone {
				return channels[i].Bone < channels[j].Bone
			}
			return channels[i].Channel < channels[j].Channel
		})
		for _, ch := range channels {
			track := ch
			ops = append(ops, applyOp{
				desc: fmt.Sprintf("set_keyframes %s/%s/%s", anim.Name, track.Bone, track.Channel),
				run: func(p *project.Project) error {
					_, err := p.SetKeyframes(anim.Name, track.Bone, track.Channel, track.Keys)
					return err
				},
			})
		}

		triggers := append([]project.Trigger(nil), anim.Triggers...)
		sort.SliceStable(triggers, func(i, j int) bool { return triggers[i].Type < triggers[j].Type })
		for _, tr := range triggers {
			trigger := tr
			ops = append(ops, applyOp{
				desc: fmt.Sprintf("set_triggers %s/%s", anim.Name, trigger.Type),
				run: func(p *project.Project) error {
					_, err := p.SetTriggers(anim.Name, trigger.Type, trigger.Keys)
					return err
				},
			})
		}
	}
	return ops
}

// sortBones orders bones parents-first, names as tiebreak. Bones whose parent
// chain never resolves sort last and fail with a missing-parent error when
// applied.
func sortBones(bones []project.Bone) []project.Bone {
	depth := make(map[string]int, len(bones))
	parent := make(map[string]string, len(bones))
	for _, b := range bones {
		parent[b.Name] = b.Parent
	}
	var resolve func(name string, hops int) int
	resolve = func(name string, hops int) int {
		if hops > len(bones) {
			return len(bones) + 1
		}
		if d, ok := depth[name]; ok {
			return d
		}
		p := parent[name]
		if p == "" {
			depth[name] = 0
			return 0
		}
		if _, known := parent[p]; !known {
			depth[name] = 0
			return 0
		}
		d := resolve(p, hops+1) + 1
		depth[name] = d
		return d
	}
	for _, b := range bones {
		resolve(b.Name, 0)
	}

	out := append([]project.Bone(nil), bones...)
	sort.SliceStable(out, func(i, j int) bool {
		if depth[out[i].Name] != depth[out[j].Name] {
			return depth[out[i].Name] < depth[out[j].Name]
		}
		return out[i].Name < out[j].Name
	})
	return out
}
