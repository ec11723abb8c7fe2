// project.go — Revision-guarded project container.
// A Project owns one State plus its revision token. It is NOT internally
// locked: the owning session serializes access with its mutation mutex for
// the duration of a tool call.
package project

import (
	"math"

	"github.com/google/uuid"

	"github.com/ashfox/ashfox-mcp/internal/mcp"
)

// Project is the session-scoped model plus revision bookkeeping.
type Project struct {
	state           *State
	revision        string
	limits          Limits
	requireRevision bool
	guardDepth      int
}

// New creates an empty project container. No state exists until Create or
// Seed runs.
func New(limits Limits, requireRevision bool) *Project {
	if limits.MaxCubes <= 0 {
		limits = DefaultLimits()
	}
	return &Project{limits: limits, requireRevision: requireRevision}
}

// HasState reports whether a project model exists.
func (p *Project) HasState() bool { return p.state != nil }

// Revision returns the current revision token, or "" when no state exists.
func (p *Project) Revision() string { return p.revision }

// Limits returns the configured model limits.
func (p *Project) Limits() Limits { return p.limits }

// Snapshot returns a deep copy of the normalized state, or nil.
func (p *Project) Snapshot() *State {
	if p.state == nil {
		return nil
	}
	return p.state.Clone()
}

// Summary returns the compact state summary attached to responses.
func (p *Project) Summary() *Summary {
	if p.state == nil {
		return nil
	}
	return &Summary{
		ID:         p.state.ID,
		Name:       p.state.Name,
		FormatID:   p.state.FormatID,
		Dirty:      p.state.Dirty,
		Bones:      len(p.state.Bones),
		Cubes:      len(p.state.Cubes),
		Textures:   len(p.state.Textures),
		Animations: len(p.state.Animations),
		Revision:   p.revision,
	}
}

// Reset drops the project model entirely.
func (p *Project) Reset() {
	p.state = nil
	p.revision = ""
}

// Create initializes a fresh project model.
func (p *Project) Create(name, format, formatID string, uvPixelsPerBlock int) (string, error) {
	if name == "" {
		return "", &mcp.ToolError{Code: mcp.ErrInvalidPayload, Message: "project name required"}
	}
	if uvPixelsPerBlock <= 0 {
		uvPixelsPerBlock = 16
	}
	state := &State{
		ID:               uuid.NewString(),
		Name:             name,
		Format:           format,
		FormatID:         formatID,
		UVPixelsPerBlock: uvPixelsPerBlock,
		TimePolicy:       DefaultTimePolicy(),
	}
	state.Normalize()
	p.state = state
	p.revision = ComputeRevision(state)
	return p.revision, nil
}

// Seed installs a snapshot (for example from SnapshotPort.ReadSnapshot),
// normalizing and rehashing it. Entities without ids are assigned one.
func (p *Project) Seed(state *State) (string, error) {
	if state == nil {
		return "", &mcp.ToolError{Code: mcp.ErrInvalidState, Message: "no snapshot available"}
	}
	clone := state.Clone()
	if clone.ID == "" {
		clone.ID = uuid.NewString()
	}
	assignIDs(clone)
	if err := validate(clone, p.limits); err != nil {
		return "", err
	}
	clone.Normalize()
	p.state = clone
	p.revision = ComputeRevision(clone)
	return p.revision, nil
}

// Merge overlays a snapshot onto the current state: entities matched by name
// are replaced, unmatched snapshot entities are added, existing entities not
// present in the snapshot are kept.
func (p *Project) Merge(snapshot *State) (string, error) {
	if snapshot == nil {
		return "", &mcp.ToolError{Code: mcp.ErrInvalidState, Message: "no snapshot to merge"}
	}
	if p.state == nil {
		return p.Seed(snapshot)
	}
	return p.Mutate(func(s *State) error {
		for _, b := range snapshot.Bones {
			if existing := s.BoneByName(b.Name); existing != nil {
				id := existing.ID
				*existing = b
				existing.ID = id
			} else {
				s.Bones = append(s.Bones, b)
			}
		}
		for _, c := range snapshot.Cubes {
			replaced := false
			for i := range s.Cubes {
				if s.Cubes[i].Name == c.Name && s.Cubes[i].Bone == c.Bone {
					id := s.Cubes[i].ID
					s.Cubes[i] = c
					s.Cubes[i].ID = id
					replaced = true
					break
				}
			}
			if !replaced {
				s.Cubes = append(s.Cubes, c)
			}
		}
		for _, t := range snapshot.Textures {
			if existing := s.TextureByName(t.Name); existing != nil {
				id := existing.ID
				*existing = t
				existing.ID = id
			} else {
				s.Textures = append(s.Textures, t)
			}
		}
		for _, a := range snapshot.Animations {
			if existing := s.AnimationByName(a.Name); existing != nil {
				id := existing.ID
				*existing = a
				existing.ID = id
			} else {
				s.Animations = append(s.Animations, a)
			}
		}
		assignIDs(s)
		return nil
	})
}

// Mutate applies fn to a clone of the state and commits it atomically:
// validate, normalize, rehash, swap. A failed mutation leaves the project
// untouched. The revision changes iff the semantic state changed.
func (p *Project) Mutate(fn func(*State) error) (string, error) {
	if p.state == nil {
		return "", &mcp.ToolError{
			Code:    mcp.ErrInvalidState,
			Message: "no active project",
			Fix:     "call create_project first",
		}
	}
	working := p.state.Clone()
	if err := fn(working); err != nil {
		return "", err
	}
	if err := validate(working, p.limits); err != nil {
		return "", err
	}
	working.Normalize()
	p.state = working
	p.revision = ComputeRevision(working)
	return p.revision, nil
}

// assignIDs mints ids for entities that lack one.
func assignIDs(s *State) {
	for i := range s.Bones {
		if s.Bones[i].ID == "" {
			s.Bones[i].ID = uuid.NewString()
		}
	}
	for i := range s.Cubes {
		if s.Cubes[i].ID == "" {
			s.Cubes[i].ID = uuid.NewString()
		}
	}
	for i := range s.Textures {
		if s.Textures[i].ID == "" {
			s.Textures[i].ID = uuid.NewString()
		}
	}
	for i := range s.Animations {
		if s.Animations[i].ID == "" {
			s.Animations[i].ID = uuid.NewString()
		}
	}
}

// validate enforces the model invariants after every mutation.
func validate(s *State, limits Limits) error {
	boneNames := make(map[string]bool, len(s.Bones))
	for i := range s.Bones {
		b := &s.Bones[i]
		if b.Name == "" {
			return &mcp.ToolError{Code: mcp.ErrInvalidPayload, Message: "bone name required"}
		}
		if boneNames[b.Name] {
			return &mcp.ToolError{Code: mcp.ErrInvalidPayload, Message: "duplicate bone name: " + b.Name}
		}
		boneNames[b.Name] = true
		if !finiteVec(b.Pivot) {
			return &mcp.ToolError{Code: mcp.ErrInvalidPayload, Message: "bone pivot must be finite: " + b.Name}
		}
	}
	for i := range s.Bones {
		if parent := s.Bones[i].Parent; parent != "" && !boneNames[parent] {
			return &mcp.ToolError{Code: mcp.ErrInvalidPayload,
				Message: "bone " + s.Bones[i].Name + " references missing parent " + parent}
		}
	}

	if limits.MaxCubes > 0 && len(s.Cubes) > limits.MaxCubes {
		return &mcp.ToolError{Code: mcp.ErrInvalidState,
			Message: "cube limit exceeded",
			Details: map[string]any{"maxCubes": limits.MaxCubes, "cubes": len(s.Cubes)}}
	}
	cubeKeys := make(map[string]bool, len(s.Cubes))
	for i := range s.Cubes {
		c := &s.Cubes[i]
		if c.Name == "" {
			return &mcp.ToolError{Code: mcp.ErrInvalidPayload, Message: "cube name required"}
		}
		if !boneNames[c.Bone] {
			return &mcp.ToolError{Code: mcp.ErrInvalidPayload,
				Message: "cube " + c.Name + " references missing bone " + c.Bone}
		}
		key := c.Bone + "\x00" + c.Name
		if cubeKeys[key] {
			return &mcp.ToolError{Code: mcp.ErrInvalidPayload,
				Message: "duplicate cube name on bone " + c.Bone + ": " + c.Name}
		}
		cubeKeys[key] = true
		if !finiteVec(c.From) || !finiteVec(c.To) {
			return &mcp.ToolError{Code: mcp.ErrInvalidPayload, Message: "cube bounds must be finite: " + c.Name}
		}
		if c.UV != nil {
			if err := validateCubeUV(s, c); err != nil {
				return err
			}
		}
	}

	texNames := make(map[string]bool, len(s.Textures))
	for i := range s.Textures {
		t := &s.Textures[i]
		if t.Name == "" {
			return &mcp.ToolError{Code: mcp.ErrInvalidPayload, Message: "texture name required"}
		}
		if texNames[t.Name] {
			return &mcp.ToolError{Code: mcp.ErrInvalidPayload, Message: "duplicate texture name: " + t.Name}
		}
		texNames[t.Name] = true
		if t.Width <= 0 || t.Height <= 0 {
			return &mcp.ToolError{Code: mcp.ErrInvalidPayload,
				Message: "texture dimensions must be positive: " + t.Name}
		}
		if limits.MaxTextureSize > 0 && (t.Width > limits.MaxTextureSize || t.Height > limits.MaxTextureSize) {
			return &mcp.ToolError{Code: mcp.ErrInvalidState,
				Message: "texture exceeds size limit: " + t.Name,
				Details: map[string]any{"maxTextureSize": limits.MaxTextureSize}}
		}
	}

	animNames := make(map[string]bool, len(s.Animations))
	for i := range s.Animations {
		a := &s.Animations[i]
		if a.Name == "" {
			return &mcp.ToolError{Code: mcp.ErrInvalidPayload, Message: "animation name required"}
		}
		if animNames[a.Name] {
			return &mcp.ToolError{Code: mcp.ErrInvalidPayload, Message: "duplicate animation name: " + a.Name}
		}
		animNames[a.Name] = true
		if a.Length <= 0 {
			return &mcp.ToolError{Code: mcp.ErrInvalidPayload, Message: "animation length must be > 0: " + a.Name}
		}
		if a.FPS <= 0 {
			return &mcp.ToolError{Code: mcp.ErrInvalidPayload, Message: "animation fps must be > 0: " + a.Name}
		}
		if limits.MaxAnimationSeconds > 0 && a.Length > limits.MaxAnimationSeconds {
			return &mcp.ToolError{Code: mcp.ErrInvalidState,
				Message: "animation exceeds length limit: " + a.Name,
				Details: map[string]any{"maxAnimationSeconds": limits.MaxAnimationSeconds}}
		}
		for ci := range a.Channels {
			ch := &a.Channels[ci]
			if !boneNames[ch.Bone] {
				return &mcp.ToolError{Code: mcp.ErrInvalidPayload,
					Message: "channel references missing bone " + ch.Bone + " in " + a.Name}
			}
			switch ch.Channel {
			case ChannelRotation, ChannelPosition, ChannelScale:
			default:
				return &mcp.ToolError{Code: mcp.ErrInvalidPayload,
					Message: "unknown channel type: " + ch.Channel}
			}
			for ki := range ch.Keys {
				if !finite(ch.Keys[ki].Time) || !finiteVec(ch.Keys[ki].Value) {
					return &mcp.ToolError{Code: mcp.ErrInvalidPayload,
						Message: "keyframe values must be finite in " + a.Name}
				}
			}
		}
		for ti := range a.Triggers {
			switch a.Triggers[ti].Type {
			case TriggerSound, TriggerParticle, TriggerTimeline:
			default:
				return &mcp.ToolError{Code: mcp.ErrInvalidPayload,
					Message: "unknown trigger type: " + a.Triggers[ti].Type}
			}
		}
	}
	return nil
}

// validateCubeUV checks that a cube's uv offset fits inside the project's
// texture resolution. With no textures there is nothing to fit against.
func validateCubeUV(s *State, c *Cube) error {
	if len(s.Textures) == 0 {
		return nil
	}
	maxW, maxH := 0, 0
	for i := range s.Textures {
		if s.Textures[i].Width > maxW {
			maxW = s.Textures[i].Width
		}
		if s.Textures[i].Height > maxH {
			maxH = s.Textures[i].Height
		}
	}
	if c.UV[0] < 0 || c.UV[1] < 0 || c.UV[0] >= float64(maxW) || c.UV[1] >= float64(maxH) {
		return &mcp.ToolError{Code: mcp.ErrInvalidPayload,
			Message: "cube uv outside texture resolution: " + c.Name,
			Details: map[string]any{"uv": c.UV, "textureWidth": maxW, "textureHeight": maxH}}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func finiteVec(v Vec3) bool {
	return finite(v[0]) && finite(v[1]) && finite(v[2])
}
