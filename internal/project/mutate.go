// mutate.go — Named mutators over the project model.
// Each mutator is one atomic Mutate call: validation failures roll back
// wholesale and the revision bumps at most once per call.
package project

import (
	"github.com/google/uuid"

	"github.com/ashfox/ashfox-mcp/internal/mcp"
)

// Bone delete policies.
const (
	DeleteCascade  = "cascade"
	DeleteReparent = "reparent"
)

// BonePatch carries optional bone field updates. Nil fields are untouched.
type BonePatch struct {
	Name       *string  `json:"name,omitempty"`
	Parent     *string  `json:"parent,omitempty"`
	Pivot      *Vec3    `json:"pivot,omitempty"`
	Rotation   *Vec3    `json:"rotation,omitempty"`
	Scale      *float64 `json:"scale,omitempty"`
	Visibility *bool    `json:"visibility,omitempty"`
}

// CubePatch carries optional cube field updates.
type CubePatch struct {
	Name    *string         `json:"name,omitempty"`
	Bone    *string         `json:"bone,omitempty"`
	From    *Vec3           `json:"from,omitempty"`
	To      *Vec3           `json:"to,omitempty"`
	UV      *[2]float64     `json:"uv,omitempty"`
	Inflate *float64        `json:"inflate,omitempty"`
	Mirror  *bool           `json:"mirror,omitempty"`
	Faces   map[string]Face `json:"faces,omitempty"`
}

// AddBone appends a bone. Names must stay unique (validated on commit).
func (p *Project) AddBone(b Bone) (string, error) {
	return p.Mutate(func(s *State) error {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		s.Bones = append(s.Bones, b)
		s.Dirty = true
		return nil
	})
}

// UpdateBone applies a patch to the named bone. Renames ripple into cube
// attachments, child parents, and animation channels.
func (p *Project) UpdateBone(name string, patch BonePatch) (string, error) {
	return p.Mutate(func(s *State) error {
		bone := s.BoneByName(name)
		if bone == nil {
			return &mcp.ToolError{Code: mcp.ErrInvalidState, Message: "bone not found: " + name,
				Fix: "call get_project_state to list bones"}
		}
		if patch.Parent != nil {
			bone.Parent = *patch.Parent
		}
		if patch.Pivot != nil {
			bone.Pivot = *patch.Pivot
		}
		if patch.Rotation != nil {
			bone.Rotation = patch.Rotation
		}
		if patch.Scale != nil {
			bone.Scale = patch.Scale
		}
		if patch.Visibility != nil {
			bone.Visibility = patch.Visibility
		}
		if patch.Name != nil && *patch.Name != name {
			renameBone(s, name, *patch.Name)
		}
		s.Dirty = true
		return nil
	})
}

// DeleteBone removes the named bone and handles its subtree per policy:
// cascade (default) deletes descendant bones and all their cubes; reparent
// moves direct children and cubes up to the deleted bone's parent.
func (p *Project) DeleteBone(name, policy string) (string, error) {
	if policy == "" {
		policy = DeleteCascade
	}
	if policy != DeleteCascade && policy != DeleteReparent {
		return "", &mcp.ToolError{Code: mcp.ErrInvalidPayload, Message: "unknown delete policy: " + policy}
	}
	return p.Mutate(func(s *State) error {
		if s.BoneByName(name) == nil {
			return &mcp.ToolError{Code: mcp.ErrInvalidState, Message: "bone not found: " + name}
		}
		switch policy {
		case DeleteReparent:
			parent := s.BoneByName(name).Parent
			for i := range s.Bones {
				if s.Bones[i].Parent == name {
					s.Bones[i].Parent = parent
				}
			}
			for i := range s.Cubes {
				if s.Cubes[i].Bone == name {
					if parent == "" {
						// No root to fall back to: the cube goes with the bone.
						continue
					}
					s.Cubes[i].Bone = parent
				}
			}
			if parent == "" {
				removeCubesFor(s, map[string]bool{name: true})
			}
			removeBones(s, map[string]bool{name: true})
			removeChannelsFor(s, map[string]bool{name: true})
		case DeleteCascade:
			doomed := descendantSet(s, name)
			doomed[name] = true
			removeCubesFor(s, doomed)
			removeBones(s, doomed)
			removeChannelsFor(s, doomed)
		}
		s.Dirty = true
		return nil
	})
}

// AddCube appends a cube to an existing bone.
func (p *Project) AddCube(c Cube) (string, error) {
	return p.Mutate(func(s *State) error {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		s.Cubes = append(s.Cubes, c)
		s.Dirty = true
		return nil
	})
}

// UpdateCube applies a patch to the named cube.
func (p *Project) UpdateCube(name string, patch CubePatch) (string, error) {
	return p.Mutate(func(s *State) error {
		var cube *Cube
		for i := range s.Cubes {
			if s.Cubes[i].Name == name {
				cube = &s.Cubes[i]
				break
			}
		}
		if cube == nil {
			return &mcp.ToolError{Code: mcp.ErrInvalidState, Message: "cube not found: " + name}
		}
		if patch.Name != nil {
			cube.Name = *patch.Name
		}
		if patch.Bone != nil {
			cube.Bone = *patch.Bone
		}
		if patch.From != nil {
			cube.From = *patch.From
		}
		if patch.To != nil {
			cube.To = *patch.To
		}
		if patch.UV != nil {
			cube.UV = patch.UV
		}
		if patch.Inflate != nil {
			cube.Inflate = patch.Inflate
		}
		if patch.Mirror != nil {
			cube.Mirror = patch.Mirror
		}
		if patch.Faces != nil {
			cube.Faces = patch.Faces
		}
		s.Dirty = true
		return nil
	})
}

// DeleteCube removes the named cube.
func (p *Project) DeleteCube(name string) (string, error) {
	return p.Mutate(func(s *State) error {
		for i := range s.Cubes {
			if s.Cubes[i].Name == name {
				s.Cubes = append(s.Cubes[:i], s.Cubes[i+1:]...)
				s.Dirty = true
				return nil
			}
		}
		return &mcp.ToolError{Code: mcp.ErrInvalidState, Message: "cube not found: " + name}
	})
}

// AddTexture registers a texture slot.
func (p *Project) AddTexture(t Texture) (string, error) {
	return p.Mutate(func(s *State) error {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		s.Textures = append(s.Textures, t)
		s.Dirty = true
		return nil
	})
}

// UpdateTexture replaces a texture's dimensions and content hash. When the
// replacement is byte-identical (same hash, same dimensions) nothing commits
// and noChange is true; the revision does not move.
func (p *Project) UpdateTexture(name string, width, height int, contentHash string) (revision string, noChange bool, err error) {
	if p.state != nil {
		if existing := p.state.TextureByName(name); existing != nil &&
			existing.ContentHash == contentHash && contentHash != "" &&
			existing.Width == width && existing.Height == height {
			return p.revision, true, nil
		}
	}
	revision, err = p.Mutate(func(s *State) error {
		tex := s.TextureByName(name)
		if tex == nil {
			return &mcp.ToolError{Code: mcp.ErrInvalidState, Message: "texture not found: " + name}
		}
		tex.Width = width
		tex.Height = height
		tex.ContentHash = contentHash
		s.Dirty = true
		return nil
	})
	return revision, false, err
}

// DeleteTexture removes the named texture.
func (p *Project) DeleteTexture(name string) (string, error) {
	return p.Mutate(func(s *State) error {
		for i := range s.Textures {
			if s.Textures[i].Name == name {
				s.Textures = append(s.Textures[:i], s.Textures[i+1:]...)
				s.Dirty = true
				return nil
			}
		}
		return &mcp.ToolError{Code: mcp.ErrInvalidState, Message: "texture not found: " + name}
	})
}

// AddAnimation registers a clip.
func (p *Project) AddAnimation(a Animation) (string, error) {
	return p.Mutate(func(s *State) error {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		s.Animations = append(s.Animations, a)
		s.Dirty = true
		return nil
	})
}

// UpdateAnimation replaces clip-level fields of the named animation.
func (p *Project) UpdateAnimation(name string, length *float64, loop *bool, fps *float64) (string, error) {
	return p.Mutate(func(s *State) error {
		anim := s.AnimationByName(name)
		if anim == nil {
			return &mcp.ToolError{Code: mcp.ErrInvalidState, Message: "animation not found: " + name}
		}
		if length != nil {
			anim.Length = *length
		}
		if loop != nil {
			anim.Loop = *loop
		}
		if fps != nil {
			anim.FPS = *fps
		}
		s.Dirty = true
		return nil
	})
}

// DeleteAnimation removes the named clip.
func (p *Project) DeleteAnimation(name string) (string, error) {
	return p.Mutate(func(s *State) error {
		for i := range s.Animations {
			if s.Animations[i].Name == name {
				s.Animations = append(s.Animations[:i], s.Animations[i+1:]...)
				s.Dirty = true
				return nil
			}
		}
		return &mcp.ToolError{Code: mcp.ErrInvalidState, Message: "animation not found: " + name}
	})
}

// SetKeyframes merges keys into the (bone, channel) track of an animation.
// Times landing in an occupied bucket replace that key; others insert in time
// order. The channel is created on first use.
func (p *Project) SetKeyframes(animation, bone, channel string, keys []Keyframe) (string, error) {
	return p.Mutate(func(s *State) error {
		anim := s.AnimationByName(animation)
		if anim == nil {
			return &mcp.ToolError{Code: mcp.ErrInvalidState, Message: "animation not found: " + animation}
		}
		var track *Channel
		for i := range anim.Channels {
			if anim.Channels[i].Bone == bone && anim.Channels[i].Channel == channel {
				track = &anim.Channels[i]
				break
			}
		}
		if track == nil {
			anim.Channels = append(anim.Channels, Channel{Bone: bone, Channel: channel})
			track = &anim.Channels[len(anim.Channels)-1]
		}
		track.Keys = append(track.Keys, keys...)
		// Normalize buckets and merges on commit.
		s.Dirty = true
		return nil
	})
}

// SetTriggers merges trigger keys into the typed trigger track.
func (p *Project) SetTriggers(animation, triggerType string, keys []TriggerKey) (string, error) {
	return p.Mutate(func(s *State) error {
		anim := s.AnimationByName(animation)
		if anim == nil {
			return &mcp.ToolError{Code: mcp.ErrInvalidState, Message: "animation not found: " + animation}
		}
		var track *Trigger
		for i := range anim.Triggers {
			if anim.Triggers[i].Type == triggerType {
				track = &anim.Triggers[i]
				break
			}
		}
		if track == nil {
			anim.Triggers = append(anim.Triggers, Trigger{Type: triggerType})
			track = &anim.Triggers[len(anim.Triggers)-1]
		}
		track.Keys = append(track.Keys, keys...)
		s.Dirty = true
		return nil
	})
}

// MarkClean clears the dirty flag (after a successful export/save).
func (p *Project) MarkClean() {
	if p.state != nil {
		p.state.Dirty = false
	}
}

func renameBone(s *State, from, to string) {
	for i := range s.Bones {
		if s.Bones[i].Name == from {
			s.Bones[i].Name = to
		}
		if s.Bones[i].Parent == from {
			s.Bones[i].Parent = to
		}
	}
	for i := range s.Cubes {
		if s.Cubes[i].Bone == from {
			s.Cubes[i].Bone = to
		}
	}
	for ai := range s.Animations {
		for ci := range s.Animations[ai].Channels {
			if s.Animations[ai].Channels[ci].Bone == from {
				s.Animations[ai].Channels[ci].Bone = to
			}
		}
	}
}

func descendantSet(s *State, root string) map[string]bool {
	children := make(map[string][]string, len(s.Bones))
	for i := range s.Bones {
		children[s.Bones[i].Parent] = append(children[s.Bones[i].Parent], s.Bones[i].Name)
	}
	doomed := make(map[string]bool)
	queue := append([]string(nil), children[root]...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if doomed[name] {
			continue
		}
		doomed[name] = true
		queue = append(queue, children[name]...)
	}
	return doomed
}

func removeBones(s *State, names map[string]bool) {
	kept := s.Bones[:0]
	for _, b := range s.Bones {
		if !names[b.Name] {
			kept = append(kept, b)
		}
	}
	s.Bones = kept
}

func removeCubesFor(s *State, bones map[string]bool) {
	kept := s.Cubes[:0]
	for _, c := range s.Cubes {
		if !bones[c.Bone] {
			kept = append(kept, c)
		}
	}
	s.Cubes = kept
}

func removeChannelsFor(s *State, bones map[string]bool) {
	for ai := range s.Animations {
		kept := s.Animations[ai].Channels[:0]
		for _, ch := range s.Animations[ai].Channels {
			if !bones[ch.Bone] {
				kept = append(kept, ch)
			}
		}
		s.Animations[ai].Channels = kept
	}
}
