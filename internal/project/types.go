// types.go — Session-scoped project model: bones, cubes, textures, animations.
// The State value is plain data; all invariants are enforced by the mutators
// in mutate.go and the normalization pass in normalize.go.
package project

// Vec3 is an xyz float triple.
type Vec3 [3]float64

// Channel attribute names.
const (
	ChannelRotation = "rot"
	ChannelPosition = "pos"
	ChannelScale    = "scale"
)

// Trigger types.
const (
	TriggerSound    = "sound"
	TriggerParticle = "particle"
	TriggerTimeline = "timeline"
)

// Bone is a node in the skeleton tree. Names are unique within a project.
type Bone struct {
	ID         string   `json:"id,omitempty"`
	Name       string   `json:"name"`
	Parent     string   `json:"parent,omitempty"`
	Pivot      Vec3     `json:"pivot"`
	Rotation   *Vec3    `json:"rotation,omitempty"`
	Scale      *float64 `json:"scale,omitempty"`
	Visibility *bool    `json:"visibility,omitempty"`
}

// Face holds per-face UV data for a cube.
type Face struct {
	UV      *[4]float64 `json:"uv,omitempty"`
	Texture string      `json:"texture,omitempty"`
}

// Cube is an axis-aligned box attached to a bone.
type Cube struct {
	ID      string          `json:"id,omitempty"`
	Name    string          `json:"name"`
	Bone    string          `json:"bone"`
	From    Vec3            `json:"from"`
	To      Vec3            `json:"to"`
	UV      *[2]float64     `json:"uv,omitempty"`
	Inflate *float64        `json:"inflate,omitempty"`
	Mirror  *bool           `json:"mirror,omitempty"`
	Faces   map[string]Face `json:"faces,omitempty"`
}

// Texture describes a texture slot. Pixel data lives behind the editor
// boundary; the core tracks identity via dimensions and content hash.
type Texture struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ContentHash string `json:"contentHash,omitempty"`
}

// Keyframe is a single key on an animation channel.
type Keyframe struct {
	Time       float64   `json:"time"`
	Value      Vec3      `json:"value"`
	Interp     string    `json:"interp,omitempty"`
	Easing     string    `json:"easing,omitempty"`
	EasingArgs []float64 `json:"easingArgs,omitempty"`
	Pre        *Vec3     `json:"pre,omitempty"`
	Post       *Vec3     `json:"post,omitempty"`
}

// Channel is a (bone, attribute) keyframe track.
type Channel struct {
	Bone    string     `json:"bone"`
	Channel string     `json:"channel"`
	Keys    []Keyframe `json:"keys"`
}

// TriggerKey is a timed trigger value (sound/particle effect or timeline entry).
type TriggerKey struct {
	Time  float64 `json:"time"`
	Value string  `json:"value"`
}

// Trigger is a timed non-transform track of an animation.
type Trigger struct {
	Type string       `json:"type"`
	Keys []TriggerKey `json:"keys"`
}

// Animation is a named clip.
type Animation struct {
	ID       string    `json:"id,omitempty"`
	Name     string    `json:"name"`
	Length   float64   `json:"length"`
	Loop     bool      `json:"loop"`
	FPS      float64   `json:"fps"`
	Channels []Channel `json:"channels,omitempty"`
	Triggers []Trigger `json:"triggers,omitempty"`
}

// TimePolicy identifies distinct keyframe times. Times whose buckets
// (round(time/bucketPrecision)*bucketPrecision) coincide are the same key.
type TimePolicy struct {
	TimeEpsilon     float64 `json:"timeEpsilon"`
	BucketPrecision float64 `json:"bucketPrecision"`
}

// DefaultTimePolicy returns the policy used when a project does not set one.
func DefaultTimePolicy() TimePolicy {
	return TimePolicy{TimeEpsilon: 0.005, BucketPrecision: 0.01}
}

// Limits bound the project model.
type Limits struct {
	MaxTextureSize      int     `json:"maxTextureSize"`
	MaxCubes            int     `json:"maxCubes"`
	MaxAnimationSeconds float64 `json:"maxAnimationSeconds"`
}

// DefaultLimits returns the limits applied when none are configured.
func DefaultLimits() Limits {
	return Limits{MaxTextureSize: 4096, MaxCubes: 1024, MaxAnimationSeconds: 60}
}

// State is the full project model for one session.
type State struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Format           string      `json:"format,omitempty"`
	FormatID         string      `json:"formatId,omitempty"`
	Dirty            bool        `json:"dirty"`
	UVPixelsPerBlock int         `json:"uvPixelsPerBlock,omitempty"`
	Bones            []Bone      `json:"bones,omitempty"`
	Cubes            []Cube      `json:"cubes,omitempty"`
	Textures         []Texture   `json:"textures,omitempty"`
	Animations       []Animation `json:"animations,omitempty"`
	TimePolicy       TimePolicy  `json:"animationTimePolicy"`
}

// Summary is the compact shape attached to responses as meta.state.
type Summary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	FormatID   string `json:"formatId,omitempty"`
	Dirty      bool   `json:"dirty"`
	Bones      int    `json:"bones"`
	Cubes      int    `json:"cubes"`
	Textures   int    `json:"textures"`
	Animations int    `json:"animations"`
	Revision   string `json:"revision"`
}

// BoneByName returns the bone with the given name, or nil.
func (s *State) BoneByName(name string) *Bone {
	for i := range s.Bones {
		if s.Bones[i].Name == name {
			return &s.Bones[i]
		}
	}
	return nil
}

// TextureByName returns the texture with the given name, or nil.
func (s *State) TextureByName(name string) *Texture {
	for i := range s.Textures {
		if s.Textures[i].Name == name {
			return &s.Textures[i]
		}
	}
	return nil
}

// AnimationByName returns the animation with the given name, or nil.
func (s *State) AnimationByName(name string) *Animation {
	for i := range s.Animations {
		if s.Animations[i].Name == name {
			return &s.Animations[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the state. Mutators operate on a clone and
// commit it atomically so a rejected mutation never leaves partial writes.
func (s *State) Clone() *State {
	out := *s
	out.Bones = append([]Bone(nil), s.Bones...)
	for i := range out.Bones {
		out.Bones[i].Rotation = cloneVec3Ptr(out.Bones[i].Rotation)
		out.Bones[i].Scale = cloneFloatPtr(out.Bones[i].Scale)
		out.Bones[i].Visibility = cloneBoolPtr(out.Bones[i].Visibility)
	}
	out.Cubes = append([]Cube(nil), s.Cubes...)
	for i := range out.Cubes {
		c := &out.Cubes[i]
		if c.UV != nil {
			uv := *c.UV
			c.UV = &uv
		}
		c.Inflate = cloneFloatPtr(c.Inflate)
		c.Mirror = cloneBoolPtr(c.Mirror)
		if c.Faces != nil {
			faces := make(map[string]Face, len(c.Faces))
			for k, f := range c.Faces {
				if f.UV != nil {
					uv := *f.UV
					f.UV = &uv
				}
				faces[k] = f
			}
			c.Faces = faces
		}
	}
	out.Textures = append([]Texture(nil), s.Textures...)
	out.Animations = append([]Animation(nil), s.Animations...)
	for i := range out.Animations {
		a := &out.Animations[i]
		a.Channels = append([]Channel(nil), a.Channels...)
		for j := range a.Channels {
			keys := append([]Keyframe(nil), a.Channels[j].Keys...)
			for k := range keys {
				keys[k].EasingArgs = append([]float64(nil), keys[k].EasingArgs...)
				keys[k].Pre = cloneVec3Ptr(keys[k].Pre)
				keys[k].Post = cloneVec3Ptr(keys[k].Post)
			}
			a.Channels[j].Keys = keys
		}
		a.Triggers = append([]Trigger(nil), a.Triggers...)
		for j := range a.Triggers {
			a.Triggers[j].Keys = append([]TriggerKey(nil), a.Triggers[j].Keys...)
		}
	}
	return &out
}

func cloneVec3Ptr(v *Vec3) *Vec3 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneFloatPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneBoolPtr(v *bool) *bool {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
