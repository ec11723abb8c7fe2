// export.go — Deterministic internal exporter.
// Builds byte-stable geometry and animation artifacts from a normalized
// project snapshot. Two exports of the same state produce identical bytes,
// verifiable by SHA-256.
package export

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ashfox/ashfox-mcp/internal/project"
)

// geometryFormatVersion is the bedrock geometry schema version emitted.
const geometryFormatVersion = "1.12.0"

// Artifact is one exported file.
type Artifact struct {
	Name   string `json:"name"`
	Data   []byte `json:"-"`
	SHA256 string `json:"sha256"`
	Bytes  int    `json:"bytes"`
}

// Result bundles the artifacts of one export run.
type Result struct {
	Geometry  Artifact `json:"geometry"`
	Animation Artifact `json:"animation"`
}

// Build renders both artifacts from a snapshot. The snapshot must already be
// normalized (project.State.Normalize); Build sorts nothing itself.
func Build(s *project.State) (*Result, error) {
	if s == nil {
		return nil, fmt.Errorf("no snapshot to export")
	}
	geo := Geometry(s)
	anim := Animations(s)
	return &Result{
		Geometry:  newArtifact(s.Name+".geo.json", geo),
		Animation: newArtifact(s.Name+".animation.json", anim),
	}, nil
}

func newArtifact(name string, data []byte) Artifact {
	sum := sha256.Sum256(data)
	return Artifact{Name: name, Data: data, SHA256: hex.EncodeToString(sum[:]), Bytes: len(data)}
}

// Geometry renders the bedrock geometry artifact.
func Geometry(s *project.State) []byte {
	doc := NewDoc()
	doc.Set("format_version", geometryFormatVersion)

	description := NewDoc()
	description.Set("identifier", "geometry."+s.Name)

	bones := make([]any, 0, len(s.Bones))
	for i := range s.Bones {
		bones = append(bones, geometryBone(s, &s.Bones[i]))
	}

	entry := NewDoc()
	entry.Set("description", description)
	entry.Set("bones", bones)
	doc.Set("minecraft:geometry", []any{entry})
	return doc.Marshal()
}

func geometryBone(s *project.State, b *project.Bone) *Doc {
	doc := NewDoc()
	doc.Set("name", b.Name)
	if b.Parent != "" {
		doc.Set("parent", b.Parent)
	}
	doc.Set("pivot", vec3(b.Pivot))
	if b.Rotation != nil {
		doc.Set("rotation", vec3(*b.Rotation))
	}

	var cubes []any
	for i := range s.Cubes {
		if s.Cubes[i].Bone != b.Name {
			continue
		}
		cubes = append(cubes, geometryCube(&s.Cubes[i]))
	}
	if len(cubes) > 0 {
		doc.Set("cubes", cubes)
	}
	return doc
}

// geometryCube emits a cube in the target coordinate system: the X axis is
// mirrored, so origin = [-to.x, from.y, from.z] and size = to - from.
func geometryCube(c *project.Cube) *Doc {
	doc := NewDoc()
	doc.Set("origin", []float64{negate(c.To[0]), c.From[1], c.From[2]})
	doc.Set("size", []float64{c.To[0] - c.From[0], c.To[1] - c.From[1], c.To[2] - c.From[2]})
	if c.UV != nil {
		doc.Set("uv", []float64{c.UV[0], c.UV[1]})
	}
	if c.Inflate != nil {
		doc.Set("inflate", *c.Inflate)
	}
	if c.Mirror != nil && *c.Mirror {
		doc.Set("mirror", true)
	}
	return doc
}

// Animations renders the animation artifact.
func Animations(s *project.State) []byte {
	clips := NewDoc()
	for i := range s.Animations {
		clips.Set(s.Animations[i].Name, animationClip(s, &s.Animations[i]))
	}
	doc := NewDoc()
	doc.Set("animations", clips)
	return doc.Marshal()
}

func animationClip(s *project.State, a *project.Animation) *Doc {
	doc := NewDoc()
	doc.Set("animation_length", a.Length)
	if a.Loop {
		doc.Set("loop", true)
	}

	bones := NewDoc()
	for ci := range a.Channels {
		ch := &a.Channels[ci]
		if len(ch.Keys) == 0 {
			continue // empty channels are omitted from output
		}
		boneDoc, ok := bones.values[ch.Bone].(*Doc)
		if !ok {
			boneDoc = NewDoc()
			bones.Set(ch.Bone, boneDoc)
		}
		boneDoc.Set(channelField(ch.Channel), channelKeys(s.TimePolicy, ch))
	}
	if bones.Len() > 0 {
		doc.Set("bones", bones)
	}

	for ti := range a.Triggers {
		tr := &a.Triggers[ti]
		if len(tr.Keys) == 0 {
			continue
		}
		switch tr.Type {
		case project.TriggerSound:
			doc.Set("sound_effects", effectKeys(s.TimePolicy, tr.Keys, "effect"))
		case project.TriggerParticle:
			doc.Set("particle_effects", effectKeys(s.TimePolicy, tr.Keys, "effect"))
		case project.TriggerTimeline:
			timeline := NewDoc()
			for _, k := range tr.Keys {
				timeline.Set(FormatTimeKey(s.TimePolicy.BucketTime(k.Time)), k.Value)
			}
			doc.Set("timeline", timeline)
		}
	}
	return doc
}

func channelField(channel string) string {
	switch channel {
	case project.ChannelRotation:
		return "rotation"
	case project.ChannelPosition:
		return "position"
	default:
		return "scale"
	}
}

// channelKeys emits the keyed object for one channel. Keys are the
// fixed-precision strings of bucketed times. Rotation values negate the Y
// axis to match the target coordinate system; position and scale pass
// through unchanged.
func channelKeys(policy project.TimePolicy, ch *project.Channel) *Doc {
	doc := NewDoc()
	rotate := ch.Channel == project.ChannelRotation
	for _, k := range ch.Keys {
		value := k.Value
		if rotate {
			value[1] = negate(value[1])
		}
		key := FormatTimeKey(policy.BucketTime(k.Time))
		if k.Easing != "" || k.Pre != nil || k.Post != nil {
			eased := NewDoc()
			if k.Pre != nil {
				pre := *k.Pre
				if rotate {
					pre[1] = negate(pre[1])
				}
				eased.Set("pre", vec3(pre))
			}
			post := value
			if k.Post != nil {
				post = *k.Post
				if rotate {
					post[1] = negate(post[1])
				}
			}
			eased.Set("post", vec3(post))
			if k.Easing != "" {
				eased.Set("easing", k.Easing)
				if len(k.EasingArgs) > 0 {
					eased.Set("easingArgs", append([]float64(nil), k.EasingArgs...))
				}
			}
			doc.Set(key, eased)
			continue
		}
		doc.Set(key, vec3(value))
	}
	return doc
}

func effectKeys(policy project.TimePolicy, keys []project.TriggerKey, field string) *Doc {
	doc := NewDoc()
	for _, k := range keys {
		entry := NewDoc()
		entry.Set(field, k.Value)
		doc.Set(FormatTimeKey(policy.BucketTime(k.Time)), entry)
	}
	return doc
}

func vec3(v project.Vec3) []float64 {
	return []float64{v[0], v[1], v[2]}
}

// negate flips sign without producing -0.
func negate(f float64) float64 {
	if f == 0 {
		return 0
	}
	return -f
}
