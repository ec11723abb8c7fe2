package export

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashfox/ashfox-mcp/internal/project"
)

func fixtureState() *project.State {
	s := &project.State{
		ID:   "fixture",
		Name: "fox",
		Bones: []project.Bone{
			{Name: "root", Pivot: project.Vec3{0, 0, 0}},
		},
		Cubes: []project.Cube{
			{Name: "cube", Bone: "root", From: project.Vec3{0, 0, 0}, To: project.Vec3{4, 4, 4}},
		},
		Animations: []project.Animation{
			{
				Name: "idle", Length: 1, Loop: true, FPS: 20,
				Channels: []project.Channel{
					{Bone: "root", Channel: project.ChannelRotation,
						Keys: []project.Keyframe{{Time: 0, Value: project.Vec3{0, 10, 0}}}},
				},
			},
		},
		TimePolicy: project.DefaultTimePolicy(),
	}
	s.Normalize()
	return s
}

func TestGeometryAxisConvention(t *testing.T) {
	data := Geometry(fixtureState())

	var parsed struct {
		FormatVersion string `json:"format_version"`
		Geometry      []struct {
			Description struct {
				Identifier string `json:"identifier"`
			} `json:"description"`
			Bones []struct {
				Name  string      `json:"name"`
				Pivot []float64   `json:"pivot"`
				Cubes []struct {
					Origin []float64 `json:"origin"`
					Size   []float64 `json:"size"`
				} `json:"cubes"`
			} `json:"bones"`
		} `json:"minecraft:geometry"`
	}
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, "1.12.0", parsed.FormatVersion)
	require.Len(t, parsed.Geometry, 1)
	assert.Equal(t, "geometry.fox", parsed.Geometry[0].Description.Identifier)
	require.Len(t, parsed.Geometry[0].Bones, 1)
	require.Len(t, parsed.Geometry[0].Bones[0].Cubes, 1)
	cube := parsed.Geometry[0].Bones[0].Cubes[0]
	assert.Equal(t, []float64{-4, 0, 0}, cube.Origin, "origin mirrors the X axis")
	assert.Equal(t, []float64{4, 4, 4}, cube.Size)
}

func TestAnimationRotationNegatesY(t *testing.T) {
	data := Animations(fixtureState())

	var parsed struct {
		Animations map[string]struct {
			AnimationLength float64 `json:"animation_length"`
			Loop            bool    `json:"loop"`
			Bones           map[string]map[string]map[string][]float64 `json:"bones"`
		} `json:"animations"`
	}
	require.NoError(t, json.Unmarshal(data, &parsed))
	idle, ok := parsed.Animations["idle"]
	require.True(t, ok)
	assert.Equal(t, 1.0, idle.AnimationLength)
	assert.True(t, idle.Loop)
	rotation := idle.Bones["root"]["rotation"]
	require.Contains(t, rotation, "0.0", "time keys carry at least one fractional digit")
	assert.Equal(t, []float64{0, -10, 0}, rotation["0.0"], "rotation negates Y; no -0 for the zero components")
}

func TestExportByteStable(t *testing.T) {
	first, err := Build(fixtureState())
	require.NoError(t, err)
	second, err := Build(fixtureState())
	require.NoError(t, err)

	assert.Equal(t, first.Geometry.SHA256, second.Geometry.SHA256)
	assert.Equal(t, first.Animation.SHA256, second.Animation.SHA256)
	assert.Equal(t, first.Geometry.Data, second.Geometry.Data)
	assert.Equal(t, first.Animation.Data, second.Animation.Data)
	assert.Equal(t, "fox.geo.json", first.Geometry.Name)
	assert.Equal(t, "fox.animation.json", first.Animation.Name)
}

func TestEmptyChannelOmitted(t *testing.T) {
	s := fixtureState()
	s.Animations[0].Channels = append(s.Animations[0].Channels, project.Channel{
		Bone: "root", Channel: project.ChannelPosition,
	})
	data := Animations(s)

	var parsed map[string]map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	bones := parsed["animations"]["idle"]["bones"].(map[string]any)
	root := bones["root"].(map[string]any)
	assert.Contains(t, root, "rotation")
	assert.NotContains(t, root, "position", "channels without keys are omitted")
}

func TestTriggersEmitKeyedObjects(t *testing.T) {
	s := fixtureState()
	s.Animations[0].Triggers = []project.Trigger{
		{Type: project.TriggerSound, Keys: []project.TriggerKey{{Time: 0.5, Value: "step"}}},
		{Type: project.TriggerTimeline, Keys: []project.TriggerKey{{Time: 0, Value: "start"}}},
	}
	s.Normalize()
	data := Animations(s)

	var parsed struct {
		Animations map[string]struct {
			SoundEffects map[string]map[string]string `json:"sound_effects"`
			Timeline     map[string]string            `json:"timeline"`
		} `json:"animations"`
	}
	require.NoError(t, json.Unmarshal(data, &parsed))
	idle := parsed.Animations["idle"]
	assert.Equal(t, "step", idle.SoundEffects["0.5"]["effect"])
	assert.Equal(t, "start", idle.Timeline["0.0"])
}

func TestNumberFormatting(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{4, "4"},
		{-4, "-4"},
		{0.5, "0.5"},
		{1.25, "1.25"},
		{1e-5, "0.00001"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatNumber(tc.in))
	}

	assert.Equal(t, "0.0", FormatTimeKey(0))
	assert.Equal(t, "0.5", FormatTimeKey(0.5))
	assert.Equal(t, "2.0", FormatTimeKey(2))
}
