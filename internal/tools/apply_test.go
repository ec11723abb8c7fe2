package tools

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashfox/ashfox-mcp/internal/mcp"
	"github.com/ashfox/ashfox-mcp/internal/project"
)

const foxSpec = `{
	"spec": {
		"name": "fox",
		"bones": [
			{"name": "tail", "parent": "body", "pivot": [0, 4, -4]},
			{"name": "body", "pivot": [0, 0, 0]},
			{"name": "head", "parent": "body", "pivot": [0, 4, 4]}
		],
		"cubes": [
			{"name": "torso", "bone": "body", "from": [0, 0, 0], "to": [4, 4, 8]},
			{"name": "skull", "bone": "head", "from": [1, 4, 8], "to": [3, 6, 10]}
		],
		"textures": [
			{"name": "skin", "width": 64, "height": 64}
		],
		"animations": [
			{
				"name": "idle", "length": 1, "fps": 20, "loop": true,
				"channels": [
					{"bone": "head", "channel": "rot", "keys": [
						{"time": 0, "value": [0, 0, 0]},
						{"time": 0.5, "value": [0, 10, 0]}
					]}
				],
				"triggers": [
					{"type": "sound", "keys": [{"time": 0.5, "value": "step"}]}
				]
			}
		]
	}
}`

func TestApplyModelSpecFreshProject(t *testing.T) {
	svc := newTestService(t, nil, nil)
	p := newTestProject()

	resp := dispatch(t, svc, p, "apply_model_spec", foxSpec)
	require.True(t, resp.OK, "apply failed: %+v", resp.Err)
	data := resp.Data.(map[string]any)
	// 3 bones + 2 cubes + 1 texture + 1 clip + 1 track + 1 trigger group.
	assert.Equal(t, 9, data["applied"])

	sum := p.Summary()
	assert.Equal(t, "fox", sum.Name)
	assert.Equal(t, 3, sum.Bones)
	assert.Equal(t, 2, sum.Cubes)
	assert.Equal(t, 1, sum.Textures)
	assert.Equal(t, 1, sum.Animations)

	// The child-before-parent input order must not matter.
	snap := p.Snapshot()
	require.NotNil(t, snap.BoneByName("tail"))
	assert.Equal(t, "body", snap.BoneByName("tail").Parent)
}

func TestApplyModelSpecDeterministicRevision(t *testing.T) {
	svc := newTestService(t, nil, nil)

	revs := make([]string, 2)
	for i := range revs {
		p := newTestProject()
		resp := dispatch(t, svc, p, "apply_model_spec", foxSpec)
		require.True(t, resp.OK)
		revs[i] = p.Revision()
		require.NotEmpty(t, revs[i])
	}
	assert.Equal(t, revs[0], revs[1], "applying the same spec twice lands on the same revision")
}

func TestApplyModelSpecRollsBackOnFailure(t *testing.T) {
	svc := newTestService(t, nil, nil)
	p := newTestProject()
	r0 := revisionFrom(t, dispatch(t, svc, p, "create_project", `{"name":"fox"}`))
	r1 := revisionFrom(t, dispatch(t, svc, p, "add_bone",
		fmt.Sprintf(`{"name":"root","ifRevision":%q}`, r0)))

	// Second bone duplicates an existing name, so the batch must fail after
	// the first op applied.
	resp := dispatch(t, svc, p, "apply_model_spec", fmt.Sprintf(`{
		"ifRevision": %q,
		"spec": {"bones": [{"name": "leg"}, {"name": "root"}]}
	}`, r1))
	require.False(t, resp.OK)
	assert.Equal(t, mcp.ErrInvalidPayload, resp.Err.Code)
	assert.Equal(t, true, resp.Err.Details["rolledBack"])
	applied, ok := resp.Err.Details["applied"].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"add_bone leg"}, applied)

	// State and revision are exactly what they were before the call.
	assert.Equal(t, r1, p.Revision())
	assert.Equal(t, 1, p.Summary().Bones)
}

func TestApplyModelSpecRollbackToEmpty(t *testing.T) {
	svc := newTestService(t, nil, nil)
	p := newTestProject()

	resp := dispatch(t, svc, p, "apply_model_spec", `{
		"spec": {"cubes": [{"name": "orphan", "bone": "missing", "from": [0,0,0], "to": [1,1,1]}]}
	}`)
	require.False(t, resp.OK)
	assert.False(t, p.HasState(), "a failed first apply leaves no project behind")
}

func TestApplyModelSpecReplace(t *testing.T) {
	svc := newTestService(t, nil, nil)
	p := newTestProject()
	r0 := revisionFrom(t, dispatch(t, svc, p, "create_project", `{"name":"old"}`))
	r1 := revisionFrom(t, dispatch(t, svc, p, "add_bone",
		fmt.Sprintf(`{"name":"legacy","ifRevision":%q}`, r0)))

	resp := dispatch(t, svc, p, "apply_model_spec", fmt.Sprintf(`{
		"ifRevision": %q,
		"replace": true,
		"spec": {"name": "new", "bones": [{"name": "root"}]}
	}`, r1))
	require.True(t, resp.OK, "replace failed: %+v", resp.Err)

	sum := p.Summary()
	assert.Equal(t, "new", sum.Name)
	assert.Equal(t, 1, sum.Bones)
	assert.Nil(t, p.Snapshot().BoneByName("legacy"))
}

func TestApplyModelSpecMergesIntoExisting(t *testing.T) {
	svc := newTestService(t, nil, nil)
	p := newTestProject()
	r0 := revisionFrom(t, dispatch(t, svc, p, "create_project", `{"name":"fox"}`))
	r1 := revisionFrom(t, dispatch(t, svc, p, "add_bone",
		fmt.Sprintf(`{"name":"root","ifRevision":%q}`, r0)))

	resp := dispatch(t, svc, p, "apply_model_spec", fmt.Sprintf(`{
		"ifRevision": %q,
		"spec": {"bones": [{"name": "head", "parent": "root"}]}
	}`, r1))
	require.True(t, resp.OK, "merge failed: %+v", resp.Err)
	assert.Equal(t, 2, p.Summary().Bones)
	assert.Equal(t, "fox", p.Summary().Name, "merge keeps the existing project")
}

func TestSortBonesParentsFirst(t *testing.T) {
	bones := []project.Bone{
		{Name: "toe", Parent: "foot"},
		{Name: "foot", Parent: "leg"},
		{Name: "leg"},
		{Name: "arm"},
	}
	sorted := sortBones(bones)
	names := make([]string, len(sorted))
	for i, b := range sorted {
		names[i] = b.Name
	}
	assert.Equal(t, []string{"arm", "leg", "foot", "toe"}, names)
}
