package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashfox/ashfox-mcp/internal/logging"
	"github.com/ashfox/ashfox-mcp/internal/mcp"
	"github.com/ashfox/ashfox-mcp/internal/project"
)

type captureEditor struct {
	files map[string][]byte
}

func (e *captureEditor) Capabilities() Capabilities { return Capabilities{WriteFiles: true} }

func (e *captureEditor) WriteFile(_ context.Context, path string, data []byte) error {
	if e.files == nil {
		e.files = make(map[string][]byte)
	}
	e.files[path] = data
	return nil
}

type fixedSnapshot struct {
	state *project.State
	err   error
}

func (f fixedSnapshot) ReadSnapshot(context.Context) (*project.State, error) {
	return f.state, f.err
}

func newTestService(t *testing.T, editor EditorPort, snapshot SnapshotPort) *Service {
	t.Helper()
	svc, err := NewService(editor, snapshot, logging.New("tools-test", "error"))
	require.NoError(t, err)
	return svc
}

func newTestProject() *project.Project {
	return project.New(project.DefaultLimits(), true)
}

func dispatch(t *testing.T, svc *Service, p *project.Project, tool, args string) mcp.ToolResponse {
	t.Helper()
	resp, rpcErr := svc.Dispatch(&Call{Ctx: context.Background(), Project: p, Args: json.RawMessage(args)}, tool)
	require.Nil(t, rpcErr, "tool %s hit a protocol error: %+v", tool, rpcErr)
	return resp
}

func revisionFrom(t *testing.T, resp mcp.ToolResponse) string {
	t.Helper()
	require.True(t, resp.OK, "expected success, got %+v", resp.Err)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	rev, ok := data["revision"].(string)
	require.True(t, ok)
	return rev
}

func TestRevisionGateAcrossTools(t *testing.T) {
	svc := newTestService(t, nil, nil)
	p := newTestProject()

	r0 := revisionFrom(t, dispatch(t, svc, p, "create_project", `{"name":"fox"}`))
	r1 := revisionFrom(t, dispatch(t, svc, p, "add_bone",
		fmt.Sprintf(`{"name":"root","pivot":[0,0,0],"ifRevision":%q}`, r0)))
	require.NotEqual(t, r0, r1)

	cubeArgs := fmt.Sprintf(`{"name":"c","bone":"root","from":[0,0,0],"to":[1,1,1],"ifRevision":%q}`, r1)
	r2 := revisionFrom(t, dispatch(t, svc, p, "add_cube", cubeArgs))
	require.NotEqual(t, r1, r2)

	// Replaying with the stale revision must fail without touching state.
	resp := dispatch(t, svc, p, "add_cube", cubeArgs)
	require.False(t, resp.OK)
	assert.Equal(t, mcp.ErrRevisionMismatch, resp.Err.Code)
	assert.Equal(t, r1, resp.Err.Details["expected"])
	assert.Equal(t, r2, resp.Err.Details["currentRevision"])
	assert.Equal(t, r2, p.Revision())
}

func TestMissingRevisionRejected(t *testing.T) {
	svc := newTestService(t, nil, nil)
	p := newTestProject()
	revisionFrom(t, dispatch(t, svc, p, "create_project", `{"name":"fox"}`))

	resp := dispatch(t, svc, p, "add_bone", `{"name":"root"}`)
	require.False(t, resp.OK)
	assert.Equal(t, mcp.ErrInvalidState, resp.Err.Code)
	assert.Contains(t, resp.Err.Fix, "get_project_state")
}

func TestUnknownToolIsProtocolError(t *testing.T) {
	svc := newTestService(t, nil, nil)
	p := newTestProject()

	_, rpcErr := svc.Dispatch(&Call{Ctx: context.Background(), Project: p, Args: json.RawMessage(`{}`)}, "no_such_tool")
	require.NotNil(t, rpcErr)
	assert.Equal(t, mcp.CodeInvalidParams, rpcErr.Code)
	assert.Contains(t, rpcErr.Message, "no_such_tool")
}

func TestSchemaRejectsUnknownArgument(t *testing.T) {
	svc := newTestService(t, nil, nil)
	p := newTestProject()

	_, rpcErr := svc.Dispatch(&Call{
		Ctx: context.Background(), Project: p,
		Args: json.RawMessage(`{"name":"fox","bogus":1}`),
	}, "create_project")
	require.NotNil(t, rpcErr)
	assert.Equal(t, mcp.CodeInvalidParams, rpcErr.Code)
}

func TestSchemaReportsFirstFailingPath(t *testing.T) {
	svc := newTestService(t, nil, nil)
	p := newTestProject()

	_, rpcErr := svc.Dispatch(&Call{
		Ctx: context.Background(), Project: p,
		Args: json.RawMessage(`{"name":"c","bone":"root","from":[0,0],"to":[1,1,1]}`),
	}, "add_cube")
	require.NotNil(t, rpcErr)
	assert.Contains(t, rpcErr.Message, "/from")
}

func TestEmptyRegistry(t *testing.T) {
	svc := &Service{registry: NewRegistry(), editor: NullEditor{},
		log: logging.New("tools-test", "error")}
	svc.trace = NewTraceRecorder(svc.log)

	resp, rpcErr := svc.Dispatch(&Call{Ctx: context.Background(), Project: newTestProject()}, "anything")
	require.Nil(t, rpcErr)
	require.False(t, resp.OK)
	assert.Equal(t, mcp.ErrToolRegistryEmpty, resp.Err.Code)
}

func TestIncludeStateAndDiff(t *testing.T) {
	svc := newTestService(t, nil, nil)
	p := newTestProject()
	r0 := revisionFrom(t, dispatch(t, svc, p, "create_project", `{"name":"fox"}`))

	resp := dispatch(t, svc, p, "add_bone",
		fmt.Sprintf(`{"name":"root","ifRevision":%q,"includeState":true,"includeDiff":true}`, r0))
	require.True(t, resp.OK)

	state, ok := resp.Meta["state"].(*project.Summary)
	require.True(t, ok)
	assert.Equal(t, 1, state.Bones)

	diff, ok := resp.Meta["diff"].(stateDiff)
	require.True(t, ok)
	assert.True(t, diff.Changed)
	assert.Equal(t, r0, diff.Before.Revision)
	assert.NotEqual(t, r0, diff.After.Revision)
}

func TestTraceRecordsCalls(t *testing.T) {
	svc := newTestService(t, nil, nil)
	p := newTestProject()

	var observed []string
	svc.SetObserver(func(tool string, _ float64, ok bool) {
		observed = append(observed, fmt.Sprintf("%s:%v", tool, ok))
	})

	dispatch(t, svc, p, "create_project", `{"name":"fox"}`)
	dispatch(t, svc, p, "get_project_state", `{}`)

	entries := svc.Trace().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "create_project", entries[0].Tool)
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, []string{"create_project:true", "get_project_state:true"}, observed)
}

func TestCreateProjectFromSnapshot(t *testing.T) {
	seed := &project.State{
		Name:  "imported",
		Bones: []project.Bone{{Name: "root"}},
	}
	svc := newTestService(t, nil, fixedSnapshot{state: seed})
	p := newTestProject()

	resp := dispatch(t, svc, p, "create_project", `{"name":"fox","fromSnapshot":true}`)
	require.True(t, resp.OK)

	state := dispatch(t, svc, p, "get_project_state", `{}`)
	sum := state.Data.(map[string]any)["state"].(*project.Summary)
	assert.Equal(t, "fox", sum.Name, "explicit name overrides the snapshot name")
	assert.Equal(t, 1, sum.Bones)
}

func TestCreateProjectNoSnapshotSource(t *testing.T) {
	svc := newTestService(t, nil, nil)
	resp := dispatch(t, svc, newTestProject(), "create_project", `{"name":"fox","fromSnapshot":true}`)
	require.False(t, resp.OK)
	assert.Equal(t, mcp.ErrNotImplemented, resp.Err.Code)
}

func TestUpdateTextureNoChange(t *testing.T) {
	svc := newTestService(t, nil, nil)
	p := newTestProject()
	r0 := revisionFrom(t, dispatch(t, svc, p, "create_project", `{"name":"fox"}`))
	r1 := revisionFrom(t, dispatch(t, svc, p, "create_texture",
		fmt.Sprintf(`{"name":"skin","width":64,"height":64,"contentHash":"abc","ifRevision":%q}`, r0)))

	resp := dispatch(t, svc, p, "update_texture",
		fmt.Sprintf(`{"name":"skin","width":64,"height":64,"contentHash":"abc","ifRevision":%q}`, r1))
	require.True(t, resp.OK)
	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["noChange"])
	assert.Equal(t, r1, data["revision"], "no-op keeps the revision")
}

func TestExportModel(t *testing.T) {
	editor := &captureEditor{}
	svc := newTestService(t, editor, nil)
	p := newTestProject()
	r0 := revisionFrom(t, dispatch(t, svc, p, "create_project", `{"name":"fox"}`))
	r1 := revisionFrom(t, dispatch(t, svc, p, "add_bone",
		fmt.Sprintf(`{"name":"root","ifRevision":%q}`, r0)))

	resp := dispatch(t, svc, p, "export_model",
		fmt.Sprintf(`{"ifRevision":%q,"writeFiles":true,"directory":"out"}`, r1))
	require.True(t, resp.OK, "export failed: %+v", resp.Err)
	assert.Contains(t, editor.files, "out/fox.geo.json")
	assert.Contains(t, editor.files, "out/fox.animation.json")
}

func TestExportModelNullEditorCannotWrite(t *testing.T) {
	svc := newTestService(t, nil, nil)
	p := newTestProject()
	r0 := revisionFrom(t, dispatch(t, svc, p, "create_project", `{"name":"fox"}`))
	r1 := revisionFrom(t, dispatch(t, svc, p, "add_bone",
		fmt.Sprintf(`{"name":"root","ifRevision":%q}`, r0)))

	resp := dispatch(t, svc, p, "export_model",
		fmt.Sprintf(`{"ifRevision":%q,"writeFiles":true}`, r1))
	require.False(t, resp.OK)
	assert.Equal(t, mcp.ErrNotImplemented, resp.Err.Code)

	// Without writeFiles the export succeeds and reports artifact hashes.
	resp = dispatch(t, svc, p, "export_model", fmt.Sprintf(`{"ifRevision":%q}`, r1))
	require.True(t, resp.OK)
}

func TestExportModelEmptyProject(t *testing.T) {
	svc := newTestService(t, nil, nil)
	p := newTestProject()
	r0 := revisionFrom(t, dispatch(t, svc, p, "create_project", `{"name":"fox"}`))

	resp := dispatch(t, svc, p, "export_model", fmt.Sprintf(`{"ifRevision":%q}`, r0))
	require.False(t, resp.OK)
	assert.Equal(t, mcp.ErrInvalidState, resp.Err.Code)
}

func TestListAnimationsAndUsage(t *testing.T) {
	svc := newTestService(t, nil, nil)
	p := newTestProject()
	r0 := revisionFrom(t, dispatch(t, svc, p, "create_project", `{"name":"fox"}`))
	r1 := revisionFrom(t, dispatch(t, svc, p, "add_bone",
		fmt.Sprintf(`{"name":"root","ifRevision":%q}`, r0)))
	r2 := revisionFrom(t, dispatch(t, svc, p, "create_animation",
		fmt.Sprintf(`{"name":"idle","length":1,"fps":20,"loop":true,"ifRevision":%q}`, r1)))
	revisionFrom(t, dispatch(t, svc, p, "set_keyframes",
		fmt.Sprintf(`{"animation":"idle","bone":"root","channel":"rot","keys":[{"time":0,"value":[0,10,0]}],"ifRevision":%q}`, r2)))

	resp := dispatch(t, svc, p, "list_animations", `{}`)
	require.True(t, resp.OK)
	entries := resp.Data.(map[string]any)["animations"].([]animationEntry)
	require.Len(t, entries, 1)
	assert.Equal(t, "idle", entries[0].Name)
	assert.Equal(t, 1, entries[0].Channels)

	usage := dispatch(t, svc, p, "get_texture_usage", `{}`)
	require.True(t, usage.OK)
}
