package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashfox/ashfox-mcp/internal/mcp"
)

func noopHandler(*Call) mcp.ToolResponse { return mcp.Success(nil) }

func TestRegisterAndListOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(mcp.Tool{Name: "b", InputSchema: schemaObject(map[string]any{})}, noopHandler))
	require.NoError(t, r.Register(mcp.Tool{Name: "a", InputSchema: schemaObject(map[string]any{})}, noopHandler))

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Name, "registration order, not lexical order")
	assert.Equal(t, "a", list[1].Name)
	assert.Equal(t, 2, r.Len())
}

func TestReRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(mcp.Tool{Name: "x", Description: "old", InputSchema: schemaObject(map[string]any{})}, noopHandler))
	require.NoError(t, r.Register(mcp.Tool{Name: "x", Description: "new", InputSchema: schemaObject(map[string]any{})}, noopHandler))

	list := r.List()
	require.Len(t, list, 1)
	assert.Equal(t, "new", list[0].Description)
}

func TestOnChangeFires(t *testing.T) {
	r := NewRegistry()
	var fired int
	r.OnChange(func() { fired++ })

	require.NoError(t, r.Register(mcp.Tool{Name: "x", InputSchema: schemaObject(map[string]any{})}, noopHandler))
	require.NoError(t, r.Register(mcp.Tool{Name: "y", InputSchema: schemaObject(map[string]any{})}, noopHandler))
	assert.Equal(t, 2, fired)
}

func TestRegisterRejectsBadSchema(t *testing.T) {
	r := NewRegistry()
	err := r.Register(mcp.Tool{
		Name:        "bad",
		InputSchema: map[string]any{"type": "object", "properties": "not-a-map"},
	}, noopHandler)
	require.Error(t, err)
}

func TestRegisterRequiresName(t *testing.T) {
	r := NewRegistry()
	require.Error(t, r.Register(mcp.Tool{InputSchema: schemaObject(map[string]any{})}, noopHandler))
}

func TestFullCatalogRegistered(t *testing.T) {
	svc := newTestService(t, nil, nil)

	want := []string{
		"create_project", "get_project_state", "get_texture_usage", "list_animations",
		"apply_model_spec",
		"add_bone", "update_bone", "delete_bone",
		"add_cube", "update_cube", "delete_cube",
		"create_texture", "update_texture", "delete_texture",
		"create_animation", "update_animation", "delete_animation", "set_keyframes",
		"export_model",
	}
	listed := make(map[string]mcp.Tool)
	for _, tool := range svc.Registry().List() {
		listed[tool.Name] = tool
	}
	for _, name := range want {
		tool, ok := listed[name]
		require.True(t, ok, "tool %s missing from catalog", name)
		assert.NotEmpty(t, tool.Description, "tool %s needs a description", name)
		assert.Equal(t, false, tool.InputSchema["additionalProperties"], "tool %s must close its schema", name)
	}
	assert.Len(t, listed, len(want))
}
