// guides.go — Built-in resource and template catalogs.
package resources

import "github.com/ashfox/ashfox-mcp/internal/mcp"

type guide struct {
	Resource mcp.Resource
	Body     string
}

func builtinGuides() []guide {
	return []guide{
		{
			Resource: mcp.Resource{
				URI:         "ashfox://guide",
				Name:        "Ashfox Usage Guide",
				Description: "How to drive the modeling tools: project lifecycle, revisions, export",
				MimeType:    "text/markdown",
			},
			Body: guideBody,
		},
		{
			Resource: mcp.Resource{
				URI:         "ashfox://quickstart",
				Name:        "Ashfox Quickstart",
				Description: "Short canonical tool-call sequences for common modeling workflows",
				MimeType:    "text/markdown",
			},
			Body: quickstartBody,
		},
		{
			Resource: mcp.Resource{
				URI:         "ashfox://tool-gates",
				Name:        "Ashfox Tool Gate Checklist",
				Description: "Preconditions each tool checks before mutating project state",
				MimeType:    "text/markdown",
			},
			Body: toolGatesBody,
		},
	}
}

func builtinTemplates() []mcp.ResourceTemplate {
	return []mcp.ResourceTemplate{
		{
			URITemplate: "ashfox://export/{artifact}",
			Name:        "Export Artifact",
			Description: "Deterministic export artifacts of the active project (geometry, animation)",
			MimeType:    "application/json",
		},
	}
}

const guideBody = `# Ashfox Usage Guide

Ashfox exposes a modeling workspace over MCP. Every session owns one project:
a tree of bones, cubes attached to bones, textures, and keyframed animations.

## Revisions

Every committed mutation produces a new revision string. Read it from any tool
result and pass it back as ` + "`ifRevision`" + ` on the next mutation. A mismatch means
another call changed the project first; call ` + "`get_project_state`" + ` and retry once
with the fresh revision.

## Typical flow

1. ` + "`create_project`" + ` starts a fresh project for the session.
2. ` + "`add_bone`" + ` / ` + "`add_cube`" + ` build the skeleton and geometry.
3. ` + "`create_texture`" + ` registers texture dimensions for UV validation.
4. ` + "`create_animation`" + ` + ` + "`set_keyframes`" + ` author motion.
5. ` + "`export_model`" + ` emits byte-stable geometry and animation JSON.

Use ` + "`apply_model_spec`" + ` to apply a whole model description in one atomic call.
`

const quickstartBody = `# Ashfox Quickstart

Create a project and a bone:

    tools/call create_project {"name":"fox"}
    tools/call add_bone {"name":"root","pivot":[0,0,0]}

Every mutation after the first needs the current revision:

    tools/call add_cube {"name":"body","bone":"root","from":[0,0,0],"to":[4,4,4],"ifRevision":"<rev>"}

Export when done:

    tools/call export_model {"ifRevision":"<rev>"}

Pass ` + "`includeState: true`" + ` on any call to get the project summary back in
` + "`meta.state`" + ` without a separate ` + "`get_project_state`" + ` round trip.
`

const toolGatesBody = `# Tool Gate Checklist

| Tool | Gate |
|---|---|
| create_project | none |
| add_bone, add_cube, create_texture, create_animation | active project |
| update_*, delete_*, set_keyframes | active project + matching ifRevision |
| apply_model_spec | active project optional; creates one when absent |
| export_model | active project with at least one bone |
| get_project_state, get_texture_usage, list_animations | active project |

Errors with codes resource_not_found, invalid_state,
invalid_state_revision_mismatch, or tool_registry_empty carry a
retry-after-refresh hint: re-run tools/list and get_project_state, then retry
at most twice.
`
