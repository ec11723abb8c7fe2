// ports.go — Editor and snapshot ports.
// The core never talks to a graphical editor directly. EditorPort declares
// explicit capability flags instead of runtime feature sniffing; an operation
// whose flag is off returns not_implemented. SnapshotPort seeds project state
// from a host-side document.
package tools

import (
	"context"

	"github.com/ashfox/ashfox-mcp/internal/mcp"
	"github.com/ashfox/ashfox-mcp/internal/project"
)

// Capabilities flags what the bound editor can do.
type Capabilities struct {
	WriteFiles bool `json:"writeFiles"`
}

// EditorPort is the contract to the host editor.
type EditorPort interface {
	Capabilities() Capabilities
	WriteFile(ctx context.Context, path string, data []byte) error
}

// SnapshotPort reads a normalized project snapshot from the host. A nil
// snapshot with nil error means no document is open.
type SnapshotPort interface {
	ReadSnapshot(ctx context.Context) (*project.State, error)
}

// NullEditor is the default sidecar editor: every capability is off.
type NullEditor struct{}

// Capabilities implements EditorPort.
func (NullEditor) Capabilities() Capabilities { return Capabilities{} }

// WriteFile implements EditorPort.
func (NullEditor) WriteFile(context.Context, string, []byte) error {
	return &mcp.ToolError{
		Code:    mcp.ErrNotImplemented,
		Message: "no editor bound: file writes are unavailable",
		Fix:     "run the server inside a host editor or drop writeFiles",
	}
}
