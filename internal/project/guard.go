// guard.go — Optimistic-concurrency revision gate.
// Mutating tools assert the revision they saw; composite tools suspend the
// gate around batches of sub-mutations with RunWithoutRevisionGuard.
package project

import "github.com/ashfox/ashfox-mcp/internal/mcp"

// CheckRevision gates a mutating operation on the caller's revision
// assertion. ifRevision is nil when the argument was absent.
//
// Inside a RunWithoutRevisionGuard scope the gate always passes: the outer
// composite already asserted a revision for the whole batch.
func (p *Project) CheckRevision(ifRevision *string) error {
	if p.guardDepth > 0 {
		return nil
	}
	if ifRevision == nil {
		if !p.requireRevision {
			return nil
		}
		return &mcp.ToolError{
			Code:    mcp.ErrInvalidState,
			Message: "revision required: pass ifRevision with the current project revision",
			Fix:     "call get_project_state and retry with its revision",
		}
	}
	if *ifRevision != p.revision {
		return &mcp.ToolError{
			Code:    mcp.ErrRevisionMismatch,
			Message: "revision mismatch: project changed since the caller last read it",
			Fix:     "call get_project_state and retry with the current revision",
			Details: map[string]any{
				"expected":        *ifRevision,
				"currentRevision": p.revision,
			},
		}
	}
	return nil
}

// RunWithoutRevisionGuard executes fn with the revision gate suspended.
// The counter is reentrant so nested composites stack correctly. The caller
// must hold the session mutation lock, which is what makes the plain int safe.
func (p *Project) RunWithoutRevisionGuard(fn func() error) error {
	p.guardDepth++
	defer func() { p.guardDepth-- }()
	return fn()
}

// GuardBypassed reports whether the gate is currently suspended.
func (p *Project) GuardBypassed() bool { return p.guardDepth > 0 }
