// errors.go — Domain error taxonomy and the ToolResponse envelope.
// Error codes are self-describing snake_case strings carried inside tool
// results; JSON-RPC level failures use the numeric codes in protocol.go.
package mcp

import "fmt"

// Domain error codes surfaced in ToolResponse.Error.Code.
const (
	ErrInvalidPayload        = "invalid_payload"
	ErrInvalidState          = "invalid_state"
	ErrRevisionMismatch      = "invalid_state_revision_mismatch"
	ErrUnsupportedFormat     = "unsupported_format"
	ErrIO                    = "io_error"
	ErrNotImplemented        = "not_implemented"
	ErrUnknown               = "unknown"
	ErrResourceNotFound      = "resource_not_found"
	ErrToolRegistryEmpty     = "tool_registry_empty"
)

// retryAfterRefreshCodes marks codes where the client should re-run
// tools/list and get_project_state before retrying (max 2 attempts).
var retryAfterRefreshCodes = map[string]bool{
	ErrResourceNotFound:  true,
	ErrInvalidState:      true,
	ErrRevisionMismatch:  true,
	ErrToolRegistryEmpty: true,
}

// RetryAfterRefresh reports whether the given code carries the
// refresh-then-retry hint.
func RetryAfterRefresh(code string) bool {
	return retryAfterRefreshCodes[code]
}

// ToolError is the failure payload of a ToolResponse.
type ToolError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Fix     string         `json:"fix,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface so tool services can return a
// *ToolError through plain error paths.
func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ToolResponse is the typed result every tool service returns.
// Exactly one of Data (ok) or Err (not ok) is meaningful.
type ToolResponse struct {
	OK                bool           `json:"ok"`
	Data              any            `json:"data,omitempty"`
	StructuredContent any            `json:"structuredContent,omitempty"`
	Meta              map[string]any `json:"meta,omitempty"`
	NextActions       []string       `json:"nextActions,omitempty"`
	Err               *ToolError     `json:"error,omitempty"`
}

// Success builds an ok ToolResponse carrying data.
func Success(data any) ToolResponse {
	return ToolResponse{OK: true, Data: data}
}

// Failure builds a failed ToolResponse from a code and message.
func Failure(code, message string) ToolResponse {
	return ToolResponse{OK: false, Err: &ToolError{Code: code, Message: message}}
}

// FailureWith builds a failed ToolResponse with fix hint and details.
func FailureWith(code, message, fix string, details map[string]any) ToolResponse {
	return ToolResponse{OK: false, Err: &ToolError{Code: code, Message: message, Fix: fix, Details: details}}
}

// FromError wraps an arbitrary error into a failed ToolResponse.
// *ToolError values pass through with their code intact; anything else
// becomes "unknown" with the reason recorded in details.
func FromError(err error) ToolResponse {
	if te, ok := err.(*ToolError); ok {
		return ToolResponse{OK: false, Err: te}
	}
	return ToolResponse{OK: false, Err: &ToolError{
		Code:    ErrUnknown,
		Message: err.Error(),
		Details: map[string]any{"reason": err.Error()},
	}}
}
