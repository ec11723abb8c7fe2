// registry.go — Tool registry with compiled argument schemas.
// Each tool compiles its JSON Schema once at registration. The catalog is
// read-mostly: registration swaps a fresh map in under the lock, lookups copy
// the pointer out. A registered onChange hook fires after every catalog
// change so the router can broadcast notifications/tools/list_changed.
package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ashfox/ashfox-mcp/internal/mcp"
)

// Handler executes one tool call against a session's project.
type Handler func(call *Call) mcp.ToolResponse

// registered pairs a tool definition with its compiled schema and handler.
type registered struct {
	def     mcp.Tool
	schema  *jsonschema.Schema
	handler Handler
}

// Registry holds the callable tool catalog.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]*registered
	order    []string
	onChange func()
}

// NewRegistry creates an empty catalog.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*registered)}
}

// OnChange installs the hook fired after every catalog change.
func (r *Registry) OnChange(fn func()) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Register compiles the tool's input schema and adds it to the catalog.
// Re-registering a name replaces the previous entry.
func (r *Registry) Register(def mcp.Tool, handler Handler) error {
	if def.Name == "" {
		return fmt.Errorf("tool name required")
	}
	schema, err := compileSchema(def.Name, def.InputSchema)
	if err != nil {
		return fmt.Errorf("compile schema for %s: %w", def.Name, err)
	}

	r.mu.Lock()
	next := make(map[string]*registered, len(r.tools)+1)
	for k, v := range r.tools {
		next[k] = v
	}
	if _, exists := next[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	next[def.Name] = &registered{def: def, schema: schema, handler: handler}
	r.tools = next
	hook := r.onChange
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

// List returns tool definitions in registration order.
func (r *Registry) List() []mcp.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcp.Tool, 0, len(r.order))
	for _, name := range r.order {
		if t, ok := r.tools[name]; ok {
			out = append(out, t.def)
		}
	}
	return out
}

// Len returns the catalog size.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

func (r *Registry) lookup(name string) (*registered, bool) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	return t, ok
}

// compileSchema turns the schema document into a compiled validator.
func compileSchema(name string, doc map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	resource := name + ".schema.json"
	if err := c.AddResource(resource, parsed); err != nil {
		return nil, err
	}
	return c.Compile(resource)
}

// validateArgs checks raw arguments against the compiled schema. It returns
// the first failing path so the caller sees exactly which argument is wrong.
func validateArgs(schema *jsonschema.Schema, raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%s", firstFailure(err))
	}
	return doc, nil
}

// firstFailure digs out the deepest first cause of a validation error.
func firstFailure(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	path := "/" + strings.Join(ve.InstanceLocation, "/")
	printer := message.NewPrinter(language.English)
	return fmt.Sprintf("%s: %s", path, ve.ErrorKind.LocalizedString(printer))
}
