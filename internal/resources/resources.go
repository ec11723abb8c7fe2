// resources.go — MCP resource store.
// Fixed resources are embedded markdown guides; templated resources resolve
// on demand through registered resolver funcs. The catalogs are read-mostly,
// so reads copy slices out under a read lock and registration replaces them
// copy-on-write.
package resources

import (
	"sync"

	"github.com/ashfox/ashfox-mcp/internal/mcp"
)

// Resolver answers reads for templated URIs. It reports ok=false when the uri
// does not belong to it, letting the store try the next resolver.
type Resolver func(uri string) (content *mcp.ResourceContent, ok bool, err error)

// Store holds the resource and template catalogs.
type Store struct {
	mu        sync.RWMutex
	fixed     []mcp.Resource
	bodies    map[string]string
	templates []mcp.ResourceTemplate
	resolvers []Resolver
}

// NewStore builds the catalog with the built-in guides.
func NewStore() *Store {
	s := &Store{bodies: make(map[string]string)}
	for _, g := range builtinGuides() {
		s.fixed = append(s.fixed, g.Resource)
		s.bodies[g.Resource.URI] = g.Body
	}
	s.templates = builtinTemplates()
	return s
}

// List returns the fixed resource catalog.
func (s *Store) List() []mcp.Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]mcp.Resource, len(s.fixed))
	copy(out, s.fixed)
	return out
}

// ListTemplates returns the template catalog.
func (s *Store) ListTemplates() []mcp.ResourceTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]mcp.ResourceTemplate, len(s.templates))
	copy(out, s.templates)
	return out
}

// Register adds a resolver for templated URIs along with its catalog entry.
func (s *Store) Register(template mcp.ResourceTemplate, resolve Resolver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	templates := make([]mcp.ResourceTemplate, 0, len(s.templates)+1)
	templates = append(templates, s.templates...)
	s.templates = append(templates, template)
	resolvers := make([]Resolver, 0, len(s.resolvers)+1)
	resolvers = append(resolvers, s.resolvers...)
	s.resolvers = append(resolvers, resolve)
}

// Read returns the content for a URI. Fixed entries win over resolvers.
// Unknown URIs return a resource_not_found tool error, which the router maps
// to JSON-RPC -32602.
func (s *Store) Read(uri string) (*mcp.ResourceContent, error) {
	s.mu.RLock()
	body, fixed := s.bodies[uri]
	resolvers := s.resolvers
	s.mu.RUnlock()

	if fixed {
		return &mcp.ResourceContent{URI: uri, MimeType: "text/markdown", Text: body}, nil
	}
	for _, resolve := range resolvers {
		content, ok, err := resolve(uri)
		if err != nil {
			return nil, err
		}
		if ok {
			return content, nil
		}
	}
	return nil, &mcp.ToolError{
		Code:    mcp.ErrResourceNotFound,
		Message: "unknown resource uri: " + uri,
		Fix:     "call resources/list or resources/templates/list for available uris",
	}
}
