package resources

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashfox/ashfox-mcp/internal/mcp"
)

func TestListAndReadFixed(t *testing.T) {
	s := NewStore()

	list := s.List()
	require.NotEmpty(t, list)
	for _, r := range list {
		assert.True(t, strings.HasPrefix(r.URI, "ashfox://"), "uri %q", r.URI)
		content, err := s.Read(r.URI)
		require.NoError(t, err, "fixed resource %q must read back", r.URI)
		assert.Equal(t, r.URI, content.URI)
		assert.Equal(t, "text/markdown", content.MimeType)
		assert.NotEmpty(t, content.Text)
	}
}

func TestReadUnknownURI(t *testing.T) {
	s := NewStore()

	_, err := s.Read("ashfox://nope")
	require.Error(t, err)
	te, ok := err.(*mcp.ToolError)
	require.True(t, ok)
	assert.Equal(t, mcp.ErrResourceNotFound, te.Code)
	assert.True(t, mcp.RetryAfterRefresh(te.Code))
}

func TestTemplatesListed(t *testing.T) {
	s := NewStore()

	templates := s.ListTemplates()
	require.NotEmpty(t, templates)
	assert.Equal(t, "ashfox://export/{artifact}", templates[0].URITemplate)
}

func TestRegisteredResolver(t *testing.T) {
	s := NewStore()
	s.Register(
		mcp.ResourceTemplate{URITemplate: "ashfox://echo/{word}", Name: "Echo"},
		func(uri string) (*mcp.ResourceContent, bool, error) {
			word, ok := strings.CutPrefix(uri, "ashfox://echo/")
			if !ok {
				return nil, false, nil
			}
			return &mcp.ResourceContent{URI: uri, MimeType: "text/plain", Text: word}, true, nil
		},
	)

	content, err := s.Read("ashfox://echo/hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", content.Text)

	templates := s.ListTemplates()
	assert.Equal(t, "ashfox://echo/{word}", templates[len(templates)-1].URITemplate)

	_, err = s.Read("ashfox://other/x")
	require.Error(t, err, "resolver declines unrelated uris")
}
