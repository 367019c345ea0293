package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/quietsearch/internal/mcp/tools"
	"github.com/usestring/quietsearch/pkg/types"
)

// Resource URI scheme: quietsearch://
// Supported URIs:
//   quietsearch://schema/result-set
//   quietsearch://search/{search_id}

const (
	resultSetSchemaURI = "quietsearch://schema/result-set"
	searchURIPrefix    = "quietsearch://search/"
)

// registerResources registers resources, resource templates and their handlers.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         resultSetSchemaURI,
		Name:        "Result Set Schema",
		Description: "JSON Schema of the result list returned by the search tool.",
		MIMEType:    "application/schema+json",
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.2,
		},
	}, s.handleResultSetSchema)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: searchURIPrefix + "{search_id}",
		Name:        "Cached Search",
		Description: "A previous search with its filters and full result set. The search tool already returns the results; fetch this to re-read them after the conversation moved on.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.5,
		},
	}, s.handleResourceSearch)
}

func (s *Server) handleResultSetSchema(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	schema, err := ResultSetSchema()
	if err != nil {
		return nil, err
	}
	return toResourceResult(req.Params.URI, "application/schema+json", schema)
}

func (s *Server) handleResourceSearch(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	id, ok := strings.CutPrefix(req.Params.URI, searchURIPrefix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return nil, tools.ErrInvalidInput(fmt.Sprintf("invalid search URI: %s", req.Params.URI))
	}

	search, found := s.deps.Cache.Get(id)
	if !found {
		return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
	}
	return toResourceResult(req.Params.URI, tools.MimeJSON, search)
}

// ResultSetSchema reflects the JSON Schema of types.ResultSet.
func ResultSetSchema() (*jsonschema.Schema, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := r.Reflect(types.ResultSet{})
	if schema == nil {
		return nil, fmt.Errorf("reflecting result set schema")
	}
	schema.ID = jsonschema.ID(resultSetSchemaURI)
	schema.Title = "ResultSet"
	schema.Description = "Organic search results in provider order. Element i has rank i."
	return schema, nil
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri, mimeType string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: mimeType,
				Text:     string(data),
			},
		},
	}, nil
}
