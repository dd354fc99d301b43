package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/trakhound/trakhound-core/internal/core/domain"
)

const uriScheme = "trakhound://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "drivers",
		Name:        "drivers",
		Description: "Storage drivers with their availability and entity types",
		MIMEType:    "application/json",
	}, s.handleDriversResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "entities/{type}/{uuid}",
		Name:        "entity",
		Description: "A single entity by type and UUID",
		MIMEType:    "application/json",
	}, s.handleEntityResource)
}

func (s *Server) handleDriversResource(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.drivers())
}

func (s *Server) handleEntityResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	typeName, id, ok := parseEntityURI(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	t, err := domain.ParseEntityType(typeName)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	resp, err := s.ports.Entities.Read(ctx, t, []string{id})
	if err != nil {
		return nil, fmt.Errorf("reading %s %s: %w", t, id, err)
	}
	content := resp.Content()
	if len(content) == 0 {
		if errs := resp.InternalErrors(); len(errs) > 0 {
			return nil, fmt.Errorf("reading %s %s: %s", t, id, errs[0].Message)
		}
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(req.Params.URI, content[0])
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// parseEntityURI splits trakhound://entities/{type}/{uuid}.
func parseEntityURI(uri string) (entityType, id string, ok bool) {
	const prefix = uriScheme + "entities/"
	if !strings.HasPrefix(uri, prefix) {
		return "", "", false
	}
	entityType, id, ok = strings.Cut(strings.TrimPrefix(uri, prefix), "/")
	if !ok || entityType == "" || id == "" || strings.Contains(id, "/") {
		return "", "", false
	}
	return entityType, id, true
}
