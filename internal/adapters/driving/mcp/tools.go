package mcp

import (
	"context"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/trakhound/trakhound-core/internal/core/domain"
)

// ReadInput is the input schema for the read_entities and
// object_entities tools.
type ReadInput struct {
	Type  string   `json:"type" jsonschema:"entity type, e.g. Object, String, Number, Observation"`
	UUIDs []string `json:"uuids" jsonschema:"entity UUIDs, or owning object UUIDs for object_entities"`
}

// ReadOutput is the output schema for the entity tools.
type ReadOutput struct {
	Results []ResultOutput `json:"results"`
	Count   int            `json:"count"`
}

// ResultOutput is one result of a response.
type ResultOutput struct {
	Request string `json:"request"`
	Type    string `json:"type"`
	Source  string `json:"source,omitempty"`
	Message string `json:"message,omitempty"`
	Content any    `json:"content,omitempty"`
}

// QueryInput is the input schema for the query_objects tool.
type QueryInput struct {
	Targets    []string         `json:"targets" jsonschema:"UUIDs of the objects to test"`
	Operator   string           `json:"operator,omitempty" jsonschema:"how conditions combine: AND or OR (default AND)"`
	Conditions []ConditionInput `json:"conditions,omitempty" jsonschema:"conditions evaluated relative to each target's path"`
}

// ConditionInput is one query condition.
type ConditionInput struct {
	Path       string `json:"path" jsonschema:"path relative to the target object, e.g. status"`
	Comparison string `json:"comparison" jsonschema:"one of =, !=, >, >=, <, <=, contains"`
	Value      string `json:"value"`
}

// QueryOutput is the output schema for the query_objects tool.
type QueryOutput struct {
	Matches []ObjectOutput `json:"matches"`
	Results []ResultOutput `json:"results"`
}

// ObjectOutput identifies a matched object.
type ObjectOutput struct {
	UUID string `json:"uuid"`
	Path string `json:"path"`
}

// DriversOutput is the output schema for the list_drivers tool.
type DriversOutput struct {
	Drivers []DriverOutput `json:"drivers"`
}

// DriverOutput describes one driver.
type DriverOutput struct {
	ID        string   `json:"id"`
	Available bool     `json:"available"`
	Message   string   `json:"message,omitempty"`
	Types     []string `json:"types"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "read_entities",
		Description: "Read TrakHound entities of one type by UUID",
	}, s.handleRead)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "object_entities",
		Description: "List the entities of one type owned by objects",
	}, s.handleObjectEntities)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_objects",
		Description: "Find the target objects whose values satisfy conditions",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_drivers",
		Description: "List storage drivers with their availability and entity types",
	}, s.handleDrivers)
}

func (s *Server) handleRead(ctx context.Context, _ *mcp.CallToolRequest, input ReadInput) (*mcp.CallToolResult, ReadOutput, error) {
	t, err := domain.ParseEntityType(input.Type)
	if err != nil {
		return nil, ReadOutput{}, err
	}
	resp, err := s.ports.Entities.Read(ctx, t, input.UUIDs)
	if err != nil {
		return nil, ReadOutput{}, err
	}
	return nil, readOutput(resp), nil
}

func (s *Server) handleObjectEntities(ctx context.Context, _ *mcp.CallToolRequest, input ReadInput) (*mcp.CallToolResult, ReadOutput, error) {
	t, err := domain.ParseEntityType(input.Type)
	if err != nil {
		return nil, ReadOutput{}, err
	}
	resp, err := s.ports.Entities.QueryByObject(ctx, t, input.UUIDs)
	if err != nil {
		return nil, ReadOutput{}, err
	}
	return nil, readOutput(resp), nil
}

func (s *Server) handleQuery(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, QueryOutput, error) {
	stmt, err := statement(input)
	if err != nil {
		return nil, QueryOutput{}, err
	}
	resp := s.ports.Query.Query(ctx, &stmt)

	output := QueryOutput{Matches: []ObjectOutput{}, Results: results(resp)}
	for _, r := range resp.Results() {
		if r.Type == domain.ResultOk {
			output.Matches = append(output.Matches, ObjectOutput{UUID: r.Content.UUID, Path: r.Content.Path})
		}
	}
	s.log.Debug("query_objects: %d of %d targets matched", len(output.Matches), len(stmt.Targets))
	return nil, output, nil
}

func (s *Server) handleDrivers(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, DriversOutput, error) {
	return nil, DriversOutput{Drivers: s.drivers()}, nil
}

func (s *Server) drivers() []DriverOutput {
	out := []DriverOutput{}
	if s.ports.Drivers == nil {
		return out
	}
	for _, d := range s.ports.Drivers.Drivers() {
		types := make([]string, 0, len(d.Routes))
		for t := range d.Routes {
			types = append(types, string(t))
		}
		sort.Strings(types)
		out = append(out, DriverOutput{ID: d.ID, Available: d.Available, Message: d.Message, Types: types})
	}
	return out
}

func statement(input QueryInput) (domain.Statement, error) {
	op := domain.OperatorAnd
	if input.Operator != "" {
		parsed, err := domain.ParseOperator(input.Operator)
		if err != nil {
			return domain.Statement{}, err
		}
		op = parsed
	}
	group := &domain.ConditionGroup{ID: "root", Operator: op}
	for i, c := range input.Conditions {
		cmp, err := domain.ParseComparison(c.Comparison)
		if err != nil {
			return domain.Statement{}, err
		}
		group.Conditions = append(group.Conditions, domain.Condition{
			ID:         fmt.Sprintf("c%d", i+1),
			Path:       c.Path,
			Comparison: cmp,
			Value:      c.Value,
		})
	}
	return domain.Statement{Targets: input.Targets, Group: group}, nil
}

func readOutput(resp domain.Response[domain.Entity]) ReadOutput {
	out := results(resp)
	return ReadOutput{Results: out, Count: len(out)}
}

func results[T any](resp domain.Response[T]) []ResultOutput {
	out := make([]ResultOutput, 0, resp.Len())
	for _, r := range resp.Results() {
		ro := ResultOutput{Request: r.Request, Type: r.Type.String(), Source: r.Source, Message: r.Message}
		if r.Type == domain.ResultOk {
			ro.Content = r.Content
		}
		out = append(out, ro)
	}
	return out
}
