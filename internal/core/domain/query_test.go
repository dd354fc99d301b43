package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperator(t *testing.T) {
	tests := []struct {
		in      string
		want    Operator
		wantErr bool
	}{
		{"and", OperatorAnd, false},
		{" OR ", OperatorOr, false},
		{"&&", OperatorAnd, false},
		{"||", OperatorOr, false},
		{"xor", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOperator(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseComparison(t *testing.T) {
	for in, want := range map[string]Comparison{"=": CompareEqual, "==": CompareEqual, ">=": CompareGreaterOrEqual, "Contains": CompareContains} {
		got, err := ParseComparison(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseComparison("~")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConditionGroup_Children(t *testing.T) {
	g := ConditionGroup{
		ID:       "root",
		Operator: OperatorAnd,
		Conditions: []Condition{
			{ID: "c1"},
			{ID: "c2"},
		},
		Groups: []ConditionGroup{
			{ID: "g1", Operator: OperatorOr, Conditions: []Condition{{ID: "c3"}}},
		},
	}

	assert.Equal(t, 3, g.ChildCount())
	assert.False(t, g.IsEmpty())
	assert.Equal(t, []string{"c1", "c2", "g1"}, g.ChildIDs())

	all := g.AllConditions()
	require.Len(t, all, 3)
	assert.Equal(t, "c3", all[2].ID)

	assert.True(t, ConditionGroup{}.IsEmpty())
}

func TestMatchPolicy_Required(t *testing.T) {
	assert.Equal(t, 3, MatchAll.Required(3))
	assert.Equal(t, 1, MatchAny.Required(3))
	assert.Equal(t, 2, MatchAtLeast(2).Required(3))
	assert.Equal(t, 1, MatchAtLeast(0).Required(3))
	assert.Equal(t, 1, MatchPolicy{}.Required(3))
}

func TestParseMatchPolicy(t *testing.T) {
	p, err := ParseMatchPolicy("all")
	require.NoError(t, err)
	assert.Equal(t, MatchAll, p)

	p, err = ParseMatchPolicy("")
	require.NoError(t, err)
	assert.Equal(t, MatchAll, p)

	p, err = ParseMatchPolicy("legacy")
	require.NoError(t, err)
	assert.Equal(t, MatchAny, p)

	p, err = ParseMatchPolicy("2")
	require.NoError(t, err)
	assert.Equal(t, "at-least-2", p.String())

	_, err = ParseMatchPolicy("none")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParseMatchPolicy("0")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParseMatchPolicy("3x")
	assert.ErrorIs(t, err, ErrInvalidInput)

	p, err = ParseMatchPolicy(" 3 ")
	require.NoError(t, err)
	assert.Equal(t, "at-least-3", p.String())
}

func TestStatement_UnmarshalJSON(t *testing.T) {
	var stmt Statement
	err := json.Unmarshal([]byte(`{"targets":["t1"],"group":{"id":"root","operator":"or",
		"conditions":[{"id":"c1","path":"status","comparison":"==","value":"ACTIVE"}]}}`), &stmt)
	require.NoError(t, err)
	assert.Equal(t, OperatorOr, stmt.Group.Operator)
	assert.Equal(t, CompareEqual, stmt.Group.Conditions[0].Comparison)

	err = json.Unmarshal([]byte(`{"group":{"id":"root","operator":""}}`), &stmt)
	require.NoError(t, err)
	assert.Equal(t, Operator(""), stmt.Group.Operator)

	tests := map[string]string{
		"operator":   `{"group":{"id":"root","operator":"xor"}}`,
		"comparison": `{"group":{"id":"root","conditions":[{"id":"c1","comparison":"eq"}]}}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			var stmt Statement
			assert.ErrorIs(t, json.Unmarshal([]byte(raw), &stmt), ErrInvalidInput)
		})
	}
}

func TestStatement_Validate(t *testing.T) {
	cond := func(id string) Condition {
		return Condition{ID: id, Path: "status", Comparison: CompareEqual, Value: "ACTIVE"}
	}
	tests := []struct {
		name    string
		group   *ConditionGroup
		wantErr bool
	}{
		{name: "no group", group: nil},
		{name: "valid", group: &ConditionGroup{ID: "root", Conditions: []Condition{cond("c1"), cond("c2")},
			Groups: []ConditionGroup{{ID: "g1", Operator: OperatorOr, Conditions: []Condition{cond("c3")}}}}},
		{name: "condition without id", group: &ConditionGroup{ID: "root", Conditions: []Condition{cond(""), cond("")}}, wantErr: true},
		{name: "group without id", group: &ConditionGroup{Conditions: []Condition{cond("c1")}}, wantErr: true},
		{name: "duplicate condition", group: &ConditionGroup{ID: "root", Conditions: []Condition{cond("c1"), cond("c1")}}, wantErr: true},
		{name: "condition clashes with group", group: &ConditionGroup{ID: "root", Conditions: []Condition{cond("g1")},
			Groups: []ConditionGroup{{ID: "g1", Conditions: []Condition{cond("c2")}}}}, wantErr: true},
		{name: "duplicate across nesting", group: &ConditionGroup{ID: "root", Conditions: []Condition{cond("c1")},
			Groups: []ConditionGroup{{ID: "g1", Conditions: []Condition{cond("c1")}}}}, wantErr: true},
		{name: "unknown comparison", group: &ConditionGroup{ID: "root", Conditions: []Condition{{ID: "c1", Comparison: "eq"}}}, wantErr: true},
		{name: "missing comparison", group: &ConditionGroup{ID: "root", Conditions: []Condition{{ID: "c1", Path: "status"}}}, wantErr: true},
		{name: "unknown operator", group: &ConditionGroup{ID: "root", Operator: "or", Conditions: []Condition{cond("c1")}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Statement{Targets: []string{"t1"}, Group: tt.group}).Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}
}
