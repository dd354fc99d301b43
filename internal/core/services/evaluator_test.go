package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trakhound/trakhound-core/internal/core/domain"
)

func groupIDs(results []domain.EvaluatorResult) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, r := range results {
		if _, ok := seen[r.GroupID]; ok {
			continue
		}
		seen[r.GroupID] = struct{}{}
		ids = append(ids, r.GroupID)
	}
	return ids
}

func andGroup() domain.ConditionGroup {
	return domain.ConditionGroup{
		ID:         "root",
		Operator:   domain.OperatorAnd,
		Conditions: []domain.Condition{{ID: "C1"}, {ID: "C2"}},
	}
}

var andResults = []domain.EvaluatorResult{
	{ID: "r1", ConditionID: "C1", GroupID: "G1", Success: true},
	{ID: "r2", ConditionID: "C2", GroupID: "G1", Success: true},
	{ID: "r3", ConditionID: "C1", GroupID: "G2", Success: true},
}

func TestConditionGroupEvaluator_AndRequiresEveryCondition(t *testing.T) {
	e := NewConditionGroupEvaluator(andGroup(), domain.MatchAll)

	got := e.Evaluate(&domain.Statement{}, andResults)

	assert.Equal(t, []string{"G1"}, groupIDs(got))
	assert.Len(t, got, 2)
}

// The legacy AND combined with a constant threshold of one, which lets a
// group matching only C1 through.
func TestConditionGroupEvaluator_AndLegacyThreshold(t *testing.T) {
	e := NewConditionGroupEvaluator(andGroup(), domain.MatchAny)

	got := e.Evaluate(&domain.Statement{}, andResults)

	assert.Equal(t, []string{"G1", "G2"}, groupIDs(got))
}

func TestConditionGroupEvaluator_AndCountsDistinctConditions(t *testing.T) {
	e := NewConditionGroupEvaluator(andGroup(), domain.MatchAll)
	results := []domain.EvaluatorResult{
		{ID: "r1", ConditionID: "C1", GroupID: "G1", Success: true},
		{ID: "r2", ConditionID: "C1", GroupID: "G1", Success: true},
		{ID: "r3", ConditionID: "C2", GroupID: "G1", Success: false},
	}

	assert.Empty(t, e.Evaluate(&domain.Statement{}, results))
}

func TestConditionGroupEvaluator_AndIgnoresForeignConditions(t *testing.T) {
	e := NewConditionGroupEvaluator(andGroup(), domain.MatchAll)
	results := []domain.EvaluatorResult{
		{ID: "r1", ConditionID: "C1", GroupID: "G1", Success: true},
		{ID: "r2", ConditionID: "C9", GroupID: "G1", Success: true},
	}

	assert.Empty(t, e.Evaluate(&domain.Statement{}, results))
}

func TestConditionGroupEvaluator_Or(t *testing.T) {
	group := domain.ConditionGroup{
		ID:         "root",
		Operator:   domain.OperatorOr,
		Conditions: []domain.Condition{{ID: "C1"}, {ID: "C2"}},
	}
	e := NewConditionGroupEvaluator(group, domain.MatchAll)
	results := []domain.EvaluatorResult{
		{ID: "r1", ConditionID: "C1", GroupID: "G1", Success: true},
		{ID: "r2", ConditionID: "C2", GroupID: "G2", Success: false},
	}

	got := e.Evaluate(&domain.Statement{}, results)

	require.Len(t, got, 1)
	assert.Equal(t, "G1", got[0].GroupID)
}

func TestConditionGroupEvaluator_NestedGroup(t *testing.T) {
	// C1 AND (C2 OR C3)
	group := domain.ConditionGroup{
		ID:         "root",
		Operator:   domain.OperatorAnd,
		Conditions: []domain.Condition{{ID: "C1"}},
		Groups: []domain.ConditionGroup{{
			ID:         "inner",
			Operator:   domain.OperatorOr,
			Conditions: []domain.Condition{{ID: "C2"}, {ID: "C3"}},
		}},
	}
	e := NewConditionGroupEvaluator(group, domain.MatchAll)
	results := []domain.EvaluatorResult{
		{ID: "a", ConditionID: "C1", GroupID: "G1", Success: true},
		{ID: "b", ConditionID: "C3", GroupID: "G1", Success: true},
		{ID: "c", ConditionID: "C1", GroupID: "G2", Success: true},
		{ID: "d", ConditionID: "C2", GroupID: "G3", Success: true},
	}

	got := e.Evaluate(&domain.Statement{}, results)

	assert.Equal(t, []string{"G1"}, groupIDs(got))
	for _, r := range got {
		if r.ID == "b" {
			assert.Equal(t, "inner", r.ConditionID)
		}
	}
}

func TestConditionGroupEvaluator_EmptyInputs(t *testing.T) {
	e := NewConditionGroupEvaluator(andGroup(), domain.MatchAll)

	assert.Empty(t, e.Evaluate(nil, andResults))
	assert.Empty(t, e.Evaluate(&domain.Statement{}, nil))
	assert.NotNil(t, e.Evaluate(nil, andResults))

	empty := NewConditionGroupEvaluator(domain.ConditionGroup{ID: "root"}, domain.MatchAll)
	assert.Empty(t, empty.Evaluate(&domain.Statement{}, andResults))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		actual   string
		cmp      domain.Comparison
		expected string
		want     bool
	}{
		{"10", domain.CompareGreater, "9", true},
		{"10", domain.CompareGreater, "90", false},
		{"1.50", domain.CompareEqual, "1.5", true},
		{"ACTIVE", domain.CompareEqual, "ACTIVE", true},
		{"ACTIVE", domain.CompareNotEqual, "STOPPED", true},
		{"abc", domain.CompareLess, "abd", true},
		{"true", domain.CompareEqual, "TRUE", true},
		{"false", domain.CompareGreater, "true", false},
		{"spindle overload", domain.CompareContains, "overload", true},
		{"5", domain.Comparison("~"), "5", false},
	}
	for _, tt := range tests {
		t.Run(tt.actual+string(tt.cmp)+tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.actual, tt.cmp, tt.expected))
		})
	}
}

func TestFacetConditionEvaluator_Evaluate(t *testing.T) {
	working := domain.NewEntityCollection()
	mill := domain.NewObject("main", "/machines/mill", "", "", "")
	lathe := domain.NewObject("main", "/machines/lathe", "", "", "")
	millStatus := domain.ObjectUUID("main", "/machines/mill/status")
	latheStatus := domain.ObjectUUID("main", "/machines/lathe/status")
	millTemp := domain.ObjectUUID("main", "/machines/mill/temp")

	for _, e := range []domain.Entity{
		mill, lathe,
		domain.NewString(millStatus, "ACTIVE", ""),
		domain.NewString(latheStatus, "STOPPED", ""),
		domain.NewObservation(millTemp, "float", "40", 1, 1, 100, ""),
		domain.NewObservation(millTemp, "float", "80", 1, 2, 200, ""),
	} {
		_, err := working.Add(e)
		require.NoError(t, err)
	}

	stmt := &domain.Statement{Targets: []string{mill.UUID, lathe.UUID, "missing"}}
	eval := NewFacetConditionEvaluator(working)

	got, err := eval.Evaluate(context.Background(), stmt, domain.Condition{
		ID: "C1", Path: "status", Comparison: domain.CompareEqual, Value: "ACTIVE",
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.EvaluatorResult{ID: mill.UUID, ConditionID: "C1", GroupID: mill.UUID, Success: true}, got[0])
	assert.False(t, got[1].Success)

	got, err = eval.Evaluate(context.Background(), stmt, domain.Condition{
		ID: "C2", Path: "temp", Comparison: domain.CompareGreater, Value: "50",
	})
	require.NoError(t, err)
	assert.True(t, got[0].Success, "latest observation is 80")
}

func TestFacetConditionEvaluator_Cancelled(t *testing.T) {
	working := domain.NewEntityCollection()
	obj := domain.NewObject("main", "/a", "", "", "")
	_, _ = working.Add(obj)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFacetConditionEvaluator(working).Evaluate(ctx, &domain.Statement{Targets: []string{obj.UUID}}, domain.Condition{ID: "C1"})
	assert.ErrorIs(t, err, context.Canceled)
}
