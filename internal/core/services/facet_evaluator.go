package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/trakhound/trakhound-core/internal/core/domain"
)

// Verify interface compliance.
var _ ConditionEvaluator = (*FacetConditionEvaluator)(nil)

// FacetConditionEvaluator evaluates conditions against the value facets of
// objects in a working set. For each target object the condition path
// selects an object relative to the target; the condition matches when
// any of that object's String, Number or Boolean values, or its latest
// Observation, satisfies the comparison.
type FacetConditionEvaluator struct {
	entities *domain.EntityCollection
}

// NewFacetConditionEvaluator creates an evaluator reading from entities.
// The collection must not be modified while evaluations run.
func NewFacetConditionEvaluator(entities *domain.EntityCollection) *FacetConditionEvaluator {
	return &FacetConditionEvaluator{entities: entities}
}

// Evaluate returns one result per target object found in the working set.
// Results are keyed by the target UUID.
func (e *FacetConditionEvaluator) Evaluate(ctx context.Context, stmt *domain.Statement, condition domain.Condition) ([]domain.EvaluatorResult, error) {
	if stmt == nil {
		return nil, nil
	}
	results := make([]domain.EvaluatorResult, 0, len(stmt.Targets))
	for _, target := range Distinct(stmt.Targets) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		obj, ok := e.entities.Objects.Get(target)
		if !ok {
			continue
		}
		subject := domain.ObjectUUID(obj.Namespace, domain.ResolvePath(obj.Path, condition.Path))
		results = append(results, domain.EvaluatorResult{
			ID:          target,
			ConditionID: condition.ID,
			GroupID:     target,
			Success:     e.matches(subject, condition),
		})
	}
	return results, nil
}

func (e *FacetConditionEvaluator) matches(objectUUID string, condition domain.Condition) bool {
	for _, v := range e.values(objectUUID) {
		if Compare(v, condition.Comparison, condition.Value) {
			return true
		}
	}
	return false
}

func (e *FacetConditionEvaluator) values(objectUUID string) []string {
	var values []string
	strs, _ := e.entities.QueryStringsByObject(objectUUID)
	for _, s := range strs {
		values = append(values, s.Value)
	}
	nums, _ := e.entities.QueryNumbersByObject(objectUUID)
	for _, n := range nums {
		values = append(values, n.Value)
	}
	bools, _ := e.entities.QueryBooleansByObject(objectUUID)
	for _, b := range bools {
		values = append(values, strconv.FormatBool(b.Value))
	}
	if obs, ok := e.entities.LatestObservation(objectUUID); ok {
		values = append(values, obs.Value)
	}
	return values
}

// Compare applies cmp to actual and expected. Values that both parse as
// numbers compare numerically, booleans compare by truth value, anything
// else compares as text.
func Compare(actual string, cmp domain.Comparison, expected string) bool {
	if cmp == domain.CompareContains {
		return strings.Contains(actual, expected)
	}

	a, aErr := strconv.ParseFloat(strings.TrimSpace(actual), 64)
	b, bErr := strconv.ParseFloat(strings.TrimSpace(expected), 64)
	if aErr == nil && bErr == nil {
		return compareOrdered(a, b, cmp)
	}

	if ab, err := strconv.ParseBool(actual); err == nil {
		if bb, err := strconv.ParseBool(expected); err == nil {
			switch cmp {
			case domain.CompareEqual:
				return ab == bb
			case domain.CompareNotEqual:
				return ab != bb
			}
			return false
		}
	}

	return compareOrdered(actual, expected, cmp)
}

func compareOrdered[V float64 | string](a, b V, cmp domain.Comparison) bool {
	switch cmp {
	case domain.CompareEqual:
		return a == b
	case domain.CompareNotEqual:
		return a != b
	case domain.CompareGreater:
		return a > b
	case domain.CompareGreaterOrEqual:
		return a >= b
	case domain.CompareLess:
		return a < b
	case domain.CompareLessOrEqual:
		return a <= b
	}
	return false
}
