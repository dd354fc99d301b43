package services

import (
	"context"

	"github.com/trakhound/trakhound-core/internal/core/domain"
)

// ConditionEvaluator produces the per-target outcomes of one condition.
// Implementations decide how a condition maps onto stored entities.
type ConditionEvaluator interface {
	Evaluate(ctx context.Context, stmt *domain.Statement, condition domain.Condition) ([]domain.EvaluatorResult, error)
}

// ConditionGroupEvaluator combines per-condition outcomes under a group's
// operator. It holds no state between calls.
type ConditionGroupEvaluator struct {
	group  domain.ConditionGroup
	policy domain.MatchPolicy
}

// NewConditionGroupEvaluator creates an evaluator for group. policy sets
// how many distinct child conditions must match a group key under AND.
func NewConditionGroupEvaluator(group domain.ConditionGroup, policy domain.MatchPolicy) *ConditionGroupEvaluator {
	return &ConditionGroupEvaluator{group: group, policy: policy}
}

// Evaluate returns the successful results that satisfy the group. A nil
// statement, an empty group or no results yield an empty slice.
func (e *ConditionGroupEvaluator) Evaluate(stmt *domain.Statement, results []domain.EvaluatorResult) []domain.EvaluatorResult {
	if stmt == nil || e.group.IsEmpty() || len(results) == 0 {
		return []domain.EvaluatorResult{}
	}
	return e.evaluate(e.group, results)
}

func (e *ConditionGroupEvaluator) evaluate(group domain.ConditionGroup, results []domain.EvaluatorResult) []domain.EvaluatorResult {
	children := make(map[string]struct{}, len(group.Conditions))
	for _, c := range group.Conditions {
		children[c.ID] = struct{}{}
	}

	matched := []domain.EvaluatorResult{}
	for _, r := range results {
		if !r.Success {
			continue
		}
		if _, ok := children[r.ConditionID]; ok {
			matched = append(matched, r)
		}
	}

	// A nested group counts as one child condition of its parent.
	for _, sub := range group.Groups {
		for _, r := range e.evaluate(sub, results) {
			r.ConditionID = sub.ID
			matched = append(matched, r)
		}
	}

	// An unset operator combines like AND.
	if group.Operator == domain.OperatorOr {
		return matched
	}

	tally := make(map[string]map[string]struct{})
	for _, r := range matched {
		conds, ok := tally[r.GroupID]
		if !ok {
			conds = make(map[string]struct{})
			tally[r.GroupID] = conds
		}
		conds[r.ConditionID] = struct{}{}
	}

	required := e.policy.Required(group.ChildCount())
	qualified := []domain.EvaluatorResult{}
	for _, r := range matched {
		if len(tally[r.GroupID]) >= required {
			qualified = append(qualified, r)
		}
	}
	return qualified
}
