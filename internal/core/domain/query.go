package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Operator combines the children of a ConditionGroup.
type Operator string

// Operators.
const (
	OperatorAnd Operator = "AND"
	OperatorOr  Operator = "OR"
)

// ParseOperator resolves a case-insensitive operator name.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AND", "&&":
		return OperatorAnd, nil
	case "OR", "||":
		return OperatorOr, nil
	}
	return "", fmt.Errorf("%w: operator %q", ErrInvalidInput, s)
}

// UnmarshalText accepts any spelling ParseOperator does. An empty operator
// stays unset.
func (o *Operator) UnmarshalText(text []byte) error {
	if strings.TrimSpace(string(text)) == "" {
		*o = ""
		return nil
	}
	op, err := ParseOperator(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// Comparison is the predicate a Condition applies to a value.
type Comparison string

// Comparisons.
const (
	CompareEqual          Comparison = "="
	CompareNotEqual       Comparison = "!="
	CompareGreater        Comparison = ">"
	CompareGreaterOrEqual Comparison = ">="
	CompareLess           Comparison = "<"
	CompareLessOrEqual    Comparison = "<="
	CompareContains       Comparison = "contains"
)

// ParseComparison resolves a comparison symbol. "==" is accepted for "=".
func ParseComparison(s string) (Comparison, error) {
	c := Comparison(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case "==":
		return CompareEqual, nil
	case CompareEqual, CompareNotEqual, CompareGreater, CompareGreaterOrEqual,
		CompareLess, CompareLessOrEqual, CompareContains:
		return c, nil
	}
	return "", fmt.Errorf("%w: comparison %q", ErrInvalidInput, s)
}

// UnmarshalText accepts any spelling ParseComparison does.
func (c *Comparison) UnmarshalText(text []byte) error {
	cmp, err := ParseComparison(string(text))
	if err != nil {
		return err
	}
	*c = cmp
	return nil
}

// Condition is a leaf predicate: the value at Path (relative to a target
// object) compared against Value.
type Condition struct {
	ID         string     `json:"id"`
	Path       string     `json:"path"`
	Comparison Comparison `json:"comparison"`
	Value      string     `json:"value"`
}

// ConditionGroup combines child conditions and nested groups.
type ConditionGroup struct {
	ID         string           `json:"id"`
	Operator   Operator         `json:"operator"`
	Conditions []Condition      `json:"conditions,omitempty"`
	Groups     []ConditionGroup `json:"groups,omitempty"`
}

// ChildCount returns the number of direct children.
func (g ConditionGroup) ChildCount() int {
	return len(g.Conditions) + len(g.Groups)
}

// IsEmpty reports whether the group has no children.
func (g ConditionGroup) IsEmpty() bool {
	return g.ChildCount() == 0
}

// ChildIDs returns the IDs of the direct children, conditions first.
func (g ConditionGroup) ChildIDs() []string {
	ids := make([]string, 0, g.ChildCount())
	for _, c := range g.Conditions {
		ids = append(ids, c.ID)
	}
	for _, sub := range g.Groups {
		ids = append(ids, sub.ID)
	}
	return ids
}

// AllConditions returns every leaf condition in the group tree.
func (g ConditionGroup) AllConditions() []Condition {
	all := append([]Condition(nil), g.Conditions...)
	for _, sub := range g.Groups {
		all = append(all, sub.AllConditions()...)
	}
	return all
}

// Statement is a query: the candidate target objects and the condition
// tree they must satisfy.
type Statement struct {
	Targets []string        `json:"targets"`
	Group   *ConditionGroup `json:"group"`
}

// Validate checks the condition tree. Every condition and group needs an
// ID that is unique within the tree, since match tallies are keyed by it.
func (s *Statement) Validate() error {
	if s.Group == nil {
		return nil
	}
	return s.Group.validate(make(map[string]struct{}))
}

func (g *ConditionGroup) validate(seen map[string]struct{}) error {
	if err := claimID(seen, "group", g.ID); err != nil {
		return err
	}
	switch g.Operator {
	case "", OperatorAnd, OperatorOr:
	default:
		return fmt.Errorf("%w: group %s: operator %q", ErrInvalidInput, g.ID, g.Operator)
	}
	for _, c := range g.Conditions {
		if err := claimID(seen, "condition", c.ID); err != nil {
			return err
		}
		if _, err := ParseComparison(string(c.Comparison)); err != nil {
			return fmt.Errorf("condition %s: %w", c.ID, err)
		}
	}
	for i := range g.Groups {
		if err := g.Groups[i].validate(seen); err != nil {
			return err
		}
	}
	return nil
}

func claimID(seen map[string]struct{}, kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s without id", ErrInvalidInput, kind)
	}
	if _, ok := seen[id]; ok {
		return fmt.Errorf("%w: duplicate id %q", ErrInvalidInput, id)
	}
	seen[id] = struct{}{}
	return nil
}

// EvaluatorResult is one per-condition match outcome. GroupID correlates
// outcomes of different conditions for the same target.
type EvaluatorResult struct {
	ID          string `json:"id"`
	ConditionID string `json:"conditionId"`
	GroupID     string `json:"groupId"`
	Success     bool   `json:"success"`
}

// MatchPolicy decides how many distinct conditions must match a group key
// for it to pass an AND.
type MatchPolicy struct {
	name     string
	minimum  int
	matchAll bool
}

var (
	// MatchAll requires every child condition to match.
	MatchAll = MatchPolicy{name: "all", matchAll: true}

	// MatchAny requires a single matching condition. This mirrors the
	// legacy AND behaviour of a constant threshold of one.
	MatchAny = MatchPolicy{name: "any", minimum: 1}
)

// MatchAtLeast requires at least n matching conditions.
func MatchAtLeast(n int) MatchPolicy {
	if n < 1 {
		n = 1
	}
	return MatchPolicy{name: fmt.Sprintf("at-least-%d", n), minimum: n}
}

// ParseMatchPolicy resolves "all", "any" or a positive count.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	switch trimmed {
	case "", "all":
		return MatchAll, nil
	case "any", "legacy":
		return MatchAny, nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 1 {
		return MatchPolicy{}, fmt.Errorf("%w: match policy %q", ErrInvalidInput, s)
	}
	return MatchAtLeast(n), nil
}

// Required returns the tally a group key needs given childCount children.
func (p MatchPolicy) Required(childCount int) int {
	if p.matchAll {
		return childCount
	}
	if p.minimum < 1 {
		return 1
	}
	return p.minimum
}

// String returns the policy name.
func (p MatchPolicy) String() string {
	if p.name == "" {
		return "all"
	}
	return p.name
}
