package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/core/ports/driving"
	"github.com/trakhound/trakhound-core/internal/logger"
)

// Verify interface compliance.
var _ driving.QueryService = (*QueryService)(nil)

// querySource is the Source of results produced by the query service.
const querySource = "query"

// EvaluatorFactory builds the per-condition evaluator for a working set.
type EvaluatorFactory func(entities *domain.EntityCollection) ConditionEvaluator

// QueryOption configures a QueryService.
type QueryOption func(*QueryService)

// WithEvaluatorFactory replaces the default facet evaluator.
func WithEvaluatorFactory(f EvaluatorFactory) QueryOption {
	return func(s *QueryService) {
		s.newEvaluator = f
	}
}

// WithConcurrency bounds the number of conditions evaluated at once.
func WithConcurrency(n int) QueryOption {
	return func(s *QueryService) {
		s.concurrency = n
	}
}

// QueryService implements driving.QueryService.
type QueryService struct {
	registry     *Registry
	policy       domain.MatchPolicy
	newEvaluator EvaluatorFactory
	concurrency  int
	log          *logger.Logger
}

// NewQueryService creates a query service that combines AND groups with
// policy.
func NewQueryService(registry *Registry, policy domain.MatchPolicy, log *logger.Logger, opts ...QueryOption) *QueryService {
	s := &QueryService{
		registry: registry,
		policy:   policy,
		newEvaluator: func(entities *domain.EntityCollection) ConditionEvaluator {
			return NewFacetConditionEvaluator(entities)
		},
		concurrency: 8,
		log:         log.Named("query"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query returns one result per target: Ok with the object when it
// satisfies the statement's group, Empty when it does not, and the read
// outcome when the target could not be loaded. A statement whose condition
// tree fails validation is BadRequest for every target.
func (s *QueryService) Query(ctx context.Context, stmt *domain.Statement) domain.Response[domain.Object] {
	if stmt == nil || len(stmt.Targets) == 0 {
		return domain.SingleResponse(domain.BadRequest[domain.Object](querySource, "", "no targets"), 0)
	}
	start := time.Now()
	targets := Distinct(stmt.Targets)
	if err := stmt.Validate(); err != nil {
		s.log.Warn("rejected statement: %v", err)
		results := make([]domain.Result[domain.Object], len(targets))
		for i, target := range targets {
			results[i] = domain.BadRequest[domain.Object](querySource, target, err.Error())
		}
		return domain.NewResponse(results, time.Since(start))
	}

	var group domain.ConditionGroup
	if stmt.Group != nil {
		group = *stmt.Group
	}

	working := domain.NewEntityCollection()
	loaded := Read[domain.Object](ctx, s.registry, targets)
	for _, obj := range loaded.Content() {
		_, _ = working.Add(obj)
	}

	if err := s.loadFacets(ctx, working, targets, group); err != nil {
		return s.fail(targets, err, start)
	}

	conditions := group.AllConditions()
	partial := make([][]domain.EvaluatorResult, len(conditions))
	evaluator := s.newEvaluator(working)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.concurrency, 1))
	for i, c := range conditions {
		g.Go(func() error {
			res, err := evaluator.Evaluate(gctx, stmt, c)
			if err != nil {
				return fmt.Errorf("evaluating condition %s: %w", c.ID, err)
			}
			partial[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return s.fail(targets, err, start)
	}

	var flat []domain.EvaluatorResult
	for _, res := range partial {
		flat = append(flat, res...)
	}
	matched := make(map[string]struct{})
	for _, r := range NewConditionGroupEvaluator(group, s.policy).Evaluate(stmt, flat) {
		matched[r.GroupID] = struct{}{}
	}

	results := make([]domain.Result[domain.Object], 0, len(targets))
	for _, target := range targets {
		obj, ok := working.Objects.Get(target)
		if !ok {
			results = append(results, readOutcome(loaded, target))
			continue
		}
		if _, ok := matched[target]; ok {
			results = append(results, domain.Ok(querySource, target, obj))
		} else {
			results = append(results, domain.Empty[domain.Object](querySource, target))
		}
	}
	s.log.Debug("query %d targets, %d conditions, %d matched", len(targets), len(conditions), len(matched))
	return domain.NewResponse(results, time.Since(start))
}

// loadFacets reads the value facets of every object a condition can
// address into working.
func (s *QueryService) loadFacets(ctx context.Context, working *domain.EntityCollection, targets []string, group domain.ConditionGroup) error {
	subjects := make([]string, 0, len(targets))
	for _, target := range targets {
		obj, ok := working.Objects.Get(target)
		if !ok {
			continue
		}
		for _, c := range group.AllConditions() {
			subjects = append(subjects, domain.ObjectUUID(obj.Namespace, domain.ResolvePath(obj.Path, c.Path)))
		}
	}
	subjects = Distinct(subjects)
	if len(subjects) == 0 {
		return nil
	}

	var mu sync.Mutex
	add := func(entities []domain.Entity) {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range entities {
			_, _ = working.Add(e)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return collect(add, QueryByObject[domain.String](gctx, s.registry, subjects)) })
	g.Go(func() error { return collect(add, QueryByObject[domain.Number](gctx, s.registry, subjects)) })
	g.Go(func() error { return collect(add, QueryByObject[domain.Boolean](gctx, s.registry, subjects)) })
	g.Go(func() error { return collect(add, QueryByObject[domain.Observation](gctx, s.registry, subjects)) })
	return g.Wait()
}

// collect adds the content of resp through add. Unrouted facet types are
// skipped; backend failures abort the query.
func collect[T domain.Entity](add func([]domain.Entity), resp domain.Response[T]) error {
	if errs := resp.InternalErrors(); len(errs) > 0 {
		return fmt.Errorf("loading %s: %s", domain.TypeOf[T](), errs[0].Message)
	}
	content := resp.Content()
	entities := make([]domain.Entity, len(content))
	for i, e := range content {
		entities[i] = e
	}
	add(entities)
	return nil
}

func (s *QueryService) fail(targets []string, err error, start time.Time) domain.Response[domain.Object] {
	s.log.Error("query failed: %v", err)
	results := make([]domain.Result[domain.Object], len(targets))
	for i, target := range targets {
		results[i] = domain.InternalError[domain.Object](querySource, target, err)
	}
	return domain.NewResponse(results, time.Since(start))
}

// readOutcome carries the read result of a target that did not load.
func readOutcome(loaded domain.Response[domain.Object], target string) domain.Result[domain.Object] {
	for _, r := range loaded.ByRequest(target) {
		if r.Type != domain.ResultOk {
			return domain.Result[domain.Object]{Source: r.Source, Request: target, Type: r.Type, Message: r.Message}
		}
	}
	return domain.NotFound[domain.Object](querySource, target)
}
