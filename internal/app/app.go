// Package app assembles the engine from configuration: it opens the
// configured storage backends, wraps them in write buffers where asked,
// routes entity types in the registry and builds the services.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	vm "github.com/VictoriaMetrics/metrics"
	"golang.org/x/sync/errgroup"

	"github.com/trakhound/trakhound-core/internal/adapters/driven/buffer"
	"github.com/trakhound/trakhound-core/internal/adapters/driven/config/file"
	"github.com/trakhound/trakhound-core/internal/adapters/driven/remote"
	badgerstore "github.com/trakhound/trakhound-core/internal/adapters/driven/storage/badger"
	"github.com/trakhound/trakhound-core/internal/adapters/driven/storage/memory"
	"github.com/trakhound/trakhound-core/internal/adapters/driven/storage/sqlite"
	"github.com/trakhound/trakhound-core/internal/adapters/driven/volume"
	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/core/ports/driven"
	"github.com/trakhound/trakhound-core/internal/core/services"
	"github.com/trakhound/trakhound-core/internal/logger"
)

// BufferDir is the volume directory holding buffer pages, relative to the
// data directory.
const BufferDir = "buffers"

// Engine holds the wired services and the resources behind them.
type Engine struct {
	Registry *services.Registry
	Entities *services.EntityService
	Query    *services.QueryService
	Drivers  *services.DriverService

	log     *logger.Logger
	buffers []bufferRunner
	closers []io.Closer
}

type bufferRunner interface {
	io.Closer
	ID() string
	Start(ctx context.Context) error
	MetricsSet() *vm.Set
}

// backend is one opened driver declaration.
type backend struct {
	cfg    file.DriverConfig
	sqlite *sqlite.Store
	badger *badgerstore.Store
	client *remote.Client
}

// New opens every configured driver and builds the services. On error
// everything opened so far is closed.
func New(cfg file.Config, log *logger.Logger) (*Engine, error) {
	e := &Engine{
		Registry: services.NewRegistry(log.Named("registry")),
		log:      log,
	}

	var vol *volume.Local
	for _, dc := range cfg.Drivers {
		be, err := e.open(cfg, dc)
		if err != nil {
			return nil, errors.Join(err, e.Close())
		}
		if dc.Buffer != nil && vol == nil {
			vol, err = volume.NewLocal(filepath.Join(cfg.DataDir, BufferDir), log.Named("volume"))
			if err != nil {
				return nil, errors.Join(err, e.Close())
			}
		}
		types, err := dc.EntityTypes()
		if err != nil {
			return nil, errors.Join(err, e.Close())
		}
		for _, t := range types {
			if err := e.bindType(t, be, vol); err != nil {
				return nil, errors.Join(fmt.Errorf("driver %s: %w", dc.ID, err), e.Close())
			}
		}
	}

	e.Entities = services.NewEntityService(e.Registry, log.Named("entities"))
	e.Query = services.NewQueryService(e.Registry, cfg.MatchPolicy(), log.Named("query"),
		services.WithConcurrency(cfg.Query.Concurrency))
	e.Drivers = services.NewDriverService(e.Registry, log.Named("drivers"))
	return e, nil
}

func (e *Engine) open(cfg file.Config, dc file.DriverConfig) (*backend, error) {
	be := &backend{cfg: dc}
	dir := dc.Path
	if dir == "" {
		dir = filepath.Join(cfg.DataDir, dc.ID)
	} else if !filepath.IsAbs(dir) {
		dir = filepath.Join(cfg.DataDir, dir)
	}

	var err error
	switch dc.Type {
	case file.DriverSQLite:
		be.sqlite, err = sqlite.NewStore(dc.ID, dir, e.log)
		if err == nil {
			e.closers = append(e.closers, be.sqlite)
		}
	case file.DriverBadger:
		be.badger, err = badgerstore.Open(dc.ID, badgerstore.DefaultConfig(dir), e.log)
		if err == nil {
			e.closers = append(e.closers, be.badger)
		}
	case file.DriverRemote:
		be.client, err = remote.NewClient(remote.ClientConfig{
			BaseURL:           dc.URL,
			Timeout:           dc.Timeout.Std(),
			RequestsPerSecond: dc.RequestsPerSecond,
			Auth:              remoteAuth(dc.Auth),
		})
	case file.DriverMemory:
	default:
		err = fmt.Errorf("%w: driver type %q", domain.ErrInvalidConfig, dc.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("opening driver %s: %w", dc.ID, err)
	}
	e.log.Info("opened %s driver %s", dc.Type, dc.ID)
	return be, nil
}

func (e *Engine) bindType(t domain.EntityType, be *backend, vol driven.Volume) error {
	switch t {
	case domain.EntityTypeDefinition:
		return bind[domain.Definition](e, be, vol)
	case domain.EntityTypeSource:
		return bind[domain.Source](e, be, vol)
	case domain.EntityTypeObject:
		return bind[domain.Object](e, be, vol)
	case domain.EntityTypeString:
		return bind[domain.String](e, be, vol)
	case domain.EntityTypeNumber:
		return bind[domain.Number](e, be, vol)
	case domain.EntityTypeBoolean:
		return bind[domain.Boolean](e, be, vol)
	case domain.EntityTypeObservation:
		return bind[domain.Observation](e, be, vol)
	case domain.EntityTypeSet:
		return bind[domain.Set](e, be, vol)
	case domain.EntityTypeHash:
		return bind[domain.Hash](e, be, vol)
	case domain.EntityTypeTimestamp:
		return bind[domain.Timestamp](e, be, vol)
	case domain.EntityTypeDuration:
		return bind[domain.Duration](e, be, vol)
	case domain.EntityTypeVocabulary:
		return bind[domain.Vocabulary](e, be, vol)
	}
	return fmt.Errorf("binding %q: %w", t, domain.ErrUnsupportedType)
}

// bind creates the typed driver for T, wraps it in a buffer when the
// declaration asks for one and routes it.
func bind[T domain.Entity](e *Engine, be *backend, vol driven.Volume) error {
	var drv driven.EntityDriver[T]
	switch {
	case be.sqlite != nil:
		drv = sqlite.NewDriver[T](be.sqlite)
	case be.badger != nil:
		drv = badgerstore.NewDriver[T](be.badger)
	case be.client != nil:
		drv = remote.NewDriver[T](be.cfg.ID, be.client, 0, e.log)
	default:
		drv = memory.NewDriver[T](be.cfg.ID)
	}

	if bc := be.cfg.Buffer; bc != nil {
		buf, err := buffer.New[T](drv, vol, buffer.Config{
			QueueLimit: bc.QueueLimit,
			PageSize:   bc.PageSize,
			BatchSize:  bc.BatchSize,
			Interval:   bc.Interval.Std(),
		}, e.log)
		if err != nil {
			return err
		}
		e.buffers = append(e.buffers, buf)
		drv = buf
	}
	return e.Registry.Route(domain.TypeOf[T](), drv)
}

// MetricsSets returns the metric sets of every buffer.
func (e *Engine) MetricsSets() []*vm.Set {
	sets := make([]*vm.Set, 0, len(e.buffers))
	for _, b := range e.buffers {
		sets = append(sets, b.MetricsSet())
	}
	return sets
}

// Start runs the buffer flush loops until ctx ends. This method blocks.
func (e *Engine) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, b := range e.buffers {
		g.Go(func() error {
			e.log.Debug("starting buffer %s", b.ID())
			if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("buffer %s: %w", b.ID(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Close closes the buffers and then the stores behind them.
func (e *Engine) Close() error {
	var errs []error
	for _, b := range e.buffers {
		errs = append(errs, b.Close())
	}
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i].Close())
	}
	e.buffers, e.closers = nil, nil
	return errors.Join(errs...)
}

func remoteAuth(a *file.AuthConfig) *remote.AuthConfig {
	if a == nil {
		return nil
	}
	return &remote.AuthConfig{
		Token:        a.Token,
		TokenURL:     a.TokenURL,
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		Scopes:       a.Scopes,
	}
}
