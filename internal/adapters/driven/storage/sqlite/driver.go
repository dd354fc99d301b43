package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/core/ports/driven"
	"github.com/trakhound/trakhound-core/internal/core/services"
)

// Driver is the typed view of a Store for entity type T.
type Driver[T domain.Entity] struct {
	*Store
	entityType string
}

var _ driven.EntityDriver[domain.Object] = (*Driver[domain.Object])(nil)

// NewDriver returns the driver for entity type T backed by store.
func NewDriver[T domain.Entity](store *Store) *Driver[T] {
	return &Driver[T]{Store: store, entityType: string(domain.TypeOf[T]())}
}

// Read returns entities by UUID.
func (d *Driver[T]) Read(ctx context.Context, uuids []string) domain.Response[T] {
	return services.ProcessResponse(ctx, d, uuids, func(ctx context.Context, ids []string) ([]services.Row[T], error) {
		return d.rows(ctx, `
			SELECT uuid, payload FROM entities
			WHERE entity_type = ? AND uuid IN (%s)
		`, ids)
	}, services.QueryTypeUUID)
}

// QueryByObject returns the entities owned by each object, oldest first.
func (d *Driver[T]) QueryByObject(ctx context.Context, objectUUIDs []string) domain.Response[T] {
	return services.ProcessResponse(ctx, d, objectUUIDs, func(ctx context.Context, ids []string) ([]services.Row[T], error) {
		return d.rows(ctx, `
			SELECT owner, payload FROM entities
			WHERE entity_type = ? AND owner IN (%s)
			ORDER BY created, uuid
		`, ids)
	}, services.QueryTypeObject)
}

// Publish upserts entities in one transaction. Entities whose hash is
// unchanged are left untouched.
func (d *Driver[T]) Publish(ctx context.Context, entities []T) domain.Response[domain.PublishResult[T]] {
	return services.ProcessWrite(ctx, d, entities, func(e T) string { return e.EntityUUID() },
		func(ctx context.Context, entities []T) ([]domain.Result[domain.PublishResult[T]], error) {
			tx, err := d.db.BeginTx(ctx, nil)
			if err != nil {
				return nil, fmt.Errorf("beginning transaction: %w", err)
			}
			defer tx.Rollback() //nolint:errcheck // no-op after commit

			results := make([]domain.Result[domain.PublishResult[T]], 0, len(entities))
			for _, e := range entities {
				op, err := d.upsert(ctx, tx, e)
				if err != nil {
					return nil, err
				}
				results = append(results, domain.Ok(d.id, e.EntityUUID(), domain.PublishResult[T]{Operation: op, Entity: e}))
			}
			if err := tx.Commit(); err != nil {
				return nil, fmt.Errorf("committing publish: %w", err)
			}
			return results, nil
		})
}

func (d *Driver[T]) upsert(ctx context.Context, tx *sql.Tx, e T) (domain.PublishOperation, error) {
	var stored []byte
	err := tx.QueryRowContext(ctx,
		"SELECT hash FROM entities WHERE entity_type = ? AND uuid = ?",
		d.entityType, e.EntityUUID()).Scan(&stored)
	exists := true
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
	} else if err != nil {
		return "", fmt.Errorf("reading hash of %s: %w", e.EntityUUID(), err)
	}

	op := services.PublishOperationFor(e, stored, exists)
	if op == domain.PublishUnchanged {
		return op, nil
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshalling %s: %w", e.EntityUUID(), err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO entities (entity_type, uuid, owner, hash, created, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_type, uuid) DO UPDATE SET
			owner = excluded.owner,
			hash = excluded.hash,
			created = excluded.created,
			payload = excluded.payload
	`, d.entityType, e.EntityUUID(), e.EntityOwner(), e.EntityHash(), e.EntityCreated(), string(payload))
	if err != nil {
		return "", fmt.Errorf("saving %s: %w", e.EntityUUID(), err)
	}
	return op, nil
}

// Delete removes entities by UUID. A missing target is NotFound.
func (d *Driver[T]) Delete(ctx context.Context, requests []domain.EntityDeleteRequest) domain.Response[bool] {
	return services.ProcessWrite(ctx, d, requests, func(r domain.EntityDeleteRequest) string { return r.Target },
		func(ctx context.Context, requests []domain.EntityDeleteRequest) ([]domain.Result[bool], error) {
			results := make([]domain.Result[bool], 0, len(requests))
			for _, req := range requests {
				res, err := d.db.ExecContext(ctx,
					"DELETE FROM entities WHERE entity_type = ? AND uuid = ?", d.entityType, req.Target)
				if err != nil {
					return nil, fmt.Errorf("deleting %s: %w", req.Target, err)
				}
				results = append(results, removed(d.id, req.Target, res, domain.NotFound[bool]))
			}
			return results, nil
		})
}

// Empty removes the entities owned by each object. An object owning no
// matching entities is Empty.
func (d *Driver[T]) Empty(ctx context.Context, requests []domain.EntityEmptyRequest) domain.Response[bool] {
	return services.ProcessWrite(ctx, d, requests, func(r domain.EntityEmptyRequest) string { return r.EntityUUID },
		func(ctx context.Context, requests []domain.EntityEmptyRequest) ([]domain.Result[bool], error) {
			results := make([]domain.Result[bool], 0, len(requests))
			for _, req := range requests {
				res, err := d.db.ExecContext(ctx, `
					DELETE FROM entities
					WHERE entity_type = ? AND owner = ? AND (? = 0 OR created < ?)
				`, d.entityType, req.EntityUUID, req.Before, req.Before)
				if err != nil {
					return nil, fmt.Errorf("emptying %s: %w", req.EntityUUID, err)
				}
				results = append(results, removed(d.id, req.EntityUUID, res, domain.Empty[bool]))
			}
			return results, nil
		})
}

// rows runs query and decodes (key, payload) rows.
func (d *Driver[T]) rows(ctx context.Context, query string, keys []string) ([]services.Row[T], error) {
	var rows []services.Row[T]
	err := d.queryContext(ctx, query, d.entityType, keys, func(r *sql.Rows) error {
		var key, payload string
		if err := r.Scan(&key, &payload); err != nil {
			return fmt.Errorf("scanning %s row: %w", d.entityType, err)
		}
		var e T
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return fmt.Errorf("decoding %s %s: %w", d.entityType, key, err)
		}
		rows = append(rows, services.Row[T]{RequestedID: key, Entity: e})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", d.entityType, err)
	}
	return rows, nil
}

// removed maps the affected row count of a delete to its result.
func removed(source, key string, res sql.Result, none func(source, request string) domain.Result[bool]) domain.Result[bool] {
	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return none(source, key)
	}
	return domain.Ok(source, key, true)
}
