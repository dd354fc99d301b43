package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"

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

func (d *Driver[T]) entityKey(uuid string) []byte {
	return []byte("e/" + d.entityType + "/" + uuid)
}

func (d *Driver[T]) ownerPrefix(owner string) []byte {
	return []byte("o/" + d.entityType + "/" + owner + "/")
}

func (d *Driver[T]) ownerKey(owner, uuid string) []byte {
	return append(d.ownerPrefix(owner), uuid...)
}

// get loads one entity. found is false when the key does not exist.
func (d *Driver[T]) get(txn *badger.Txn, uuid string) (e T, found bool, err error) {
	item, err := txn.Get(d.entityKey(uuid))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return e, false, nil
	}
	if err != nil {
		return e, false, fmt.Errorf("getting %s %s: %w", d.entityType, uuid, err)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &e)
	})
	if err != nil {
		return e, false, fmt.Errorf("decoding %s %s: %w", d.entityType, uuid, err)
	}
	return e, true, nil
}

// owned lists the UUIDs indexed under owner.
func (d *Driver[T]) owned(txn *badger.Txn, owner string) []string {
	prefix := d.ownerPrefix(owner)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	var uuids []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		uuids = append(uuids, string(it.Item().Key()[len(prefix):]))
	}
	return uuids
}

// Read returns entities by UUID.
func (d *Driver[T]) Read(ctx context.Context, uuids []string) domain.Response[T] {
	return services.ProcessResponse(ctx, d, uuids, func(_ context.Context, ids []string) ([]services.Row[T], error) {
		var rows []services.Row[T]
		err := d.db.View(func(txn *badger.Txn) error {
			for _, id := range ids {
				e, found, err := d.get(txn, id)
				if err != nil {
					return err
				}
				if found {
					rows = append(rows, services.Row[T]{RequestedID: id, Entity: e})
				}
			}
			return nil
		})
		return rows, err
	}, services.QueryTypeUUID)
}

// QueryByObject returns the entities owned by each object, oldest first.
func (d *Driver[T]) QueryByObject(ctx context.Context, objectUUIDs []string) domain.Response[T] {
	return services.ProcessResponse(ctx, d, objectUUIDs, func(_ context.Context, ids []string) ([]services.Row[T], error) {
		var rows []services.Row[T]
		err := d.db.View(func(txn *badger.Txn) error {
			for _, owner := range ids {
				var entities []T
				for _, uuid := range d.owned(txn, owner) {
					e, found, err := d.get(txn, uuid)
					if err != nil {
						return err
					}
					if found {
						entities = append(entities, e)
					}
				}
				sort.SliceStable(entities, func(i, j int) bool { return entities[i].EntityCreated() < entities[j].EntityCreated() })
				for _, e := range entities {
					rows = append(rows, services.Row[T]{RequestedID: owner, Entity: e})
				}
			}
			return nil
		})
		return rows, err
	}, services.QueryTypeObject)
}

// Publish upserts entities in one transaction.
func (d *Driver[T]) Publish(ctx context.Context, entities []T) domain.Response[domain.PublishResult[T]] {
	return services.ProcessWrite(ctx, d, entities, func(e T) string { return e.EntityUUID() },
		func(_ context.Context, entities []T) ([]domain.Result[domain.PublishResult[T]], error) {
			results := make([]domain.Result[domain.PublishResult[T]], 0, len(entities))
			err := d.db.Update(func(txn *badger.Txn) error {
				for _, e := range entities {
					existing, found, err := d.get(txn, e.EntityUUID())
					if err != nil {
						return err
					}
					op := services.PublishOperationFor(e, existing.EntityHash(), found)
					if op != domain.PublishUnchanged {
						if err := d.put(txn, e, existing, found); err != nil {
							return err
						}
					}
					results = append(results, domain.Ok(d.id, e.EntityUUID(), domain.PublishResult[T]{Operation: op, Entity: e}))
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
			return results, nil
		})
}

func (d *Driver[T]) put(txn *badger.Txn, e, existing T, found bool) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshalling %s: %w", e.EntityUUID(), err)
	}
	if found && existing.EntityOwner() != e.EntityOwner() {
		if err := txn.Delete(d.ownerKey(existing.EntityOwner(), e.EntityUUID())); err != nil {
			return fmt.Errorf("moving %s: %w", e.EntityUUID(), err)
		}
	}
	if err := txn.Set(d.entityKey(e.EntityUUID()), payload); err != nil {
		return fmt.Errorf("saving %s: %w", e.EntityUUID(), err)
	}
	if err := txn.Set(d.ownerKey(e.EntityOwner(), e.EntityUUID()), []byte{}); err != nil {
		return fmt.Errorf("indexing %s: %w", e.EntityUUID(), err)
	}
	return nil
}

func (d *Driver[T]) remove(txn *badger.Txn, e T) error {
	if err := txn.Delete(d.entityKey(e.EntityUUID())); err != nil {
		return fmt.Errorf("deleting %s: %w", e.EntityUUID(), err)
	}
	if err := txn.Delete(d.ownerKey(e.EntityOwner(), e.EntityUUID())); err != nil {
		return fmt.Errorf("unindexing %s: %w", e.EntityUUID(), err)
	}
	return nil
}

// Delete removes entities by UUID. A missing target is NotFound.
func (d *Driver[T]) Delete(ctx context.Context, requests []domain.EntityDeleteRequest) domain.Response[bool] {
	return services.ProcessWrite(ctx, d, requests, func(r domain.EntityDeleteRequest) string { return r.Target },
		func(_ context.Context, requests []domain.EntityDeleteRequest) ([]domain.Result[bool], error) {
			results := make([]domain.Result[bool], 0, len(requests))
			err := d.db.Update(func(txn *badger.Txn) error {
				for _, req := range requests {
					e, found, err := d.get(txn, req.Target)
					if err != nil {
						return err
					}
					if !found {
						results = append(results, domain.NotFound[bool](d.id, req.Target))
						continue
					}
					if err := d.remove(txn, e); err != nil {
						return err
					}
					results = append(results, domain.Ok(d.id, req.Target, true))
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
			return results, nil
		})
}

// Empty removes the entities owned by each object. An object owning no
// matching entities is Empty.
func (d *Driver[T]) Empty(ctx context.Context, requests []domain.EntityEmptyRequest) domain.Response[bool] {
	return services.ProcessWrite(ctx, d, requests, func(r domain.EntityEmptyRequest) string { return r.EntityUUID },
		func(_ context.Context, requests []domain.EntityEmptyRequest) ([]domain.Result[bool], error) {
			results := make([]domain.Result[bool], 0, len(requests))
			err := d.db.Update(func(txn *badger.Txn) error {
				for _, req := range requests {
					removed := 0
					for _, uuid := range d.owned(txn, req.EntityUUID) {
						e, found, err := d.get(txn, uuid)
						if err != nil {
							return err
						}
						if !found || !req.Matches(e) {
							continue
						}
						if err := d.remove(txn, e); err != nil {
							return err
						}
						removed++
					}
					if removed > 0 {
						results = append(results, domain.Ok(d.id, req.EntityUUID, true))
					} else {
						results = append(results, domain.Empty[bool](d.id, req.EntityUUID))
					}
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
			return results, nil
		})
}
