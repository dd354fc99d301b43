package domain

import (
	"bytes"
	"slices"
)

// Index names a secondary index and how to extract its foreign key.
type Index[T Entity] struct {
	Name string
	Key  func(T) string
}

// Collection is an in-memory working set of entities keyed by UUID with
// foreign-key indexes for fan-out lookups.
//
// A Collection never enforces referential integrity. Index entries left
// behind by a replaced entity are skipped when resolved.
// It is not safe for concurrent use.
type Collection[T Entity] struct {
	entities map[string]T
	order    []string
	indexes  map[string]*index[T]

	// OnAdded is called once for every Add that changed the collection.
	OnAdded func(T)
}

type index[T Entity] struct {
	key     func(T) string
	entries map[string][]string
	member  map[string]map[string]struct{}
}

// NewCollection creates an empty collection with the given indexes.
func NewCollection[T Entity](indexes ...Index[T]) *Collection[T] {
	c := &Collection[T]{
		entities: make(map[string]T),
		indexes:  make(map[string]*index[T], len(indexes)),
	}
	for _, idx := range indexes {
		c.indexes[idx.Name] = &index[T]{
			key:     idx.Key,
			entries: make(map[string][]string),
			member:  make(map[string]map[string]struct{}),
		}
	}
	return c
}

// Add upserts an entity. An entity with a known UUID is replaced only when
// its hash differs. It reports whether the collection changed.
func (c *Collection[T]) Add(entity T) bool {
	id := entity.EntityUUID()
	if id == "" {
		return false
	}

	existing, ok := c.entities[id]
	if ok && bytes.Equal(existing.EntityHash(), entity.EntityHash()) {
		return false
	}
	if !ok {
		c.order = append(c.order, id)
	}
	c.entities[id] = entity

	for _, idx := range c.indexes {
		fk := idx.key(entity)
		if fk == "" {
			continue
		}
		members, ok := idx.member[fk]
		if !ok {
			members = make(map[string]struct{})
			idx.member[fk] = members
		}
		if _, dup := members[id]; dup {
			continue
		}
		members[id] = struct{}{}
		idx.entries[fk] = append(idx.entries[fk], id)
	}

	if c.OnAdded != nil {
		c.OnAdded(entity)
	}
	return true
}

// AddRange upserts each entity and returns how many changed the collection.
func (c *Collection[T]) AddRange(entities []T) int {
	changed := 0
	for _, e := range entities {
		if c.Add(e) {
			changed++
		}
	}
	return changed
}

// Remove deletes the entity with the given UUID and reports whether it
// was present.
func (c *Collection[T]) Remove(id string) bool {
	e, ok := c.entities[id]
	if !ok {
		return false
	}
	delete(c.entities, id)
	c.order = slices.DeleteFunc(c.order, func(o string) bool { return o == id })

	for _, idx := range c.indexes {
		fk := idx.key(e)
		if _, ok := idx.member[fk][id]; !ok {
			continue
		}
		delete(idx.member[fk], id)
		idx.entries[fk] = slices.DeleteFunc(idx.entries[fk], func(o string) bool { return o == id })
		if len(idx.entries[fk]) == 0 {
			delete(idx.entries, fk)
			delete(idx.member, fk)
		}
	}
	return true
}

// Get returns the entity with the given UUID.
func (c *Collection[T]) Get(id string) (T, bool) {
	e, ok := c.entities[id]
	return e, ok
}

// GetMany returns the entities found for ids, in the order requested.
// Misses are skipped.
func (c *Collection[T]) GetMany(ids []string) []T {
	result := make([]T, 0, len(ids))
	for _, id := range ids {
		if e, ok := c.entities[id]; ok {
			result = append(result, e)
		}
	}
	return result
}

// Query resolves the entries of the named index for fk. found is false
// when the index has no entry for fk; items is never nil.
func (c *Collection[T]) Query(indexName, fk string) (items []T, found bool) {
	items = []T{}
	idx, ok := c.indexes[indexName]
	if !ok {
		return items, false
	}
	ids, ok := idx.entries[fk]
	if !ok {
		return items, false
	}
	for _, id := range ids {
		e, ok := c.entities[id]
		// superseded entities may have moved to another key
		if !ok || idx.key(e) != fk {
			continue
		}
		items = append(items, e)
	}
	return items, true
}

// All returns every entity in insertion order.
func (c *Collection[T]) All() []T {
	result := make([]T, 0, len(c.order))
	for _, id := range c.order {
		result = append(result, c.entities[id])
	}
	return result
}

// Len returns the number of entities.
func (c *Collection[T]) Len() int {
	return len(c.entities)
}
