package domain

import "fmt"

// Index names used by EntityCollection.
const (
	IndexParent     = "parent"
	IndexDefinition = "definition"
	IndexSource     = "source"
	IndexObject     = "object"
)

// EntityCollection groups one Collection per entity type. It is the
// per-request working set the query engine evaluates conditions against.
type EntityCollection struct {
	Definitions  *Collection[Definition]
	Sources      *Collection[Source]
	Objects      *Collection[Object]
	Strings      *Collection[String]
	Numbers      *Collection[Number]
	Booleans     *Collection[Boolean]
	Observations *Collection[Observation]
	Sets         *Collection[Set]
	Hashes       *Collection[Hash]
	Timestamps   *Collection[Timestamp]
	Durations    *Collection[Duration]
	Vocabularies *Collection[Vocabulary]
}

// NewEntityCollection creates an empty EntityCollection.
func NewEntityCollection() *EntityCollection {
	return &EntityCollection{
		Definitions: NewCollection(Index[Definition]{Name: IndexParent, Key: func(d Definition) string { return d.ParentUUID }}),
		Sources:     NewCollection(Index[Source]{Name: IndexParent, Key: func(s Source) string { return s.ParentUUID }}),
		Objects: NewCollection(
			Index[Object]{Name: IndexParent, Key: func(o Object) string { return o.ParentUUID }},
			Index[Object]{Name: IndexDefinition, Key: func(o Object) string { return o.DefinitionUUID }},
			Index[Object]{Name: IndexSource, Key: func(o Object) string { return o.SourceUUID }},
		),
		Strings:      newFacetCollection[String](),
		Numbers:      newFacetCollection[Number](),
		Booleans:     newFacetCollection[Boolean](),
		Observations: newFacetCollection[Observation](),
		Sets:         newFacetCollection[Set](),
		Hashes:       newFacetCollection[Hash](),
		Timestamps:   newFacetCollection[Timestamp](),
		Durations:    newFacetCollection[Duration](),
		Vocabularies: NewCollection(
			Index[Vocabulary]{Name: IndexObject, Key: func(v Vocabulary) string { return v.ObjectUUID }},
			Index[Vocabulary]{Name: IndexDefinition, Key: func(v Vocabulary) string { return v.DefinitionUUID }},
		),
	}
}

func newFacetCollection[T Entity]() *Collection[T] {
	return NewCollection(Index[T]{Name: IndexObject, Key: func(e T) string { return e.EntityOwner() }})
}

// Add routes an entity to the collection of its type.
func (c *EntityCollection) Add(entity Entity) (bool, error) {
	switch e := entity.(type) {
	case Definition:
		return c.Definitions.Add(e), nil
	case Source:
		return c.Sources.Add(e), nil
	case Object:
		return c.Objects.Add(e), nil
	case String:
		return c.Strings.Add(e), nil
	case Number:
		return c.Numbers.Add(e), nil
	case Boolean:
		return c.Booleans.Add(e), nil
	case Observation:
		return c.Observations.Add(e), nil
	case Set:
		return c.Sets.Add(e), nil
	case Hash:
		return c.Hashes.Add(e), nil
	case Timestamp:
		return c.Timestamps.Add(e), nil
	case Duration:
		return c.Durations.Add(e), nil
	case Vocabulary:
		return c.Vocabularies.Add(e), nil
	default:
		return false, fmt.Errorf("%w: %T", ErrUnsupportedType, entity)
	}
}

// QueryObjectsByParent returns the child objects of parentUUID.
func (c *EntityCollection) QueryObjectsByParent(parentUUID string) ([]Object, bool) {
	return c.Objects.Query(IndexParent, parentUUID)
}

// QueryObjectsByDefinition returns the objects described by definitionUUID.
func (c *EntityCollection) QueryObjectsByDefinition(definitionUUID string) ([]Object, bool) {
	return c.Objects.Query(IndexDefinition, definitionUUID)
}

// QueryObjectsBySource returns the objects published by sourceUUID.
func (c *EntityCollection) QueryObjectsBySource(sourceUUID string) ([]Object, bool) {
	return c.Objects.Query(IndexSource, sourceUUID)
}

// QueryDefinitionsByParent returns the child definitions of parentUUID.
func (c *EntityCollection) QueryDefinitionsByParent(parentUUID string) ([]Definition, bool) {
	return c.Definitions.Query(IndexParent, parentUUID)
}

// QueryStringsByObject returns the String facets of objectUUID.
func (c *EntityCollection) QueryStringsByObject(objectUUID string) ([]String, bool) {
	return c.Strings.Query(IndexObject, objectUUID)
}

// QueryNumbersByObject returns the Number facets of objectUUID.
func (c *EntityCollection) QueryNumbersByObject(objectUUID string) ([]Number, bool) {
	return c.Numbers.Query(IndexObject, objectUUID)
}

// QueryBooleansByObject returns the Boolean facets of objectUUID.
func (c *EntityCollection) QueryBooleansByObject(objectUUID string) ([]Boolean, bool) {
	return c.Booleans.Query(IndexObject, objectUUID)
}

// QueryObservationsByObject returns the Observation samples of objectUUID.
func (c *EntityCollection) QueryObservationsByObject(objectUUID string) ([]Observation, bool) {
	return c.Observations.Query(IndexObject, objectUUID)
}

// QuerySetsByObject returns the Set entries of objectUUID.
func (c *EntityCollection) QuerySetsByObject(objectUUID string) ([]Set, bool) {
	return c.Sets.Query(IndexObject, objectUUID)
}

// QueryHashesByObject returns the Hash entries of objectUUID.
func (c *EntityCollection) QueryHashesByObject(objectUUID string) ([]Hash, bool) {
	return c.Hashes.Query(IndexObject, objectUUID)
}

// QueryTimestampsByObject returns the Timestamp facets of objectUUID.
func (c *EntityCollection) QueryTimestampsByObject(objectUUID string) ([]Timestamp, bool) {
	return c.Timestamps.Query(IndexObject, objectUUID)
}

// QueryDurationsByObject returns the Duration facets of objectUUID.
func (c *EntityCollection) QueryDurationsByObject(objectUUID string) ([]Duration, bool) {
	return c.Durations.Query(IndexObject, objectUUID)
}

// QueryVocabulariesByObject returns the Vocabulary facets of objectUUID.
func (c *EntityCollection) QueryVocabulariesByObject(objectUUID string) ([]Vocabulary, bool) {
	return c.Vocabularies.Query(IndexObject, objectUUID)
}

// LatestObservation returns the sample of objectUUID with the highest
// Sequence, ties broken by BatchID.
func (c *EntityCollection) LatestObservation(objectUUID string) (Observation, bool) {
	samples, _ := c.QueryObservationsByObject(objectUUID)
	var latest Observation
	found := false
	for _, s := range samples {
		if !found || s.Sequence > latest.Sequence ||
			(s.Sequence == latest.Sequence && s.BatchID > latest.BatchID) {
			latest = s
			found = true
		}
	}
	return latest, found
}

// Len returns the total number of entities across all types.
func (c *EntityCollection) Len() int {
	return c.Definitions.Len() + c.Sources.Len() + c.Objects.Len() +
		c.Strings.Len() + c.Numbers.Len() + c.Booleans.Len() +
		c.Observations.Len() + c.Sets.Len() + c.Hashes.Len() +
		c.Timestamps.Len() + c.Durations.Len() + c.Vocabularies.Len()
}
