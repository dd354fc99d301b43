package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntityType(t *testing.T) {
	for _, et := range EntityTypes() {
		parsed, err := ParseEntityType(string(et))
		require.NoError(t, err)
		assert.Equal(t, et, parsed)
	}

	parsed, err := ParseEntityType("observation")
	require.NoError(t, err)
	assert.Equal(t, EntityTypeObservation, parsed)

	_, err = ParseEntityType("Widget")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestEntityType_IsFacet(t *testing.T) {
	assert.False(t, EntityTypeObject.IsFacet())
	assert.False(t, EntityTypeDefinition.IsFacet())
	assert.True(t, EntityTypeString.IsFacet())
	assert.True(t, EntityTypeVocabulary.IsFacet())
	assert.False(t, EntityType("Widget").IsFacet())
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, EntityTypeObject, TypeOf[Object]())
	assert.Equal(t, EntityTypeObservation, TypeOf[Observation]())
}

func TestDeriveUUID_Deterministic(t *testing.T) {
	a := DeriveUUID(EntityTypeObject, "main", "/a")
	b := DeriveUUID(EntityTypeObject, "main", "/a")
	c := DeriveUUID(EntityTypeString, "main", "/a")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestNewObject_PathAndParent(t *testing.T) {
	obj := NewObject("main", "machines/mill-01/", "", "", "")

	assert.Equal(t, "/machines/mill-01", obj.Path)
	assert.Equal(t, "mill-01", obj.Name())
	assert.Equal(t, ObjectUUID("main", "/machines"), obj.ParentUUID)
	assert.Equal(t, obj.ParentUUID, obj.EntityOwner())

	root := NewObject("main", "/machines", "", "", "")
	assert.Empty(t, root.ParentUUID)
	assert.Equal(t, obj.ParentUUID, root.UUID)
}

func TestEntityHash_ChangesWithContent(t *testing.T) {
	obj := ObjectUUID("main", "/a")
	a := NewString(obj, "one", "")
	b := NewString(obj, "two", "")

	assert.Equal(t, a.UUID, b.UUID)
	assert.NotEqual(t, a.Hash, b.Hash)
	assert.Equal(t, a.Hash, NewString(obj, "one", "other-source").Hash)
}

func TestObservation_UUIDIncludesSequence(t *testing.T) {
	obj := ObjectUUID("main", "/a")
	a := NewObservation(obj, "float", "1.0", 1, 1, 100, "")
	b := NewObservation(obj, "float", "1.0", 1, 2, 100, "")
	assert.NotEqual(t, a.UUID, b.UUID)
	assert.Equal(t, obj, a.EntityOwner())
}

func TestFacetConstructors(t *testing.T) {
	obj := ObjectUUID("main", "/a")
	entities := []Entity{
		NewNumber(obj, "double", "1.5", ""),
		NewBoolean(obj, true, ""),
		NewSet(obj, "red", ""),
		NewHash(obj, "k", "v", ""),
		NewTimestamp(obj, 1700000000000, ""),
		NewDuration(obj, 3*time.Second, ""),
		NewVocabulary(obj, "def", ""),
	}
	for _, e := range entities {
		t.Run(string(e.EntityType()), func(t *testing.T) {
			assert.NotEmpty(t, e.EntityUUID())
			assert.Len(t, e.EntityHash(), 32)
			assert.Equal(t, obj, e.EntityOwner())
			assert.NotZero(t, e.EntityCreated())
		})
	}
}

func TestNumber_Float(t *testing.T) {
	f, err := NewNumber("o", "double", "2.5", "").Float()
	require.NoError(t, err)
	assert.InDelta(t, 2.5, f, 1e-9)

	_, err = NewNumber("o", "double", "abc", "").Float()
	assert.Error(t, err)
}

func TestEntityEmptyRequest_Matches(t *testing.T) {
	obj := ObjectUUID("main", "/a")
	s := NewString(obj, "x", "")
	s.Created = 100

	assert.True(t, EntityEmptyRequest{EntityUUID: obj}.Matches(s))
	assert.True(t, EntityEmptyRequest{EntityUUID: obj, Before: 101}.Matches(s))
	assert.False(t, EntityEmptyRequest{EntityUUID: obj, Before: 100}.Matches(s))
	assert.False(t, EntityEmptyRequest{EntityUUID: "other"}.Matches(s))
}

func TestPrepare_FillsDerivedFields(t *testing.T) {
	s := String{UUID: "s1", ObjectUUID: "o1", Value: "x"}
	p := Prepare(s)

	assert.Equal(t, p.ComputeHash(), p.Hash)
	assert.NotZero(t, p.Created)

	kept := Prepare(String{UUID: "s1", ObjectUUID: "o1", Hash: []byte{1}, Created: 5})
	assert.Equal(t, []byte{1}, kept.Hash)
	assert.Equal(t, int64(5), kept.Created)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(NewString("o1", "x", "")))
	assert.ErrorIs(t, Validate(String{ObjectUUID: "o1"}), ErrInvalidInput)
	assert.ErrorIs(t, Validate(String{UUID: "s1"}), ErrInvalidInput)
	assert.NoError(t, Validate(Object{UUID: "root"}))
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "/machines/mill-01/status", ResolvePath("/machines/mill-01", "status"))
	assert.Equal(t, "/machines/mill-01", ResolvePath("/machines/mill-01", ""))
	assert.Equal(t, "/machines/lathe", ResolvePath("/machines/mill-01", "../lathe"))
	assert.Equal(t, "/other", ResolvePath("/machines/mill-01", "/other"))
}
