package tuple

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storedb/pkg/primitives"
	"storedb/pkg/types"
)

func twoColumnDesc(t *testing.T) *TupleDescription {
	t.Helper()
	desc, err := NewTupleDesc(
		[]types.Type{types.StringType, types.IntType},
		[]string{"name", "age"},
	)
	require.NoError(t, err)
	return desc
}

func TestNewTupleDescValidation(t *testing.T) {
	_, err := NewTupleDesc(nil, nil)
	assert.Error(t, err)

	_, err = NewTupleDesc([]types.Type{types.IntType}, []string{"a", "b"})
	assert.Error(t, err)

	desc, err := NewTupleDesc([]types.Type{types.IntType}, nil)
	require.NoError(t, err)
	name, err := desc.FieldName(0)
	require.NoError(t, err)
	assert.Equal(t, "", name)
}

func TestTupleDescAccessors(t *testing.T) {
	desc := twoColumnDesc(t)

	assert.Equal(t, 2, desc.NumFields())

	fieldType, err := desc.TypeAt(1)
	require.NoError(t, err)
	assert.Equal(t, types.IntType, fieldType)

	name, err := desc.FieldName(0)
	require.NoError(t, err)
	assert.Equal(t, "name", name)

	_, err = desc.TypeAt(2)
	assert.Error(t, err)

	assert.Equal(t, types.StringType.Size()+types.IntType.Size(), desc.Size())
}

func TestTupleDescEquals(t *testing.T) {
	a := twoColumnDesc(t)
	b := twoColumnDesc(t)
	assert.True(t, a.Equals(b))

	// Names differ, types match: still equal.
	c, err := NewTupleDesc([]types.Type{types.StringType, types.IntType}, nil)
	require.NoError(t, err)
	assert.True(t, a.Equals(c))

	d, err := NewTupleDesc([]types.Type{types.IntType}, nil)
	require.NoError(t, err)
	assert.False(t, a.Equals(d))
	assert.False(t, a.Equals(nil))
}

func TestFindFieldIndex(t *testing.T) {
	desc := twoColumnDesc(t)

	idx, err := desc.FindFieldIndex("age")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = desc.FindFieldIndex("missing")
	assert.Error(t, err)
}

func TestTupleSetAndGetField(t *testing.T) {
	desc := twoColumnDesc(t)
	tup := NewTuple(desc)

	require.NoError(t, tup.SetField(0, types.NewStringField("alice")))
	require.NoError(t, tup.SetField(1, types.NewIntField(30)))

	field, err := tup.GetField(1)
	require.NoError(t, err)
	assert.True(t, field.Equals(types.NewIntField(30)))

	// Type mismatch is rejected.
	assert.Error(t, tup.SetField(0, types.NewIntField(1)))
	assert.Error(t, tup.SetField(5, types.NewIntField(1)))

	_, err = tup.GetField(-1)
	assert.Error(t, err)
}

func TestTupleClone(t *testing.T) {
	desc := twoColumnDesc(t)
	tup := NewTuple(desc)
	require.NoError(t, tup.SetField(0, types.NewStringField("alice")))
	require.NoError(t, tup.SetField(1, types.NewIntField(30)))
	tup.RecordID = &RecordID{}

	clone, err := tup.Clone()
	require.NoError(t, err)

	field, err := clone.GetField(0)
	require.NoError(t, err)
	assert.True(t, field.Equals(types.NewStringField("alice")))
	assert.Nil(t, clone.RecordID)
}

func makeIntTuples(t *testing.T, values ...int32) ([]*Tuple, *TupleDescription) {
	t.Helper()
	desc, err := NewTupleDesc([]types.Type{types.IntType}, []string{"v"})
	require.NoError(t, err)

	tuples := make([]*Tuple, 0, len(values))
	for _, v := range values {
		tup := NewTuple(desc)
		require.NoError(t, tup.SetField(0, types.NewIntField(v)))
		tuples = append(tuples, tup)
	}
	return tuples, desc
}

func TestIteratorWalksAllTuples(t *testing.T) {
	tuples, desc := makeIntTuples(t, 1, 2, 3)
	it := NewIterator(tuples, desc)

	require.NoError(t, it.Open())

	var seen []int32
	for {
		hasNext, err := it.HasNext()
		require.NoError(t, err)
		if !hasNext {
			break
		}
		tup, err := it.Next()
		require.NoError(t, err)
		field, _ := tup.GetField(0)
		seen = append(seen, field.(*types.IntField).Value)
	}
	assert.Equal(t, []int32{1, 2, 3}, seen)
}

func TestIteratorNextPastEnd(t *testing.T) {
	tuples, desc := makeIntTuples(t, 7)
	it := NewIterator(tuples, desc)

	require.NoError(t, it.Open())
	_, err := it.Next()
	require.NoError(t, err)

	_, err = it.Next()
	assert.Error(t, err)
}

func TestIteratorRequiresOpen(t *testing.T) {
	tuples, desc := makeIntTuples(t, 1)
	it := NewIterator(tuples, desc)

	_, err := it.HasNext()
	assert.Error(t, err)
	assert.Error(t, it.Rewind())
}

func TestIteratorRewind(t *testing.T) {
	tuples, desc := makeIntTuples(t, 4, 5)
	it := NewIterator(tuples, desc)

	require.NoError(t, it.Open())
	first, err := it.Next()
	require.NoError(t, err)

	require.NoError(t, it.Rewind())
	again, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

// fakePageID is a minimal PageID for record id tests; the real
// implementation lives in the storage layer, which depends on this
// package.
type fakePageID struct {
	table primitives.TableID
	page  primitives.PageNumber
}

func (f fakePageID) GetTableID() primitives.TableID { return f.table }
func (f fakePageID) PageNo() primitives.PageNumber  { return f.page }
func (f fakePageID) Serialize() []byte              { return nil }
func (f fakePageID) String() string                 { return "fake" }
func (f fakePageID) HashCode() primitives.HashCode  { return 0 }
func (f fakePageID) Equals(other primitives.PageID) bool {
	return other != nil && f.table == other.GetTableID() && f.page == other.PageNo()
}

func TestRecordIDEquals(t *testing.T) {
	a := NewRecordID(fakePageID{table: 1, page: 2}, 3)
	b := NewRecordID(fakePageID{table: 1, page: 2}, 3)
	c := NewRecordID(fakePageID{table: 1, page: 2}, 4)
	d := NewRecordID(fakePageID{table: 9, page: 2}, 3)

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.False(t, a.Equals(d))
	assert.False(t, a.Equals(nil))
}
