package heap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storedb/pkg/concurrency/transaction"
	"storedb/pkg/primitives"
	"storedb/pkg/storage/page"
	"storedb/pkg/tuple"
	"storedb/pkg/types"
)

// pairDesc is a two-int-column schema used across the heap tests.
func pairDesc(t *testing.T) *tuple.TupleDescription {
	t.Helper()
	desc, err := tuple.NewTupleDesc(
		[]types.Type{types.IntType, types.IntType},
		[]string{"a", "b"},
	)
	require.NoError(t, err)
	return desc
}

func pairTuple(t *testing.T, desc *tuple.TupleDescription, a, b int32) *tuple.Tuple {
	t.Helper()
	tup := tuple.NewTuple(desc)
	require.NoError(t, tup.SetField(0, types.NewIntField(a)))
	require.NoError(t, tup.SetField(1, types.NewIntField(b)))
	return tup
}

func tempFilePath(t *testing.T) primitives.Filepath {
	t.Helper()
	return primitives.Filepath(filepath.Join(t.TempDir(), "table.dat"))
}

func TestNumSlotsPerPage(t *testing.T) {
	desc := pairDesc(t)

	// floor(PageSize*8 / (tupleSize*8 + 1)) with an 8-byte tuple.
	want := (page.PageSize() * 8) / (8*8 + 1)
	assert.Equal(t, want, NumSlotsPerPage(desc))
}

func TestEmptyPageHasAllSlotsFree(t *testing.T) {
	desc := pairDesc(t)
	pid := page.NewPageDescriptor(1, 0)

	hp, err := NewHeapPage(pid, CreateEmptyPageData(), desc)
	require.NoError(t, err)

	assert.Equal(t, hp.NumSlots(), hp.GetNumEmptySlots())
	assert.Empty(t, hp.Tuples())
	assert.Nil(t, hp.IsDirty())
}

func TestNewHeapPageRejectsWrongSize(t *testing.T) {
	desc := pairDesc(t)
	pid := page.NewPageDescriptor(1, 0)

	_, err := NewHeapPage(pid, make([]byte, 100), desc)
	assert.Error(t, err)
}

func TestInsertTupleSetsRecordID(t *testing.T) {
	desc := pairDesc(t)
	pid := page.NewPageDescriptor(1, 0)
	hp, err := NewHeapPage(pid, CreateEmptyPageData(), desc)
	require.NoError(t, err)

	tup := pairTuple(t, desc, 1, 2)
	require.NoError(t, hp.InsertTuple(tup))

	require.NotNil(t, tup.RecordID)
	assert.Equal(t, 0, tup.RecordID.Slot)
	assert.True(t, tup.RecordID.PageID.Equals(pid))
	assert.Equal(t, hp.NumSlots()-1, hp.GetNumEmptySlots())
}

func TestInsertRejectsSchemaMismatch(t *testing.T) {
	desc := pairDesc(t)
	other, err := tuple.NewTupleDesc([]types.Type{types.StringType}, []string{"s"})
	require.NoError(t, err)

	hp, err := NewHeapPage(page.NewPageDescriptor(1, 0), CreateEmptyPageData(), desc)
	require.NoError(t, err)

	tup := tuple.NewTuple(other)
	require.NoError(t, tup.SetField(0, types.NewStringField("x")))
	assert.Error(t, hp.InsertTuple(tup))
}

func TestInsertIntoFullPageFails(t *testing.T) {
	desc := pairDesc(t)
	hp, err := NewHeapPage(page.NewPageDescriptor(1, 0), CreateEmptyPageData(), desc)
	require.NoError(t, err)

	for i := 0; i < hp.NumSlots(); i++ {
		require.NoError(t, hp.InsertTuple(pairTuple(t, desc, int32(i), 0)))
	}
	assert.Equal(t, 0, hp.GetNumEmptySlots())

	assert.Error(t, hp.InsertTuple(pairTuple(t, desc, -1, -1)))
}

func TestDeleteTuple(t *testing.T) {
	desc := pairDesc(t)
	hp, err := NewHeapPage(page.NewPageDescriptor(1, 0), CreateEmptyPageData(), desc)
	require.NoError(t, err)

	tup := pairTuple(t, desc, 1, 2)
	require.NoError(t, hp.InsertTuple(tup))
	require.NoError(t, hp.DeleteTuple(tup))

	assert.Nil(t, tup.RecordID)
	assert.Equal(t, hp.NumSlots(), hp.GetNumEmptySlots())

	// Deleting again fails: no record id.
	assert.Error(t, hp.DeleteTuple(tup))
}

func TestDeleteValidatesLocation(t *testing.T) {
	desc := pairDesc(t)
	hp, err := NewHeapPage(page.NewPageDescriptor(1, 0), CreateEmptyPageData(), desc)
	require.NoError(t, err)

	// Tuple claiming to live on a different page.
	stray := pairTuple(t, desc, 1, 2)
	stray.RecordID = tuple.NewRecordID(page.NewPageDescriptor(1, 5), 0)
	assert.Error(t, hp.DeleteTuple(stray))

	// Empty slot on the right page.
	empty := pairTuple(t, desc, 3, 4)
	empty.RecordID = tuple.NewRecordID(page.NewPageDescriptor(1, 0), 2)
	assert.Error(t, hp.DeleteTuple(empty))
}

func TestPageDataRoundTrip(t *testing.T) {
	desc := pairDesc(t)
	pid := page.NewPageDescriptor(1, 0)
	hp, err := NewHeapPage(pid, CreateEmptyPageData(), desc)
	require.NoError(t, err)

	require.NoError(t, hp.InsertTuple(pairTuple(t, desc, 10, 20)))
	require.NoError(t, hp.InsertTuple(pairTuple(t, desc, 30, 40)))

	data := hp.GetPageData()
	require.Len(t, data, page.PageSize())

	reloaded, err := NewHeapPage(pid, data, desc)
	require.NoError(t, err)

	tuples := reloaded.Tuples()
	require.Len(t, tuples, 2)

	first, _ := tuples[0].GetField(0)
	assert.True(t, first.Equals(types.NewIntField(10)))
	second, _ := tuples[1].GetField(1)
	assert.True(t, second.Equals(types.NewIntField(40)))

	// Record ids are restored from slot positions.
	require.NotNil(t, tuples[0].RecordID)
	assert.Equal(t, 0, tuples[0].RecordID.Slot)
	assert.Equal(t, 1, tuples[1].RecordID.Slot)

	// Serialization is stable.
	assert.Equal(t, data, reloaded.GetPageData())
}

func TestDeletedSlotSurvivesRoundTrip(t *testing.T) {
	desc := pairDesc(t)
	pid := page.NewPageDescriptor(1, 0)
	hp, err := NewHeapPage(pid, CreateEmptyPageData(), desc)
	require.NoError(t, err)

	first := pairTuple(t, desc, 1, 1)
	second := pairTuple(t, desc, 2, 2)
	require.NoError(t, hp.InsertTuple(first))
	require.NoError(t, hp.InsertTuple(second))
	require.NoError(t, hp.DeleteTuple(first))

	reloaded, err := NewHeapPage(pid, hp.GetPageData(), desc)
	require.NoError(t, err)

	tuples := reloaded.Tuples()
	require.Len(t, tuples, 1)
	assert.Equal(t, 1, tuples[0].RecordID.Slot)
	assert.Equal(t, reloaded.NumSlots()-1, reloaded.GetNumEmptySlots())
}

func TestMarkDirty(t *testing.T) {
	desc := pairDesc(t)
	hp, err := NewHeapPage(page.NewPageDescriptor(1, 0), CreateEmptyPageData(), desc)
	require.NoError(t, err)

	tid := transaction.NewTransactionID()
	hp.MarkDirty(true, tid)
	assert.True(t, tid.Equals(hp.IsDirty()))

	hp.MarkDirty(false, nil)
	assert.Nil(t, hp.IsDirty())
}

func TestPageIterator(t *testing.T) {
	desc := pairDesc(t)
	hp, err := NewHeapPage(page.NewPageDescriptor(1, 0), CreateEmptyPageData(), desc)
	require.NoError(t, err)

	for i := int32(0); i < 3; i++ {
		require.NoError(t, hp.InsertTuple(pairTuple(t, desc, i, i)))
	}

	it := hp.Iterator()
	count := 0
	for {
		hasNext, err := it.HasNext()
		require.NoError(t, err)
		if !hasNext {
			break
		}
		_, err = it.Next()
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 3, count)

	_, err = it.Next()
	assert.Error(t, err)
}
