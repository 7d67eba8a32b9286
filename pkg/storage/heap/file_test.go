package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storedb/pkg/concurrency/transaction"
	dberr "storedb/pkg/error"
	"storedb/pkg/memory"
	"storedb/pkg/primitives"
	"storedb/pkg/storage/page"
)

// newTestTable opens a heap file in a temp dir with a buffer pool wired
// over it, the way the engine composes the two at runtime.
func newTestTable(t *testing.T, capacity int) (*HeapFile, *memory.PageStore) {
	t.Helper()

	hf, err := NewHeapFile(tempFilePath(t), pairDesc(t))
	require.NoError(t, err)
	t.Cleanup(func() { hf.Close() })

	tables := memory.NewTableManager()
	require.NoError(t, tables.AddTable(hf, "test"))

	return hf, memory.NewPageStore(tables, capacity)
}

func TestTableIDIsDeterministic(t *testing.T) {
	path := tempFilePath(t)
	desc := pairDesc(t)

	first, err := NewHeapFile(path, desc)
	require.NoError(t, err)
	firstID := first.GetID()
	require.NoError(t, first.Close())

	second, err := NewHeapFile(path, desc)
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, firstID, second.GetID())

	other, err := NewHeapFile(tempFilePath(t), desc)
	require.NoError(t, err)
	defer other.Close()
	assert.NotEqual(t, firstID, other.GetID())
}

func TestNumPagesOnFreshFile(t *testing.T) {
	hf, _ := newTestTable(t, 8)

	n, err := hf.NumPages()
	require.NoError(t, err)
	assert.Equal(t, primitives.PageNumber(0), n)
}

func TestWriteReadRoundTrip(t *testing.T) {
	hf, _ := newTestTable(t, 8)

	pgNo, err := hf.AllocateNewPage()
	require.NoError(t, err)

	pid := page.NewPageDescriptor(hf.GetID(), pgNo)
	hp, err := NewHeapPage(pid, CreateEmptyPageData(), hf.GetTupleDesc())
	require.NoError(t, err)
	require.NoError(t, hp.InsertTuple(pairTuple(t, hf.GetTupleDesc(), 7, 8)))

	require.NoError(t, hf.WritePage(hp))

	read, err := hf.ReadPage(pid)
	require.NoError(t, err)

	assert.Equal(t, hp.GetPageData(), read.GetPageData())
	assert.Nil(t, read.IsDirty(), "pages returned by ReadPage are clean")
}

func TestReadPageBeyondEOF(t *testing.T) {
	hf, _ := newTestTable(t, 8)

	_, err := hf.ReadPage(page.NewPageDescriptor(hf.GetID(), 3))
	require.Error(t, err)
	assert.True(t, dberr.IsCode(err, dberr.CodeInvalidPage))
}

func TestReadPageRejectsForeignTable(t *testing.T) {
	hf, _ := newTestTable(t, 8)

	_, err := hf.ReadPage(page.NewPageDescriptor(hf.GetID()+1, 0))
	assert.Error(t, err)
}

func TestInsertIntoEmptyFileCreatesFirstPage(t *testing.T) {
	hf, pool := newTestTable(t, 8)
	tid := transaction.NewTransactionID()

	pages, err := hf.InsertTuple(tid, pairTuple(t, hf.GetTupleDesc(), 1, 2), pool)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, primitives.PageNumber(0), pages[0].GetID().PageNo())

	n, err := hf.NumPages()
	require.NoError(t, err)
	assert.Equal(t, primitives.PageNumber(1), n)
}

func TestInsertGrowsFileWhenFull(t *testing.T) {
	page.SetPageSize(256)
	defer page.ResetPageSize()

	hf, pool := newTestTable(t, 8)
	tid := transaction.NewTransactionID()
	desc := hf.GetTupleDesc()

	// Fill page 0 exactly.
	slots := NumSlotsPerPage(desc)
	for i := 0; i < slots; i++ {
		_, err := hf.InsertTuple(tid, pairTuple(t, desc, int32(i), 0), pool)
		require.NoError(t, err)
	}
	n, err := hf.NumPages()
	require.NoError(t, err)
	require.Equal(t, primitives.PageNumber(1), n)

	// The next insert extends the file and lands on page 1.
	pages, err := hf.InsertTuple(tid, pairTuple(t, desc, -1, -1), pool)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, primitives.PageNumber(1), pages[0].GetID().PageNo())

	n, err = hf.NumPages()
	require.NoError(t, err)
	assert.Equal(t, primitives.PageNumber(2), n)

	hp := pages[0].(*HeapPage)
	assert.Equal(t, hp.NumSlots()-1, hp.GetNumEmptySlots())
}

func TestInsertReleasesLocksOnFullPages(t *testing.T) {
	page.SetPageSize(256)
	defer page.ResetPageSize()

	hf, pool := newTestTable(t, 8)
	tid := transaction.NewTransactionID()
	desc := hf.GetTupleDesc()

	for i := 0; i < NumSlotsPerPage(desc); i++ {
		_, err := hf.InsertTuple(tid, pairTuple(t, desc, int32(i), 0), pool)
		require.NoError(t, err)
	}
	require.NoError(t, pool.TransactionComplete(tid, true))

	// A fresh transaction inserts: page 0 is full, so its lock must be
	// released during the scan while the new page 1 stays locked.
	tid2 := transaction.NewTransactionID()
	_, err := hf.InsertTuple(tid2, pairTuple(t, desc, -1, -1), pool)
	require.NoError(t, err)

	assert.False(t, pool.HoldsLock(tid2, page.NewPageDescriptor(hf.GetID(), 0)))
	assert.True(t, pool.HoldsLock(tid2, page.NewPageDescriptor(hf.GetID(), 1)))
}

func TestDeleteTupleThroughPool(t *testing.T) {
	hf, pool := newTestTable(t, 8)
	tid := transaction.NewTransactionID()
	desc := hf.GetTupleDesc()

	tup := pairTuple(t, desc, 5, 6)
	_, err := hf.InsertTuple(tid, tup, pool)
	require.NoError(t, err)
	require.NotNil(t, tup.RecordID)

	pg, err := hf.DeleteTuple(tid, tup, pool)
	require.NoError(t, err)

	hp := pg.(*HeapPage)
	assert.Equal(t, hp.NumSlots(), hp.GetNumEmptySlots())
	assert.Nil(t, tup.RecordID)
}

func TestDeleteWithoutRecordID(t *testing.T) {
	hf, pool := newTestTable(t, 8)
	tid := transaction.NewTransactionID()

	_, err := hf.DeleteTuple(tid, pairTuple(t, hf.GetTupleDesc(), 1, 1), pool)
	assert.Error(t, err)
}
