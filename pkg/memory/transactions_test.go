package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storedb/pkg/concurrency/transaction"
	"storedb/pkg/primitives"
	"storedb/pkg/storage/heap"
)

func TestCommitWritesDirtyPagesThrough(t *testing.T) {
	hf, pool := newStoreWithTable(t, 4)
	tid := transaction.NewTransactionID()

	require.NoError(t, pool.InsertTuple(tid, hf.GetID(), intPair(t, hf.GetTupleDesc(), 1, 2)))

	// Uncommitted: the on-disk page is still empty.
	diskPage, err := hf.ReadPage(descriptor(hf, 0))
	require.NoError(t, err)
	assert.Empty(t, diskPage.(*heap.HeapPage).Tuples())

	require.NoError(t, pool.TransactionComplete(tid, true))

	// Committed: the write is durable before TransactionComplete returns.
	diskPage, err = hf.ReadPage(descriptor(hf, 0))
	require.NoError(t, err)
	assert.Len(t, diskPage.(*heap.HeapPage).Tuples(), 1)

	// The cached page is clean again.
	tid2 := transaction.NewTransactionID()
	pg, err := pool.GetPage(tid2, descriptor(hf, 0), primitives.ReadOnly)
	require.NoError(t, err)
	assert.Nil(t, pg.IsDirty())
}

func TestAbortRestoresPagesFromDisk(t *testing.T) {
	hf, pool := newStoreWithTable(t, 4)
	seedPages(t, hf, 1)
	desc := hf.GetTupleDesc()

	tid := transaction.NewTransactionID()
	require.NoError(t, pool.InsertTuple(tid, hf.GetID(), intPair(t, desc, 100, 100)))

	// The cached page carries the uncommitted insert.
	pg, err := pool.GetPage(tid, descriptor(hf, 0), primitives.ReadWrite)
	require.NoError(t, err)
	require.Len(t, pg.(*heap.HeapPage).Tuples(), 2)

	require.NoError(t, pool.TransactionComplete(tid, false))

	// The rollback re-read the page: the insert is gone.
	tid2 := transaction.NewTransactionID()
	pg, err = pool.GetPage(tid2, descriptor(hf, 0), primitives.ReadOnly)
	require.NoError(t, err)
	assert.Len(t, pg.(*heap.HeapPage).Tuples(), 1)
	assert.Nil(t, pg.IsDirty())
}

func TestCompletionReleasesLocks(t *testing.T) {
	hf, pool := newStoreWithTable(t, 4)
	seedPages(t, hf, 1)

	tid := transaction.NewTransactionID()
	_, err := pool.GetPage(tid, descriptor(hf, 0), primitives.ReadWrite)
	require.NoError(t, err)

	require.NoError(t, pool.TransactionComplete(tid, true))
	assert.False(t, pool.HoldsLock(tid, descriptor(hf, 0)))

	// Another transaction can take the exclusive lock immediately.
	tid2 := transaction.NewTransactionID()
	_, err = pool.GetPage(tid2, descriptor(hf, 0), primitives.ReadWrite)
	require.NoError(t, err)
}

func TestCommitOnlyFlushesOwnPages(t *testing.T) {
	hf, pool := newStoreWithTable(t, 4)
	desc := hf.GetTupleDesc()

	// tid1 dirties page 0; tid2 dirties page 1 (page 0 is full from
	// tid1's perspective only when it has no free slots, so seed page 1
	// through a delete instead).
	seedPages(t, hf, 2)

	tid1 := transaction.NewTransactionID()
	require.NoError(t, pool.InsertTuple(tid1, hf.GetID(), intPair(t, desc, 100, 100)))

	tid2 := transaction.NewTransactionID()
	pg, err := pool.GetPage(tid2, descriptor(hf, 1), primitives.ReadWrite)
	require.NoError(t, err)
	victim := pg.(*heap.HeapPage).Tuples()[0]
	require.NoError(t, pool.DeleteTuple(tid2, victim))

	require.NoError(t, pool.TransactionComplete(tid1, true))

	// tid1's page reached disk; tid2's dirty page did not.
	disk0, err := hf.ReadPage(descriptor(hf, 0))
	require.NoError(t, err)
	assert.Len(t, disk0.(*heap.HeapPage).Tuples(), 2)

	disk1, err := hf.ReadPage(descriptor(hf, 1))
	require.NoError(t, err)
	assert.Len(t, disk1.(*heap.HeapPage).Tuples(), 1, "tid2's delete must not be flushed")
}

func TestFlushPageIsNoopForCleanPage(t *testing.T) {
	hf, pool := newStoreWithTable(t, 4)
	seedPages(t, hf, 1)
	tid := transaction.NewTransactionID()

	_, err := pool.GetPage(tid, descriptor(hf, 0), primitives.ReadOnly)
	require.NoError(t, err)

	require.NoError(t, pool.FlushPage(descriptor(hf, 0)))
	// Absent pages are a no-op too.
	require.NoError(t, pool.FlushPage(descriptor(hf, 7)))
}

func TestFlushAllPages(t *testing.T) {
	hf, pool := newStoreWithTable(t, 4)
	tid := transaction.NewTransactionID()

	require.NoError(t, pool.InsertTuple(tid, hf.GetID(), intPair(t, hf.GetTupleDesc(), 1, 2)))
	require.NoError(t, pool.FlushAllPages())

	diskPage, err := hf.ReadPage(descriptor(hf, 0))
	require.NoError(t, err)
	assert.Len(t, diskPage.(*heap.HeapPage).Tuples(), 1)
}

func TestDiscardPage(t *testing.T) {
	hf, pool := newStoreWithTable(t, 4)
	seedPages(t, hf, 1)
	tid := transaction.NewTransactionID()

	first, err := pool.GetPage(tid, descriptor(hf, 0), primitives.ReadOnly)
	require.NoError(t, err)

	pool.DiscardPage(descriptor(hf, 0))

	second, err := pool.GetPage(tid, descriptor(hf, 0), primitives.ReadOnly)
	require.NoError(t, err)
	assert.NotSame(t, first, second, "discarded page must be re-read")
}
