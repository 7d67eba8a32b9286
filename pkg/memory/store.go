package memory

import (
	"fmt"
	"sync"
	"time"

	"storedb/pkg/concurrency/lock"
	"storedb/pkg/concurrency/transaction"
	dberr "storedb/pkg/error"
	"storedb/pkg/logging"
	"storedb/pkg/primitives"
	"storedb/pkg/storage/page"
	"storedb/pkg/tuple"
)

// DefaultPageCount is the buffer pool capacity used when the caller does
// not specify one.
const DefaultPageCount = 50

// LockWaitTimeout is the maximum time GetPage waits for a page lock held
// by another transaction. Exceeding it is treated as a deadlock and fails
// the request with TXN_ABORTED. Tests shorten it.
var LockWaitTimeout = 2000 * time.Millisecond

// lockRetryInterval is the sleep between lock acquisition attempts, so
// waiters do not burn a core while spinning.
const lockRetryInterval = 2 * time.Millisecond

// TableSource resolves table ids to their files. The table manager
// implements it; tests substitute fakes.
type TableSource interface {
	GetDbFile(tableID primitives.TableID) (page.DbFile, error)
}

// PageStore is the buffer pool: a bounded LRU cache of pages combined
// with the lock manager, mediating every transactional page access.
//
// Policies:
//   - NO-STEAL: a dirty page is never evicted and never written by
//     eviction, so uncommitted data cannot reach disk.
//   - FORCE: commit writes the transaction's dirty pages through before
//     returning.
//   - Rollback re-reads dirtied pages from disk, discarding in-memory
//     modifications.
//
// The lock acquisition loop in GetPage runs outside the cache mutex so
// that waiters for different pages do not serialize each other; only the
// cache lookup and LRU maintenance are under the mutex.
type PageStore struct {
	capacity    int
	mutex       sync.Mutex
	cache       *LRUPageCache
	lockManager *lock.LockManager
	tables      TableSource
}

// NewPageStore creates a buffer pool over the given table source caching
// up to capacity pages. A non-positive capacity selects DefaultPageCount.
func NewPageStore(tables TableSource, capacity int) *PageStore {
	if capacity <= 0 {
		capacity = DefaultPageCount
	}
	return &PageStore{
		capacity:    capacity,
		cache:       NewLRUPageCache(),
		lockManager: lock.NewLockManager(),
		tables:      tables,
	}
}

// GetPage returns the requested page with the matching lock held:
// ReadOnly acquires shared, ReadWrite acquires exclusive. The lock is
// taken before the cache is consulted, so a reader admitted after a
// writer's release observes the writer's committed version. Lock denial
// is retried until LockWaitTimeout elapses, then fails with TXN_ABORTED.
func (p *PageStore) GetPage(tid *transaction.TransactionID, pid primitives.PageID, perm primitives.Permissions) (page.Page, error) {
	mode := lock.SharedLock
	if perm == primitives.ReadWrite {
		mode = lock.ExclusiveLock
	}

	start := time.Now()
	for {
		granted, err := p.lockManager.Acquire(tid, pid, mode)
		if err != nil {
			return nil, err
		}
		if granted {
			break
		}
		if time.Since(start) > LockWaitTimeout {
			return nil, dberr.Newf(dberr.ErrCategoryConcurrency, dberr.CodeTxnAborted,
				"transaction %s timed out waiting for %s lock on %v", tid, mode, pid)
		}
		time.Sleep(lockRetryInterval)
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	key := primitives.KeyOf(pid)
	if pg, exists := p.cache.Get(key); exists {
		return pg, nil
	}

	dbFile, err := p.tables.GetDbFile(pid.GetTableID())
	if err != nil {
		return nil, fmt.Errorf("table %d not found: %w", pid.GetTableID(), err)
	}

	pg, err := dbFile.ReadPage(pid)
	if err != nil {
		return nil, err
	}

	if p.cache.Size() > p.capacity {
		if err := p.evictPage(); err != nil {
			return nil, err
		}
	}
	p.cache.Put(key, pg)
	return pg, nil
}

// ReleasePage unconditionally drops tid's lock on pid. Releasing before
// transaction completion breaks two-phase locking; the heap file's
// free-slot scan is the only sanctioned caller.
func (p *PageStore) ReleasePage(tid *transaction.TransactionID, pid primitives.PageID) {
	p.lockManager.Release(tid, pid)
}

// HoldsLock reports whether tid holds any lock on pid.
func (p *PageStore) HoldsLock(tid *transaction.TransactionID, pid primitives.PageID) bool {
	return p.lockManager.IsHolding(tid, pid)
}

// InsertTuple adds t to the given table, delegating page selection to the
// heap file (which acquires pages back through this store). Every dirtied
// page is marked with tid and cached, replacing any stale version.
func (p *PageStore) InsertTuple(tid *transaction.TransactionID, tableID primitives.TableID, t *tuple.Tuple) error {
	dbFile, err := p.tables.GetDbFile(tableID)
	if err != nil {
		return fmt.Errorf("table %d not found: %w", tableID, err)
	}

	pages, err := dbFile.InsertTuple(tid, t, p)
	if err != nil {
		return err
	}

	p.admitDirtyPages(tid, pages, false)
	return nil
}

// DeleteTuple removes t from its table, resolved through the record id
// the storage layer stamped on it.
func (p *PageStore) DeleteTuple(tid *transaction.TransactionID, t *tuple.Tuple) error {
	if t == nil || t.RecordID == nil {
		return fmt.Errorf("tuple has no record id")
	}

	tableID := t.RecordID.PageID.GetTableID()
	dbFile, err := p.tables.GetDbFile(tableID)
	if err != nil {
		return fmt.Errorf("table %d not found: %w", tableID, err)
	}

	pg, err := dbFile.DeleteTuple(tid, t, p)
	if err != nil {
		return err
	}

	p.admitDirtyPages(tid, []page.Page{pg}, true)
	return nil
}

// admitDirtyPages marks the pages dirty and installs them in the cache.
// The capacity comparison differs by caller: the insert path evicts when
// strictly over capacity, the delete path when at capacity.
func (p *PageStore) admitDirtyPages(tid *transaction.TransactionID, pages []page.Page, atCapacity bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for _, pg := range pages {
		pg.MarkDirty(true, tid)

		key := pg.GetID().Key()
		if _, exists := p.cache.Peek(key); !exists {
			over := p.cache.Size() > p.capacity
			if atCapacity {
				over = p.cache.Size() >= p.capacity
			}
			if over {
				// Best effort: an all-dirty cache still admits the page.
				_ = p.evictPage()
			}
		}
		p.cache.Put(key, pg)
	}
}

// evictPage discards the least recently used clean page. Dirty candidates
// go back to the most recently used end (NO-STEAL forbids both evicting
// and flushing them); if every examined candidate is dirty the pool is
// exhausted. Caller holds the store mutex.
func (p *PageStore) evictPage() error {
	for i := 0; i < p.capacity; i++ {
		key, pg, ok := p.cache.RemoveTail()
		if !ok {
			break
		}

		if pg.IsDirty() != nil {
			p.cache.Put(key, pg)
			continue
		}

		logging.WithComponent("PageStore").
			WithField("page", pg.GetID().String()).
			Debug("evicted clean page")
		return nil
	}

	return dberr.New(dberr.ErrCategoryTransient, dberr.CodeAllPagesDirty,
		"all pages are dirty, cannot evict")
}

// Capacity returns the configured page limit.
func (p *PageStore) Capacity() int {
	return p.capacity
}

// CachedPages returns the number of pages currently cached.
func (p *PageStore) CachedPages() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.cache.Size()
}
