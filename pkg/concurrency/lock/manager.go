package lock

import (
	"sync"

	"storedb/pkg/concurrency/transaction"
	dberr "storedb/pkg/error"
	"storedb/pkg/primitives"
)

// LockManager grants per-page shared/exclusive locks to transactions.
// Every public operation runs under one mutex, so the grant decision
// always sees a consistent lock table. Waiting is the caller's concern:
// Acquire never blocks, it answers granted or denied, and the buffer pool
// retries denials until its lock wait timeout expires.
//
// Invariants on the table:
//   - at most one exclusive holder per page, and if one exists it is the
//     only holder;
//   - any number of shared holders may coexist.
type LockManager struct {
	mutex     sync.Mutex
	lockTable map[primitives.PageKey]map[int64]*PageLock // page -> tid value -> lock
}

// NewLockManager creates a manager with an empty lock table.
func NewLockManager() *LockManager {
	return &LockManager{
		lockTable: make(map[primitives.PageKey]map[int64]*PageLock),
	}
}

// Acquire attempts to take a lock on pid for tid in the given mode.
// It returns (true, nil) when granted and (false, nil) when the request
// conflicts with other holders and should be retried. The one failing
// case is a shared-to-exclusive upgrade while other shared holders exist:
// waiting could never succeed (each holder would wait on the others), so
// the request fails with TXN_ABORTED instead of a retryable denial.
func (lm *LockManager) Acquire(tid *transaction.TransactionID, pid primitives.PageID, mode LockType) (bool, error) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	key := primitives.KeyOf(pid)
	holders, exists := lm.lockTable[key]
	if !exists {
		lm.lockTable[key] = map[int64]*PageLock{tid.ID(): NewPageLock(tid, mode)}
		return true, nil
	}

	held, alreadyHolds := holders[tid.ID()]
	if !alreadyHolds {
		return lm.admitNewHolder(holders, tid, mode), nil
	}

	switch held.Mode {
	case SharedLock:
		if mode == SharedLock {
			return true, nil // idempotent re-grant
		}
		// Upgrade: legal only for the sole holder.
		if len(holders) == 1 {
			held.Mode = ExclusiveLock
			return true, nil
		}
		return false, dberr.Newf(dberr.ErrCategoryConcurrency, dberr.CodeTxnAborted,
			"transaction %s cannot upgrade lock on %v: other shared holders present", tid, pid)
	default: // ExclusiveLock
		return true, nil
	}
}

// admitNewHolder decides whether a transaction that holds nothing on the
// page may join the current holders. Caller holds the mutex.
func (lm *LockManager) admitNewHolder(holders map[int64]*PageLock, tid *transaction.TransactionID, mode LockType) bool {
	if len(holders) >= 2 {
		// Two or more holders are necessarily all shared.
		if mode == SharedLock {
			holders[tid.ID()] = NewPageLock(tid, mode)
			return true
		}
		return false
	}

	// Exactly one holder, and it is a different transaction.
	for _, held := range holders {
		if held.Mode == SharedLock && mode == SharedLock {
			holders[tid.ID()] = NewPageLock(tid, mode)
			return true
		}
	}
	return false
}

// IsHolding reports whether tid holds any lock on pid.
func (lm *LockManager) IsHolding(tid *transaction.TransactionID, pid primitives.PageID) bool {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	holders, exists := lm.lockTable[primitives.KeyOf(pid)]
	if !exists {
		return false
	}
	_, holds := holders[tid.ID()]
	return holds
}

// Release drops tid's lock on pid, reporting whether a lock was held.
// Removing the last holder removes the page's table entry.
func (lm *LockManager) Release(tid *transaction.TransactionID, pid primitives.PageID) bool {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	return lm.release(tid, primitives.KeyOf(pid))
}

func (lm *LockManager) release(tid *transaction.TransactionID, key primitives.PageKey) bool {
	holders, exists := lm.lockTable[key]
	if !exists {
		return false
	}
	if _, holds := holders[tid.ID()]; !holds {
		return false
	}

	delete(holders, tid.ID())
	if len(holders) == 0 {
		delete(lm.lockTable, key)
	}
	return true
}

// ReleaseAll drops every lock tid holds, across all pages.
func (lm *LockManager) ReleaseAll(tid *transaction.TransactionID) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	for key := range lm.lockTable {
		lm.release(tid, key)
	}
}
