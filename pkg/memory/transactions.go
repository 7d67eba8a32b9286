package memory

import (
	"fmt"

	"storedb/pkg/concurrency/transaction"
	"storedb/pkg/logging"
	"storedb/pkg/primitives"
	"storedb/pkg/storage/page"
)

// TransactionComplete finishes a transaction. Commit flushes the
// transaction's dirty pages through to disk (FORCE) before returning;
// abort reloads every page the transaction dirtied from disk, discarding
// its in-memory mutations. Either way all of the transaction's locks are
// released, which ends its two-phase locking shrink phase.
func (p *PageStore) TransactionComplete(tid *transaction.TransactionID, commit bool) error {
	var err error
	if commit {
		err = p.FlushPages(tid)
	} else {
		err = p.rollback(tid)
	}

	p.lockManager.ReleaseAll(tid)

	if err != nil {
		return err
	}

	outcome := "aborted"
	if commit {
		outcome = "committed"
	}
	logging.WithTxn("PageStore", tid.ID()).Debug("transaction ", outcome)
	return nil
}

// FlushPages writes every cached page dirtied by tid to disk and marks it
// clean.
func (p *PageStore) FlushPages(tid *transaction.TransactionID) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for _, key := range p.cache.Keys() {
		pg, exists := p.cache.Peek(key)
		if !exists {
			continue
		}
		if !tid.Equals(pg.IsDirty()) {
			continue
		}
		if err := p.flushPage(pg); err != nil {
			return err
		}
	}
	return nil
}

// FlushAllPages writes every dirty cached page to disk, regardless of the
// owning transaction. It bypasses NO-STEAL and exists for orderly
// shutdown, not for use while transactions are in flight.
func (p *PageStore) FlushAllPages() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for _, key := range p.cache.Keys() {
		pg, exists := p.cache.Peek(key)
		if !exists {
			continue
		}
		if err := p.flushPage(pg); err != nil {
			return err
		}
	}
	return nil
}

// FlushPage writes the identified page to disk if it is cached and dirty;
// a clean or absent page is a no-op.
func (p *PageStore) FlushPage(pid primitives.PageID) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	pg, exists := p.cache.Peek(primitives.KeyOf(pid))
	if !exists {
		return nil
	}
	return p.flushPage(pg)
}

// flushPage writes one dirty page through its file and clears the dirty
// flag. Caller holds the store mutex.
func (p *PageStore) flushPage(pg page.Page) error {
	if pg.IsDirty() == nil {
		return nil
	}

	tableID := pg.GetID().GetTableID()
	dbFile, err := p.tables.GetDbFile(tableID)
	if err != nil {
		return fmt.Errorf("table %d not found: %w", tableID, err)
	}

	if err := dbFile.WritePage(pg); err != nil {
		return err
	}
	pg.MarkDirty(false, nil)
	return nil
}

// rollback replaces every cached page dirtied by tid with the on-disk
// version. NO-STEAL guarantees the disk still holds the pre-transaction
// bytes, so re-reading is a complete undo. Reloaded pages move to the
// most recently used end.
func (p *PageStore) rollback(tid *transaction.TransactionID) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for _, key := range p.cache.Keys() {
		pg, exists := p.cache.Peek(key)
		if !exists {
			continue
		}
		if !tid.Equals(pg.IsDirty()) {
			continue
		}

		tableID := pg.GetID().GetTableID()
		dbFile, err := p.tables.GetDbFile(tableID)
		if err != nil {
			return fmt.Errorf("table %d not found: %w", tableID, err)
		}

		restored, err := dbFile.ReadPage(pg.GetID())
		if err != nil {
			return err
		}
		p.cache.Put(key, restored)
	}
	return nil
}

// DiscardPage drops the identified page from the cache without writing
// it. Used when a caller knows the cached copy must not survive, e.g.
// after truncating a file in tests.
func (p *PageStore) DiscardPage(pid primitives.PageID) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.cache.Remove(primitives.KeyOf(pid))
}
