package page

import (
	"storedb/pkg/concurrency/transaction"
	"storedb/pkg/primitives"
	"storedb/pkg/tuple"
)

// PageFetcher is the slice of the buffer pool that file-level operations
// need: transactional page acquisition and the single sanctioned early
// lock release. Threading it through as an interface keeps the storage
// layer free of a process-wide buffer pool singleton.
type PageFetcher interface {
	// GetPage returns the page with the requested permissions, blocking
	// until the matching lock is granted or the lock wait times out.
	GetPage(tid *transaction.TransactionID, pid primitives.PageID, perm primitives.Permissions) (Page, error)

	// ReleasePage drops tid's lock on pid immediately. This breaks strict
	// two-phase locking and is only used by the heap file's free-slot scan
	// to release pages it will not modify.
	ReleasePage(tid *transaction.TransactionID, pid primitives.PageID)
}

// DbFile is a table's on-disk storage: a sequence of fixed-size pages
// holding tuples of a single schema.
type DbFile interface {
	// ReadPage reads the page identified by pid from disk. Pages returned
	// by ReadPage are clean.
	ReadPage(pid primitives.PageID) (Page, error)

	// WritePage persists a page at the location given by its id. A
	// subsequent ReadPage observes exactly the written bytes.
	WritePage(p Page) error

	// InsertTuple places t on the first page with a free slot, extending
	// the file by one page when every existing page is full. Pages are
	// acquired read-write through pool; full pages are released early.
	// Returns the pages dirtied by the operation.
	InsertTuple(tid *transaction.TransactionID, t *tuple.Tuple, pool PageFetcher) ([]Page, error)

	// DeleteTuple removes t from the page named by its record id, acquired
	// read-write through pool. Returns the dirtied page.
	DeleteTuple(tid *transaction.TransactionID, t *tuple.Tuple, pool PageFetcher) (Page, error)

	// GetID returns the table id: the deterministic hash of the absolute
	// backing path.
	GetID() primitives.TableID

	// NumPages returns the number of pages currently in the file.
	NumPages() (primitives.PageNumber, error)

	// GetTupleDesc returns the schema of tuples stored in this file.
	GetTupleDesc() *tuple.TupleDescription

	// Close releases the underlying file handle.
	Close() error
}
