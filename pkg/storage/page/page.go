package page

import (
	"storedb/pkg/concurrency/transaction"
)

// Page is a fixed-size unit of disk I/O resident in the buffer pool.
// Pages may be "dirty", meaning their in-memory bytes differ from disk
// because an uncommitted transaction mutated them.
type Page interface {
	// GetID returns the identifier of this page.
	GetID() *PageDescriptor

	// IsDirty returns the transaction that dirtied this page, or nil if
	// the page is clean. A page freshly read from disk is clean.
	IsDirty() *transaction.TransactionID

	// MarkDirty sets or clears the dirty state. When dirty is false the
	// tid argument is ignored.
	MarkDirty(dirty bool, tid *transaction.TransactionID)

	// GetPageData serializes the page into exactly PageSize() bytes.
	GetPageData() []byte
}
