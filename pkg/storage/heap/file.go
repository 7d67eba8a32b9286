package heap

import (
	"fmt"

	"storedb/pkg/concurrency/transaction"
	dberr "storedb/pkg/error"
	"storedb/pkg/logging"
	"storedb/pkg/primitives"
	"storedb/pkg/storage/page"
	"storedb/pkg/tuple"
)

// HeapFile stores a table as a sequence of HeapPages in one OS file, in no
// particular tuple order. It implements page.DbFile.
//
// All transactional page access (insert, delete, scan) goes through the
// PageFetcher handed in by the caller so that locking and caching stay
// with the buffer pool; only ReadPage/WritePage, and AllocateNewPage when an
// insert grows the file, touch the disk directly.
type HeapFile struct {
	*page.BaseFile
	tupleDesc *tuple.TupleDescription
}

// NewHeapFile opens (creating if necessary) a heap file at the given path
// for tuples of the given schema.
func NewHeapFile(filename primitives.Filepath, td *tuple.TupleDescription) (*HeapFile, error) {
	baseFile, err := page.NewBaseFile(filename)
	if err != nil {
		return nil, err
	}

	return &HeapFile{
		BaseFile:  baseFile,
		tupleDesc: td,
	}, nil
}

// GetTupleDesc returns the schema of tuples stored in this file.
func (hf *HeapFile) GetTupleDesc() *tuple.TupleDescription {
	return hf.tupleDesc
}

// ReadPage reads the identified page from disk. Requesting a page at or
// beyond NumPages fails with INVALID_PAGE; the file is never grown here.
// The returned page is clean.
func (hf *HeapFile) ReadPage(pid primitives.PageID) (page.Page, error) {
	descriptor, err := hf.checkPageID(pid)
	if err != nil {
		return nil, err
	}

	pageData, err := hf.ReadPageData(descriptor.PageNo())
	if err != nil {
		return nil, err
	}

	return NewHeapPage(descriptor, pageData, hf.tupleDesc)
}

// WritePage writes the page at the offset given by its page number and
// syncs, so a subsequent ReadPage observes exactly these bytes.
func (hf *HeapFile) WritePage(p page.Page) error {
	if p == nil {
		return fmt.Errorf("page cannot be nil")
	}
	return hf.WritePageData(p.GetID().PageNo(), p.GetPageData())
}

// InsertTuple finds a page with a free slot, walking pages from the start
// of the file. Each candidate is acquired read-write through the buffer
// pool; a full page's lock is released immediately so a long scan does
// not pin every page it merely inspected. When every page is full the
// file grows by one empty page and the tuple lands there. Returns the one
// page the insert dirtied.
func (hf *HeapFile) InsertTuple(tid *transaction.TransactionID, t *tuple.Tuple, pool page.PageFetcher) ([]page.Page, error) {
	numPages, err := hf.NumPages()
	if err != nil {
		return nil, err
	}

	for pgNo := primitives.PageNumber(0); pgNo < numPages; pgNo++ {
		pid := page.NewPageDescriptor(hf.GetID(), pgNo)
		pg, err := pool.GetPage(tid, pid, primitives.ReadWrite)
		if err != nil {
			return nil, err
		}

		heapPage, ok := pg.(*HeapPage)
		if !ok {
			return nil, fmt.Errorf("page %v is not a heap page", pid)
		}

		if heapPage.GetNumEmptySlots() == 0 {
			pool.ReleasePage(tid, pid)
			continue
		}

		if err := heapPage.InsertTuple(t); err != nil {
			return nil, err
		}
		return []page.Page{heapPage}, nil
	}

	// Every existing page is full: grow the file by one empty page.
	newPgNo, err := hf.AllocateNewPage()
	if err != nil {
		return nil, err
	}
	logging.WithTxn("HeapFile", tid.ID()).
		WithField("table", hf.GetID()).
		WithField("page", newPgNo).
		Debug("extended heap file")

	newPid := page.NewPageDescriptor(hf.GetID(), newPgNo)
	pg, err := pool.GetPage(tid, newPid, primitives.ReadWrite)
	if err != nil {
		return nil, err
	}

	heapPage, ok := pg.(*HeapPage)
	if !ok {
		return nil, fmt.Errorf("page %v is not a heap page", newPid)
	}
	if err := heapPage.InsertTuple(t); err != nil {
		return nil, err
	}
	return []page.Page{heapPage}, nil
}

// DeleteTuple removes t from the page named by its record id, acquired
// read-write through the buffer pool. Returns the dirtied page.
func (hf *HeapFile) DeleteTuple(tid *transaction.TransactionID, t *tuple.Tuple, pool page.PageFetcher) (page.Page, error) {
	if t.RecordID == nil {
		return nil, fmt.Errorf("tuple has no record id")
	}

	pid := t.RecordID.PageID
	if pid.GetTableID() != hf.GetID() {
		return nil, fmt.Errorf("tuple belongs to table %d, not %d", pid.GetTableID(), hf.GetID())
	}

	pg, err := pool.GetPage(tid, pid, primitives.ReadWrite)
	if err != nil {
		return nil, err
	}

	heapPage, ok := pg.(*HeapPage)
	if !ok {
		return nil, fmt.Errorf("page %v is not a heap page", pid)
	}

	if err := heapPage.DeleteTuple(t); err != nil {
		return nil, err
	}
	return heapPage, nil
}

// Iterator returns a forward, single-pass iterator over every tuple in
// the file. Pages are acquired read-only through pool as the iterator
// advances.
func (hf *HeapFile) Iterator(tid *transaction.TransactionID, pool page.PageFetcher) *HeapFileIterator {
	return NewHeapFileIterator(hf, tid, pool)
}

// checkPageID validates that pid names a page of this file that exists on
// disk right now.
func (hf *HeapFile) checkPageID(pid primitives.PageID) (*page.PageDescriptor, error) {
	if pid == nil {
		return nil, fmt.Errorf("page id cannot be nil")
	}

	descriptor, ok := pid.(*page.PageDescriptor)
	if !ok {
		return nil, fmt.Errorf("invalid page id type for heap file")
	}

	if descriptor.GetTableID() != hf.GetID() {
		return nil, fmt.Errorf("page id table %d does not match file %d", descriptor.GetTableID(), hf.GetID())
	}

	numPages, err := hf.NumPages()
	if err != nil {
		return nil, err
	}
	if descriptor.PageNo() >= numPages {
		return nil, dberr.Newf(dberr.ErrCategoryData, dberr.CodeInvalidPage,
			"table %d's page %d is invalid (file has %d pages)", hf.GetID(), descriptor.PageNo(), numPages)
	}

	return descriptor, nil
}
