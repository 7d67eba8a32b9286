package heap

import (
	"storedb/pkg/concurrency/transaction"
	dberr "storedb/pkg/error"
	"storedb/pkg/primitives"
	"storedb/pkg/storage/page"
	"storedb/pkg/tuple"
)

// HeapFileIterator walks every tuple of a heap file, page by page,
// acquiring each page read-only through the buffer pool. It is forward
// and single-pass; Rewind closes and reopens.
//
// Open caches the file's page count, so pages appended after Open are not
// visited by this pass.
type HeapFileIterator struct {
	file      *HeapFile
	tid       *transaction.TransactionID
	pool      page.PageFetcher
	numPages  primitives.PageNumber
	whichPage primitives.PageNumber
	pageIter  *PageIterator
	opened    bool
}

// NewHeapFileIterator creates a closed iterator; call Open before use.
func NewHeapFileIterator(file *HeapFile, tid *transaction.TransactionID, pool page.PageFetcher) *HeapFileIterator {
	return &HeapFileIterator{
		file: file,
		tid:  tid,
		pool: pool,
	}
}

// Open caches the page count and positions the iterator on page 0. A file
// with no pages opens successfully and yields nothing.
func (it *HeapFileIterator) Open() error {
	numPages, err := it.file.NumPages()
	if err != nil {
		return err
	}

	it.numPages = numPages
	it.whichPage = 0
	it.pageIter = nil
	it.opened = true

	if numPages > 0 {
		pageIter, err := it.loadPage(0)
		if err != nil {
			return err
		}
		it.pageIter = pageIter
	}
	return nil
}

// HasNext reports whether another tuple remains, advancing across page
// boundaries transparently.
func (it *HeapFileIterator) HasNext() (bool, error) {
	if !it.opened || it.pageIter == nil {
		return false, nil
	}

	for {
		hasNext, err := it.pageIter.HasNext()
		if err != nil {
			return false, err
		}
		if hasNext {
			return true, nil
		}

		if it.whichPage+1 >= it.numPages {
			return false, nil
		}

		it.whichPage++
		pageIter, err := it.loadPage(it.whichPage)
		if err != nil {
			return false, err
		}
		it.pageIter = pageIter
	}
}

// Next returns the next tuple, failing with NO_SUCH_ELEMENT when the
// iterator is closed or drained.
func (it *HeapFileIterator) Next() (*tuple.Tuple, error) {
	hasNext, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, dberr.New(dberr.ErrCategoryUser, dberr.CodeNoSuchElement, "heap file iterator exhausted")
	}

	return it.pageIter.Next()
}

// Rewind restarts the scan from page 0.
func (it *HeapFileIterator) Rewind() error {
	if err := it.Close(); err != nil {
		return err
	}
	return it.Open()
}

// Close detaches the iterator from its current page. Locks taken during
// the scan stay with the transaction until it completes.
func (it *HeapFileIterator) Close() error {
	it.pageIter = nil
	it.opened = false
	return nil
}

// loadPage acquires the given page read-only and returns an iterator over
// its tuples.
func (it *HeapFileIterator) loadPage(pgNo primitives.PageNumber) (*PageIterator, error) {
	pid := page.NewPageDescriptor(it.file.GetID(), pgNo)
	pg, err := it.pool.GetPage(it.tid, pid, primitives.ReadOnly)
	if err != nil {
		return nil, err
	}

	heapPage, ok := pg.(*HeapPage)
	if !ok {
		return nil, dberr.Newf(dberr.ErrCategoryData, dberr.CodeInvalidPage,
			"page %v is not a heap page", pid)
	}
	return heapPage.Iterator(), nil
}
