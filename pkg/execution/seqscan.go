package execution

import (
	"fmt"

	"storedb/pkg/concurrency/transaction"
	"storedb/pkg/storage/heap"
	"storedb/pkg/storage/page"
	"storedb/pkg/tuple"
)

// SeqScan reads every tuple of a table in storage order. It adapts the
// heap file's iterator to the operator interface and is the usual leaf of
// an operator tree; pages are acquired read-only through the buffer pool
// as the scan advances.
type SeqScan struct {
	tid      *transaction.TransactionID
	file     *heap.HeapFile
	pool     page.PageFetcher
	fileIter *heap.HeapFileIterator
	base     *BaseIterator
}

// NewSeqScan creates a closed scan over the given table on behalf of tid.
func NewSeqScan(tid *transaction.TransactionID, file *heap.HeapFile, pool page.PageFetcher) (*SeqScan, error) {
	if file == nil {
		return nil, fmt.Errorf("heap file cannot be nil")
	}
	if pool == nil {
		return nil, fmt.Errorf("page fetcher cannot be nil")
	}

	scan := &SeqScan{
		tid:  tid,
		file: file,
		pool: pool,
	}
	scan.base = NewBaseIterator(scan.readNext)
	return scan, nil
}

// Open starts the underlying file scan.
func (s *SeqScan) Open() error {
	s.fileIter = s.file.Iterator(s.tid, s.pool)
	if err := s.fileIter.Open(); err != nil {
		return fmt.Errorf("failed to open table scan: %w", err)
	}
	s.base.MarkOpened()
	return nil
}

// HasNext reports whether the scan has another tuple.
func (s *SeqScan) HasNext() (bool, error) {
	return s.base.HasNext()
}

// Next returns the next tuple in storage order.
func (s *SeqScan) Next() (*tuple.Tuple, error) {
	return s.base.Next()
}

// Rewind restarts the scan from the first page.
func (s *SeqScan) Rewind() error {
	if s.fileIter == nil {
		return fmt.Errorf("scan not opened")
	}
	if err := s.fileIter.Rewind(); err != nil {
		return err
	}
	s.base.MarkOpened()
	return nil
}

// Close stops the scan.
func (s *SeqScan) Close() error {
	if s.fileIter != nil {
		s.fileIter.Close()
		s.fileIter = nil
	}
	return s.base.Close()
}

// GetTupleDesc returns the scanned table's schema.
func (s *SeqScan) GetTupleDesc() *tuple.TupleDescription {
	return s.file.GetTupleDesc()
}

// readNext pulls one tuple from the file iterator, translating exhaustion
// into the nil sentinel the base iterator expects.
func (s *SeqScan) readNext() (*tuple.Tuple, error) {
	hasNext, err := s.fileIter.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, nil
	}
	return s.fileIter.Next()
}
