package page

import (
	"fmt"
	"os"
	"sync"

	dberr "storedb/pkg/error"
	"storedb/pkg/primitives"
)

// BaseFile provides the file operations shared by all database file
// types: strict page-granular reads and writes, page counting, and atomic
// page allocation. Concrete files (heap files) embed it and add their
// page format on top.
//
// Thread-safety: all methods use a read/write mutex; the buffer pool owns
// all flushes, so writes are additionally serialized above this layer.
type BaseFile struct {
	file     *os.File            // The underlying OS file handle
	tableID  primitives.TableID  // Deterministic hash of the absolute path
	mutex    sync.RWMutex
	filePath primitives.Filepath // Path the file was opened with
}

// NewBaseFile opens (creating if necessary) the backing file and derives
// its table id from the absolute path.
func NewBaseFile(filePath primitives.Filepath) (*BaseFile, error) {
	if filePath.IsEmpty() {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	file, err := os.OpenFile(filePath.String(), os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, dberr.Wrap(err, dberr.CodeIoFailure, "Open", "BaseFile")
	}

	return &BaseFile{
		file:     file,
		tableID:  filePath.Hash(),
		filePath: filePath,
	}, nil
}

// GetID returns the table id derived from the absolute backing path. The
// id is stable across process restarts.
func (bf *BaseFile) GetID() primitives.TableID {
	return bf.tableID
}

// FilePath returns the path this file was opened with.
func (bf *BaseFile) FilePath() primitives.Filepath {
	return bf.filePath
}

// NumPages returns ceil(file_length / PageSize()).
func (bf *BaseFile) NumPages() (primitives.PageNumber, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.file == nil {
		return 0, fmt.Errorf("file is closed")
	}

	info, err := bf.file.Stat()
	if err != nil {
		return 0, dberr.Wrap(err, dberr.CodeIoFailure, "NumPages", "BaseFile")
	}

	size := info.Size()
	numPages := primitives.PageNumber(size / int64(PageSize()))
	if size%int64(PageSize()) != 0 {
		numPages++
	}
	return numPages, nil
}

// ReadPageData reads exactly PageSize() bytes at the given page's offset.
// Asking for a page beyond the end of the file is a caller error, not an
// I/O condition, and fails with INVALID_PAGE.
func (bf *BaseFile) ReadPageData(pageNo primitives.PageNumber) ([]byte, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.file == nil {
		return nil, fmt.Errorf("file is closed")
	}

	info, err := bf.file.Stat()
	if err != nil {
		return nil, dberr.Wrap(err, dberr.CodeIoFailure, "ReadPageData", "BaseFile")
	}

	offset := int64(pageNo) * int64(PageSize())
	if offset+int64(PageSize()) > info.Size() {
		return nil, dberr.Newf(dberr.ErrCategoryData, dberr.CodeInvalidPage,
			"table %d's page %d is beyond end of file", bf.tableID, pageNo)
	}

	pageData := make([]byte, PageSize())
	n, err := bf.file.ReadAt(pageData, offset)
	if err != nil {
		return nil, dberr.Wrap(err, dberr.CodeIoFailure, "ReadPageData", "BaseFile")
	}
	if n != PageSize() {
		return nil, dberr.Newf(dberr.ErrCategoryData, dberr.CodeInvalidPage,
			"table %d's page %d: read %d of %d bytes", bf.tableID, pageNo, n, PageSize())
	}

	return pageData, nil
}

// WritePageData writes exactly PageSize() bytes at the given page's offset
// and syncs the file, so a subsequent read observes the written bytes even
// across a crash of the process.
func (bf *BaseFile) WritePageData(pageNo primitives.PageNumber, pageData []byte) error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return fmt.Errorf("file is closed")
	}

	if len(pageData) != PageSize() {
		return fmt.Errorf("invalid page data size: expected %d, got %d", PageSize(), len(pageData))
	}

	offset := int64(pageNo) * int64(PageSize())
	if _, err := bf.file.WriteAt(pageData, offset); err != nil {
		return dberr.Wrap(err, dberr.CodeIoFailure, "WritePageData", "BaseFile")
	}

	if err := bf.file.Sync(); err != nil {
		return dberr.Wrap(err, dberr.CodeIoFailure, "WritePageData", "BaseFile")
	}
	return nil
}

// AllocateNewPage appends one zero-filled page to the file and returns its
// page number. The zero fill both reserves the space atomically (no two
// callers can allocate the same number) and yields a valid empty heap
// page, since an all-zero occupancy bitmap marks every slot free.
func (bf *BaseFile) AllocateNewPage() (primitives.PageNumber, error) {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return 0, fmt.Errorf("file is closed")
	}

	info, err := bf.file.Stat()
	if err != nil {
		return 0, dberr.Wrap(err, dberr.CodeIoFailure, "AllocateNewPage", "BaseFile")
	}

	size := info.Size()
	allocated := primitives.PageNumber(size / int64(PageSize()))
	if size%int64(PageSize()) != 0 {
		allocated++
	}

	zeroPage := make([]byte, PageSize())
	offset := int64(allocated) * int64(PageSize())
	if _, err := bf.file.WriteAt(zeroPage, offset); err != nil {
		return 0, dberr.Wrap(err, dberr.CodeIoFailure, "AllocateNewPage", "BaseFile")
	}

	if err := bf.file.Sync(); err != nil {
		return 0, dberr.Wrap(err, dberr.CodeIoFailure, "AllocateNewPage", "BaseFile")
	}

	return allocated, nil
}

// Close releases the file handle. Further operations fail.
func (bf *BaseFile) Close() error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file != nil {
		err := bf.file.Close()
		bf.file = nil
		return err
	}
	return nil
}
