package page

import "sync/atomic"

// DefaultPageSize is the size of each page in bytes (4KB).
const DefaultPageSize = 4096

var pageSize atomic.Int64

func init() {
	pageSize.Store(DefaultPageSize)
}

// PageSize returns the process-wide page size. All page-offset arithmetic
// and slot-layout computation uses this value; a writer and reader with
// different page sizes corrupt the file.
func PageSize() int {
	return int(pageSize.Load())
}

// SetPageSize overrides the process-wide page size.
// THIS FUNCTION SHOULD ONLY BE USED FOR TESTING.
func SetPageSize(size int) {
	pageSize.Store(int64(size))
}

// ResetPageSize restores the default page size.
// THIS FUNCTION SHOULD ONLY BE USED FOR TESTING.
func ResetPageSize() {
	pageSize.Store(DefaultPageSize)
}
