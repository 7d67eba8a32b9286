package page

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"storedb/pkg/primitives"
)

// PageDescriptor identifies a page by the table it belongs to and its
// zero-based position within that table's backing file. Descriptors are
// equal under value equality; Key() yields the comparable map-key form.
type PageDescriptor struct {
	tableID primitives.TableID
	pageNum primitives.PageNumber
}

// NewPageDescriptor creates a page descriptor.
func NewPageDescriptor(tableID primitives.TableID, pageNum primitives.PageNumber) *PageDescriptor {
	return &PageDescriptor{
		tableID: tableID,
		pageNum: pageNum,
	}
}

// GetTableID returns the table this page belongs to.
func (pd *PageDescriptor) GetTableID() primitives.TableID {
	return pd.tableID
}

// PageNo returns the page number within the table.
func (pd *PageDescriptor) PageNo() primitives.PageNumber {
	return pd.pageNum
}

// Key returns the comparable value form used as a map key by the lock
// table and the page cache.
func (pd *PageDescriptor) Key() primitives.PageKey {
	return primitives.PageKey{Table: pd.tableID, Page: pd.pageNum}
}

// Serialize returns a 16-byte representation of this page id.
func (pd *PageDescriptor) Serialize() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(pd.tableID))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(pd.pageNum))
	return buf
}

// Equals compares two page ids by table id and page number.
func (pd *PageDescriptor) Equals(other primitives.PageID) bool {
	if other == nil {
		return false
	}
	return pd.tableID == other.GetTableID() && pd.pageNum == other.PageNo()
}

func (pd *PageDescriptor) String() string {
	return fmt.Sprintf("PageDescriptor(table=%d, page=%d)", pd.tableID, pd.pageNum)
}

// HashCode returns a hash of this page id, stable for equal ids.
func (pd *PageDescriptor) HashCode() primitives.HashCode {
	h := fnv.New64a()
	h.Write(pd.Serialize())
	return primitives.HashCode(h.Sum64())
}
