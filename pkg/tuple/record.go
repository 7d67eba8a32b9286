package tuple

import (
	"fmt"

	"storedb/pkg/primitives"
)

// RecordID locates a tuple in the database: the page that stores it and
// the slot number within that page. The storage layer sets it on insert
// and clears it on delete.
type RecordID struct {
	PageID primitives.PageID // The page containing this tuple
	Slot   int               // The slot number within the page
}

// NewRecordID creates a record id for the given page and slot.
func NewRecordID(pageID primitives.PageID, slot int) *RecordID {
	return &RecordID{
		PageID: pageID,
		Slot:   slot,
	}
}

// Equals compares two record ids by page identity and slot number.
func (rid *RecordID) Equals(other *RecordID) bool {
	if other == nil {
		return false
	}
	return rid.PageID.Equals(other.PageID) && rid.Slot == other.Slot
}

func (rid *RecordID) String() string {
	return fmt.Sprintf("RecordID(page=%s, slot=%d)", rid.PageID, rid.Slot)
}
