package heap

import (
	"bytes"
	"fmt"
	"sync"

	"storedb/pkg/concurrency/transaction"
	"storedb/pkg/storage/page"
	"storedb/pkg/tuple"
)

// HeapPage stores an unordered set of fixed-width tuples behind a header
// bitmap of slot occupancy. It implements page.Page.
//
// On-disk layout:
//
//	[occupancy bitmap, ceil(numSlots/8) bytes][slot 0][slot 1]...[slot N-1][padding]
//
// Bit i of the bitmap (byte i/8, bit i%8) marks slot i occupied. Each slot
// is TupleDesc.Size() bytes at offset headerSize + i*tupleSize. An
// all-zero page is a valid empty page.
type HeapPage struct {
	pageID    *page.PageDescriptor
	tupleDesc *tuple.TupleDescription
	numSlots  int
	header    []byte         // occupancy bitmap
	tuples    []*tuple.Tuple // in-memory tuples, indexed by slot
	dirtier   *transaction.TransactionID
	mutex     sync.RWMutex
}

// NumSlotsPerPage returns how many tuples of the given schema fit on one
// page: floor(PageSize*8 / (tupleSize*8 + 1)), each slot costing its data
// bytes plus one bitmap bit.
func NumSlotsPerPage(td *tuple.TupleDescription) int {
	return (page.PageSize() * 8) / (int(td.Size())*8 + 1)
}

// headerSizeFor returns the bitmap size in bytes for the given slot count.
func headerSizeFor(numSlots int) int {
	return (numSlots + 7) / 8
}

// CreateEmptyPageData returns a PageSize() buffer representing an
// all-empty page.
func CreateEmptyPageData() []byte {
	return make([]byte, page.PageSize())
}

// NewHeapPage deserializes a heap page from raw bytes. Occupied slots are
// parsed into tuples carrying their record ids; the returned page is
// clean.
func NewHeapPage(pid *page.PageDescriptor, data []byte, td *tuple.TupleDescription) (*HeapPage, error) {
	if len(data) != page.PageSize() {
		return nil, fmt.Errorf("invalid page data size: expected %d, got %d", page.PageSize(), len(data))
	}

	hp := &HeapPage{
		pageID:    pid,
		tupleDesc: td,
		numSlots:  NumSlotsPerPage(td),
	}

	headerSize := headerSizeFor(hp.numSlots)
	hp.header = make([]byte, headerSize)
	copy(hp.header, data[:headerSize])
	hp.tuples = make([]*tuple.Tuple, hp.numSlots)

	tupleSize := int(td.Size())
	for i := 0; i < hp.numSlots; i++ {
		if !hp.slotOccupied(i) {
			continue
		}

		offset := headerSize + i*tupleSize
		reader := bytes.NewReader(data[offset : offset+tupleSize])
		t, err := readTuple(reader, td)
		if err != nil {
			return nil, fmt.Errorf("failed to read tuple at slot %d: %w", i, err)
		}

		t.RecordID = tuple.NewRecordID(pid, i)
		hp.tuples[i] = t
	}

	return hp, nil
}

// GetID returns the page identifier.
func (hp *HeapPage) GetID() *page.PageDescriptor {
	return hp.pageID
}

// IsDirty returns the transaction that dirtied this page, or nil if the
// page is clean.
func (hp *HeapPage) IsDirty() *transaction.TransactionID {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()
	return hp.dirtier
}

// MarkDirty sets or clears the dirty state.
func (hp *HeapPage) MarkDirty(dirty bool, tid *transaction.TransactionID) {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	if dirty {
		hp.dirtier = tid
	} else {
		hp.dirtier = nil
	}
}

// GetPageData serializes the page: bitmap, then each occupied slot at its
// fixed offset, zero bytes elsewhere. The result is exactly PageSize()
// bytes.
func (hp *HeapPage) GetPageData() []byte {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	data := make([]byte, page.PageSize())
	copy(data, hp.header)

	headerSize := len(hp.header)
	tupleSize := int(hp.tupleDesc.Size())
	for i := 0; i < hp.numSlots; i++ {
		if !hp.slotOccupied(i) || hp.tuples[i] == nil {
			continue
		}

		offset := headerSize + i*tupleSize
		buf := bytes.NewBuffer(data[offset:offset])
		for j := 0; j < hp.tupleDesc.NumFields(); j++ {
			field, err := hp.tuples[i].GetField(j)
			if err != nil || field == nil {
				continue
			}
			_ = field.Serialize(buf)
		}
	}

	return data
}

// GetNumEmptySlots returns the number of unoccupied slots.
func (hp *HeapPage) GetNumEmptySlots() int {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	empty := 0
	for i := 0; i < hp.numSlots; i++ {
		if !hp.slotOccupied(i) {
			empty++
		}
	}
	return empty
}

// NumSlots returns the total slot count of this page.
func (hp *HeapPage) NumSlots() int {
	return hp.numSlots
}

// InsertTuple places t in the first empty slot, marks the slot occupied,
// and stamps t's record id.
func (hp *HeapPage) InsertTuple(t *tuple.Tuple) error {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	if !t.TupleDesc.Equals(hp.tupleDesc) {
		return fmt.Errorf("tuple schema does not match page schema")
	}

	for i := 0; i < hp.numSlots; i++ {
		if hp.slotOccupied(i) {
			continue
		}

		hp.setSlot(i, true)
		hp.tuples[i] = t
		t.RecordID = tuple.NewRecordID(hp.pageID, i)
		return nil
	}

	return fmt.Errorf("no empty slot on page %v", hp.pageID)
}

// DeleteTuple clears the slot named by t's record id and detaches the
// record id from t.
func (hp *HeapPage) DeleteTuple(t *tuple.Tuple) error {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	rid := t.RecordID
	if rid == nil {
		return fmt.Errorf("tuple has no record id")
	}
	if !rid.PageID.Equals(hp.pageID) {
		return fmt.Errorf("tuple is not on this page")
	}
	if rid.Slot < 0 || rid.Slot >= hp.numSlots {
		return fmt.Errorf("slot %d out of range", rid.Slot)
	}
	if !hp.slotOccupied(rid.Slot) {
		return fmt.Errorf("slot %d is already empty", rid.Slot)
	}

	hp.setSlot(rid.Slot, false)
	hp.tuples[rid.Slot] = nil
	t.RecordID = nil
	return nil
}

// Tuples returns the occupied tuples in slot order.
func (hp *HeapPage) Tuples() []*tuple.Tuple {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	result := make([]*tuple.Tuple, 0, hp.numSlots)
	for i := 0; i < hp.numSlots; i++ {
		if hp.slotOccupied(i) && hp.tuples[i] != nil {
			result = append(result, hp.tuples[i])
		}
	}
	return result
}

// Iterator returns a forward iterator over the occupied tuples.
func (hp *HeapPage) Iterator() *PageIterator {
	return newPageIterator(hp.Tuples())
}

// GetTupleDesc returns the schema of tuples on this page.
func (hp *HeapPage) GetTupleDesc() *tuple.TupleDescription {
	return hp.tupleDesc
}

// slotOccupied reads bit i of the bitmap. Caller holds the lock.
func (hp *HeapPage) slotOccupied(i int) bool {
	return hp.header[i/8]&(1<<(uint(i)%8)) != 0
}

// setSlot writes bit i of the bitmap. Caller holds the lock.
func (hp *HeapPage) setSlot(i int, occupied bool) {
	if occupied {
		hp.header[i/8] |= 1 << (uint(i) % 8)
	} else {
		hp.header[i/8] &^= 1 << (uint(i) % 8)
	}
}
