package transaction

import (
	"fmt"
	"sync/atomic"
)

var transactionCounter atomic.Int64

// TransactionID is an opaque unique token identifying a transaction.
// Identity is the counter value, so two ids created by different calls
// never compare equal.
type TransactionID struct {
	id int64
}

// NewTransactionID allocates the next transaction id.
func NewTransactionID() *TransactionID {
	return &TransactionID{
		id: transactionCounter.Add(1),
	}
}

// ID returns the numeric value of this transaction id.
func (tid *TransactionID) ID() int64 {
	return tid.id
}

func (tid *TransactionID) String() string {
	return fmt.Sprintf("TID-%d", tid.id)
}

// Equals compares two transaction ids by value.
func (tid *TransactionID) Equals(other *TransactionID) bool {
	if tid == nil || other == nil {
		return tid == other
	}
	return tid.id == other.id
}
