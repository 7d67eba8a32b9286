package logging

import (
	log "github.com/sirupsen/logrus"
)

// WithComponent returns an entry scoped to a system component, e.g.
// "PageStore" or "HeapFile". Components log lifecycle events (evictions,
// flushes, file growth) through these entries so that output is filterable.
func WithComponent(component string) *log.Entry {
	return GetLogger().WithField("component", component)
}

// WithTxn returns an entry scoped to a component and a transaction id.
func WithTxn(component string, tid int64) *log.Entry {
	return GetLogger().WithFields(log.Fields{
		"component": component,
		"txn":       tid,
	})
}
