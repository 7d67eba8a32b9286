package transaction

import (
	"fmt"
	"sync"
)

// Registry tracks live transactions by id. The shell uses it to look up
// and finish transactions it started; it carries no locking or paging
// state of its own.
type Registry struct {
	mutex  sync.RWMutex
	active map[int64]*Transaction
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		active: make(map[int64]*Transaction),
	}
}

// Begin starts a new transaction and registers it.
func (r *Registry) Begin() *Transaction {
	t := Begin()

	r.mutex.Lock()
	r.active[t.ID().ID()] = t
	r.mutex.Unlock()

	return t
}

// Get returns the registered transaction with the given id value.
func (r *Registry) Get(id int64) (*Transaction, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	t, ok := r.active[id]
	if !ok {
		return nil, fmt.Errorf("no active transaction with id %d", id)
	}
	return t, nil
}

// Finish completes the transaction through pool and removes it from the
// registry regardless of the outcome.
func (r *Registry) Finish(t *Transaction, pool Completer, commit bool) error {
	r.mutex.Lock()
	delete(r.active, t.ID().ID())
	r.mutex.Unlock()

	if commit {
		return t.Commit(pool)
	}
	return t.Abort(pool)
}

// ActiveCount returns the number of registered transactions.
func (r *Registry) ActiveCount() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.active)
}
