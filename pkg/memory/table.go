package memory

import (
	"fmt"
	"sync"

	"storedb/pkg/primitives"
	"storedb/pkg/storage/page"
	"storedb/pkg/tuple"
)

// TableManager is the catalog: it maps table names and table ids to their
// database files. Files are registered once at startup and closed at
// shutdown; the buffer pool resolves pages through GetDbFile.
type TableManager struct {
	mutex  sync.RWMutex
	tables map[primitives.TableID]page.DbFile
	names  map[string]primitives.TableID
}

// NewTableManager creates an empty catalog.
func NewTableManager() *TableManager {
	return &TableManager{
		tables: make(map[primitives.TableID]page.DbFile),
		names:  make(map[string]primitives.TableID),
	}
}

// AddTable registers a file under the given name. Re-registering a name
// or a file id replaces the previous entry, mirroring the
// last-registration-wins behavior of a fresh catalog load.
func (tm *TableManager) AddTable(file page.DbFile, name string) error {
	if file == nil {
		return fmt.Errorf("file cannot be nil")
	}
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}

	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tm.tables[file.GetID()] = file
	tm.names[name] = file.GetID()
	return nil
}

// GetDbFile resolves a table id to its file.
func (tm *TableManager) GetDbFile(tableID primitives.TableID) (page.DbFile, error) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	file, exists := tm.tables[tableID]
	if !exists {
		return nil, fmt.Errorf("no table with id %d", tableID)
	}
	return file, nil
}

// GetTableID resolves a table name to its id.
func (tm *TableManager) GetTableID(name string) (primitives.TableID, error) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	id, exists := tm.names[name]
	if !exists {
		return primitives.InvalidTableID, fmt.Errorf("no table named %q", name)
	}
	return id, nil
}

// GetTupleDesc returns the schema of the identified table.
func (tm *TableManager) GetTupleDesc(tableID primitives.TableID) (*tuple.TupleDescription, error) {
	file, err := tm.GetDbFile(tableID)
	if err != nil {
		return nil, err
	}
	return file.GetTupleDesc(), nil
}

// TableIDs returns the ids of all registered tables.
func (tm *TableManager) TableIDs() []primitives.TableID {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	ids := make([]primitives.TableID, 0, len(tm.tables))
	for id := range tm.tables {
		ids = append(ids, id)
	}
	return ids
}

// Close closes every registered file, returning the first error seen.
func (tm *TableManager) Close() error {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	var firstErr error
	for _, file := range tm.tables {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
