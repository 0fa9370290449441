package scope

import (
	"context"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// IDColumn is the primary key column MemoryStore assigns on create.
const IDColumn = "id"

// MemoryStore is an in-process Store for tests and local development.
// It enforces nothing; isolation comes from the Scoper.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][]Row
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string][]Row)}
}

// Seed inserts rows as-is, bypassing any scoping.
func (m *MemoryStore) Seed(table string, rows ...Row) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range rows {
		m.tables[table] = append(m.tables[table], r.Clone())
	}
}

func (m *MemoryStore) Create(_ context.Context, table string, row Row) (Row, error) {
	row = row.Clone()
	if _, ok := row[IDColumn]; !ok {
		row[IDColumn] = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.tables[table] = append(m.tables[table], row)
	return row.Clone(), nil
}

func (m *MemoryStore) Read(_ context.Context, table string, filter Row) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Row
	for _, r := range m.tables[table] {
		if matches(r, filter) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (m *MemoryStore) Update(_ context.Context, table string, filter, changes Row) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, r := range m.tables[table] {
		if matches(r, filter) {
			for k, v := range changes {
				r[k] = v
			}
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Delete(_ context.Context, table string, filter Row) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.tables[table]
	kept := rows[:0]
	for _, r := range rows {
		if !matches(r, filter) {
			kept = append(kept, r)
		}
	}
	n := int64(len(rows) - len(kept))
	clear(rows[len(kept):])
	m.tables[table] = kept
	return n, nil
}

// Len returns the number of rows in table.
func (m *MemoryStore) Len(table string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables[table])
}

func matches(r, filter Row) bool {
	for k, want := range filter {
		got, ok := r[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}
