package persistence

import (
	"context"
	"fmt"
	"sync"

	memdb "github.com/hashicorp/go-memdb"
)

const (
	tableRecords = "records"
	indexID      = "id"
	indexSeq     = "seq"
)

type row struct {
	ID    string
	Seq   uint64
	Value any
}

type op struct {
	insert bool
	row    *row
}

// MemDB is a Container backed by an in-memory go-memdb database.
// Fetch returns records in first-insertion order.
type MemDB[T Record] struct {
	db *memdb.MemDB

	mu      sync.Mutex
	seq     uint64
	pending []op
}

func NewMemDB[T Record]() (*MemDB[T], error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableRecords: {
				Name: tableRecords,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					indexSeq: {
						Name:    indexSeq,
						Unique:  true,
						Indexer: &memdb.UintFieldIndex{Field: "Seq"},
					},
				},
			},
		},
	}
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("persistence: create memdb: %w", err)
	}
	return &MemDB[T]{db: db}, nil
}

func (m *MemDB[T]) Fetch(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txn := m.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableRecords, indexSeq)
	if err != nil {
		return nil, fmt.Errorf("persistence: fetch: %w", err)
	}
	var out []T
	for obj := it.Next(); obj != nil; obj = it.Next() {
		out = append(out, obj.(*row).Value.(T))
	}
	return out, nil
}

func (m *MemDB[T]) Insert(ctx context.Context, record T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.pending = append(m.pending, op{insert: true, row: &row{ID: record.RecordID(), Seq: m.seq, Value: record}})
	return nil
}

func (m *MemDB[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, op{row: &row{ID: id}})
	return nil
}

// Save commits staged operations atomically. Deleting an unknown id fails
// the whole save with ErrNotFound and discards the staged operations.
func (m *MemDB[T]) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	txn := m.db.Txn(true)
	defer txn.Abort()
	for _, o := range pending {
		existing, err := txn.First(tableRecords, indexID, o.row.ID)
		if err != nil {
			return fmt.Errorf("persistence: lookup %s: %w", o.row.ID, err)
		}
		if !o.insert {
			if existing == nil {
				return fmt.Errorf("%w: %s", ErrNotFound, o.row.ID)
			}
			if err := txn.Delete(tableRecords, existing); err != nil {
				return fmt.Errorf("persistence: delete %s: %w", o.row.ID, err)
			}
			continue
		}
		if existing != nil {
			// updates keep their original position
			o.row.Seq = existing.(*row).Seq
		}
		if err := txn.Insert(tableRecords, o.row); err != nil {
			return fmt.Errorf("persistence: insert %s: %w", o.row.ID, err)
		}
	}
	txn.Commit()
	return nil
}
