package store

import (
	"errors"
	"fmt"
	"sync"

	memdb "github.com/hashicorp/go-memdb"
)

// Repo keeps slice values. Store replaces the value wholesale.
type Repo interface {
	Load(slice Slice) (value any, ok bool, err error)
	Store(slice Slice, value any) error
}

type inMemRepo struct {
	m *sync.Map
}

// NewInMemoryRepo returns a Repo backed by a sync.Map.
func NewInMemoryRepo() Repo {
	return inMemRepo{m: &sync.Map{}}
}

func (r inMemRepo) Load(slice Slice) (any, bool, error) {
	v, ok := r.m.Load(slice)
	return v, ok, nil
}

func (r inMemRepo) Store(slice Slice, value any) error {
	r.m.Store(slice, value)
	return nil
}

const (
	sliceTable = "slice"
	sliceIndex = "id"
)

type sliceRecord struct {
	Name  string
	Value any
}

var sliceSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		sliceTable: {
			Name: sliceTable,
			Indexes: map[string]*memdb.IndexSchema{
				sliceIndex: {
					Name:    sliceIndex,
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Name"},
				},
			},
		},
	},
}

type memDBRepo struct {
	db *memdb.MemDB
}

// NewMemDBRepo returns a Repo backed by a go-memdb table. Reads run on an
// immutable snapshot, so a reader never sees a write in progress.
func NewMemDBRepo() (Repo, error) {
	db, err := memdb.NewMemDB(sliceSchema)
	if err != nil {
		return nil, fmt.Errorf("create memdb: %w", err)
	}
	return memDBRepo{db: db}, nil
}

func (r memDBRepo) Load(slice Slice) (any, bool, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(sliceTable, sliceIndex, string(slice))
	if err != nil {
		return nil, false, err
	}
	if raw == nil {
		return nil, false, nil
	}
	rec, ok := raw.(*sliceRecord)
	if !ok {
		return nil, false, errors.New("memdb: unexpected record type")
	}
	return rec.Value, true, nil
}

func (r memDBRepo) Store(slice Slice, value any) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(sliceTable, &sliceRecord{Name: string(slice), Value: value}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}
