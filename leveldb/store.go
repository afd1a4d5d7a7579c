package leveldb

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/anyswap/CrossChain-Settlement/types"
)

var (
	txKeyPrefix      = []byte("tx/")
	depositKeyPrefix = []byte("dep/")
)

func txKey(id string) []byte {
	return append(append([]byte{}, txKeyPrefix...), id...)
}

func depositKey(depositRef string) []byte {
	return append(append([]byte{}, depositKeyPrefix...), depositRef...)
}

// Store embedded transaction store.
// Writes are serialized, every update is conditional on the record version.
type Store struct {
	db *Database
	mu sync.Mutex
}

// NewStore new store on db
func NewStore(db *Database) *Store {
	return &Store{db: db}
}

// OpenStore open store at path, use memory storage if path is empty
func OpenStore(path string, cache, handles int) (*Store, error) {
	var (
		db  *Database
		err error
	)
	if path == "" {
		db, err = NewMemory()
	} else {
		db, err = New(path, cache, handles, false)
	}
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

// Close close store
func (s *Store) Close() error {
	return s.db.Close()
}

// AddTransaction add new transaction, duplicate id or deposit ref is rejected
func (s *Store) AddTransaction(_ context.Context, tx *types.Transaction) error {
	if err := tx.CheckFields(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range [][]byte{txKey(tx.ID), depositKey(tx.DepositRef)} {
		exist, err := s.db.Has(key)
		if err != nil {
			return err
		}
		if exist {
			return types.ErrTxIsDup
		}
	}

	record := tx.Clone()
	record.Version = 1
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	batch := s.db.NewBatch()
	_ = batch.Put(txKey(tx.ID), data)
	_ = batch.Put(depositKey(tx.DepositRef), []byte(tx.ID))
	if err := batch.Write(); err != nil {
		return err
	}
	tx.Version = record.Version
	return nil
}

// FindTransaction find by id
func (s *Store) FindTransaction(_ context.Context, id string) (*types.Transaction, error) {
	return s.get(id)
}

// FindTransactionByDepositRef find by deposit reference
func (s *Store) FindTransactionByDepositRef(_ context.Context, depositRef string) (*types.Transaction, error) {
	id, err := s.db.Get(depositKey(depositRef))
	if err != nil {
		if IsNotFoundErr(err) {
			return nil, types.ErrTxNotFound
		}
		return nil, err
	}
	return s.get(string(id))
}

// FindTransactions find transactions matching filter, oldest first
func (s *Store) FindTransactions(_ context.Context, filter *types.TxFilter) ([]*types.Transaction, error) {
	iter := s.db.NewIterator(txKeyPrefix, nil)
	defer iter.Release()

	var result []*types.Transaction
	for iter.Next() {
		tx, err := decodeTransaction(iter.Value())
		if err != nil {
			return nil, err
		}
		if filter.Match(tx) {
			result = append(result, tx)
		}
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	types.SortOldestFirst(result)
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// UpdateTransaction replace the record if its stored version equals tx.Version.
// On success tx.Version is increased.
func (s *Store) UpdateTransaction(_ context.Context, tx *types.Transaction) error {
	if err := tx.CheckFields(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.get(tx.ID)
	if err != nil {
		return err
	}
	if current.Version != tx.Version {
		return fmt.Errorf("%w: %v stored version %v, update version %v",
			types.ErrTxVersionConflict, tx.ID, current.Version, tx.Version)
	}
	if current.DepositRef != tx.DepositRef {
		return fmt.Errorf("%w: deposit reference is immutable", types.ErrTxInvalid)
	}

	record := tx.Clone()
	record.Version++
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := s.db.Put(txKey(tx.ID), data); err != nil {
		return err
	}
	tx.Version = record.Version
	return nil
}

// CountTransactionsByStatus count of every status
func (s *Store) CountTransactionsByStatus(_ context.Context) (map[types.TxStatus]int, error) {
	iter := s.db.NewIterator(txKeyPrefix, nil)
	defer iter.Release()

	counts := make(map[types.TxStatus]int, len(types.AllStatuses))
	for _, status := range types.AllStatuses {
		counts[status] = 0
	}
	for iter.Next() {
		tx, err := decodeTransaction(iter.Value())
		if err != nil {
			return nil, err
		}
		counts[tx.Status]++
	}
	return counts, iter.Error()
}

func (s *Store) get(id string) (*types.Transaction, error) {
	data, err := s.db.Get(txKey(id))
	if err != nil {
		if IsNotFoundErr(err) {
			return nil, types.ErrTxNotFound
		}
		return nil, err
	}
	return decodeTransaction(data)
}

func decodeTransaction(data []byte) (*types.Transaction, error) {
	var tx types.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("decode transaction error: %w", err)
	}
	return &tx, nil
}
