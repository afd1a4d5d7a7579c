package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anyswap/CrossChain-Settlement/types"
)

// AddTransaction add new transaction, duplicate deposit ref is rejected
func (s *Store) AddTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := tx.CheckFields(); err != nil {
		return err
	}
	mt := newMgoTransaction(tx)
	mt.Version = 1
	if _, err := s.collTransaction.InsertOne(ctx, mt); err != nil {
		return mgoError(err)
	}
	tx.Version = mt.Version
	return nil
}

// FindTransaction find by id
func (s *Store) FindTransaction(ctx context.Context, id string) (*types.Transaction, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// FindTransactionByDepositRef find by deposit reference
func (s *Store) FindTransactionByDepositRef(ctx context.Context, depositRef string) (*types.Transaction, error) {
	return s.findOne(ctx, bson.M{"depositref": depositRef})
}

func (s *Store) findOne(ctx context.Context, query bson.M) (*types.Transaction, error) {
	var mt MgoTransaction
	err := s.collTransaction.FindOne(ctx, query).Decode(&mt)
	if err != nil {
		return nil, mgoError(err)
	}
	return mt.ToTransaction()
}

// FindTransactions find transactions matching filter, oldest first
func (s *Store) FindTransactions(ctx context.Context, filter *types.TxFilter) ([]*types.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "inittime", Value: 1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts = opts.SetLimit(int64(filter.Limit))
	}
	cur, err := s.collTransaction.Find(ctx, filterQuery(filter), opts)
	if err != nil {
		return nil, mgoError(err)
	}
	defer cur.Close(ctx)

	var docs []*MgoTransaction
	if err = cur.All(ctx, &docs); err != nil {
		return nil, mgoError(err)
	}
	result := make([]*types.Transaction, 0, len(docs))
	for _, mt := range docs {
		tx, err := mt.ToTransaction()
		if err != nil {
			return nil, err
		}
		result = append(result, tx)
	}
	return result, nil
}

// UpdateTransaction replace the document if its stored version equals tx.Version.
// On success tx.Version is increased.
func (s *Store) UpdateTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := tx.CheckFields(); err != nil {
		return err
	}
	mt := newMgoTransaction(tx)
	mt.Version = tx.Version + 1
	query := bson.M{"_id": tx.ID, "version": tx.Version, "depositref": tx.DepositRef}
	res, err := s.collTransaction.ReplaceOne(ctx, query, mt)
	if err != nil {
		return mgoError(err)
	}
	if res.MatchedCount == 0 {
		if _, err := s.FindTransaction(ctx, tx.ID); err != nil {
			return err
		}
		return fmt.Errorf("%w: %v update version %v", types.ErrTxVersionConflict, tx.ID, tx.Version)
	}
	tx.Version = mt.Version
	return nil
}

type statusCount struct {
	Status types.TxStatus `bson:"_id"`
	Count  int            `bson:"count"`
}

// CountTransactionsByStatus count of every status
func (s *Store) CountTransactionsByStatus(ctx context.Context) (map[types.TxStatus]int, error) {
	pipeline := bson.A{
		bson.M{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
	}
	cur, err := s.collTransaction.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, mgoError(err)
	}
	defer cur.Close(ctx)

	var groups []statusCount
	if err = cur.All(ctx, &groups); err != nil {
		return nil, mgoError(err)
	}
	counts := make(map[types.TxStatus]int, len(types.AllStatuses))
	for _, status := range types.AllStatuses {
		counts[status] = 0
	}
	for _, g := range groups {
		counts[g.Status] = g.Count
	}
	return counts, nil
}

func filterQuery(filter *types.TxFilter) bson.M {
	query := bson.M{"status": filter.Status}
	switch {
	case filter.OnlyFresh:
		query["retrycount"] = 0
	case filter.OnlyRetried:
		query["retrycount"] = bson.M{"$gt": 0}
	}
	if filter.UpdatedBefore > 0 {
		query["timestamp"] = bson.M{"$lte": filter.UpdatedBefore}
	}
	if filter.RetryDueAt > 0 {
		query["nextretryat"] = bson.M{"$lte": filter.RetryDueAt}
	}
	if filter.MaxRecoveryAttempts > 0 {
		query["recoveryattempts"] = bson.M{"$lt": filter.MaxRecoveryAttempts}
	}
	if filter.LeaseFreeAt > 0 {
		query["leaseuntil"] = bson.M{"$lte": filter.LeaseFreeAt}
	}
	return query
}
