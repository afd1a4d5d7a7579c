package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anyswap/CrossChain-Settlement/log"
)

const (
	tbTransactions string = "Transactions"
)

func (s *Store) initCollections(ctx context.Context) error {
	s.collTransaction = s.database.Collection(tbTransactions)
	// depositref uniqueness backs ErrTxIsDup, a store without it must not start
	if err := createOneIndex(ctx, s.collTransaction, true, "depositref"); err != nil {
		return err
	}
	if err := createOneIndex(ctx, s.collTransaction, false, "status", "inittime"); err != nil {
		return err
	}
	return createOneIndex(ctx, s.collTransaction, false, "status", "nextretryat")
}

func indexModel(unique bool, indexes ...string) mongo.IndexModel {
	keys := make(bson.D, len(indexes))
	for i, index := range indexes {
		keys[i] = bson.E{Key: index, Value: 1}
	}
	model := mongo.IndexModel{Keys: keys}
	if unique {
		model.Options = options.Index().SetUnique(true)
	}
	return model
}

func createOneIndex(ctx context.Context, coll *mongo.Collection, unique bool, indexes ...string) error {
	_, err := coll.Indexes().CreateOne(ctx, indexModel(unique, indexes...))
	if err != nil {
		log.Error("[mongodb] create indexes failed", "collection", coll.Name(), "indexes", indexes, "err", err)
		return fmt.Errorf("create index %v on %v: %w", indexes, coll.Name(), err)
	}
	return nil
}
