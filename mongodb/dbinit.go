// Package mongodb is the production transaction store.
package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/anyswap/CrossChain-Settlement/log"
)

const connectTimeout = 30 * time.Second

// Store mongodb transaction store
type Store struct {
	client   *mongo.Client
	database *mongo.Database

	collTransaction *mongo.Collection
}

// Open connect mongodb server and init collections
func Open(ctx context.Context, appName string, addrs []string, dbName, user, pass string) (*Store, error) {
	clientOpts := options.Client().
		SetAppName(appName).
		SetHosts(addrs).
		SetConnectTimeout(connectTimeout)
	if user != "" {
		clientOpts.SetAuth(options.Credential{
			AuthSource: dbName,
			Username:   user,
			Password:   pass,
		})
	}
	if err := clientOpts.Validate(); err != nil {
		return nil, err
	}

	log.Info("[mongodb] connect database start.", "addrs", addrs, "dbName", dbName)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, err
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	log.Info("[mongodb] connect database success.", "dbName", dbName)

	s := &Store{
		client:   client,
		database: client.Database(dbName),
	}
	if err = s.initCollections(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	log.Info("[mongodb] init collections finished.", "dbName", dbName)
	return s, nil
}

// Close disconnect
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
