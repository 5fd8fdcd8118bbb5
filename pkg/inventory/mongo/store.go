// Package mongo records supplier companies in a MongoDB collection.
//
// Companies live in the "companies" collection, unique by name. Primary keys
// are allocated from a counter document in "counters" so they stay small
// integers like the ones an InvenTree server hands out.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	perrors "github.com/matzehuels/partscout/pkg/errors"
	"github.com/matzehuels/partscout/pkg/inventory"
)

const (
	companiesCollection = "companies"
	countersCollection  = "counters"
	connectTimeout      = 10 * time.Second
)

// Store is an inventory.Store backed by MongoDB.
type Store struct {
	companies *mongo.Collection
	counters  *mongo.Collection
	client    *mongo.Client
}

// Connect opens a client for uri and returns a Store using database.
// Close releases the client.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" || database == "" {
		return nil, perrors.New(perrors.ErrCodeConfig, "mongo uri and database must be set")
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeNetwork, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, perrors.Wrap(perrors.ErrCodeNetwork, err, "ping mongo")
	}
	s := New(client.Database(database))
	s.client = client
	return s, nil
}

// New returns a Store on db. The caller owns the client.
func New(db *mongo.Database) *Store {
	return &Store{
		companies: db.Collection(companiesCollection),
		counters:  db.Collection(countersCollection),
	}
}

// EnsureIndexes creates the unique index on company names.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.companies.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// EnsureCompany implements inventory.Store.
func (s *Store) EnsureCompany(ctx context.Context, c inventory.Company) (inventory.Company, error) {
	if err := c.Validate(); err != nil {
		return inventory.Company{}, err
	}

	if c.PK != 0 {
		got, err := s.findOne(ctx, bson.D{{Key: "pk", Value: c.PK}})
		if err == nil {
			return got, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return inventory.Company{}, perrors.Wrap(perrors.ErrCodeRemote, err, "mongo: find company %d", c.PK)
		}
	}

	got, err := s.findOne(ctx, bson.D{{Key: "name", Value: c.Name}})
	if err == nil {
		return got, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return inventory.Company{}, perrors.Wrap(perrors.ErrCodeRemote, err, "mongo: find company %q", c.Name)
	}

	pk, err := s.nextPK(ctx)
	if err != nil {
		return inventory.Company{}, perrors.Wrap(perrors.ErrCodeRemote, err, "mongo: allocate company pk")
	}

	// $setOnInsert keeps the first writer's document if two processes race.
	update := bson.D{{Key: "$setOnInsert", Value: bson.D{
		{Key: "pk", Value: pk},
		{Key: "name", Value: c.Name},
		{Key: "currency", Value: c.Currency},
		{Key: "is_supplier", Value: c.IsSupplier},
	}}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var out inventory.Company
	err = s.companies.FindOneAndUpdate(ctx, bson.D{{Key: "name", Value: c.Name}}, update, opts).Decode(&out)
	if err != nil {
		return inventory.Company{}, perrors.Wrap(perrors.ErrCodeRemote, err, "mongo: upsert company %q", c.Name)
	}
	return out, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.D) (inventory.Company, error) {
	var c inventory.Company
	err := s.companies.FindOne(ctx, filter).Decode(&c)
	return c, err
}

func (s *Store) nextPK(ctx context.Context) (int, error) {
	var counter struct {
		Seq int `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := s.counters.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: companiesCollection}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: 1}}}},
		opts,
	).Decode(&counter)
	return counter.Seq, err
}

// Close disconnects a client opened by Connect.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

var _ inventory.Store = (*Store)(nil)
