package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/voxelcore/internal/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig contains connection settings for the MongoDB name store.
type MongoConfig struct {
	URI        string        // e.g. mongodb://localhost:27017
	Database   string        // e.g. voxelcore
	Collection string        // e.g. materials
	Counters   string        // e.g. counters (for id sequence)
	Timeout    time.Duration // per-operation timeout
}

// MongoNameStore implements NameStore on MongoDB. Unique indexes on name and
// id make a lost race surface as a duplicate key error.
type MongoNameStore struct {
	client      *mongo.Client
	collection  *mongo.Collection
	counterColl *mongo.Collection
	ctxTimeout  time.Duration
	rng         IDRange
	logger      *logging.Logger
}

type materialDoc struct {
	Name string `bson:"name"`
	ID   int32  `bson:"id"`
}

// NewMongoNameStore establishes connection and returns the store.
func NewMongoNameStore(ctx context.Context, cfg MongoConfig, opts ...StoreOption) (*MongoNameStore, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "voxelcore"
	}
	if cfg.Collection == "" {
		cfg.Collection = "materials"
	}
	if cfg.Counters == "" {
		cfg.Counters = "counters"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	db := client.Database(cfg.Database)
	o := newStoreOptions(opts)
	return &MongoNameStore{
		client:      client,
		collection:  db.Collection(cfg.Collection),
		counterColl: db.Collection(cfg.Counters),
		ctxTimeout:  cfg.Timeout,
		rng:         o.rng,
		logger:      o.logger,
	}, nil
}

// Load pings the server and ensures indexes.
func (s *MongoNameStore) Load(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.ctxTimeout)
	defer cancel()
	if err := s.client.Ping(ctx, nil); err != nil {
		return err
	}

	nameIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("name_unique"),
	}
	idIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("id_unique"),
	}
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{nameIdx, idIdx})
	return err
}

// Register returns the id bound to name, inserting a fresh one from the
// sequence when needed. Ids pinned out of sequence are skipped.
func (s *MongoNameStore) Register(ctx context.Context, name string) (uint16, error) {
	if id, ok, err := s.Lookup(ctx, name); err != nil || ok {
		return id, err
	}

	span := int64(s.rng.Max) - int64(s.rng.Min) + 1
	for {
		seq, err := s.nextSequence(ctx, "material_id")
		if err != nil {
			return 0, err
		}
		if seq > span {
			return 0, fmt.Errorf("%w: range [%d, %d]", ErrIDSpaceExhausted, s.rng.Min, s.rng.Max)
		}
		candidate := uint16(int64(s.rng.Min) + seq - 1)

		err = s.insert(ctx, name, candidate)
		if err == nil {
			return candidate, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return 0, err
		}
		// either the id was pinned or another process inserted name
		if id, ok, err := s.Lookup(ctx, name); err != nil || ok {
			return id, err
		}
	}
}

func (s *MongoNameStore) RegisterWithID(ctx context.Context, name string, id uint16) error {
	err := s.insert(ctx, name, id)
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return err
	}

	existing, ok, err := s.Lookup(ctx, name)
	if err != nil {
		return err
	}
	if ok {
		if existing == id {
			return nil
		}
		return fmt.Errorf("%w: %q has id %d", ErrNameBound, name, existing)
	}

	qctx, cancel := context.WithTimeout(ctx, s.ctxTimeout)
	defer cancel()
	var owner materialDoc
	if err := s.collection.FindOne(qctx, bson.M{"id": int32(id)}).Decode(&owner); err != nil {
		return err
	}
	return fmt.Errorf("%w: %d belongs to %q", ErrIDTaken, id, owner.Name)
}

func (s *MongoNameStore) Lookup(ctx context.Context, name string) (uint16, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.ctxTimeout)
	defer cancel()

	var doc materialDoc
	err := s.collection.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return uint16(doc.ID), true, nil
}

func (s *MongoNameStore) Names(ctx context.Context) (map[string]uint16, error) {
	ctx, cancel := context.WithTimeout(ctx, s.ctxTimeout)
	defer cancel()

	cur, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var docs []materialDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make(map[string]uint16, len(docs))
	for _, doc := range docs {
		out[doc.Name] = uint16(doc.ID)
	}
	return out, nil
}

// Close terminates connection.
func (s *MongoNameStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoNameStore) insert(ctx context.Context, name string, id uint16) error {
	ctx, cancel := context.WithTimeout(ctx, s.ctxTimeout)
	defer cancel()
	_, err := s.collection.InsertOne(ctx, materialDoc{Name: name, ID: int32(id)})
	return err
}

// nextSequence atomically increments a counter and returns new value.
func (s *MongoNameStore) nextSequence(ctx context.Context, name string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.ctxTimeout)
	defer cancel()
	res := s.counterColl.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	if err := res.Decode(&doc); err != nil {
		return 0, err
	}
	return doc.Seq, nil
}

// reset drops the collections (tests only).
func (s *MongoNameStore) reset(ctx context.Context) error {
	if err := s.collection.Drop(ctx); err != nil {
		return err
	}
	return s.counterColl.Drop(ctx)
}
