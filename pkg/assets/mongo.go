package assets

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/dialoguegraph/pkg/observability"
	"github.com/matzehuels/dialoguegraph/pkg/store"
)

// MongoCollection is the collection holding graph documents.
const MongoCollection = "graphs"

// graphDocument is the stored form of a graph. Nodes use the bson tags of
// the store types, so documents can be queried field by field.
type graphDocument struct {
	Name      string       `bson:"_id"`
	Nodes     []store.Node `bson:"nodes"`
	Hash      string       `bson:"hash"`
	UpdatedAt time.Time    `bson:"updated_at"`
}

// MongoRepository stores one document per graph.
type MongoRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoRepository connects to uri and uses the graphs collection of
// database.
func NewMongoRepository(ctx context.Context, uri, database string) (*MongoRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, wrapBackend("mongo", "connect", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, wrapBackend("mongo", "ping", err)
	}
	return &MongoRepository{
		client: client,
		coll:   client.Database(database).Collection(MongoCollection),
	}, nil
}

// Get reads a graph document.
func (r *MongoRepository) Get(ctx context.Context, name string) (s *store.Store, err error) {
	start := time.Now()
	defer func() { observeGet(ctx, "mongo", name, start, err) }()

	if err := validName(name); err != nil {
		return nil, err
	}
	var doc graphDocument
	err = r.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, wrapBackend("mongo", "find", err)
	}
	return normalize(doc.Nodes), nil
}

// Put upserts a graph document.
func (r *MongoRepository) Put(ctx context.Context, name string, s *store.Store) (err error) {
	start := time.Now()
	var data []byte
	defer func() { observePut(ctx, "mongo", name, len(data), start, err) }()

	data, err = encode(name, s)
	if err != nil {
		return err
	}
	doc := graphDocument{
		Name:      name,
		Nodes:     s.Nodes,
		Hash:      store.Hash(s),
		UpdatedAt: time.Now().UTC(),
	}
	_, err = r.coll.ReplaceOne(ctx, bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return wrapBackend("mongo", "replace", err)
	}
	return nil
}

// Delete removes a graph document.
func (r *MongoRepository) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return wrapBackend("mongo", "delete", err)
	}
	if res.DeletedCount == 0 {
		return notFound(name)
	}
	observability.Storage().OnDelete(ctx, "mongo", name)
	return nil
}

// List returns all document ids in ascending order.
func (r *MongoRepository) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, wrapBackend("mongo", "find", err)
	}
	var docs []struct {
		Name string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, wrapBackend("mongo", "decode", err)
	}
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	return names, nil
}

// Close disconnects the client.
func (r *MongoRepository) Close() error {
	return r.client.Disconnect(context.Background())
}

var _ Repository = (*MongoRepository)(nil)
