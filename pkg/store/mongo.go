package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/netdraw/pkg/diagram"
	"github.com/matzehuels/netdraw/pkg/errors"
)

// DefaultMongoDatabase is used when no database name is configured.
const DefaultMongoDatabase = "netdraw"

// MongoStore keeps diagrams in the "diagrams" collection. Documents are
// stored as their JSON encoding so that the file format stays the single
// source of truth for field names.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoRecord struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Document    string    `bson:"document"`
	Pages       int       `bson:"pages"`
	Devices     int       `bson:"devices"`
	Connections int       `bson:"connections"`
	Texts       int       `bson:"texts"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

// NewMongoStore connects to uri (default mongodb://localhost:27017).
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	if database == "" {
		database = DefaultMongoDatabase
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection("diagrams"),
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Record, error) {
	if err := errors.ValidateStoreID(id); err != nil {
		return nil, err
	}
	var mr mongoRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&mr)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("find diagram: %w", err)
	}
	doc, err := decodeDocument(id, []byte(mr.Document))
	if err != nil {
		return nil, err
	}
	return &Record{
		ID:        mr.ID,
		Name:      mr.Name,
		Document:  doc,
		CreatedAt: mr.CreatedAt,
		UpdatedAt: mr.UpdatedAt,
	}, nil
}

func (s *MongoStore) Put(ctx context.Context, rec *Record) error {
	// BSON dates carry milliseconds.
	if err := prepare(rec, time.Now().UTC().Truncate(time.Millisecond)); err != nil {
		return err
	}
	var old mongoRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": rec.ID},
		options.FindOne().SetProjection(bson.M{"created_at": 1})).Decode(&old)
	if err == nil {
		rec.CreatedAt = old.CreatedAt
	} else if !stderrors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("find diagram: %w", err)
	}
	doc, err := encodeDocument(rec.Document)
	if err != nil {
		return err
	}
	st := rec.Document.Stats()
	update := bson.M{
		"$set": bson.M{
			"name":        rec.Name,
			"document":    string(doc),
			"pages":       st.Pages,
			"devices":     st.Devices,
			"connections": st.Connections,
			"texts":       st.Texts,
			"updated_at":  rec.UpdatedAt,
		},
		"$setOnInsert": bson.M{"created_at": rec.CreatedAt},
	}
	_, err = s.coll.UpdateOne(ctx, bson.M{"_id": rec.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert diagram: %w", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetProjection(bson.M{"document": 0}).
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list diagrams: %w", err)
	}
	defer cur.Close(ctx)

	out := []Summary{}
	for cur.Next(ctx) {
		var mr mongoRecord
		if err := cur.Decode(&mr); err != nil {
			return nil, fmt.Errorf("decode diagram: %w", err)
		}
		out = append(out, Summary{
			ID:   mr.ID,
			Name: mr.Name,
			Stats: diagram.Stats{
				Pages:       mr.Pages,
				Devices:     mr.Devices,
				Connections: mr.Connections,
				Texts:       mr.Texts,
			},
			UpdatedAt: mr.UpdatedAt,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list diagrams: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateStoreID(id); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete diagram: %w", err)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
