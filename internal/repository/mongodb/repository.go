package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/sandwiches/internal/domain/models"
)

const runsCollection = "market_runs"

// Repository defines the interface for run journal storage.
type Repository interface {
	SaveRun(ctx context.Context, run models.RunRecord) error
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: runsCollection,
	}, nil
}

// SaveRun stores one completed market run.
func (r *MongoDBRepository) SaveRun(ctx context.Context, run models.RunRecord) error {
	collection := r.client.Database(r.dbName).Collection(r.collName)
	if _, err := collection.InsertOne(ctx, runDocument(run)); err != nil {
		return fmt.Errorf("failed to insert market run: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// runDocument keys every row by item type so the archive stays readable
// even if the sheet column order changes later.
func runDocument(run models.RunRecord) bson.D {
	return bson.D{
		{Key: "_id", Value: run.ID},
		{Key: "created_at", Value: run.CreatedAt},
		{Key: "sales", Value: keyed(run.Sales)},
		{Key: "stock", Value: keyed(run.Stock)},
		{Key: "surplus", Value: keyed(run.Surplus)},
		{Key: "projected", Value: keyed(run.Projected)},
	}
}

func keyed(row models.Row) bson.D {
	doc := make(bson.D, 0, models.ItemCount)
	for i, item := range models.Items {
		doc = append(doc, bson.E{Key: string(item), Value: row[i]})
	}
	return doc
}
