package mongodb

import (
	"context"

	"lungscreen/internal/screening/domain/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoScanRepository implements ScanRecordRepository using MongoDB. The
// "scan_history" collection is append-only: records are inserted, never
// updated.
type MongoScanRepository struct {
	db             *mongo.Database
	scanCollection *mongo.Collection
}

// NewMongoScanRepository creates a new MongoDB scan history repository
func NewMongoScanRepository(db *mongo.Database) (*MongoScanRepository, error) {
	repo := &MongoScanRepository{
		db:             db,
		scanCollection: db.Collection("scan_history"),
	}

	ctx := context.Background()

	historyIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "patient_id", Value: 1},
			{Key: "timestamp", Value: 1},
		},
	}
	if _, err := repo.scanCollection.Indexes().CreateOne(ctx, historyIndex); err != nil {
		return nil, err
	}

	return repo, nil
}

// AppendScanRecord inserts one scan record into the patient's history
func (r *MongoScanRepository) AppendScanRecord(ctx context.Context, record *model.ScanRecord) error {
	_, err := r.scanCollection.InsertOne(ctx, record)
	return err
}

// GetScanHistory returns a patient's records ordered by timestamp ascending
func (r *MongoScanRepository) GetScanHistory(ctx context.Context, userID, patientID string) ([]model.ScanRecord, error) {
	filter := bson.M{"user_id": userID, "patient_id": patientID}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})

	cursor, err := r.scanCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := make([]model.ScanRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
