package mongodb

import (
	"context"

	"lungscreen/internal/screening/domain/model"
	sharederrors "lungscreen/internal/shared/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPatientRepository implements PatientRecordRepository using MongoDB
type MongoPatientRepository struct {
	db                *mongo.Database
	recordsCollection *mongo.Collection
}

// NewMongoPatientRepository creates a new MongoDB patient record repository
func NewMongoPatientRepository(db *mongo.Database) (*MongoPatientRepository, error) {
	repo := &MongoPatientRepository{
		db:                db,
		recordsCollection: db.Collection("patient_records"),
	}

	ctx := context.Background()

	ownerIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "scan_date", Value: -1},
		},
	}
	if _, err := repo.recordsCollection.Indexes().CreateOne(ctx, ownerIndex); err != nil {
		return nil, err
	}

	idIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetSparse(true),
	}
	if _, err := repo.recordsCollection.Indexes().CreateOne(ctx, idIndex); err != nil {
		return nil, err
	}

	return repo, nil
}

// CreatePatientRecord stores one saved record
func (r *MongoPatientRepository) CreatePatientRecord(ctx context.Context, record *model.PatientRecord) error {
	_, err := r.recordsCollection.InsertOne(ctx, record)
	return err
}

// ListPatientRecords returns all saved records owned by the doctor, newest first
func (r *MongoPatientRepository) ListPatientRecords(ctx context.Context, userID string) ([]model.PatientRecord, error) {
	filter := bson.M{"user_id": userID}
	opts := options.Find().SetSort(bson.D{{Key: "scan_date", Value: -1}})

	cursor, err := r.recordsCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := make([]model.PatientRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetPatientRecord returns one saved record by its stable ID
func (r *MongoPatientRepository) GetPatientRecord(ctx context.Context, userID, recordID string) (*model.PatientRecord, error) {
	var record model.PatientRecord
	err := r.recordsCollection.FindOne(ctx, bson.M{"user_id": userID, "id": recordID}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, sharederrors.ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}
