package mongodb

import (
	"context"

	"lungscreen/internal/screening/domain/model"
	sharederrors "lungscreen/internal/shared/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoReportRepository implements ReportRepository using MongoDB
type MongoReportRepository struct {
	db                *mongo.Database
	reportsCollection *mongo.Collection
}

// NewMongoReportRepository creates a new MongoDB report repository
func NewMongoReportRepository(db *mongo.Database) (*MongoReportRepository, error) {
	repo := &MongoReportRepository{
		db:                db,
		reportsCollection: db.Collection("reports"),
	}

	ctx := context.Background()

	reportIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "report_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := repo.reportsCollection.Indexes().CreateOne(ctx, reportIndex); err != nil {
		return nil, err
	}

	ownerIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "created_at", Value: -1},
		},
	}
	if _, err := repo.reportsCollection.Indexes().CreateOne(ctx, ownerIndex); err != nil {
		return nil, err
	}

	return repo, nil
}

// CreateReport stores one generated report
func (r *MongoReportRepository) CreateReport(ctx context.Context, report *model.Report) error {
	_, err := r.reportsCollection.InsertOne(ctx, report)
	return err
}

// ListReports returns all reports generated by the doctor, newest first
func (r *MongoReportRepository) ListReports(ctx context.Context, userID string) ([]model.Report, error) {
	filter := bson.M{"user_id": userID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.reportsCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reports := make([]model.Report, 0)
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// GetReport returns one report by its public ID
func (r *MongoReportRepository) GetReport(ctx context.Context, userID, reportID string) (*model.Report, error) {
	var report model.Report
	err := r.reportsCollection.FindOne(ctx, bson.M{"user_id": userID, "report_id": reportID}).Decode(&report)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, sharederrors.ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}
