package mongodb

import (
	"context"
	"time"

	"lungscreen/internal/auth/domain/model"
	"lungscreen/internal/auth/usecase"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAuthRepository implements the AuthRepository interface using MongoDB
type MongoAuthRepository struct {
	db               *mongo.Database
	doctorCollection *mongo.Collection
}

// NewMongoAuthRepository creates a new MongoDB auth repository
func NewMongoAuthRepository(db *mongo.Database) (*MongoAuthRepository, error) {
	repo := &MongoAuthRepository{
		db:               db,
		doctorCollection: db.Collection("users"),
	}

	ctx := context.Background()

	emailIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := repo.doctorCollection.Indexes().CreateOne(ctx, emailIndex); err != nil {
		return nil, err
	}

	idIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetSparse(true),
	}
	if _, err := repo.doctorCollection.Indexes().CreateOne(ctx, idIndex); err != nil {
		return nil, err
	}

	return repo, nil
}

// CreateDoctor creates a new doctor account in the database
func (r *MongoAuthRepository) CreateDoctor(ctx context.Context, doctor *model.Doctor) error {
	now := time.Now()
	doctor.CreatedAt = now
	doctor.UpdatedAt = now

	if doctor.ID == "" {
		doctor.ID = primitive.NewObjectID().Hex()
	}

	doc := bson.M{
		"id":            doctor.ID,
		"email":         doctor.Email,
		"name":          doctor.Name,
		"password_hash": doctor.PasswordHash,
		"created_at":    doctor.CreatedAt,
		"updated_at":    doctor.UpdatedAt,
	}

	if _, err := r.doctorCollection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return usecase.ErrEmailTaken
		}
		return err
	}

	return nil
}

// GetDoctorByEmail retrieves a doctor by email
func (r *MongoAuthRepository) GetDoctorByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	var doctor model.Doctor
	err := r.doctorCollection.FindOne(ctx, bson.M{"email": email}).Decode(&doctor)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}

	if doctor.ID == "" && !doctor.ObjectID.IsZero() {
		doctor.ID = doctor.ObjectID.Hex()
	}

	return &doctor, nil
}

// GetDoctorByID retrieves a doctor by its stable ID
func (r *MongoAuthRepository) GetDoctorByID(ctx context.Context, id string) (*model.Doctor, error) {
	filter := bson.M{"id": id}
	if objectID, err := primitive.ObjectIDFromHex(id); err == nil {
		filter = bson.M{"$or": []bson.M{{"id": id}, {"_id": objectID}}}
	}

	var doctor model.Doctor
	err := r.doctorCollection.FindOne(ctx, filter).Decode(&doctor)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}

	if doctor.ID == "" && !doctor.ObjectID.IsZero() {
		doctor.ID = doctor.ObjectID.Hex()
	}

	return &doctor, nil
}
