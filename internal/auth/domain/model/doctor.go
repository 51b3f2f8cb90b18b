package model

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Doctor represents a clinician account. The password hash never leaves
// the persistence boundary in API responses.
type Doctor struct {
	ID           string             `json:"id" bson:"id,omitempty"`
	ObjectID     primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	Email        string             `json:"email" bson:"email"`
	Name         string             `json:"name" bson:"name"`
	PasswordHash string             `json:"-" bson:"password_hash"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// Profile is the public view of a doctor, returned by login/verify and
// persisted by clients alongside the token.
type Profile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Profile returns the public view of the doctor.
func (d *Doctor) Profile() Profile {
	return Profile{Email: d.Email, Name: d.Name}
}

// ValidateFields checks structural invariants before persistence.
func (d *Doctor) ValidateFields() error {
	if strings.TrimSpace(d.Email) == "" {
		return errors.New("email is required")
	}
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("name is required")
	}
	if d.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	return nil
}
