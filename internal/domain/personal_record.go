package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PersonalRecord is the best-ever logged value of Field for one user and
// exercise. There is at most one per (UserID, ExerciseID) and Value never
// decreases.
type PersonalRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Field      MetricField        `bson:"prField" json:"prField"`
	Value      float64            `bson:"prValue" json:"prValue"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
