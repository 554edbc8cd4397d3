package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

const (
	RoleAthlete Role = "athlete"
	// RoleAdmin may additionally manage the exercise catalog.
	RoleAdmin Role = "admin"
)

// User represents an account that runs workouts and accumulates progress.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	Streak       Streak             `bson:"streak" json:"streak"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Streak holds the consecutive-day activity counters of a user.
// LongestDays is never below CurrentDays after an update.
type Streak struct {
	CurrentDays  int        `bson:"currentStreakDays" json:"currentStreakDays"`
	LongestDays  int        `bson:"longestStreakDays" json:"longestStreakDays"`
	LastActiveOn *time.Time `bson:"lastActiveOn,omitempty" json:"lastActiveOn,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
