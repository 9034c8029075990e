package models

import "time"

// User represents a registered account
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"-" bson:"password_hash"` // Never serialize password hash
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}
