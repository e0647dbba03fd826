package entity

import (
	"time"
)

// UserCredential is the identity record stored in the users table.
// PasswordHash holds the raw bcrypt output; it is written once at
// registration and never changed.
type UserCredential struct {
	Username     string    `dynamodbav:"username"`
	UserID       string    `dynamodbav:"userId"`
	PasswordHash []byte    `dynamodbav:"passwordHash"`
	CreatedAt    time.Time `dynamodbav:"createdAt"`
}

// Identity is what a successful authentication yields.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}
