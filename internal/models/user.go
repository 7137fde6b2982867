package models

import "time"

// UserDB represents a user record in the database
type UserDB struct {
	ID           int64     `json:"id" db:"id"`                 // Primary key
	Name         string    `json:"name" db:"name"`             // Unique among non-deleted users
	PasswordHash string    `json:"-" db:"password_hash"`       // Password digest
	Deleted      bool      `json:"deleted" db:"deleted"`       // Soft delete flag, never reset
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // Creation timestamp
}

// User is the public view of an account.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ToUser projects the row onto its public view.
func (u *UserDB) ToUser() *User {
	return &User{
		ID:        u.ID,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}
