package models

import (
	"time"
)

// User represents a registered account. The password hash never leaves the
// server: it is excluded from JSON and from UserResponse.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	Name         string    `bson:"name" json:"name"`
	Phone        *string   `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// UserCreate is the registration request payload.
type UserCreate struct {
	Email    string  `json:"email" binding:"required,email"`
	Name     string  `json:"name" binding:"required"`
	Phone    *string `json:"phone"`
	Password string  `json:"password" binding:"required"`
}

// UserLogin is the login request payload.
type UserLogin struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the public shape of a user record.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Response returns the public view of the user.
func (u *User) Response() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}
