package models

import (
	"time"
)

type User struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Password   string    `json:"-"` // bcrypt hash, never serialised
	Name       string    `json:"name"`
	ExternalID string    `json:"external_id,omitempty"` // Clerk user id
	CreatedAt  time.Time `json:"created_at"`
}

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=255"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
