package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin = "yonetici"
	RoleDepot = "depo"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
