package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователей системы
var UserRoles = []string{"citizen", "responder", "admin"}

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func ValidRole(r string) bool {
	return contains(UserRoles, r)
}
