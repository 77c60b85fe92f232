package v1

import (
	"time"

	"github.com/google/uuid"
)

// LocationRequest - GeoJSON-точка во входных DTO.
// Порядок координат всегда [longitude, latitude], как в хранилище.
type LocationRequest struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates" validate:"required,len=2"`
}

// CreateIncidentRequest DTO для создания инцидента
// @Description DTO для создания инцидента
type CreateIncidentRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description" validate:"required"`
	Type        string          `json:"type" validate:"required"`
	Location    LocationRequest `json:"location" validate:"required"`
	Address     string          `json:"address,omitempty"`
	Severity    string          `json:"severity,omitempty"`
	Status      string          `json:"status,omitempty"`
	ReportedBy  string          `json:"reportedBy" validate:"required"`
	Assignment  []string        `json:"assignment,omitempty"`
	AssignedTo  string          `json:"assignedTo,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

// UpdateIncidentRequest DTO для полного обновления инцидента
// @Description DTO для полного обновления инцидента
type UpdateIncidentRequest struct {
	Title             string          `json:"title"`
	Description       string          `json:"description" validate:"required"`
	Type              string          `json:"type" validate:"required"`
	Location          LocationRequest `json:"location" validate:"required"`
	Address           string          `json:"address,omitempty"`
	Severity          string          `json:"severity" validate:"required"`
	Status            string          `json:"status" validate:"required"`
	ReportedBy        string          `json:"reportedBy" validate:"required"`
	Assignment        []string        `json:"assignment,omitempty"`
	AssignedTo        string          `json:"assignedTo,omitempty"`
	ImageURL          string          `json:"imageUrl,omitempty"`
	ResponderNotes    string          `json:"responder_notes,omitempty"`
	VerificationScore int             `json:"verificationScore,omitempty"`
	VerifiedBy        string          `json:"verified_by,omitempty"`
}

// LocationResponse - GeoJSON-точка в ответах, [longitude, latitude]
type LocationResponse struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// IncidentResponse DTO для ответа с информацией об инциденте.
// Сырые значения статуса/серьезности сохраняются как есть; производные
// поля нормализации (_normalized, _color) добавляются рядом.
type IncidentResponse struct {
	ID                uuid.UUID        `json:"id"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	Type              string           `json:"type"`
	Location          LocationResponse `json:"location"`
	Address           string           `json:"address,omitempty"`
	Severity          string           `json:"severity"`
	SeverityColor     string           `json:"severity_color"`
	Status            string           `json:"status"`
	StatusNormalized  string           `json:"status_normalized"`
	StatusColor       string           `json:"status_color"`
	Verified          bool             `json:"verified"`
	ReportedBy        string           `json:"reportedBy"`
	Assignment        []string         `json:"assignment,omitempty"`
	AssignedTo        string           `json:"assignedTo,omitempty"`
	ImageURL          string           `json:"imageUrl,omitempty"`
	ResponderNotes    string           `json:"responder_notes,omitempty"`
	VerificationScore int              `json:"verificationScore"`
	VerifiedBy        string           `json:"verified_by,omitempty"`
	Extra             map[string]any   `json:"extra,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// RegisterRequest DTO для регистрации
// @Description DTO для регистрации пользователя
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role,omitempty"`
}

// LoginRequest DTO для входа
// @Description DTO для входа
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse DTO с публичными полями пользователя
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  string    `json:"role"`
}

// AuthResponse DTO для ответа register/login
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UpdateRoleRequest DTO для смены роли пользователя
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}
