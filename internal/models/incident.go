package models

import (
	"time"

	"github.com/google/uuid"
)

// Закрытые перечисления для типа и серьезности инцидента
var (
	IncidentTypes      = []string{"fire", "medical", "accident", "security", "natural_disaster"}
	IncidentSeverities = []string{"low", "medium", "high", "critical"}

	// Статус живет в двух словарях одновременно: рабочий цикл (нижний регистр,
	// гражданские) и цикл верификации (верхний регистр, ответчики).
	// Оба валидны в хранилище и считаются одной семантической осью.
	WorkflowStatuses     = []string{"reported", "assigned", "in_progress", "resolved"}
	VerificationStatuses = []string{"UNVERIFIED", "VERIFIED", "IN_PROGRESS", "FALSE_REPORT"}

	AssignmentDepartments = []string{"Police", "Fire", "Medical", "Multiple"}
)

// AnonymousReporter - сентинел для анонимных заявителей
const AnonymousReporter = "anonymous"

type Incident struct {
	ID                uuid.UUID      `json:"id"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	Type              string         `json:"type"`
	Latitude          float64        `json:"latitude"`
	Longitude         float64        `json:"longitude"`
	Address           string         `json:"address,omitempty"`
	Severity          string         `json:"severity"`
	Status            string         `json:"status"`
	ReportedBy        string         `json:"reportedBy"`
	Assignment        []string       `json:"assignment,omitempty"`
	AssignedTo        string         `json:"assignedTo,omitempty"`
	ImageURL          string         `json:"imageUrl,omitempty"`
	ResponderNotes    string         `json:"responder_notes,omitempty"`
	VerificationScore int            `json:"verificationScore"`
	VerifiedBy        string         `json:"verified_by,omitempty"`
	Extra             map[string]any `json:"extra,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// ValidType проверяет, что тип входит в закрытое перечисление.
// Алиасы (crime, disaster, infrastructure) должны быть канонизированы до проверки.
func ValidType(t string) bool {
	return contains(IncidentTypes, t)
}

func ValidSeverity(s string) bool {
	return contains(IncidentSeverities, s)
}

// ValidStatus принимает значения из обоих словарей
func ValidStatus(s string) bool {
	return contains(WorkflowStatuses, s) || contains(VerificationStatuses, s)
}

func ValidAssignment(departments []string) bool {
	for _, d := range departments {
		if !contains(AssignmentDepartments, d) {
			return false
		}
	}
	return true
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
