package v1

import (
	"github.com/civicalert/incident_reporting_system/internal/models"
	"github.com/civicalert/incident_reporting_system/internal/normalize"
)

// DTOToIncidentModel преобразует DTO создания/обновления в доменную модель.
// Координаты GeoJSON приходят в порядке [lng, lat]; модель хранит их
// именованными полями, чтобы инверсия порядка не пересекала границы слоев.
func DTOToIncidentModel(dto any) *models.Incident {
	switch v := dto.(type) {
	case CreateIncidentRequest:
		return &models.Incident{
			Title:       v.Title,
			Description: v.Description,
			Type:        v.Type,
			Longitude:   v.Location.Coordinates[0],
			Latitude:    v.Location.Coordinates[1],
			Address:     v.Address,
			Severity:    v.Severity,
			Status:      v.Status,
			ReportedBy:  v.ReportedBy,
			Assignment:  v.Assignment,
			AssignedTo:  v.AssignedTo,
			ImageURL:    v.ImageURL,
		}
	case UpdateIncidentRequest:
		return &models.Incident{
			Title:             v.Title,
			Description:       v.Description,
			Type:              v.Type,
			Longitude:         v.Location.Coordinates[0],
			Latitude:          v.Location.Coordinates[1],
			Address:           v.Address,
			Severity:          v.Severity,
			Status:            v.Status,
			ReportedBy:        v.ReportedBy,
			Assignment:        v.Assignment,
			AssignedTo:        v.AssignedTo,
			ImageURL:          v.ImageURL,
			ResponderNotes:    v.ResponderNotes,
			VerificationScore: v.VerificationScore,
			VerifiedBy:        v.VerifiedBy,
		}
	}
	return nil
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
// с производными полями нормализации
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	return &IncidentResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		Type:        model.Type,
		Location: LocationResponse{
			Type:        "Point",
			Coordinates: [2]float64{model.Longitude, model.Latitude},
		},
		Address:           model.Address,
		Severity:          model.Severity,
		SeverityColor:     normalize.SeverityColor(model.Severity),
		Status:            model.Status,
		StatusNormalized:  normalize.Status(model.Status),
		StatusColor:       normalize.StatusColor(model.Status),
		Verified:          normalize.IsVerified(model.Status, model.VerificationScore),
		ReportedBy:        model.ReportedBy,
		Assignment:        model.Assignment,
		AssignedTo:        model.AssignedTo,
		ImageURL:          model.ImageURL,
		ResponderNotes:    model.ResponderNotes,
		VerificationScore: model.VerificationScore,
		VerifiedBy:        model.VerifiedBy,
		Extra:             model.Extra,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(models []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToIncidentResponse(model)
	}
	return responses
}

// ModelToUserResponse преобразует пользователя в публичный DTO
func ModelToUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}
}

// ModelsToUserResponses преобразует слайс пользователей в слайс DTO
func ModelsToUserResponses(users []*models.User) []UserResponse {
	responses := make([]UserResponse, len(users))
	for i, user := range users {
		responses[i] = ModelToUserResponse(user)
	}
	return responses
}
