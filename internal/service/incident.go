package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/civicalert/incident_reporting_system/internal/config"
	"github.com/civicalert/incident_reporting_system/internal/feed"
	"github.com/civicalert/incident_reporting_system/internal/models"
	"github.com/civicalert/incident_reporting_system/internal/normalize"
	"github.com/civicalert/incident_reporting_system/internal/webhook"
)

// IncidentRepository определяет контракт для работы с бд инцидентов
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	Update(ctx context.Context, incident *models.Incident) error
	Patch(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Incident, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListIncidents(ctx context.Context) ([]*models.Incident, error)
	IncrementVerification(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	SetIncidentCache(ctx context.Context, incident *models.Incident) error
	InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error
}

// IncidentService определяет контракт бизнес-логики управления инцидентами
type IncidentService interface {
	CreateIncident(ctx context.Context, incident *models.Incident) error
	GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	UpdateIncident(ctx context.Context, incident *models.Incident) error
	PatchIncident(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Incident, error)
	DeleteIncident(ctx context.Context, id uuid.UUID) error
	ListIncidents(ctx context.Context) ([]*models.Incident, error)
	ConfirmIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	FeedIncidents(ctx context.Context, opts feed.Options) ([]*models.Incident, error)
	GetStats(ctx context.Context) (feed.Stats, error)
}

// Таблица алиасов клиентских ключей PATCH на имена полей хранилища.
// Ключи вне таблицы проходят насквозь и оседают в extra - открытая
// расширяемость исходного API сохранена намеренно.
var patchFieldAliases = map[string]string{
	"status":            "status",
	"severity":          "severity",
	"notes":             "responder_notes",
	"responder_notes":   "responder_notes",
	"assignment":        "assignment",
	"assignedTo":        "assigned_to",
	"verified_by":       "verified_by",
	"verificationScore": "verification_score",
	"title":             "title",
	"description":       "description",
	"address":           "address",
	"imageUrl":          "image_url",
}

type incidentService struct {
	repo      IncidentRepository
	logger    *logrus.Logger
	cfg       *config.Config
	publisher webhook.Publisher
}

func NewIncidentService(repo IncidentRepository, logger *logrus.Logger, cfg *config.Config, publisher webhook.Publisher) IncidentService {
	return &incidentService{
		repo:      repo,
		logger:    logger,
		cfg:       cfg,
		publisher: publisher,
	}
}

// CreateIncident канонизирует легаси-алиасы типа, валидирует закрытые
// перечисления и создает инцидент со статусом reported
func (s *incidentService) CreateIncident(ctx context.Context, incident *models.Incident) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "CreateIncident",
		"type":    incident.Type,
	})
	log.Info("Attempting to create a new incident")

	incident.Type = normalize.Type(incident.Type)
	if incident.Title == "" {
		incident.Title = incident.Type
	}
	if incident.Severity == "" {
		incident.Severity = "medium"
	}
	if incident.Status == "" {
		incident.Status = "reported"
	}
	if incident.ReportedBy == "" {
		incident.ReportedBy = models.AnonymousReporter
	}

	if err := validateIncident(incident); err != nil {
		log.WithError(err).Warn("Incident validation failed")
		return err
	}

	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return fmt.Errorf("service: could not create incident: %w", err)
	}

	s.publishEvent(ctx, log, webhook.EventIncidentCreated, incident)

	log.WithField("incident_id", incident.ID).Info("Incident created successfully")
	return nil
}

// GetIncident получает инцидент по ID, сначала из кеша
func (s *incidentService) GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})

	cached, err := s.repo.GetIncidentFromCache(ctx, id)
	if err != nil {
		// Промах кеша не фатален, идем в бд
		log.WithError(err).Warn("Failed to read incident from cache")
	}
	if cached != nil {
		return cached, nil
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to get incident from repository")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}

	if err := s.repo.SetIncidentCache(ctx, incident); err != nil {
		log.WithError(err).Warn("Failed to cache incident")
	}

	return incident, nil
}

// UpdateIncident полностью заменяет изменяемые поля существующего инцидента
func (s *incidentService) UpdateIncident(ctx context.Context, incident *models.Incident) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "UpdateIncident",
		"incident_id": incident.ID,
	})
	log.Info("Attempting to update incident")

	incident.Type = normalize.Type(incident.Type)
	if incident.Title == "" {
		incident.Title = incident.Type
	}
	if err := validateIncident(incident); err != nil {
		log.WithError(err).Warn("Incident validation failed")
		return err
	}

	existing, err := s.repo.GetByID(ctx, incident.ID)
	if err != nil {
		log.WithError(err).Warn("Attempted to update a non-existent incident")
		return fmt.Errorf("service: incident not found for update: %w", err)
	}

	if err := s.repo.Update(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to update incident in repository")
		return fmt.Errorf("service: could not update incident: %w", err)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, incident.ID); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	eventType := webhook.EventIncidentUpdated
	if existing.Status != incident.Status {
		eventType = webhook.EventIncidentStatusChanged
	}
	s.publishEvent(ctx, log, eventType, incident)

	log.Info("Incident updated successfully")
	return nil
}

// PatchIncident применяет частичное обновление через таблицу алиасов.
// Меняются только переданные ключи; значения перечислений валидируются,
// статус принимается из обоих словарей.
func (s *incidentService) PatchIncident(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "PatchIncident",
		"incident_id": id,
	})
	log.Info("Attempting to patch incident")

	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty patch body", models.ErrValidation)
	}

	mapped := make(map[string]any, len(fields))
	for key, value := range fields {
		if storageField, ok := patchFieldAliases[key]; ok {
			mapped[storageField] = value
		} else {
			mapped[key] = value
		}
	}

	if err := validatePatchFields(mapped); err != nil {
		log.WithError(err).Warn("Patch validation failed")
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to patch a non-existent incident")
		return nil, fmt.Errorf("service: incident not found for patch: %w", err)
	}

	incident, err := s.repo.Patch(ctx, id, mapped)
	if err != nil {
		log.WithError(err).Error("Failed to patch incident in repository")
		return nil, fmt.Errorf("service: could not patch incident: %w", err)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	eventType := webhook.EventIncidentUpdated
	if existing.Status != incident.Status {
		eventType = webhook.EventIncidentStatusChanged
	}
	s.publishEvent(ctx, log, eventType, incident)

	log.Info("Incident patched successfully")
	return incident, nil
}

// DeleteIncident удаляет инцидент навсегда
func (s *incidentService) DeleteIncident(ctx context.Context, id uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "DeleteIncident",
		"incident_id": id,
	})
	log.Info("Attempting to delete incident")

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to delete a non-existent incident")
		return fmt.Errorf("service: incident not found for delete: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		log.WithError(err).Error("Failed to delete incident in repository")
		return fmt.Errorf("service: could not delete incident: %w", err)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	s.publishEvent(ctx, log, webhook.EventIncidentDeleted, incident)

	log.Info("Incident deleted successfully")
	return nil
}

// ListIncidents возвращает полную коллекцию, новые первыми
func (s *incidentService) ListIncidents(ctx context.Context) ([]*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "ListIncidents",
	})

	incidents, err := s.repo.ListIncidents(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from repository")
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}

	log.WithField("count", len(incidents)).Info("Incidents listed successfully")
	return incidents, nil
}

// ConfirmIncident увеличивает счетчик подтверждений инцидента
func (s *incidentService) ConfirmIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "ConfirmIncident",
		"incident_id": id,
	})
	log.Info("Confirming incident")

	incident, err := s.repo.IncrementVerification(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to confirm incident")
		return nil, fmt.Errorf("service: could not confirm incident: %w", err)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	log.WithField("verification_score", incident.VerificationScore).Info("Incident confirmed")
	return incident, nil
}

// FeedIncidents прогоняет полную коллекцию через конвейер фильтров ленты
func (s *incidentService) FeedIncidents(ctx context.Context, opts feed.Options) ([]*models.Incident, error) {
	incidents, err := s.ListIncidents(ctx)
	if err != nil {
		return nil, err
	}
	return feed.Apply(incidents, opts, time.Now()), nil
}

// GetStats строит агрегаты для админ-панели по полной коллекции
func (s *incidentService) GetStats(ctx context.Context) (feed.Stats, error) {
	incidents, err := s.ListIncidents(ctx)
	if err != nil {
		return feed.Stats{}, err
	}
	return feed.BuildStats(incidents), nil
}

func (s *incidentService) publishEvent(ctx context.Context, log *logrus.Entry, eventType string, incident *models.Incident) {
	if s.publisher == nil {
		return
	}
	event := webhook.Event{
		Type:      eventType,
		Incident:  incident,
		Timestamp: time.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		// Доставка событий best-effort, ошибка очереди не валит запрос
		log.WithError(err).Warn("Failed to publish webhook event")
	}
}

// validateIncident проверяет закрытые перечисления.
// Тип должен быть канонизирован до вызова.
func validateIncident(incident *models.Incident) error {
	if !models.ValidType(incident.Type) {
		return fmt.Errorf("%w: unknown incident type %q", models.ErrValidation, incident.Type)
	}
	if !models.ValidSeverity(incident.Severity) {
		return fmt.Errorf("%w: unknown severity %q", models.ErrValidation, incident.Severity)
	}
	if !models.ValidStatus(incident.Status) {
		return fmt.Errorf("%w: unknown status %q", models.ErrValidation, incident.Status)
	}
	if !models.ValidAssignment(incident.Assignment) {
		return fmt.Errorf("%w: unknown assignment department", models.ErrValidation)
	}
	return nil
}

// validatePatchFields валидирует значения перечислений в частичном обновлении
func validatePatchFields(fields map[string]any) error {
	if raw, ok := fields["status"]; ok {
		status, isStr := raw.(string)
		if !isStr || !models.ValidStatus(status) {
			return fmt.Errorf("%w: unknown status %v", models.ErrValidation, raw)
		}
	}
	if raw, ok := fields["severity"]; ok {
		severity, isStr := raw.(string)
		if !isStr || !models.ValidSeverity(severity) {
			return fmt.Errorf("%w: unknown severity %v", models.ErrValidation, raw)
		}
	}
	if raw, ok := fields["assignment"]; ok {
		departments, err := toStringSlice(raw)
		if err != nil || !models.ValidAssignment(departments) {
			return fmt.Errorf("%w: unknown assignment department %v", models.ErrValidation, raw)
		}
		fields["assignment"] = departments
	}
	return nil
}

// toStringSlice приводит декодированный из JSON массив к []string
func toStringSlice(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("not a string: %v", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("not a string slice: %v", raw)
}
