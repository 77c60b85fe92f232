package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/civicalert/incident_reporting_system/internal/models"
	"github.com/civicalert/incident_reporting_system/internal/service"
)

// Колонки инцидента, доступные для частичного обновления напрямую.
// Всё, чего здесь нет, складывается в JSONB-колонку extra.
var patchableColumns = map[string]bool{
	"status":             true,
	"severity":           true,
	"responder_notes":    true,
	"assignment":         true,
	"assigned_to":        true,
	"verified_by":        true,
	"verification_score": true,
	"title":              true,
	"description":        true,
	"address":            true,
	"image_url":          true,
}

const incidentColumns = `
			id,
			title,
			description,
			type,
			ST_Y(location::geometry) as latitude,
			ST_X(location::geometry) as longitude,
			COALESCE(address, ''),
			severity,
			status,
			reported_by,
			COALESCE(assignment, '{}'),
			COALESCE(assigned_to, ''),
			COALESCE(image_url, ''),
			COALESCE(responder_notes, ''),
			verification_score,
			COALESCE(verified_by, ''),
			extra,
			created_at,
			updated_at`

type IncidentRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
}

func NewIncidentRepository(db *pgxpool.Pool, redisClient *redis.Client) service.IncidentRepository {
	return &IncidentRepository{
		db:          db,
		redisClient: redisClient,
	}
}

// Create создает новую запись об инциденте в бд
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	query := `
		INSERT INTO incidents (title, description, type, location, address, severity, status,
			reported_by, assignment, assigned_to, image_url, verification_score, extra)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326), $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at;
	`
	extra, err := json.Marshal(emptyIfNil(incident.Extra))
	if err != nil {
		return fmt.Errorf("failed to marshal incident extra: %w", err)
	}
	err = r.db.QueryRow(ctx, query,
		incident.Title,
		incident.Description,
		incident.Type,
		incident.Longitude,
		incident.Latitude,
		incident.Address,
		incident.Severity,
		incident.Status,
		incident.ReportedBy,
		incident.Assignment,
		incident.AssignedTo,
		incident.ImageURL,
		incident.VerificationScore,
		extra,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// GetByID возвращает инцидент по его UUID
func (r *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1;`

	row := r.db.QueryRow(ctx, query, id)
	incident, err := scanIncident(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}
	return incident, nil
}

// Update полностью заменяет изменяемые поля инцидента
func (r *IncidentRepository) Update(ctx context.Context, incident *models.Incident) error {
	query := `
		UPDATE incidents SET
			title = $1,
			description = $2,
			type = $3,
			location = ST_SetSRID(ST_MakePoint($4, $5), 4326),
			address = $6,
			severity = $7,
			status = $8,
			reported_by = $9,
			assignment = $10,
			assigned_to = $11,
			image_url = $12,
			responder_notes = $13,
			verification_score = $14,
			verified_by = $15,
			updated_at = NOW()
		WHERE id = $16;
	`
	cmdTag, err := r.db.Exec(ctx, query,
		incident.Title,
		incident.Description,
		incident.Type,
		incident.Longitude,
		incident.Latitude,
		incident.Address,
		incident.Severity,
		incident.Status,
		incident.ReportedBy,
		incident.Assignment,
		incident.AssignedTo,
		incident.ImageURL,
		incident.ResponderNotes,
		incident.VerificationScore,
		incident.VerifiedBy,
		incident.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update incident: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident %s: %w", incident.ID, models.ErrNotFound)
	}
	return nil
}

// Patch обновляет только переданные поля. Известные колонки пишутся напрямую,
// неизвестные ключи сливаются в extra (открытая расширяемость исходного API).
func (r *IncidentRepository) Patch(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Incident, error) {
	setClauses := ""
	args := []any{}
	extra := map[string]any{}

	for key, value := range fields {
		if patchableColumns[key] {
			args = append(args, value)
			setClauses += fmt.Sprintf("%s = $%d, ", key, len(args))
		} else {
			extra[key] = value
		}
	}

	if len(extra) > 0 {
		extraJSON, err := json.Marshal(extra)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal patch extra: %w", err)
		}
		args = append(args, extraJSON)
		setClauses += fmt.Sprintf("extra = extra || $%d::jsonb, ", len(args))
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE incidents SET %supdated_at = NOW()
		WHERE id = $%d
		RETURNING %s;`, setClauses, len(args), incidentColumns)

	row := r.db.QueryRow(ctx, query, args...)
	incident, err := scanIncident(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to patch incident: %w", err)
	}
	return incident, nil
}

// Delete удаляет запись об инциденте навсегда (без soft-delete)
func (r *IncidentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM incidents WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("failed to delete incident: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// ListIncidents возвращает всю коллекцию, новые первыми.
// Пагинации нет - контракт API отдает полный список.
func (r *IncidentRepository) ListIncidents(ctx context.Context) ([]*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents ORDER BY created_at DESC;`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return incidents, nil
}

// IncrementVerification увеличивает счетчик подтверждений на единицу.
// Повторные подтверждения одним пользователем не дедуплицируются.
func (r *IncidentRepository) IncrementVerification(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	query := fmt.Sprintf(`
		UPDATE incidents SET
			verification_score = verification_score + 1,
			updated_at = NOW()
		WHERE id = $1
		RETURNING %s;`, incidentColumns)

	row := r.db.QueryRow(ctx, query, id)
	incident, err := scanIncident(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to increment verification score: %w", err)
	}
	return incident, nil
}

func scanIncident(row pgx.Row) (*models.Incident, error) {
	incident := &models.Incident{}
	var extra []byte
	err := row.Scan(
		&incident.ID,
		&incident.Title,
		&incident.Description,
		&incident.Type,
		&incident.Latitude,
		&incident.Longitude,
		&incident.Address,
		&incident.Severity,
		&incident.Status,
		&incident.ReportedBy,
		&incident.Assignment,
		&incident.AssignedTo,
		&incident.ImageURL,
		&incident.ResponderNotes,
		&incident.VerificationScore,
		&incident.VerifiedBy,
		&extra,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &incident.Extra); err != nil {
			return nil, fmt.Errorf("failed to unmarshal incident extra: %w", err)
		}
		if len(incident.Extra) == 0 {
			incident.Extra = nil
		}
	}
	return incident, nil
}

func emptyIfNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// GetIncidentFromCache пытается получить инцидент из Redis
func (r *IncidentRepository) GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	key := fmt.Sprintf("incident:%s", id.String())
	val, err := r.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incident from cache: %w", err)
	}

	incident := &models.Incident{}
	if err := json.Unmarshal(val, incident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incident from cache: %w", err)
	}
	return incident, nil
}

// SetIncidentCache сохраняет инцидент в Redis
func (r *IncidentRepository) SetIncidentCache(ctx context.Context, incident *models.Incident) error {
	key := fmt.Sprintf("incident:%s", incident.ID.String())
	val, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident for cache: %w", err)
	}
	// Срок жизни кэша 5 минут
	if err := r.redisClient.Set(ctx, key, val, 5*time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to set incident in cache: %w", err)
	}
	return nil
}

// InvalidateIncidentCache удаляет инцидент из Redis кэша
func (r *IncidentRepository) InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error {
	key := fmt.Sprintf("incident:%s", id.String())
	if err := r.redisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate incident cache: %w", err)
	}
	return nil
}
