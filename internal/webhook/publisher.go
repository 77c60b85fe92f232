package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/civicalert/incident_reporting_system/internal/models"
)

const (
	webhookQueueKey = "webhook_events"
)

// Типы событий жизненного цикла инцидента
const (
	EventIncidentCreated       = "incident.created"
	EventIncidentUpdated       = "incident.updated"
	EventIncidentStatusChanged = "incident.status_changed"
	EventIncidentDeleted       = "incident.deleted"
)

// Event - структура для данных вебхука
type Event struct {
	Type      string           `json:"type"`
	Incident  *models.Incident `json:"incident"`
	Timestamp time.Time        `json:"timestamp"`
}

// Publisher - интерфейс для публикации вебхуков
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// RedisPublisher - реализация Publisher, использующая Redis
type RedisPublisher struct {
	redisClient *redis.Client
}

// NewRedisPublisher создает новый RedisPublisher
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{
		redisClient: client,
	}
}

// Publish кладет событие в очередь на доставку
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	if err := p.redisClient.LPush(ctx, webhookQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to push webhook event to queue: %w", err)
	}
	return nil
}
