package feed

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicalert/incident_reporting_system/internal/models"
)

// mkIncident - вспомогательный конструктор для тестовых инцидентов
func mkIncident(incType, severity, status string, score int, lat, lng float64, age time.Duration, now time.Time) *models.Incident {
	return &models.Incident{
		ID:                uuid.New(),
		Title:             incType,
		Type:              incType,
		Severity:          severity,
		Status:            status,
		VerificationScore: score,
		Latitude:          lat,
		Longitude:         lng,
		CreatedAt:         now.Add(-age),
		UpdatedAt:         now,
	}
}

func TestApply_TypeFilterIsExact(t *testing.T) {
	now := time.Now()
	fire := mkIncident("fire", "high", "reported", 0, 0, 0, time.Hour, now)
	medical := mkIncident("medical", "high", "reported", 0, 0, 0, time.Hour, now)
	security := mkIncident("security", "high", "reported", 0, 0, 0, time.Hour, now)

	got := Apply([]*models.Incident{fire, medical, security}, Options{Type: "fire"}, now)

	require.Len(t, got, 1)
	assert.Equal(t, fire.ID, got[0].ID)
}

func TestApply_TypeAllDisablesFilter(t *testing.T) {
	now := time.Now()
	incidents := []*models.Incident{
		mkIncident("fire", "high", "reported", 0, 0, 0, time.Hour, now),
		mkIncident("medical", "high", "reported", 0, 0, 0, time.Hour, now),
	}

	got := Apply(incidents, Options{Type: "all"}, now)
	assert.Len(t, got, 2)
}

func TestApply_VerifiedOnly(t *testing.T) {
	now := time.Now()
	assigned := mkIncident("fire", "high", "assigned", 0, 0, 0, time.Hour, now)
	legacyVerified := mkIncident("fire", "high", "VERIFIED", 0, 0, 0, time.Hour, now)
	confirmed := mkIncident("fire", "high", "reported", 3, 0, 0, time.Hour, now)
	unverified := mkIncident("fire", "high", "UNVERIFIED", 2, 0, 0, time.Hour, now)

	got := Apply([]*models.Incident{assigned, legacyVerified, confirmed, unverified}, Options{VerifiedOnly: true}, now)

	require.Len(t, got, 3)
	assert.Equal(t, assigned.ID, got[0].ID)
	assert.Equal(t, legacyVerified.ID, got[1].ID)
	assert.Equal(t, confirmed.ID, got[2].ID)
}

func TestApply_TimeRangeHours(t *testing.T) {
	now := time.Now()
	recent := mkIncident("fire", "high", "reported", 0, 0, 0, 2*time.Hour, now)
	old := mkIncident("fire", "high", "reported", 0, 0, 0, 30*time.Hour, now)

	got := Apply([]*models.Incident{recent, old}, Options{TimeRange: "24"}, now)

	require.Len(t, got, 1)
	assert.Equal(t, recent.ID, got[0].ID)
}

func TestApply_TimeRangeUnparsableDisablesFilter(t *testing.T) {
	now := time.Now()
	old := mkIncident("fire", "high", "reported", 0, 0, 0, 100*time.Hour, now)

	got := Apply([]*models.Incident{old}, Options{TimeRange: "yesterday"}, now)
	assert.Len(t, got, 1)
}

func TestApply_RadiusFilter(t *testing.T) {
	now := time.Now()
	// Пользователь в центре Сан-Франциско; одна точка в ~4 км к северу,
	// другая в ~10 км
	near := mkIncident("fire", "high", "reported", 0, 37.8109, -122.4194, time.Hour, now)
	far := mkIncident("fire", "high", "reported", 0, 37.8648, -122.4194, time.Hour, now)

	opts := Options{
		RadiusKm: "5",
		UserLat:  37.7749,
		UserLng:  -122.4194,
		HasUser:  true,
	}
	got := Apply([]*models.Incident{near, far}, opts, now)

	require.Len(t, got, 1)
	assert.Equal(t, near.ID, got[0].ID)
}

func TestApply_RadiusIgnoredWithoutUserLocation(t *testing.T) {
	now := time.Now()
	far := mkIncident("fire", "high", "reported", 0, 37.8044, -122.2712, time.Hour, now)

	// Без координат пользователя радиус не применяется
	got := Apply([]*models.Incident{far}, Options{RadiusKm: "5"}, now)
	assert.Len(t, got, 1)
}

func TestApply_SortBySeverity(t *testing.T) {
	now := time.Now()
	low := mkIncident("fire", "low", "reported", 0, 0, 0, time.Hour, now)
	critical := mkIncident("fire", "critical", "reported", 0, 0, 0, time.Hour, now)
	medium := mkIncident("fire", "medium", "reported", 0, 0, 0, time.Hour, now)
	high := mkIncident("fire", "high", "reported", 0, 0, 0, time.Hour, now)

	got := Apply([]*models.Incident{low, critical, medium, high}, Options{SortBy: "severity"}, now)

	require.Len(t, got, 4)
	assert.Equal(t, "critical", got[0].Severity)
	assert.Equal(t, "high", got[1].Severity)
	assert.Equal(t, "medium", got[2].Severity)
	assert.Equal(t, "low", got[3].Severity)
}

func TestApply_SortBySeverityStable(t *testing.T) {
	now := time.Now()
	first := mkIncident("fire", "high", "reported", 0, 0, 0, time.Hour, now)
	second := mkIncident("medical", "high", "reported", 0, 0, 0, 2*time.Hour, now)

	// Равный ранг - исходный порядок сохраняется
	got := Apply([]*models.Incident{first, second}, Options{SortBy: "severity"}, now)

	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
}

func TestApply_SortByTimeNewestFirst(t *testing.T) {
	now := time.Now()
	older := mkIncident("fire", "high", "reported", 0, 0, 0, 5*time.Hour, now)
	newer := mkIncident("fire", "high", "reported", 0, 0, 0, time.Hour, now)

	got := Apply([]*models.Incident{older, newer}, Options{SortBy: "time"}, now)

	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, older.ID, got[1].ID)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	now := time.Now()
	older := mkIncident("fire", "low", "reported", 0, 0, 0, 5*time.Hour, now)
	newer := mkIncident("medical", "critical", "reported", 0, 0, 0, time.Hour, now)
	input := []*models.Incident{older, newer}

	Apply(input, Options{SortBy: "severity"}, now)

	// Исходный слайс остался в прежнем порядке
	assert.Equal(t, older.ID, input[0].ID)
	assert.Equal(t, newer.ID, input[1].ID)
}

func TestBuildStats_Empty(t *testing.T) {
	stats := BuildStats(nil)

	assert.Equal(t, 0, stats.TotalIncidents)
	assert.Equal(t, 0.0, stats.VerificationRate)
	assert.Equal(t, 0.0, stats.AvgResolutionMinutes)
}

func TestBuildStats_Counts(t *testing.T) {
	now := time.Now()
	incidents := []*models.Incident{
		mkIncident("fire", "critical", "reported", 0, 0, 0, time.Hour, now),
		mkIncident("fire", "high", "VERIFIED", 0, 0, 0, time.Hour, now),
		mkIncident("medical", "high", "IN_PROGRESS", 0, 0, 0, time.Hour, now),
		mkIncident("security", "low", "FALSE_REPORT", 0, 0, 0, time.Hour, now),
	}

	stats := BuildStats(incidents)

	assert.Equal(t, 4, stats.TotalIncidents)
	assert.Equal(t, 3, stats.ActiveIncidents)
	assert.Equal(t, 0, stats.ResolvedIncidents)
	assert.Equal(t, 1, stats.FalseReports)
	assert.Equal(t, 2, stats.ByType["fire"])
	assert.Equal(t, 1, stats.ByType["medical"])
	assert.Equal(t, 2, stats.BySeverity["high"])

	// Один из четырех со статусом эквивалентным assigned
	assert.InDelta(t, 25.0, stats.VerificationRate, 1e-9)

	// Разрешенных нет - среднее время равно нулю, а не NaN
	assert.Equal(t, 0.0, stats.AvgResolutionMinutes)
}

func TestBuildStats_AvgResolutionMinutes(t *testing.T) {
	now := time.Now()
	resolved := mkIncident("fire", "high", "resolved", 0, 0, 0, 90*time.Minute, now)
	resolved.UpdatedAt = now // создан 90 минут назад, разрешен сейчас

	resolvedFast := mkIncident("medical", "high", "resolved", 0, 0, 0, 30*time.Minute, now)
	resolvedFast.UpdatedAt = now

	stats := BuildStats([]*models.Incident{resolved, resolvedFast})

	assert.Equal(t, 2, stats.ResolvedIncidents)
	assert.InDelta(t, 60.0, stats.AvgResolutionMinutes, 0.01)
}
