// Package feed реализует детерминированный конвейер фильтрации/сортировки
// ленты инцидентов и агрегаты для админ-панели. Функции чистые: полный
// список на входе, упорядоченная подпоследовательность или сводка на выходе.
package feed

import (
	"sort"
	"strconv"
	"time"

	"github.com/civicalert/incident_reporting_system/internal/models"
	"github.com/civicalert/incident_reporting_system/internal/normalize"
	"github.com/civicalert/incident_reporting_system/pkg/geo"
)

// Options - конфигурация фильтров ленты. Строковые значения "all"
// отключают соответствующий фильтр, как в клиентском UI.
type Options struct {
	Type         string // "all" или значение из закрытого перечисления
	VerifiedOnly bool
	TimeRange    string // "all" или количество часов строкой
	RadiusKm     string // "all" или километры строкой; требует координаты пользователя
	SortBy       string // "time" (по умолчанию) или "severity"

	UserLat float64
	UserLng float64
	HasUser bool // известна ли геолокация пользователя
}

// Apply прогоняет список через фильтры и сортировку.
// Фильтры сохраняют исходный порядок; исходный слайс не мутируется.
func Apply(incidents []*models.Incident, opts Options, now time.Time) []*models.Incident {
	filtered := make([]*models.Incident, 0, len(incidents))
	filtered = append(filtered, incidents...)

	if opts.Type != "" && opts.Type != "all" {
		filtered = keep(filtered, func(inc *models.Incident) bool {
			return inc.Type == opts.Type
		})
	}

	if opts.VerifiedOnly {
		filtered = keep(filtered, func(inc *models.Incident) bool {
			return normalize.IsVerified(inc.Status, inc.VerificationScore)
		})
	}

	if opts.TimeRange != "" && opts.TimeRange != "all" {
		if hours, err := strconv.Atoi(opts.TimeRange); err == nil {
			limit := now.Add(-time.Duration(hours) * time.Hour)
			filtered = keep(filtered, func(inc *models.Incident) bool {
				return inc.CreatedAt.After(limit)
			})
		}
	}

	if opts.RadiusKm != "" && opts.RadiusKm != "all" && opts.HasUser {
		if radius, err := strconv.ParseFloat(opts.RadiusKm, 64); err == nil {
			filtered = keep(filtered, func(inc *models.Incident) bool {
				d := geo.Distance(opts.UserLat, opts.UserLng, inc.Latitude, inc.Longitude)
				return d <= radius
			})
		}
	}

	switch opts.SortBy {
	case "severity":
		SortBySeverity(filtered)
	case "time":
		SortByTime(filtered)
	}

	return filtered
}

// SortBySeverity сортирует по рангу серьезности по возрастанию
// (critical первым). Сортировка стабильная.
func SortBySeverity(incidents []*models.Incident) {
	sort.SliceStable(incidents, func(i, j int) bool {
		return normalize.SeverityRank(incidents[i].Severity) < normalize.SeverityRank(incidents[j].Severity)
	})
}

// SortByTime сортирует по времени создания, новые первыми
func SortByTime(incidents []*models.Incident) {
	sort.SliceStable(incidents, func(i, j int) bool {
		return incidents[i].CreatedAt.After(incidents[j].CreatedAt)
	})
}

func keep(incidents []*models.Incident, pred func(*models.Incident) bool) []*models.Incident {
	out := incidents[:0]
	for _, inc := range incidents {
		if pred(inc) {
			out = append(out, inc)
		}
	}
	return out
}

// Stats - агрегаты для админ-панели
type Stats struct {
	TotalIncidents       int            `json:"totalIncidents"`
	ActiveIncidents      int            `json:"activeIncidents"`
	ResolvedIncidents    int            `json:"resolvedIncidents"`
	FalseReports         int            `json:"falseReports"`
	ByType               map[string]int `json:"byType"`
	BySeverity           map[string]int `json:"bySeverity"`
	VerificationRate     float64        `json:"verificationRate"`
	AvgResolutionMinutes float64        `json:"avgResolutionMinutes"`
}

// BuildStats строит сводку по полной коллекции.
// Среднее время разрешения считается только по resolved-инцидентам
// и равно 0 при их отсутствии (деление на ноль исключено).
func BuildStats(incidents []*models.Incident) Stats {
	stats := Stats{
		TotalIncidents: len(incidents),
		ByType:         make(map[string]int),
		BySeverity:     make(map[string]int),
	}

	verified := 0
	var resolutionTotal float64

	for _, inc := range incidents {
		stats.ByType[inc.Type]++
		stats.BySeverity[inc.Severity]++

		switch {
		case normalize.IsActive(inc.Status):
			stats.ActiveIncidents++
		case normalize.IsResolved(inc.Status):
			stats.ResolvedIncidents++
			resolutionTotal += inc.UpdatedAt.Sub(inc.CreatedAt).Minutes()
		case normalize.Status(inc.Status) == "false_report":
			stats.FalseReports++
		}

		if normalize.Status(inc.Status) == "assigned" {
			verified++
		}
	}

	if stats.TotalIncidents > 0 {
		stats.VerificationRate = float64(verified) / float64(stats.TotalIncidents) * 100
	}
	if stats.ResolvedIncidents > 0 {
		stats.AvgResolutionMinutes = resolutionTotal / float64(stats.ResolvedIncidents)
	}

	return stats
}
