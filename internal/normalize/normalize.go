// Package normalize приводит смешанные словари статусов/серьезности/типов
// к единому каноническому представлению для отображения и группировки.
// Все функции чистые и идемпотентные; сырые значения в хранилище не меняются.
package normalize

import "strings"

// statusCanonical маппит оба словаря статусов на каноническую
// нижнерегистровую форму рабочего цикла.
var statusCanonical = map[string]string{
	"reported":     "reported",
	"unverified":   "reported",
	"assigned":     "assigned",
	"verified":     "assigned",
	"in_progress":  "in_progress",
	"resolved":     "resolved",
	"false_report": "false_report",
}

// Цвета бейджей. Неизвестные значения всегда падают в gray, без ошибок.
var statusColors = map[string]string{
	"reported":     "gray",
	"assigned":     "blue",
	"in_progress":  "yellow",
	"resolved":     "green",
	"false_report": "red",
}

var severityColors = map[string]string{
	"critical": "red",
	"high":     "orange",
	"medium":   "yellow",
	"low":      "gray",
}

// Ранг серьезности для сортировки: critical первым, неизвестное - последним
var severityRank = map[string]int{
	"critical": 0,
	"high":     1,
	"medium":   2,
	"low":      3,
}

// Легаси-алиасы типов, встречающиеся в старых данных и в UI.
// Канонизируются на границе API, в хранилище не попадают.
var typeAliases = map[string]string{
	"crime":          "security",
	"disaster":       "natural_disaster",
	"infrastructure": "accident",
}

// Status возвращает каноническую нижнерегистровую форму статуса из любого
// словаря. Неизвестные значения проходят насквозь в нижнем регистре.
func Status(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := statusCanonical[key]; ok {
		return canonical
	}
	return key
}

// StatusColor возвращает цвет бейджа для статуса из любого словаря
func StatusColor(raw string) string {
	if color, ok := statusColors[Status(raw)]; ok {
		return color
	}
	return "gray"
}

// SeverityColor возвращает цвет бейджа для серьезности независимо от регистра
func SeverityColor(raw string) string {
	if color, ok := severityColors[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return color
	}
	return "gray"
}

// SeverityRank возвращает ранг для сортировки по серьезности
func SeverityRank(raw string) int {
	if rank, ok := severityRank[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return rank
	}
	return 4
}

// Type канонизирует легаси-алиасы типов. Канонические и неизвестные
// значения возвращаются как есть.
func Type(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := typeAliases[key]; ok {
		return canonical
	}
	return key
}

// IsVerified - инцидент считается верифицированным, если его статус
// эквивалентен assigned или счетчик подтверждений превысил порог
func IsVerified(status string, verificationScore int) bool {
	return Status(status) == "assigned" || verificationScore > 2
}

// IsActive - статус входит в незавершенный рабочий набор
func IsActive(status string) bool {
	switch Status(status) {
	case "reported", "assigned", "in_progress":
		return true
	}
	return false
}

// IsResolved - статус логически терминальный (но не форсируется как таковой)
func IsResolved(status string) bool {
	return Status(status) == "resolved"
}
