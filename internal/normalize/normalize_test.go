package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_LegacyVocabulary(t *testing.T) {
	// Верификационный словарь маппится на канонический рабочий цикл
	assert.Equal(t, "reported", Status("UNVERIFIED"))
	assert.Equal(t, "assigned", Status("VERIFIED"))
	assert.Equal(t, "in_progress", Status("IN_PROGRESS"))
	assert.Equal(t, "false_report", Status("FALSE_REPORT"))
}

func TestStatus_WorkflowVocabulary(t *testing.T) {
	// Рабочий словарь проходит без изменений
	assert.Equal(t, "reported", Status("reported"))
	assert.Equal(t, "assigned", Status("assigned"))
	assert.Equal(t, "in_progress", Status("in_progress"))
	assert.Equal(t, "resolved", Status("resolved"))
}

func TestStatus_Idempotent(t *testing.T) {
	// Повторное применение не меняет результат
	for _, raw := range []string{"UNVERIFIED", "VERIFIED", "reported", "resolved", "garbage"} {
		once := Status(raw)
		assert.Equal(t, once, Status(once), "status %q", raw)
	}
}

func TestStatus_UnknownPassesThroughLowercased(t *testing.T) {
	assert.Equal(t, "something_else", Status("Something_Else"))
	assert.Equal(t, "", Status("  "))
}

func TestStatusColor(t *testing.T) {
	assert.Equal(t, "gray", StatusColor("UNVERIFIED"))
	assert.Equal(t, "blue", StatusColor("VERIFIED"))
	assert.Equal(t, "blue", StatusColor("assigned"))
	assert.Equal(t, "yellow", StatusColor("IN_PROGRESS"))
	assert.Equal(t, "green", StatusColor("resolved"))
	assert.Equal(t, "red", StatusColor("FALSE_REPORT"))

	// Неизвестный статус не ошибка, а gray
	assert.Equal(t, "gray", StatusColor("martian_invasion"))
}

func TestSeverityColor(t *testing.T) {
	assert.Equal(t, "red", SeverityColor("critical"))
	assert.Equal(t, "orange", SeverityColor("high"))
	assert.Equal(t, "yellow", SeverityColor("medium"))
	assert.Equal(t, "gray", SeverityColor("low"))
	assert.Equal(t, "gray", SeverityColor("unknown"))
	assert.Equal(t, "red", SeverityColor("CRITICAL"))
}

func TestSeverityRank(t *testing.T) {
	// critical первым, неизвестное - последним
	assert.Equal(t, 0, SeverityRank("critical"))
	assert.Equal(t, 1, SeverityRank("high"))
	assert.Equal(t, 2, SeverityRank("medium"))
	assert.Equal(t, 3, SeverityRank("low"))
	assert.Equal(t, 4, SeverityRank("whatever"))
}

func TestType_LegacyAliases(t *testing.T) {
	assert.Equal(t, "security", Type("crime"))
	assert.Equal(t, "natural_disaster", Type("disaster"))
	assert.Equal(t, "accident", Type("infrastructure"))
}

func TestType_CanonicalUnchanged(t *testing.T) {
	for _, canonical := range []string{"fire", "medical", "security", "natural_disaster", "accident"} {
		assert.Equal(t, canonical, Type(canonical))
	}
	// Неизвестный тип проходит насквозь, его отсеет валидация
	assert.Equal(t, "balloon_animal", Type("balloon_animal"))
}

func TestIsVerified(t *testing.T) {
	// Статус эквивалентный assigned верифицирует независимо от счетчика
	assert.True(t, IsVerified("assigned", 0))
	assert.True(t, IsVerified("VERIFIED", 0))

	// Счетчик выше порога верифицирует независимо от статуса
	assert.True(t, IsVerified("reported", 3))
	assert.False(t, IsVerified("reported", 2))
	assert.False(t, IsVerified("UNVERIFIED", 0))
}

func TestIsActiveAndIsResolved(t *testing.T) {
	assert.True(t, IsActive("reported"))
	assert.True(t, IsActive("VERIFIED"))
	assert.True(t, IsActive("IN_PROGRESS"))
	assert.False(t, IsActive("resolved"))
	assert.False(t, IsActive("FALSE_REPORT"))

	assert.True(t, IsResolved("resolved"))
	assert.False(t, IsResolved("in_progress"))
}
