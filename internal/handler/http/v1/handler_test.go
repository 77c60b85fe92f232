package v1

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/civicalert/incident_reporting_system/internal/config"
	"github.com/civicalert/incident_reporting_system/internal/feed"
	"github.com/civicalert/incident_reporting_system/internal/models"
	authmocks "github.com/civicalert/incident_reporting_system/internal/handler/http/v1/mocks"
	"github.com/civicalert/incident_reporting_system/internal/service"
	"github.com/civicalert/incident_reporting_system/internal/service/mocks"
)

// newTestHandler создает новый экземпляр Handler с мокированными сервисами
func newTestHandler(t *testing.T) (*mocks.MockIncidentService, *authmocks.MockAuthService, *gin.Engine) {
	ctrl := gomock.NewController(t)
	incidentMock := mocks.NewMockIncidentService(ctrl)
	authMock := authmocks.NewMockAuthService(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		JWTSecret: "test-secret",
		JWTTTL:    time.Hour,
	}

	handler := NewHandler(incidentMock, authMock, logger, cfg)

	// Настройка Gin роутера для тестов
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	return incidentMock, authMock, router
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader, headers ...map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// authHeader настраивает мок токена и возвращает заголовок Authorization
func authHeader(authMock *authmocks.MockAuthService, role string) map[string]string {
	claims := &service.TokenClaims{
		UserID: uuid.NewString(),
		Email:  "user@example.com",
		Name:   "Test User",
		Role:   role,
	}
	authMock.EXPECT().ValidateToken("test-token").Return(claims, nil).Times(1)
	return map[string]string{"Authorization": "Bearer test-token"}
}

func TestCreateIncident_Success(t *testing.T) {
	// Подготовка
	incidentMock, _, router := newTestHandler(t)

	body := `{
		"description": "Smoke on the third floor",
		"type": "fire",
		"location": {"type": "Point", "coordinates": [-122.4194, 37.7749]},
		"reportedBy": "citizen-1"
	}`

	// Ожидания
	incidentMock.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, incident *models.Incident) error {
			// Координаты GeoJSON приходят в порядке [lng, lat]
			assert.Equal(t, -122.4194, incident.Longitude)
			assert.Equal(t, 37.7749, incident.Latitude)
			incident.ID = uuid.New()
			incident.Status = "reported"
			incident.Severity = "medium"
			return nil
		}).
		Times(1)

	// Действие
	w := makeRequest(router, http.MethodPost, "/api/v1/incidents", bytes.NewBufferString(body))

	// Проверки
	require.Equal(t, http.StatusCreated, w.Code)

	var resp IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "fire", resp.Type)
	assert.Equal(t, [2]float64{-122.4194, 37.7749}, resp.Location.Coordinates)
	assert.Equal(t, "Point", resp.Location.Type)
}

func TestCreateIncident_InvalidBody(t *testing.T) {
	// Подготовка
	incidentMock, _, router := newTestHandler(t)
	incidentMock.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0)

	// Действие
	w := makeRequest(router, http.MethodPost, "/api/v1/incidents", bytes.NewBufferString("{not json"))

	// Проверки
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateIncident_MissingRequiredFields(t *testing.T) {
	// Подготовка
	incidentMock, _, router := newTestHandler(t)
	incidentMock.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0)

	// Без reportedBy и location
	body := `{"description": "desc", "type": "fire"}`

	// Действие
	w := makeRequest(router, http.MethodPost, "/api/v1/incidents", bytes.NewBufferString(body))

	// Проверки
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetIncident_Success(t *testing.T) {
	// Подготовка
	incidentMock, _, router := newTestHandler(t)
	incidentID := uuid.New()
	stored := &models.Incident{
		ID:                incidentID,
		Title:             "fire",
		Type:              "fire",
		Severity:          "critical",
		Status:            "VERIFIED",
		Latitude:          37.7749,
		Longitude:         -122.4194,
		VerificationScore: 1,
	}

	// Ожидания
	incidentMock.EXPECT().GetIncident(gomock.Any(), incidentID).Return(stored, nil).Times(1)

	// Действие
	w := makeRequest(router, http.MethodGet, "/api/v1/incidents/"+incidentID.String(), nil)

	// Проверки
	require.Equal(t, http.StatusOK, w.Code)

	var resp IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// Сырой статус сохранен, производные поля добавлены рядом
	assert.Equal(t, "VERIFIED", resp.Status)
	assert.Equal(t, "assigned", resp.StatusNormalized)
	assert.Equal(t, "blue", resp.StatusColor)
	assert.Equal(t, "red", resp.SeverityColor)
	assert.True(t, resp.Verified)
}

func TestGetIncident_NotFound(t *testing.T) {
	// Подготовка
	incidentMock, _, router := newTestHandler(t)
	incidentID := uuid.New()

	// Ожидания
	incidentMock.EXPECT().GetIncident(gomock.Any(), incidentID).Return(nil, models.ErrNotFound).Times(1)

	// Действие
	w := makeRequest(router, http.MethodGet, "/api/v1/incidents/"+incidentID.String(), nil)

	// Проверки
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetIncident_InvalidID(t *testing.T) {
	// Подготовка
	_, _, router := newTestHandler(t)

	// Действие
	w := makeRequest(router, http.MethodGet, "/api/v1/incidents/not-a-uuid", nil)

	// Проверки
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListIncidents_Success(t *testing.T) {
	// Подготовка
	incidentMock, _, router := newTestHandler(t)
	incidents := []*models.Incident{
		{ID: uuid.New(), Type: "fire", Status: "reported"},
		{ID: uuid.New(), Type: "medical", Status: "resolved"},
	}

	// Ожидания
	incidentMock.EXPECT().ListIncidents(gomock.Any()).Return(incidents, nil).Times(1)

	// Действие
	w := makeRequest(router, http.MethodGet, "/api/v1/incidents", nil)

	// Проверки
	require.Equal(t, http.StatusOK, w.Code)

	var resp []IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)
}

func TestFeedIncidents_PassesQueryOptions(t *testing.T) {
	// Подготовка
	incidentMock, _, router := newTestHandler(t)

	// Ожидания
	incidentMock.EXPECT().
		FeedIncidents(gomock.Any(), feed.Options{
			Type:         "fire",
			VerifiedOnly: true,
			TimeRange:    "24",
			RadiusKm:     "5",
			SortBy:       "severity",
			UserLat:      37.7749,
			UserLng:      -122.4194,
			HasUser:      true,
		}).
		Return([]*models.Incident{}, nil).
		Times(1)

	// Действие
	url := "/api/v1/incidents/feed?type=fire&verifiedOnly=true&timeRange=24&radiusKm=5&lat=37.7749&lng=-122.4194&sortBy=severity"
	w := makeRequest(router, http.MethodGet, url, nil)

	// Проверки
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFeedIncidents_Defaults(t *testing.T) {
	// Подготовка
	incidentMock, _, router := newTestHandler(t)

	// Ожидания: без query-параметров все фильтры выключены, сортировка по времени
	incidentMock.EXPECT().
		FeedIncidents(gomock.Any(), feed.Options{
			Type:      "all",
			TimeRange: "all",
			RadiusKm:  "all",
			SortBy:    "time",
		}).
		Return([]*models.Incident{}, nil).
		Times(1)

	// Действие
	w := makeRequest(router, http.MethodGet, "/api/v1/incidents/feed", nil)

	// Проверки
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetStats_Unauthorized(t *testing.T) {
	// Подготовка
	incidentMock, _, router := newTestHandler(t)
	incidentMock.EXPECT().GetStats(gomock.Any()).Times(0)

	// Действие: без токена
	w := makeRequest(router, http.MethodGet, "/api/v1/incidents/stats", nil)

	// Проверки
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetStats_ForbiddenForCitizen(t *testing.T) {
	// Подготовка
	incidentMock, authMock, router := newTestHandler(t)
	incidentMock.EXPECT().GetStats(gomock.Any()).Times(0)

	// Действие
	w := makeRequest(router, http.MethodGet, "/api/v1/incidents/stats", nil, authHeader(authMock, "citizen"))

	// Проверки
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetStats_SuccessForAdmin(t *testing.T) {
	// Подготовка
	incidentMock, authMock, router := newTestHandler(t)
	stats := feed.Stats{
		TotalIncidents:   4,
		ActiveIncidents:  3,
		VerificationRate: 25,
		ByType:           map[string]int{"fire": 2},
		BySeverity:       map[string]int{"high": 2},
	}

	// Ожидания
	incidentMock.EXPECT().GetStats(gomock.Any()).Return(stats, nil).Times(1)

	// Действие
	w := makeRequest(router, http.MethodGet, "/api/v1/incidents/stats", nil, authHeader(authMock, "admin"))

	// Проверки
	require.Equal(t, http.StatusOK, w.Code)

	var resp feed.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.TotalIncidents)
	assert.InDelta(t, 25.0, resp.VerificationRate, 1e-9)
}

func TestUpdateIncident_ForbiddenForCitizen(t *testing.T) {
	// Подготовка
	incidentMock, authMock, router := newTestHandler(t)
	incidentMock.EXPECT().UpdateIncident(gomock.Any(), gomock.Any()).Times(0)

	body := `{
		"description": "desc",
		"type": "fire",
		"location": {"type": "Point", "coordinates": [-122.4194, 37.7749]},
		"severity": "high",
		"status": "in_progress",
		"reportedBy": "citizen-1"
	}`

	// Действие
	w := makeRequest(router, http.MethodPut, "/api/v1/incidents/"+uuid.NewString(), bytes.NewBufferString(body), authHeader(authMock, "citizen"))

	// Проверки
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateIncident_SuccessForResponder(t *testing.T) {
	// Подготовка
	incidentMock, authMock, router := newTestHandler(t)
	incidentID := uuid.New()
	updated := &models.Incident{
		ID:       incidentID,
		Type:     "fire",
		Severity: "high",
		Status:   "in_progress",
	}

	body := `{
		"description": "desc",
		"type": "fire",
		"location": {"type": "Point", "coordinates": [-122.4194, 37.7749]},
		"severity": "high",
		"status": "in_progress",
		"reportedBy": "citizen-1"
	}`

	// Ожидания
	incidentMock.EXPECT().
		UpdateIncident(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, incident *models.Incident) error {
			assert.Equal(t, incidentID, incident.ID)
			return nil
		}).
		Times(1)
	incidentMock.EXPECT().GetIncident(gomock.Any(), incidentID).Return(updated, nil).Times(1)

	// Действие
	w := makeRequest(router, http.MethodPut, "/api/v1/incidents/"+incidentID.String(), bytes.NewBufferString(body), authHeader(authMock, "responder"))

	// Проверки
	require.Equal(t, http.StatusOK, w.Code)

	var resp IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "in_progress", resp.Status)
}

func TestPatchIncident_Success(t *testing.T) {
	// Подготовка
	incidentMock, authMock, router := newTestHandler(t)
	incidentID := uuid.New()
	patched := &models.Incident{
		ID:             incidentID,
		Type:           "fire",
		Status:         "reported",
		ResponderNotes: "crew dispatched",
	}

	// Ожидания
	incidentMock.EXPECT().
		PatchIncident(gomock.Any(), incidentID, map[string]any{"notes": "crew dispatched"}).
		Return(patched, nil).
		Times(1)

	// Действие
	body := `{"notes": "crew dispatched"}`
	w := makeRequest(router, http.MethodPatch, "/api/v1/incidents/"+incidentID.String(), bytes.NewBufferString(body), authHeader(authMock, "responder"))

	// Проверки
	require.Equal(t, http.StatusOK, w.Code)

	var resp IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "crew dispatched", resp.ResponderNotes)
}

func TestPatchIncident_NotFound(t *testing.T) {
	// Подготовка
	incidentMock, authMock, router := newTestHandler(t)
	incidentID := uuid.New()

	// Ожидания
	incidentMock.EXPECT().
		PatchIncident(gomock.Any(), incidentID, gomock.Any()).
		Return(nil, models.ErrNotFound).
		Times(1)

	// Действие
	body := `{"severity": "low"}`
	w := makeRequest(router, http.MethodPatch, "/api/v1/incidents/"+incidentID.String(), bytes.NewBufferString(body), authHeader(authMock, "admin"))

	// Проверки
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfirmIncident_Unauthorized(t *testing.T) {
	// Подготовка
	incidentMock, _, router := newTestHandler(t)
	incidentMock.EXPECT().ConfirmIncident(gomock.Any(), gomock.Any()).Times(0)

	// Действие: подтверждение требует токен, роль любая
	w := makeRequest(router, http.MethodPost, "/api/v1/incidents/"+uuid.NewString()+"/confirm", nil)

	// Проверки
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConfirmIncident_SuccessForCitizen(t *testing.T) {
	// Подготовка
	incidentMock, authMock, router := newTestHandler(t)
	incidentID := uuid.New()
	confirmed := &models.Incident{ID: incidentID, Type: "fire", Status: "reported", VerificationScore: 3}

	// Ожидания
	incidentMock.EXPECT().ConfirmIncident(gomock.Any(), incidentID).Return(confirmed, nil).Times(1)

	// Действие
	w := makeRequest(router, http.MethodPost, "/api/v1/incidents/"+incidentID.String()+"/confirm", nil, authHeader(authMock, "citizen"))

	// Проверки
	require.Equal(t, http.StatusOK, w.Code)

	var resp IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.VerificationScore)
	// Счетчик выше порога делает инцидент верифицированным
	assert.True(t, resp.Verified)
}

func TestDeleteIncident_SuccessForAdmin(t *testing.T) {
	// Подготовка
	incidentMock, authMock, router := newTestHandler(t)
	incidentID := uuid.New()

	// Ожидания
	incidentMock.EXPECT().DeleteIncident(gomock.Any(), incidentID).Return(nil).Times(1)

	// Действие
	w := makeRequest(router, http.MethodDelete, "/api/v1/incidents/"+incidentID.String(), nil, authHeader(authMock, "admin"))

	// Проверки
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDeleteIncident_ForbiddenForResponder(t *testing.T) {
	// Подготовка
	incidentMock, authMock, router := newTestHandler(t)
	incidentMock.EXPECT().DeleteIncident(gomock.Any(), gomock.Any()).Times(0)

	// Действие
	w := makeRequest(router, http.MethodDelete, "/api/v1/incidents/"+uuid.NewString(), nil, authHeader(authMock, "responder"))

	// Проверки
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRegister_Success(t *testing.T) {
	// Подготовка
	_, authMock, router := newTestHandler(t)
	user := &models.User{
		ID:    uuid.New(),
		Email: "alice@example.com",
		Name:  "Alice",
		Role:  "citizen",
	}

	// Ожидания
	authMock.EXPECT().
		Register(gomock.Any(), "alice@example.com", "secret123", "Alice", "").
		Return("signed-token", user, nil).
		Times(1)

	// Действие
	body := `{"email": "alice@example.com", "password": "secret123", "name": "Alice"}`
	w := makeRequest(router, http.MethodPost, "/api/v1/auth/register", bytes.NewBufferString(body))

	// Проверки
	require.Equal(t, http.StatusCreated, w.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "signed-token", resp.Token)
	assert.Equal(t, "alice@example.com", resp.User.Email)
}

func TestRegister_ShortPassword(t *testing.T) {
	// Подготовка
	_, authMock, router := newTestHandler(t)
	authMock.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	// Действие
	body := `{"email": "alice@example.com", "password": "123", "name": "Alice"}`
	w := makeRequest(router, http.MethodPost, "/api/v1/auth/register", bytes.NewBufferString(body))

	// Проверки
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_EmailTaken(t *testing.T) {
	// Подготовка
	_, authMock, router := newTestHandler(t)

	// Ожидания
	authMock.EXPECT().
		Register(gomock.Any(), "alice@example.com", "secret123", "Alice", "").
		Return("", nil, models.ErrEmailTaken).
		Times(1)

	// Действие
	body := `{"email": "alice@example.com", "password": "secret123", "name": "Alice"}`
	w := makeRequest(router, http.MethodPost, "/api/v1/auth/register", bytes.NewBufferString(body))

	// Проверки
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	// Подготовка
	_, authMock, router := newTestHandler(t)

	// Ожидания
	authMock.EXPECT().
		Login(gomock.Any(), "alice@example.com", "wrong").
		Return("", nil, models.ErrInvalidCredentials).
		Times(1)

	// Действие
	body := `{"email": "alice@example.com", "password": "wrong"}`
	w := makeRequest(router, http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(body))

	// Проверки
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListUsers_ForbiddenForResponder(t *testing.T) {
	// Подготовка
	_, authMock, router := newTestHandler(t)
	authMock.EXPECT().ListUsers(gomock.Any()).Times(0)

	// Действие
	w := makeRequest(router, http.MethodGet, "/api/v1/admin/users", nil, authHeader(authMock, "responder"))

	// Проверки
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateUserRole_SuccessForAdmin(t *testing.T) {
	// Подготовка
	_, authMock, router := newTestHandler(t)
	userID := uuid.New()

	// Ожидания
	authMock.EXPECT().UpdateUserRole(gomock.Any(), userID, "responder").Return(nil).Times(1)

	// Действие
	body := `{"role": "responder"}`
	w := makeRequest(router, http.MethodPatch, "/api/v1/admin/users/"+userID.String()+"/role", bytes.NewBufferString(body), authHeader(authMock, "admin"))

	// Проверки
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthCheck(t *testing.T) {
	// Подготовка
	_, _, router := newTestHandler(t)

	// Действие
	w := makeRequest(router, http.MethodGet, "/api/v1/system/health", nil)

	// Проверки
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}
