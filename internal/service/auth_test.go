package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicalert/incident_reporting_system/internal/config"
	"github.com/civicalert/incident_reporting_system/internal/models"
	"github.com/civicalert/incident_reporting_system/internal/service/mocks"
)

// newTestAuthService - вспомогательная функция для создания инстанса сервиса с моками.
func newTestAuthService(t *testing.T) (*authService, *mocks.MockUserRepository) {
	ctrl := gomock.NewController(t)
	usersMock := mocks.NewMockUserRepository(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		JWTSecret: "test-secret",
		JWTTTL:    168 * time.Hour,
	}

	service := NewAuthService(usersMock, logger, cfg)
	return service.(*authService), usersMock
}

func TestRegister_Success_DefaultsToCitizen(t *testing.T) {
	// Подготовка
	service, usersMock := newTestAuthService(t)
	ctx := context.Background()

	// Ожидания
	usersMock.EXPECT().EmailExists(ctx, "alice@example.com").Return(false, nil).Times(1)
	usersMock.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, user *models.User) error {
			assert.Equal(t, "citizen", user.Role)
			// Пароль хранится только как bcrypt-хеш
			assert.NotEqual(t, "secret123", user.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))
			user.ID = uuid.New()
			return nil
		}).
		Times(1)

	// Действие
	token, user, err := service.Register(ctx, "alice@example.com", "secret123", "Alice", "")

	// Проверки
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, token)

	// Выданный токен проходит собственную валидацию сервиса
	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "citizen", claims.Role)
}

func TestRegister_EmailTaken(t *testing.T) {
	// Подготовка
	service, usersMock := newTestAuthService(t)
	ctx := context.Background()

	// Ожидания
	usersMock.EXPECT().EmailExists(ctx, "alice@example.com").Return(true, nil).Times(1)
	usersMock.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	// Действие
	token, user, err := service.Register(ctx, "alice@example.com", "secret123", "Alice", "citizen")

	// Проверки
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrEmailTaken)
	assert.Empty(t, token)
	assert.Nil(t, user)
}

func TestRegister_UnknownRoleRejected(t *testing.T) {
	// Подготовка
	service, usersMock := newTestAuthService(t)

	// Ожидания
	usersMock.EXPECT().EmailExists(gomock.Any(), gomock.Any()).Times(0)

	// Действие
	_, _, err := service.Register(context.Background(), "bob@example.com", "secret123", "Bob", "superuser")

	// Проверки
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestLogin_Success(t *testing.T) {
	// Подготовка
	service, usersMock := newTestAuthService(t)
	ctx := context.Background()

	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &models.User{
		ID:           uuid.New(),
		Email:        "alice@example.com",
		PasswordHash: string(hashed),
		Name:         "Alice",
		Role:         "responder",
	}

	// Ожидания
	usersMock.EXPECT().FindByEmail(ctx, "alice@example.com").Return(stored, nil).Times(1)

	// Действие
	token, user, err := service.Login(ctx, "alice@example.com", "secret123")

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, stored, user)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "responder", claims.Role)
	assert.Equal(t, "Alice", claims.Name)
}

func TestLogin_WrongPassword(t *testing.T) {
	// Подготовка
	service, usersMock := newTestAuthService(t)
	ctx := context.Background()

	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &models.User{
		ID:           uuid.New(),
		Email:        "alice@example.com",
		PasswordHash: string(hashed),
	}

	// Ожидания
	usersMock.EXPECT().FindByEmail(ctx, "alice@example.com").Return(stored, nil).Times(1)

	// Действие
	_, _, err = service.Login(ctx, "alice@example.com", "wrong-password")

	// Проверки
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestLogin_UnknownEmail_SameError(t *testing.T) {
	// Подготовка
	service, usersMock := newTestAuthService(t)
	ctx := context.Background()

	// Ожидания
	usersMock.EXPECT().FindByEmail(ctx, "nobody@example.com").Return(nil, models.ErrNotFound).Times(1)

	// Действие
	_, _, err := service.Login(ctx, "nobody@example.com", "secret123")

	// Проверки: ошибка та же, что и при неверном пароле -
	// наличие аккаунта не раскрывается
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestValidateToken_Garbage(t *testing.T) {
	// Подготовка
	service, _ := newTestAuthService(t)

	// Действие
	claims, err := service.ValidateToken("not-a-token")

	// Проверки
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	assert.Nil(t, claims)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	// Подготовка: токен подписан одним секретом, проверяется другим
	issuer, usersMock := newTestAuthService(t)
	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &models.User{ID: uuid.New(), Email: "alice@example.com", PasswordHash: string(hashed)}
	usersMock.EXPECT().FindByEmail(gomock.Any(), "alice@example.com").Return(stored, nil).Times(1)

	token, _, err := issuer.Login(context.Background(), "alice@example.com", "secret123")
	require.NoError(t, err)

	verifier, _ := newTestAuthService(t)
	verifier.cfg = &config.Config{JWTSecret: "another-secret", JWTTTL: time.Hour}

	// Действие
	claims, err := verifier.ValidateToken(token)

	// Проверки
	require.Error(t, err)
	assert.Nil(t, claims)
}

func TestUpdateUserRole_UnknownRoleRejected(t *testing.T) {
	// Подготовка
	service, usersMock := newTestAuthService(t)

	// Ожидания
	usersMock.EXPECT().UpdateRole(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	// Действие
	err := service.UpdateUserRole(context.Background(), uuid.New(), "superuser")

	// Проверки
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestUpdateUserRole_Success(t *testing.T) {
	// Подготовка
	service, usersMock := newTestAuthService(t)
	ctx := context.Background()
	userID := uuid.New()

	// Ожидания
	usersMock.EXPECT().UpdateRole(ctx, userID, "responder").Return(nil).Times(1)

	// Действие
	err := service.UpdateUserRole(ctx, userID, "responder")

	// Проверки
	require.NoError(t, err)
}

func TestDeleteUser_NotFound(t *testing.T) {
	// Подготовка
	service, usersMock := newTestAuthService(t)
	ctx := context.Background()
	userID := uuid.New()

	// Ожидания
	usersMock.EXPECT().Delete(ctx, userID).Return(models.ErrNotFound).Times(1)

	// Действие
	err := service.DeleteUser(ctx, userID)

	// Проверки
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
