package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicalert/incident_reporting_system/internal/config"
	"github.com/civicalert/incident_reporting_system/internal/models"
)

// UserRepository определяет контракт для работы с бд пользователей
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]*models.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TokenClaims - полезная нагрузка подписанного токена
type TokenClaims struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

// AuthService определяет контракт аутентификации и управления пользователями
type AuthService interface {
	Register(ctx context.Context, email, password, name, role string) (string, *models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	ValidateToken(tokenString string) (*TokenClaims, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUserRole(ctx context.Context, id uuid.UUID, role string) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type authService struct {
	users  UserRepository
	logger *logrus.Logger
	cfg    *config.Config
}

func NewAuthService(users UserRepository, logger *logrus.Logger, cfg *config.Config) AuthService {
	return &authService{
		users:  users,
		logger: logger,
		cfg:    cfg,
	}
}

// Register создает пользователя и выдает подписанный токен
func (s *authService) Register(ctx context.Context, email, password, name, role string) (string, *models.User, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "auth",
		"method":  "Register",
		"email":   email,
	})
	log.Info("Attempting to register a new user")

	if role == "" {
		role = "citizen"
	}
	if !models.ValidRole(role) {
		return "", nil, fmt.Errorf("%w: unknown role %q", models.ErrValidation, role)
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		log.WithError(err).Error("Failed to check email existence")
		return "", nil, fmt.Errorf("service: could not register user: %w", err)
	}
	if exists {
		log.Warn("Registration rejected, email already taken")
		return "", nil, models.ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Error("Failed to hash password")
		return "", nil, fmt.Errorf("service: could not hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hashed),
		Name:         name,
		Role:         role,
	}

	if err := s.users.Create(ctx, user); err != nil {
		log.WithError(err).Error("Failed to create user in repository")
		return "", nil, fmt.Errorf("service: could not create user: %w", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		log.WithError(err).Error("Failed to sign token")
		return "", nil, fmt.Errorf("service: could not sign token: %w", err)
	}

	log.WithField("user_id", user.ID).Info("User registered successfully")
	return token, user, nil
}

// Login проверяет учетные данные и выдает подписанный токен.
// Ошибка одинаковая для неизвестного email и неверного пароля,
// чтобы не раскрывать наличие аккаунта.
func (s *authService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "auth",
		"method":  "Login",
		"email":   email,
	})
	log.Info("Attempting to log in")

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		log.WithError(err).Warn("Login failed, user lookup error")
		return "", nil, models.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn("Login failed, password mismatch")
		return "", nil, models.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		log.WithError(err).Error("Failed to sign token")
		return "", nil, fmt.Errorf("service: could not sign token: %w", err)
	}

	log.WithField("user_id", user.ID).Info("User logged in successfully")
	return token, user, nil
}

// ValidateToken проверяет подпись и срок действия токена
func (s *authService) ValidateToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, models.ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.ErrInvalidCredentials
	}

	result := &TokenClaims{}
	if v, ok := claims["user_id"].(string); ok {
		result.UserID = v
	}
	if v, ok := claims["email"].(string); ok {
		result.Email = v
	}
	if v, ok := claims["name"].(string); ok {
		result.Name = v
	}
	if v, ok := claims["role"].(string); ok {
		result.Role = v
	}
	return result, nil
}

// ListUsers возвращает всех пользователей (админ-панель)
func (s *authService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list users")
		return nil, fmt.Errorf("service: could not list users: %w", err)
	}
	return users, nil
}

// UpdateUserRole меняет роль пользователя (только для админов)
func (s *authService) UpdateUserRole(ctx context.Context, id uuid.UUID, role string) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "auth",
		"method":  "UpdateUserRole",
		"user_id": id,
		"role":    role,
	})

	if !models.ValidRole(role) {
		return fmt.Errorf("%w: unknown role %q", models.ErrValidation, role)
	}

	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		log.WithError(err).Warn("Failed to update user role")
		return fmt.Errorf("service: could not update user role: %w", err)
	}

	log.Info("User role updated successfully")
	return nil
}

// DeleteUser удаляет пользователя навсегда
func (s *authService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "auth",
		"method":  "DeleteUser",
		"user_id": id,
	})

	if err := s.users.Delete(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to delete user")
		return fmt.Errorf("service: could not delete user: %w", err)
	}

	log.Info("User deleted successfully")
	return nil
}

func (s *authService) generateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"name":    user.Name,
		"role":    user.Role,
		"exp":     now.Add(s.cfg.JWTTTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
