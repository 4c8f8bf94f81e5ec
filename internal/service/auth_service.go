package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/exam-records-api/internal/models"
	"github.com/noah-isme/exam-records-api/internal/repository"
	appErrors "github.com/noah-isme/exam-records-api/pkg/errors"
)

type authTeacherRepository interface {
	FindByName(ctx context.Context, name string) (*models.Teacher, error)
	FindByID(ctx context.Context, id int64) (*models.Teacher, error)
}

// SessionStore maps opaque session ids to teacher ids.
type SessionStore interface {
	Bind(ctx context.Context, sessionID string, teacherID int64, ttl time.Duration) error
	Lookup(ctx context.Context, sessionID string) (int64, error)
	Clear(ctx context.Context, sessionID string) error
}

// AuthConfig defines configuration for session issuing.
type AuthConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
	Issuer        string
}

// AuthService logs teachers in and out and resolves the acting teacher of a request.
type AuthService struct {
	repo      authTeacherRepository
	sessions  SessionStore
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authTeacherRepository, sessions SessionStore, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = 12 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "exam-records-api"
	}
	return &AuthService{repo: repo, sessions: sessions, validator: validate, logger: logger, config: config, now: time.Now}
}

// Login verifies the teacher's credentials and binds them to a new session.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	teacher, err := s.repo.FindByName(ctx, req.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, storageError(err, "failed to fetch teacher")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredential, "invalid login credentials")
	}

	sessionID := uuid.NewString()
	token, err := s.signSession(sessionID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to issue session token")
	}
	if err := s.sessions.Bind(ctx, sessionID, teacher.ID, s.config.SessionTTL); err != nil {
		return nil, storageError(err, "failed to bind session")
	}

	s.logger.Info("teacher logged in", zap.Int64("teacher_id", teacher.ID), zap.Bool("is_eo", teacher.IsEO))

	return &models.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.config.SessionTTL.Seconds()),
		Teacher:   teacher.Info(),
		Redirect:  LandingView(teacher),
	}, nil
}

// Logout clears whatever the token is bound to. Unknown or malformed tokens succeed.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	sessionID, ok := s.sessionID(token)
	if !ok {
		return nil
	}
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		return storageError(err, "failed to clear session")
	}
	return nil
}

// Resolve returns the actor bound to the token, or an anonymous actor.
func (s *AuthService) Resolve(ctx context.Context, token string) (models.Actor, error) {
	sessionID, ok := s.sessionID(token)
	if !ok {
		return models.Anonymous(), nil
	}

	teacherID, err := s.sessions.Lookup(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return models.Anonymous(), nil
		}
		return models.Anonymous(), storageError(err, "failed to resolve session")
	}

	teacher, err := s.repo.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("clearing session bound to missing teacher", zap.Int64("teacher_id", teacherID))
			if clearErr := s.sessions.Clear(ctx, sessionID); clearErr != nil {
				s.logger.Warn("failed to clear stale session", zap.Error(clearErr))
			}
			return models.Anonymous(), nil
		}
		return models.Anonymous(), storageError(err, "failed to load session teacher")
	}

	return models.ActorFor(teacher, sessionID), nil
}

// LandingView names the dashboard a teacher lands on after login.
func LandingView(teacher *models.Teacher) string {
	if teacher != nil && teacher.IsEO {
		return models.ViewEODashboard
	}
	return models.ViewTeacherDashboard
}

func (s *AuthService) signSession(sessionID string) (string, error) {
	now := s.now().UTC()
	claims := models.SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.SessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.SessionSecret))
}

// sessionID extracts the session id from a signed token. Invalid or expired tokens report false.
func (s *AuthService) sessionID(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	claims := &models.SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.config.SessionSecret), nil
	}, jwt.WithIssuer(s.config.Issuer), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid || claims.SessionID == "" {
		return "", false
	}
	return claims.SessionID, true
}
