package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/exam-records-api/internal/models"
	"github.com/noah-isme/exam-records-api/internal/repository"
	appErrors "github.com/noah-isme/exam-records-api/pkg/errors"
)

type teacherRepository interface {
	FindByName(ctx context.Context, name string) (*models.Teacher, error)
	List(ctx context.Context) ([]models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id int64) error
}

// TeacherService provisions and removes teacher accounts. It backs the admin CLI.
type TeacherService struct {
	repo       teacherRepository
	cache      *CacheService
	classes    []models.ClassLevel
	bcryptCost int
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, cache *CacheService, classes []models.ClassLevel, bcryptCost int, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(classes) == 0 {
		classes = models.DefaultClassLevels
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &TeacherService{repo: repo, cache: cache, classes: classes, bcryptCost: bcryptCost, validator: validate, logger: logger}
}

// Provision creates a teacher with a hashed credential. It is the only path
// through which teacher accounts come into existence.
func (s *TeacherService) Provision(ctx context.Context, req models.ProvisionTeacherRequest) (*models.Teacher, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.ClassLevel = models.ClassLevel(strings.ToUpper(strings.TrimSpace(string(req.ClassLevel))))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	if !containsClass(s.classes, req.ClassLevel) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown class level "+string(req.ClassLevel))
	}

	if _, err := s.repo.FindByName(ctx, req.Name); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher name already in use")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, storageError(err, "failed to check teacher name")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	teacher := &models.Teacher{
		Name:         req.Name,
		PasswordHash: string(hash),
		Phone:        strings.TrimSpace(req.Phone),
		ClassLevel:   req.ClassLevel,
		IsEO:         req.IsEO,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "teacher name already in use")
		}
		return nil, storageError(err, "failed to create teacher")
	}

	s.logger.Info("teacher provisioned", zap.Int64("teacher_id", teacher.ID), zap.String("class_level", string(teacher.ClassLevel)), zap.Bool("is_eo", teacher.IsEO))
	return teacher, nil
}

// List returns every teacher account.
func (s *TeacherService) List(ctx context.Context) ([]models.Teacher, error) {
	teachers, err := s.repo.List(ctx)
	if err != nil {
		return nil, storageError(err, "failed to list teachers")
	}
	return teachers, nil
}

// Delete removes a teacher. Their students and entered results survive with the reference cleared.
func (s *TeacherService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return storageError(err, "failed to delete teacher")
	}
	s.cache.Invalidate(ctx, CacheKeyClassReport)
	s.logger.Info("teacher deleted", zap.Int64("teacher_id", id))
	return nil
}

func containsClass(classes []models.ClassLevel, class models.ClassLevel) bool {
	for _, c := range classes {
		if c == class {
			return true
		}
	}
	return false
}
