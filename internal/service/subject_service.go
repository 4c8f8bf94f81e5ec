package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-records-api/internal/models"
	"github.com/noah-isme/exam-records-api/internal/repository"
	appErrors "github.com/noah-isme/exam-records-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context) ([]models.Subject, error)
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	CountResults(ctx context.Context, id int64) (int, error)
	Delete(ctx context.Context, id int64) error
}

// SubjectService manages the subject catalogue.
type SubjectService struct {
	repo      subjectRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(repo subjectRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns every subject.
func (s *SubjectService) List(ctx context.Context, actor models.Actor) ([]models.Subject, error) {
	if _, err := requireTeacher(actor); err != nil {
		return nil, err
	}
	subjects, err := s.repo.List(ctx)
	if err != nil {
		return nil, storageError(err, "failed to list subjects")
	}
	return subjects, nil
}

// Create adds a subject. Names are unique ignoring case.
func (s *SubjectService) Create(ctx context.Context, actor models.Actor, req models.CreateSubjectRequest) (*models.Subject, error) {
	if _, err := requireTeacher(actor); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	exists, err := s.repo.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, storageError(err, "failed to check subject name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject already exists")
	}

	subject := &models.Subject{Name: req.Name}
	if err := s.repo.Create(ctx, subject); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "subject already exists")
		}
		return nil, storageError(err, "failed to create subject")
	}
	return subject, nil
}

// Delete removes a subject that no result references. Examination officers only.
func (s *SubjectService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	if _, err := requireEO(actor); err != nil {
		return err
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return storageError(err, "failed to load subject")
	}

	count, err := s.repo.CountResults(ctx, id)
	if err != nil {
		return storageError(err, "failed to check subject usage")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrSubjectInUse, "subject has recorded results and cannot be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrReferenced):
			return appErrors.Clone(appErrors.ErrSubjectInUse, "subject has recorded results and cannot be deleted")
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return storageError(err, "failed to delete subject")
	}
	s.cache.Invalidate(ctx, CacheKeyClassReport)
	return nil
}
