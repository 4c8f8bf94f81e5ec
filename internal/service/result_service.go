package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-records-api/internal/models"
	"github.com/noah-isme/exam-records-api/internal/repository"
	appErrors "github.com/noah-isme/exam-records-api/pkg/errors"
)

// RecentResultsLimit is how many results the teacher dashboard shows.
const RecentResultsLimit = 8

var (
	minScore = decimal.Zero
	maxScore = decimal.NewFromInt(100)
)

type resultRepository interface {
	Exists(ctx context.Context, key models.ResultKey) (bool, error)
	Create(ctx context.Context, result *models.Result) error
	FindByID(ctx context.Context, id int64) (*models.ResultDetail, error)
	UpdateScores(ctx context.Context, result *models.Result) error
	ListRecentByTeacher(ctx context.Context, teacherID int64, limit int) ([]models.ResultDetail, error)
}

type resultStudentLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
}

type resultSubjectLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
}

// ResultService records examination results for the acting teacher's class.
type ResultService struct {
	repo      resultRepository
	students  resultStudentLookup
	subjects  resultSubjectLookup
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewResultService constructs a ResultService.
func NewResultService(repo resultRepository, students resultStudentLookup, subjects resultSubjectLookup, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ResultService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultService{
		repo:      repo,
		students:  students,
		subjects:  subjects,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit grades and stores a new result. A second submission for the same
// student, subject, term and session is rejected, never merged.
func (s *ResultService) Submit(ctx context.Context, actor models.Actor, req models.SubmitResultRequest) (*models.Result, error) {
	result, err := s.submit(ctx, actor, req)
	s.metrics.RecordResultSubmission(OutcomeLabel(err))
	return result, err
}

func (s *ResultService) submit(ctx context.Context, actor models.Actor, req models.SubmitResultRequest) (*models.Result, error) {
	teacher, err := requireTeacher(actor)
	if err != nil {
		return nil, err
	}

	req.Session = strings.TrimSpace(req.Session)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid result payload")
	}
	test, exam, err := validateScores(req.TestScore, req.ExamScore)
	if err != nil {
		return nil, err
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, storageError(err, "failed to load student")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, storageError(err, "failed to load subject")
	}

	key := models.ResultKey{StudentID: req.StudentID, SubjectID: req.SubjectID, Term: req.Term, Session: req.Session}
	exists, err := s.repo.Exists(ctx, key)
	if err != nil {
		return nil, storageError(err, "failed to check existing result")
	}
	if exists {
		return nil, duplicateResultError()
	}

	if student.ClassLevel != teacher.ClassLevel {
		return nil, appErrors.Clone(appErrors.ErrScopeViolation, "you can only enter results for your class")
	}

	teacherID := teacher.ID
	result := &models.Result{
		StudentID: req.StudentID,
		SubjectID: req.SubjectID,
		Term:      req.Term,
		Session:   req.Session,
		EnteredBy: &teacherID,
		CreatedAt: s.now().UTC(),
	}
	result.ApplyScores(test, exam)

	if err := s.repo.Create(ctx, result); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, duplicateResultError()
		case errors.Is(err, repository.ErrReferenced):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student or subject no longer exists")
		}
		return nil, storageError(err, "failed to save result")
	}

	s.cache.Invalidate(ctx, CacheKeyClassReport)
	s.logger.Info("result saved",
		zap.Int64("result_id", result.ID),
		zap.Int64("student_id", result.StudentID),
		zap.Int64("subject_id", result.SubjectID),
		zap.String("grade", string(result.Grade)),
	)
	return result, nil
}

// UpdateScores corrects the score components of a result in the acting
// teacher's class and regrades it.
func (s *ResultService) UpdateScores(ctx context.Context, actor models.Actor, id int64, req models.UpdateScoresRequest) (*models.Result, error) {
	teacher, err := requireTeacher(actor)
	if err != nil {
		return nil, err
	}
	test, exam, err := validateScores(req.TestScore, req.ExamScore)
	if err != nil {
		return nil, err
	}

	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "result not found")
		}
		return nil, storageError(err, "failed to load result")
	}
	if detail.StudentClassLevel != teacher.ClassLevel {
		return nil, appErrors.Clone(appErrors.ErrScopeViolation, "you can only edit results for your class")
	}

	result := detail.Result
	result.ApplyScores(test, exam)
	if err := s.repo.UpdateScores(ctx, &result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "result not found")
		}
		return nil, storageError(err, "failed to update result")
	}

	s.cache.Invalidate(ctx, CacheKeyClassReport)
	return &result, nil
}

// Recent returns the newest results the acting teacher entered.
func (s *ResultService) Recent(ctx context.Context, actor models.Actor) ([]models.ResultDetail, error) {
	teacher, err := requireTeacher(actor)
	if err != nil {
		return nil, err
	}
	results, err := s.repo.ListRecentByTeacher(ctx, teacher.ID, RecentResultsLimit)
	if err != nil {
		return nil, storageError(err, "failed to list recent results")
	}
	return results, nil
}

func duplicateResultError() *appErrors.Error {
	return appErrors.Clone(appErrors.ErrDuplicateResult, "a result for this student, subject, term and session already exists")
}

// validateScores checks both components lie within 0..100 with at most two decimal places.
func validateScores(test, exam decimal.NullDecimal) (decimal.Decimal, decimal.Decimal, error) {
	if err := validateScore("test_score", test); err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, err
	}
	if err := validateScore("exam_score", exam); err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, err
	}
	return test.Decimal, exam.Decimal, nil
}

func validateScore(field string, score decimal.NullDecimal) error {
	if !score.Valid {
		return appErrors.Clone(appErrors.ErrValidation, field+" is required")
	}
	value := score.Decimal
	if value.LessThan(minScore) || value.GreaterThan(maxScore) {
		return appErrors.Clone(appErrors.ErrValidation, field+" must be between 0 and 100")
	}
	if !value.Equal(value.Truncate(2)) {
		return appErrors.Clone(appErrors.ErrValidation, field+" must have at most two decimal places")
	}
	return nil
}
