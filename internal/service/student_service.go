package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-records-api/internal/models"
	"github.com/noah-isme/exam-records-api/internal/repository"
	appErrors "github.com/noah-isme/exam-records-api/pkg/errors"
)

// GenerateChunkSize bounds how many generated students are inserted per statement.
const GenerateChunkSize = 10000

var (
	generatedFirstNames = []string{"John", "Jane", "Michael", "Sarah", "David", "Emily", "Daniel", "Laura", "James", "Olivia"}
	generatedLastNames  = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Miller", "Davis", "Garcia", "Rodriguez", "Wilson"}
)

type studentRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	ExistsByRegNo(ctx context.Context, regNo string) (bool, error)
	ListByClass(ctx context.Context, class models.ClassLevel) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	BulkCreate(ctx context.Context, students []models.Student) (int64, error)
	Delete(ctx context.Context, id int64) error
}

type teacherDirectory interface {
	IDsByClass(ctx context.Context) (map[models.ClassLevel][]int64, error)
}

// StudentService registers and lists students within the acting teacher's class.
type StudentService struct {
	repo      studentRepository
	teachers  teacherDirectory
	cache     *CacheService
	classes   []models.ClassLevel
	validator *validator.Validate
	logger    *zap.Logger
	rng       *rand.Rand
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, teachers teacherDirectory, cache *CacheService, classes []models.ClassLevel, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(classes) == 0 {
		classes = models.DefaultClassLevels
	}
	return &StudentService{
		repo:      repo,
		teachers:  teachers,
		cache:     cache,
		classes:   classes,
		validator: validate,
		logger:    logger,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Create registers a student. Class level and owning teacher always come from the actor.
func (s *StudentService) Create(ctx context.Context, actor models.Actor, req models.CreateStudentRequest) (*models.Student, error) {
	teacher, err := requireTeacher(actor)
	if err != nil {
		return nil, err
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.RegNo = strings.TrimSpace(req.RegNo)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	exists, err := s.repo.ExistsByRegNo(ctx, req.RegNo)
	if err != nil {
		return nil, storageError(err, "failed to check registration number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "registration number already exists")
	}

	teacherID := teacher.ID
	student := &models.Student{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		RegNo:      req.RegNo,
		ClassLevel: teacher.ClassLevel,
		TeacherID:  &teacherID,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "registration number already exists")
		}
		return nil, storageError(err, "failed to create student")
	}
	s.cache.Invalidate(ctx, CacheKeyClassReport)
	return student, nil
}

// List returns the students of the acting teacher's class.
func (s *StudentService) List(ctx context.Context, actor models.Actor) ([]models.Student, error) {
	teacher, err := requireTeacher(actor)
	if err != nil {
		return nil, err
	}
	students, err := s.repo.ListByClass(ctx, teacher.ClassLevel)
	if err != nil {
		return nil, storageError(err, "failed to list students")
	}
	return students, nil
}

// Delete removes a student of the acting teacher's class together with its results.
func (s *StudentService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	teacher, err := requireTeacher(actor)
	if err != nil {
		return err
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return storageError(err, "failed to load student")
	}
	if student.ClassLevel != teacher.ClassLevel {
		return appErrors.Clone(appErrors.ErrScopeViolation, "you can only manage students in your class")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return storageError(err, "failed to delete student")
	}
	s.cache.Invalidate(ctx, CacheKeyClassReport)
	return nil
}

// Generate bulk inserts random students numbered from req.Start. Each student
// gets a random class and, when one exists, a random teacher of that class.
// progress is called after every chunk with the running total.
func (s *StudentService) Generate(ctx context.Context, req models.GenerateStudentsRequest, progress func(inserted int64)) (int64, error) {
	if req.Start == 0 {
		req.Start = 1
	}
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generator options")
	}

	byClass, err := s.teachers.IDsByClass(ctx)
	if err != nil {
		return 0, storageError(err, "failed to load teachers")
	}

	var inserted int64
	batch := make([]models.Student, 0, min(req.Total, GenerateChunkSize))
	flush := func() error {
		n, err := s.repo.BulkCreate(ctx, batch)
		if err != nil {
			return storageError(err, "failed to insert generated students")
		}
		inserted += n
		batch = batch[:0]
		if progress != nil {
			progress(inserted)
		}
		return nil
	}

	for i := 0; i < req.Total; i++ {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}
		batch = append(batch, s.randomStudent(req.Start+i, byClass))
		if len(batch) >= GenerateChunkSize {
			if err := flush(); err != nil {
				return inserted, err
			}
		}
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return inserted, err
		}
	}

	s.cache.Invalidate(ctx, CacheKeyClassReport)
	s.logger.Info("students generated", zap.Int("requested", req.Total), zap.Int64("inserted", inserted))
	return inserted, nil
}

func (s *StudentService) randomStudent(seq int, byClass map[models.ClassLevel][]int64) models.Student {
	class := s.classes[s.rng.Intn(len(s.classes))]
	student := models.Student{
		FirstName:  generatedFirstNames[s.rng.Intn(len(generatedFirstNames))],
		LastName:   generatedLastNames[s.rng.Intn(len(generatedLastNames))],
		RegNo:      RegNo(seq),
		ClassLevel: class,
	}
	if ids := byClass[class]; len(ids) > 0 {
		id := ids[s.rng.Intn(len(ids))]
		student.TeacherID = &id
	}
	return student
}

// RegNo formats a sequential registration number such as STU0000001.
func RegNo(seq int) string {
	return fmt.Sprintf("STU%07d", seq)
}
