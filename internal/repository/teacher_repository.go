package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-records-api/internal/models"
)

const teacherColumns = "id, name, password_hash, phone, class_level, is_eo, created_at"

// TeacherRepository manages persistence for teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByName looks a teacher up by case-insensitive exact name.
func (r *TeacherRepository) FindByName(ctx context.Context, name string) (*models.Teacher, error) {
	query := "SELECT " + teacherColumns + " FROM teachers WHERE LOWER(name) = LOWER($1)"
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, name); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByID returns a teacher by id.
func (r *TeacherRepository) FindByID(ctx context.Context, id int64) (*models.Teacher, error) {
	query := "SELECT " + teacherColumns + " FROM teachers WHERE id = $1"
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// List returns all teachers ordered by class then name.
func (r *TeacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	query := "SELECT " + teacherColumns + " FROM teachers ORDER BY class_level, LOWER(name), id"
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// IDsByClass returns teacher ids grouped by class level.
func (r *TeacherRepository) IDsByClass(ctx context.Context) (map[models.ClassLevel][]int64, error) {
	var rows []struct {
		ID         int64             `db:"id"`
		ClassLevel models.ClassLevel `db:"class_level"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, class_level FROM teachers ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list teacher classes: %w", err)
	}
	grouped := make(map[models.ClassLevel][]int64)
	for _, row := range rows {
		grouped[row.ClassLevel] = append(grouped[row.ClassLevel], row.ID)
	}
	return grouped, nil
}

// Create persists a teacher and fills in the generated id and timestamp.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	const query = `INSERT INTO teachers (name, password_hash, phone, class_level, is_eo) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query, teacher.Name, teacher.PasswordHash, teacher.Phone, teacher.ClassLevel, teacher.IsEO)
	if err := row.Scan(&teacher.ID, &teacher.CreatedAt); err != nil {
		return fmt.Errorf("create teacher: %w", translate(err))
	}
	return nil
}

// Delete removes a teacher. Owned students and entered results keep their rows with the reference cleared.
func (r *TeacherRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM teachers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete teacher rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
