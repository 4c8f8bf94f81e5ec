package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-records-api/internal/models"
)

const studentColumns = "id, first_name, last_name, reg_no, class_level, teacher_id, created_at"

// StudentRepository handles persistence for students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new repository instance.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE id = $1"
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByRegNo checks uniqueness of the registration number.
func (r *StudentRepository) ExistsByRegNo(ctx context.Context, regNo string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM students WHERE reg_no = $1 LIMIT 1`, regNo); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student reg no: %w", err)
	}
	return true, nil
}

// ListByClass returns the students of a class ordered by surname.
func (r *StudentRepository) ListByClass(ctx context.Context, class models.ClassLevel) ([]models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE class_level = $1 ORDER BY last_name, first_name, id"
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, class); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// Create persists a new student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	const query = `INSERT INTO students (first_name, last_name, reg_no, class_level, teacher_id) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query, student.FirstName, student.LastName, student.RegNo, student.ClassLevel, student.TeacherID)
	if err := row.Scan(&student.ID, &student.CreatedAt); err != nil {
		return fmt.Errorf("create student: %w", translate(err))
	}
	return nil
}

// BulkCreate inserts students in a single transaction, skipping registration numbers
// that already exist. It returns the number of rows inserted.
func (r *StudentRepository) BulkCreate(ctx context.Context, students []models.Student) (int64, error) {
	if len(students) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin bulk insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	placeholders := make([]string, 0, len(students))
	args := make([]interface{}, 0, len(students)*5)
	for i, s := range students {
		base := i * 5
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5))
		args = append(args, s.FirstName, s.LastName, s.RegNo, s.ClassLevel, s.TeacherID)
	}
	query := "INSERT INTO students (first_name, last_name, reg_no, class_level, teacher_id) VALUES " +
		strings.Join(placeholders, ", ") + " ON CONFLICT (reg_no) DO NOTHING"

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk insert students: %w", translate(err))
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk insert rows: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bulk insert: %w", err)
	}
	return inserted, nil
}

// Delete removes a student and, through the foreign key, its results.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
