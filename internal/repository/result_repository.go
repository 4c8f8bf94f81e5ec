package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-records-api/internal/models"
)

const resultColumns = "r.id, r.student_id, r.subject_id, r.test_score, r.exam_score, r.total_score, r.grade, r.term, r.session, r.entered_by, r.created_at"

const resultDetailSelect = "SELECT " + resultColumns + `,
        s.first_name AS student_first_name, s.last_name AS student_last_name, s.reg_no AS student_reg_no,
        s.class_level AS student_class_level, sub.name AS subject_name
        FROM results r JOIN students s ON s.id = r.student_id JOIN subjects sub ON sub.id = r.subject_id`

// ResultRepository persists examination results.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository constructs a ResultRepository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Exists reports whether a result is already recorded for the tuple.
func (r *ResultRepository) Exists(ctx context.Context, key models.ResultKey) (bool, error) {
	const query = `SELECT 1 FROM results WHERE student_id = $1 AND subject_id = $2 AND term = $3 AND session = $4 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, key.StudentID, key.SubjectID, key.Term, key.Session); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check result exists: %w", err)
	}
	return true, nil
}

// Create inserts a graded result. A concurrent insert of the same tuple yields ErrDuplicate.
func (r *ResultRepository) Create(ctx context.Context, result *models.Result) error {
	const query = `INSERT INTO results (student_id, subject_id, test_score, exam_score, total_score, grade, term, session, entered_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	row := r.db.QueryRowxContext(ctx, query,
		result.StudentID, result.SubjectID, result.TestScore, result.ExamScore, result.TotalScore,
		result.Grade, result.Term, result.Session, result.EnteredBy, result.CreatedAt)
	if err := row.Scan(&result.ID); err != nil {
		return fmt.Errorf("create result: %w", translate(err))
	}
	return nil
}

// FindByID returns a result joined with its student and subject.
func (r *ResultRepository) FindByID(ctx context.Context, id int64) (*models.ResultDetail, error) {
	var detail models.ResultDetail
	if err := r.db.GetContext(ctx, &detail, resultDetailSelect+" WHERE r.id = $1", id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// UpdateScores writes the score components and their derived total and grade.
func (r *ResultRepository) UpdateScores(ctx context.Context, result *models.Result) error {
	const query = `UPDATE results SET test_score = $1, exam_score = $2, total_score = $3, grade = $4 WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, result.TestScore, result.ExamScore, result.TotalScore, result.Grade, result.ID)
	if err != nil {
		return fmt.Errorf("update result: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update result rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListRecentByTeacher returns the newest results entered by the teacher.
func (r *ResultRepository) ListRecentByTeacher(ctx context.Context, teacherID int64, limit int) ([]models.ResultDetail, error) {
	if limit <= 0 {
		limit = 8
	}
	query := resultDetailSelect + " WHERE r.entered_by = $1 ORDER BY r.created_at DESC, r.id DESC LIMIT $2"
	var details []models.ResultDetail
	if err := r.db.SelectContext(ctx, &details, query, teacherID, limit); err != nil {
		return nil, fmt.Errorf("list recent results: %w", err)
	}
	return details, nil
}

// ListForReport returns every result ordered by class, subject, surname and first name.
func (r *ResultRepository) ListForReport(ctx context.Context) ([]models.ResultDetail, error) {
	query := resultDetailSelect + " ORDER BY s.class_level, sub.name, s.last_name, s.first_name, r.id"
	var details []models.ResultDetail
	if err := r.db.SelectContext(ctx, &details, query); err != nil {
		return nil, fmt.Errorf("list report results: %w", err)
	}
	return details, nil
}

// GradedTotals sums the totals a teacher entered per subject and student.
func (r *ResultRepository) GradedTotals(ctx context.Context, teacherID int64) ([]models.GradedTotal, error) {
	const query = `SELECT sub.name AS subject_name, s.id AS student_id, s.reg_no AS student_reg_no,
        s.first_name AS student_first_name, s.last_name AS student_last_name, s.class_level AS student_class_level,
        SUM(r.total_score) AS total_marks
        FROM results r JOIN students s ON s.id = r.student_id JOIN subjects sub ON sub.id = r.subject_id
        WHERE r.entered_by = $1
        GROUP BY sub.name, s.id, s.reg_no, s.first_name, s.last_name, s.class_level
        ORDER BY sub.name, s.last_name, s.first_name, s.id`
	var totals []models.GradedTotal
	if err := r.db.SelectContext(ctx, &totals, query, teacherID); err != nil {
		return nil, fmt.Errorf("sum graded results: %w", err)
	}
	return totals, nil
}
