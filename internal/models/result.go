package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/exam-records-api/internal/grading"
)

// Result is a student's score in one subject for a term and session.
// TotalScore and Grade are derived; set them only through ApplyScores.
type Result struct {
	ID         int64           `db:"id" json:"id"`
	StudentID  int64           `db:"student_id" json:"student_id"`
	SubjectID  int64           `db:"subject_id" json:"subject_id"`
	TestScore  decimal.Decimal `db:"test_score" json:"test_score"`
	ExamScore  decimal.Decimal `db:"exam_score" json:"exam_score"`
	TotalScore decimal.Decimal `db:"total_score" json:"total_score"`
	Grade      grading.Grade   `db:"grade" json:"grade"`
	Term       Term            `db:"term" json:"term"`
	Session    string          `db:"session" json:"session"`
	EnteredBy  *int64          `db:"entered_by" json:"entered_by,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// ApplyScores records the components and recomputes the derived fields.
func (r *Result) ApplyScores(test, exam decimal.Decimal) {
	outcome := grading.Evaluate(test, exam)
	r.TestScore = test
	r.ExamScore = exam
	r.TotalScore = outcome.Total
	r.Grade = outcome.Grade
}

// ResultKey is the tuple a result must be unique on.
type ResultKey struct {
	StudentID int64
	SubjectID int64
	Term      Term
	Session   string
}

// Key returns the uniqueness tuple of the result.
func (r *Result) Key() ResultKey {
	return ResultKey{StudentID: r.StudentID, SubjectID: r.SubjectID, Term: r.Term, Session: r.Session}
}

// ResultDetail is a result joined with its student and subject for reporting.
type ResultDetail struct {
	Result
	StudentFirstName  string     `db:"student_first_name" json:"student_first_name"`
	StudentLastName   string     `db:"student_last_name" json:"student_last_name"`
	StudentRegNo      string     `db:"student_reg_no" json:"student_reg_no"`
	StudentClassLevel ClassLevel `db:"student_class_level" json:"student_class_level"`
	SubjectName       string     `db:"subject_name" json:"subject_name"`
}

// StudentName joins the student's first and last names.
func (d *ResultDetail) StudentName() string {
	return joinName(d.StudentFirstName, d.StudentLastName)
}

// GradedTotal is the summed total for one student in one subject, across terms and sessions.
type GradedTotal struct {
	SubjectName       string          `db:"subject_name" json:"subject_name"`
	StudentID         int64           `db:"student_id" json:"student_id"`
	StudentRegNo      string          `db:"student_reg_no" json:"reg_no"`
	StudentFirstName  string          `db:"student_first_name" json:"first_name"`
	StudentLastName   string          `db:"student_last_name" json:"last_name"`
	StudentClassLevel ClassLevel      `db:"student_class_level" json:"class_level"`
	TotalMarks        decimal.Decimal `db:"total_marks" json:"total_marks"`
}
