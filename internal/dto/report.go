package dto

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/exam-records-api/internal/grading"
	"github.com/noah-isme/exam-records-api/internal/models"
)

// ResultRow is a single result inside a grouped report.
type ResultRow struct {
	ResultID    int64           `json:"result_id"`
	StudentID   int64           `json:"student_id"`
	StudentName string          `json:"student_name"`
	RegNo       string          `json:"reg_no"`
	TestScore   decimal.Decimal `json:"test_score"`
	ExamScore   decimal.Decimal `json:"exam_score"`
	TotalScore  decimal.Decimal `json:"total_score"`
	Grade       grading.Grade   `json:"grade"`
	Term        models.Term     `json:"term"`
	Session     string          `json:"session"`
}

// SubjectResults groups the results of one subject within a class.
type SubjectResults struct {
	SubjectName string      `json:"subject_name"`
	Results     []ResultRow `json:"results"`
}

// ClassResults is one class section of the examination officer report.
type ClassResults struct {
	ClassName   models.ClassLevel `json:"class_name"`
	Average     decimal.Decimal   `json:"average"`
	ResultCount int               `json:"result_count"`
	Subjects    []SubjectResults  `json:"subjects"`
}

// ResultExportRow is the flattened export view of a result.
type ResultExportRow struct {
	StudentName string            `json:"student_name"`
	ClassLevel  models.ClassLevel `json:"class_level"`
	SubjectName string            `json:"subject_name"`
	TotalScore  decimal.Decimal   `json:"total_score"`
	Grade       grading.Grade     `json:"grade"`
	Term        models.Term       `json:"term"`
	Session     string            `json:"session"`
}

// GradedStudent is a student's summed marks in a subject.
type GradedStudent struct {
	StudentID  int64             `json:"student_id"`
	RegNo      string            `json:"reg_no"`
	FirstName  string            `json:"first_name"`
	LastName   string            `json:"last_name"`
	ClassLevel models.ClassLevel `json:"class_level"`
	TotalMarks decimal.Decimal   `json:"total_marks"`
}

// SubjectGradedStudents lists the students a teacher graded in one subject.
type SubjectGradedStudents struct {
	SubjectName string          `json:"subject_name"`
	Students    []GradedStudent `json:"students"`
}

// ExportFile is a rendered report ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}
