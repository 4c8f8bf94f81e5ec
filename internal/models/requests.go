package models

import "github.com/shopspring/decimal"

// CreateStudentRequest registers a student in the acting teacher's class.
// Any class level supplied by the caller is ignored.
type CreateStudentRequest struct {
	FirstName  string     `json:"first_name" validate:"required,max=100"`
	LastName   string     `json:"last_name" validate:"max=100"`
	RegNo      string     `json:"reg_no" validate:"required,max=30"`
	ClassLevel ClassLevel `json:"class_level,omitempty"`
}

// CreateSubjectRequest registers a new subject.
type CreateSubjectRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// SubmitResultRequest carries a single score entry.
type SubmitResultRequest struct {
	StudentID int64               `json:"student_id" validate:"required,gt=0"`
	SubjectID int64               `json:"subject_id" validate:"required,gt=0"`
	TestScore decimal.NullDecimal `json:"test_score"`
	ExamScore decimal.NullDecimal `json:"exam_score"`
	Term      Term                `json:"term" validate:"required,oneof=1 2 3"`
	Session   string              `json:"session" validate:"required,max=20"`
}

// UpdateScoresRequest corrects the score components of an existing result.
type UpdateScoresRequest struct {
	TestScore decimal.NullDecimal `json:"test_score"`
	ExamScore decimal.NullDecimal `json:"exam_score"`
}

// ProvisionTeacherRequest creates a teacher account administratively.
type ProvisionTeacherRequest struct {
	Name       string     `validate:"required,max=150"`
	Password   string     `validate:"required,min=3,max=72"`
	Phone      string     `validate:"max=20"`
	ClassLevel ClassLevel `validate:"required"`
	IsEO       bool
}

// GenerateStudentsRequest controls the bulk student generator.
type GenerateStudentsRequest struct {
	Total int `validate:"gt=0"`
	Start int `validate:"gte=1"`
}
