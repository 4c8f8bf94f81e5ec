package dto

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/exam-records-api/internal/models"
)

// TeacherDashboard is the landing view of a class teacher.
type TeacherDashboard struct {
	Teacher       models.TeacherInfo    `json:"teacher"`
	Students      []models.Student      `json:"students"`
	RecentResults []models.ResultDetail `json:"recent_results"`
}

// ClassSummary condenses a class section of the report.
type ClassSummary struct {
	ClassName    models.ClassLevel `json:"class_name"`
	Average      decimal.Decimal   `json:"average"`
	ResultCount  int               `json:"result_count"`
	SubjectCount int               `json:"subject_count"`
}

// EODashboard is the landing view of an examination officer.
type EODashboard struct {
	Teacher      models.TeacherInfo `json:"teacher"`
	Classes      []ClassSummary     `json:"classes"`
	TotalResults int                `json:"total_results"`
}
