package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/exam-records-api/internal/dto"
	"github.com/noah-isme/exam-records-api/internal/models"
)

type dashboardStudents interface {
	List(ctx context.Context, actor models.Actor) ([]models.Student, error)
}

type dashboardResults interface {
	Recent(ctx context.Context, actor models.Actor) ([]models.ResultDetail, error)
}

type dashboardReports interface {
	ClassReport(ctx context.Context, actor models.Actor) ([]dto.ClassResults, error)
}

// DashboardService assembles the landing views.
type DashboardService struct {
	students dashboardStudents
	results  dashboardResults
	reports  dashboardReports
	logger   *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(students dashboardStudents, results dashboardResults, reports dashboardReports, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{students: students, results: results, reports: reports, logger: logger}
}

// Teacher returns the acting teacher's class roster and their latest entries.
func (s *DashboardService) Teacher(ctx context.Context, actor models.Actor) (*dto.TeacherDashboard, error) {
	teacher, err := requireTeacher(actor)
	if err != nil {
		return nil, err
	}
	students, err := s.students.List(ctx, actor)
	if err != nil {
		return nil, err
	}
	recent, err := s.results.Recent(ctx, actor)
	if err != nil {
		return nil, err
	}
	if students == nil {
		students = []models.Student{}
	}
	if recent == nil {
		recent = []models.ResultDetail{}
	}
	return &dto.TeacherDashboard{Teacher: teacher.Info(), Students: students, RecentResults: recent}, nil
}

// EO summarises every class for an examination officer.
func (s *DashboardService) EO(ctx context.Context, actor models.Actor) (*dto.EODashboard, error) {
	teacher, err := requireEO(actor)
	if err != nil {
		return nil, err
	}
	report, err := s.reports.ClassReport(ctx, actor)
	if err != nil {
		return nil, err
	}

	dashboard := &dto.EODashboard{Teacher: teacher.Info(), Classes: make([]dto.ClassSummary, 0, len(report))}
	for _, class := range report {
		dashboard.Classes = append(dashboard.Classes, dto.ClassSummary{
			ClassName:    class.ClassName,
			Average:      class.Average,
			ResultCount:  class.ResultCount,
			SubjectCount: len(class.Subjects),
		})
		dashboard.TotalResults += class.ResultCount
	}
	return dashboard, nil
}
