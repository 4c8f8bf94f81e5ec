package service

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-records-api/internal/dto"
	"github.com/noah-isme/exam-records-api/internal/models"
	appErrors "github.com/noah-isme/exam-records-api/pkg/errors"
	"github.com/noah-isme/exam-records-api/pkg/export"
)

// Export formats supported by the results export.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// ExportHeaders are the columns of the flattened results export.
var ExportHeaders = []string{"Student", "Class", "Subject", "Total Score", "Grade", "Term", "Session"}

type reportRepository interface {
	ListForReport(ctx context.Context) ([]models.ResultDetail, error)
	GradedTotals(ctx context.Context, teacherID int64) ([]models.GradedTotal, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ReportService aggregates results into examination officer and teacher views.
type ReportService struct {
	repo      reportRepository
	cache     *CacheService
	classes   []models.ClassLevel
	renderers map[string]datasetRenderer
	logger    *zap.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(repo reportRepository, cache *CacheService, classes []models.ClassLevel, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(classes) == 0 {
		classes = models.DefaultClassLevels
	}
	return &ReportService{
		repo:    repo,
		cache:   cache,
		classes: classes,
		renderers: map[string]datasetRenderer{
			ExportFormatCSV: export.NewCSVExporter(),
			ExportFormatPDF: export.NewPDFExporter(),
		},
		logger: logger,
	}
}

// ClassReport returns every result grouped by class and subject. Examination officers only.
func (s *ReportService) ClassReport(ctx context.Context, actor models.Actor) ([]dto.ClassResults, error) {
	if _, err := requireEO(actor); err != nil {
		return nil, err
	}

	var cached []dto.ClassResults
	if s.cache.Get(ctx, CacheKeyClassReport, &cached) {
		return cached, nil
	}

	details, err := s.repo.ListForReport(ctx)
	if err != nil {
		return nil, storageError(err, "failed to load results")
	}
	report := BuildClassReport(s.classes, details)
	s.cache.Set(ctx, CacheKeyClassReport, report)
	return report, nil
}

// ExportRows returns one row per result in report order. Examination officers only.
func (s *ReportService) ExportRows(ctx context.Context, actor models.Actor) ([]dto.ResultExportRow, error) {
	if _, err := requireEO(actor); err != nil {
		return nil, err
	}
	details, err := s.repo.ListForReport(ctx)
	if err != nil {
		return nil, storageError(err, "failed to load results")
	}
	orderByClass(s.classes, details)
	rows := make([]dto.ResultExportRow, 0, len(details))
	for i := range details {
		d := &details[i]
		rows = append(rows, dto.ResultExportRow{
			StudentName: d.StudentName(),
			ClassLevel:  d.StudentClassLevel,
			SubjectName: d.SubjectName,
			TotalScore:  d.TotalScore,
			Grade:       d.Grade,
			Term:        d.Term,
			Session:     d.Session,
		})
	}
	return rows, nil
}

// Export renders the flattened results in the requested format.
func (s *ReportService) Export(ctx context.Context, actor models.Actor, format string) (*dto.ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format "+format)
	}

	rows, err := s.ExportRows(ctx, actor)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Title: "All Results", Headers: ExportHeaders}
	for _, row := range rows {
		if err := dataset.Append(row.StudentName, string(row.ClassLevel), row.SubjectName, row.TotalScore.StringFixed(2), string(row.Grade), string(row.Term), row.Session); err != nil {
			return nil, appErrors.Internal(err, "failed to build export")
		}
	}
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	s.logger.Info("results exported", zap.String("format", format), zap.Int("rows", len(rows)))

	return &dto.ExportFile{
		Filename:    "all_results." + renderer.Extension(),
		ContentType: renderer.ContentType(),
		Payload:     payload,
	}, nil
}

// GradedStudents returns the acting teacher's results summed per subject and student.
func (s *ReportService) GradedStudents(ctx context.Context, actor models.Actor) ([]dto.SubjectGradedStudents, error) {
	teacher, err := requireTeacher(actor)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.GradedTotals(ctx, teacher.ID)
	if err != nil {
		return nil, storageError(err, "failed to load graded students")
	}
	return GroupGradedTotals(totals), nil
}

// BuildClassReport groups ordered result details into class sections. Every
// configured class appears, in configured order; classes without results
// report an average of zero. Details for unconfigured classes are appended after.
func BuildClassReport(classes []models.ClassLevel, details []models.ResultDetail) []dto.ClassResults {
	report := make([]dto.ClassResults, 0, len(classes))
	index := make(map[models.ClassLevel]int, len(classes))
	for _, class := range classes {
		index[class] = len(report)
		report = append(report, dto.ClassResults{ClassName: class, Subjects: []dto.SubjectResults{}})
	}

	sums := make([]decimal.Decimal, len(report))
	for i := range details {
		d := &details[i]
		pos, ok := index[d.StudentClassLevel]
		if !ok {
			pos = len(report)
			index[d.StudentClassLevel] = pos
			report = append(report, dto.ClassResults{ClassName: d.StudentClassLevel, Subjects: []dto.SubjectResults{}})
			sums = append(sums, decimal.Zero)
		}

		section := &report[pos]
		last := len(section.Subjects) - 1
		if last < 0 || section.Subjects[last].SubjectName != d.SubjectName {
			section.Subjects = append(section.Subjects, dto.SubjectResults{SubjectName: d.SubjectName})
			last++
		}
		section.Subjects[last].Results = append(section.Subjects[last].Results, dto.ResultRow{
			ResultID:    d.ID,
			StudentID:   d.StudentID,
			StudentName: d.StudentName(),
			RegNo:       d.StudentRegNo,
			TestScore:   d.TestScore,
			ExamScore:   d.ExamScore,
			TotalScore:  d.TotalScore,
			Grade:       d.Grade,
			Term:        d.Term,
			Session:     d.Session,
		})
		section.ResultCount++
		sums[pos] = sums[pos].Add(d.TotalScore)
	}

	for i := range report {
		if report[i].ResultCount == 0 {
			report[i].Average = decimal.Zero
			continue
		}
		report[i].Average = sums[i].DivRound(decimal.NewFromInt(int64(report[i].ResultCount)), 2)
	}
	return report
}

// orderByClass stably reorders details so classes follow the configured order,
// with unconfigured classes after them. Order within a class is kept.
func orderByClass(classes []models.ClassLevel, details []models.ResultDetail) {
	rank := make(map[models.ClassLevel]int, len(classes))
	for i, class := range classes {
		rank[class] = i
	}
	position := func(class models.ClassLevel) int {
		if r, ok := rank[class]; ok {
			return r
		}
		return len(classes)
	}
	sort.SliceStable(details, func(i, j int) bool {
		return position(details[i].StudentClassLevel) < position(details[j].StudentClassLevel)
	})
}

// GroupGradedTotals groups ordered per-student totals by subject name.
func GroupGradedTotals(totals []models.GradedTotal) []dto.SubjectGradedStudents {
	grouped := make([]dto.SubjectGradedStudents, 0)
	for _, total := range totals {
		last := len(grouped) - 1
		if last < 0 || grouped[last].SubjectName != total.SubjectName {
			grouped = append(grouped, dto.SubjectGradedStudents{SubjectName: total.SubjectName})
			last++
		}
		grouped[last].Students = append(grouped[last].Students, dto.GradedStudent{
			StudentID:  total.StudentID,
			RegNo:      total.StudentRegNo,
			FirstName:  total.StudentFirstName,
			LastName:   total.StudentLastName,
			ClassLevel: total.StudentClassLevel,
			TotalMarks: total.TotalMarks,
		})
	}
	return grouped
}
