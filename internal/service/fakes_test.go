package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/exam-records-api/internal/dto"
	"github.com/noah-isme/exam-records-api/internal/models"
	"github.com/noah-isme/exam-records-api/internal/repository"
	appErrors "github.com/noah-isme/exam-records-api/pkg/errors"
)

// fakeDB mirrors the relational constraints of the schema in memory.
type fakeDB struct {
	mu       sync.Mutex
	nextID   int64
	teachers map[int64]*models.Teacher
	students map[int64]*models.Student
	subjects map[int64]*models.Subject
	results  map[int64]*models.Result
	err      error
	// raceInsert hides existing rows from Exists to simulate a concurrent submission.
	raceInsert bool
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		teachers: map[int64]*models.Teacher{},
		students: map[int64]*models.Student{},
		subjects: map[int64]*models.Subject{},
		results:  map[int64]*models.Result{},
	}
}

func (db *fakeDB) id() int64 {
	db.nextID++
	return db.nextID
}

type fakeTeacherRepo struct{ db *fakeDB }

func (r fakeTeacherRepo) FindByName(_ context.Context, name string) (*models.Teacher, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.err != nil {
		return nil, r.db.err
	}
	for _, t := range r.db.teachers {
		if strings.EqualFold(t.Name, name) {
			clone := *t
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r fakeTeacherRepo) FindByID(_ context.Context, id int64) (*models.Teacher, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.err != nil {
		return nil, r.db.err
	}
	t, ok := r.db.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *t
	return &clone, nil
}

func (r fakeTeacherRepo) List(_ context.Context) ([]models.Teacher, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Teacher
	for _, t := range r.db.teachers {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, r.db.err
}

func (r fakeTeacherRepo) IDsByClass(_ context.Context) (map[models.ClassLevel][]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	grouped := map[models.ClassLevel][]int64{}
	for _, t := range r.db.teachers {
		grouped[t.ClassLevel] = append(grouped[t.ClassLevel], t.ID)
	}
	return grouped, r.db.err
}

func (r fakeTeacherRepo) Create(_ context.Context, teacher *models.Teacher) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, t := range r.db.teachers {
		if strings.EqualFold(t.Name, teacher.Name) {
			return repository.ErrDuplicate
		}
	}
	teacher.ID = r.db.id()
	teacher.CreatedAt = time.Now().UTC()
	clone := *teacher
	r.db.teachers[teacher.ID] = &clone
	return nil
}

func (r fakeTeacherRepo) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.teachers[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.db.teachers, id)
	for _, s := range r.db.students {
		if s.TeacherID != nil && *s.TeacherID == id {
			s.TeacherID = nil
		}
	}
	for _, res := range r.db.results {
		if res.EnteredBy != nil && *res.EnteredBy == id {
			res.EnteredBy = nil
		}
	}
	return nil
}

type fakeStudentRepo struct{ db *fakeDB }

func (r fakeStudentRepo) FindByID(_ context.Context, id int64) (*models.Student, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.err != nil {
		return nil, r.db.err
	}
	s, ok := r.db.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *s
	return &clone, nil
}

func (r fakeStudentRepo) ExistsByRegNo(_ context.Context, regNo string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, s := range r.db.students {
		if s.RegNo == regNo {
			return true, nil
		}
	}
	return false, r.db.err
}

func (r fakeStudentRepo) ListByClass(_ context.Context, class models.ClassLevel) ([]models.Student, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.err != nil {
		return nil, r.db.err
	}
	var out []models.Student
	for _, s := range r.db.students {
		if s.ClassLevel == class {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

func (r fakeStudentRepo) insert(student *models.Student) error {
	for _, s := range r.db.students {
		if s.RegNo == student.RegNo {
			return repository.ErrDuplicate
		}
	}
	student.ID = r.db.id()
	student.CreatedAt = time.Now().UTC()
	clone := *student
	r.db.students[student.ID] = &clone
	return nil
}

func (r fakeStudentRepo) Create(_ context.Context, student *models.Student) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.err != nil {
		return r.db.err
	}
	return r.insert(student)
}

func (r fakeStudentRepo) BulkCreate(_ context.Context, students []models.Student) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.err != nil {
		return 0, r.db.err
	}
	var inserted int64
	for i := range students {
		s := students[i]
		if err := r.insert(&s); err == nil {
			inserted++
		}
	}
	return inserted, nil
}

func (r fakeStudentRepo) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.students[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.db.students, id)
	for rid, res := range r.db.results {
		if res.StudentID == id {
			delete(r.db.results, rid)
		}
	}
	return nil
}

type fakeSubjectRepo struct{ db *fakeDB }

func (r fakeSubjectRepo) List(_ context.Context) ([]models.Subject, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Subject
	for _, s := range r.db.subjects {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, r.db.err
}

func (r fakeSubjectRepo) FindByID(_ context.Context, id int64) (*models.Subject, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.err != nil {
		return nil, r.db.err
	}
	s, ok := r.db.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *s
	return &clone, nil
}

func (r fakeSubjectRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, s := range r.db.subjects {
		if strings.EqualFold(s.Name, name) {
			return true, nil
		}
	}
	return false, r.db.err
}

func (r fakeSubjectRepo) Create(_ context.Context, subject *models.Subject) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, s := range r.db.subjects {
		if strings.EqualFold(s.Name, subject.Name) {
			return repository.ErrDuplicate
		}
	}
	subject.ID = r.db.id()
	clone := *subject
	r.db.subjects[subject.ID] = &clone
	return nil
}

func (r fakeSubjectRepo) CountResults(_ context.Context, id int64) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	count := 0
	for _, res := range r.db.results {
		if res.SubjectID == id {
			count++
		}
	}
	return count, r.db.err
}

func (r fakeSubjectRepo) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.subjects[id]; !ok {
		return sql.ErrNoRows
	}
	for _, res := range r.db.results {
		if res.SubjectID == id {
			return repository.ErrReferenced
		}
	}
	delete(r.db.subjects, id)
	return nil
}

type fakeResultRepo struct{ db *fakeDB }

func (r fakeResultRepo) Exists(_ context.Context, key models.ResultKey) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.err != nil {
		return false, r.db.err
	}
	if r.db.raceInsert {
		return false, nil
	}
	for _, res := range r.db.results {
		if res.Key() == key {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeResultRepo) Create(_ context.Context, result *models.Result) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.err != nil {
		return r.db.err
	}
	for _, res := range r.db.results {
		if res.Key() == result.Key() {
			return repository.ErrDuplicate
		}
	}
	if _, ok := r.db.students[result.StudentID]; !ok {
		return repository.ErrReferenced
	}
	result.ID = r.db.id()
	clone := *result
	r.db.results[result.ID] = &clone
	return nil
}

func (r fakeResultRepo) detail(res *models.Result) models.ResultDetail {
	detail := models.ResultDetail{Result: *res}
	if s, ok := r.db.students[res.StudentID]; ok {
		detail.StudentFirstName = s.FirstName
		detail.StudentLastName = s.LastName
		detail.StudentRegNo = s.RegNo
		detail.StudentClassLevel = s.ClassLevel
	}
	if sub, ok := r.db.subjects[res.SubjectID]; ok {
		detail.SubjectName = sub.Name
	}
	return detail
}

func (r fakeResultRepo) FindByID(_ context.Context, id int64) (*models.ResultDetail, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	res, ok := r.db.results[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	detail := r.detail(res)
	return &detail, nil
}

func (r fakeResultRepo) UpdateScores(_ context.Context, result *models.Result) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	res, ok := r.db.results[result.ID]
	if !ok {
		return sql.ErrNoRows
	}
	res.TestScore, res.ExamScore, res.TotalScore, res.Grade = result.TestScore, result.ExamScore, result.TotalScore, result.Grade
	return nil
}

func (r fakeResultRepo) ListRecentByTeacher(_ context.Context, teacherID int64, limit int) ([]models.ResultDetail, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.ResultDetail
	for _, res := range r.db.results {
		if res.EnteredBy != nil && *res.EnteredBy == teacherID {
			out = append(out, r.detail(res))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, r.db.err
}

func (r fakeResultRepo) reportOrder() []models.ResultDetail {
	var out []models.ResultDetail
	for _, res := range r.db.results {
		out = append(out, r.detail(res))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.StudentClassLevel != b.StudentClassLevel:
			return a.StudentClassLevel < b.StudentClassLevel
		case a.SubjectName != b.SubjectName:
			return a.SubjectName < b.SubjectName
		case a.StudentLastName != b.StudentLastName:
			return a.StudentLastName < b.StudentLastName
		case a.StudentFirstName != b.StudentFirstName:
			return a.StudentFirstName < b.StudentFirstName
		}
		return a.ID < b.ID
	})
	return out
}

func (r fakeResultRepo) ListForReport(_ context.Context) ([]models.ResultDetail, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.err != nil {
		return nil, r.db.err
	}
	return r.reportOrder(), nil
}

func (r fakeResultRepo) GradedTotals(_ context.Context, teacherID int64) ([]models.GradedTotal, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.GradedTotal
	for _, d := range r.reportOrder() {
		if d.EnteredBy == nil || *d.EnteredBy != teacherID {
			continue
		}
		merged := false
		for i := range out {
			if out[i].SubjectName == d.SubjectName && out[i].StudentID == d.StudentID {
				out[i].TotalMarks = out[i].TotalMarks.Add(d.TotalScore)
				merged = true
			}
		}
		if !merged {
			out = append(out, models.GradedTotal{
				SubjectName:       d.SubjectName,
				StudentID:         d.StudentID,
				StudentRegNo:      d.StudentRegNo,
				StudentFirstName:  d.StudentFirstName,
				StudentLastName:   d.StudentLastName,
				StudentClassLevel: d.StudentClassLevel,
				TotalMarks:        d.TotalScore,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SubjectName != out[j].SubjectName {
			return out[i].SubjectName < out[j].SubjectName
		}
		if out[i].StudentLastName != out[j].StudentLastName {
			return out[i].StudentLastName < out[j].StudentLastName
		}
		return out[i].StudentFirstName < out[j].StudentFirstName
	})
	return out, r.db.err
}

// fakeCache records cache traffic in memory.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]interface{}
	deletes []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]interface{}{}}
}

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if report, ok := dest.(*[]dto.ClassResults); ok {
		*report = value.([]dto.ClassResults)
	}
	return nil
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
		c.deletes = append(c.deletes, key)
	}
	return nil
}

// fixture wires every service over one fakeDB.
type fixture struct {
	db        *fakeDB
	cache     *fakeCache
	sessions  *repository.MemorySessionRepository
	auth      *AuthService
	teachers  *TeacherService
	students  *StudentService
	subjects  *SubjectService
	results   *ResultService
	reports   *ReportService
	dashboard *DashboardService
}

func newFixture() *fixture {
	db := newFakeDB()
	cache := newFakeCache()
	cacheSvc := NewCacheService(cache, nil, time.Minute, nil, true)
	sessions := repository.NewMemorySessionRepository()
	classes := models.DefaultClassLevels

	f := &fixture{db: db, cache: cache, sessions: sessions}
	f.auth = NewAuthService(fakeTeacherRepo{db}, sessions, nil, nil, AuthConfig{SessionSecret: "test-secret", SessionTTL: time.Hour})
	f.teachers = NewTeacherService(fakeTeacherRepo{db}, cacheSvc, classes, 4, nil, nil)
	f.students = NewStudentService(fakeStudentRepo{db}, fakeTeacherRepo{db}, cacheSvc, classes, nil, nil)
	f.subjects = NewSubjectService(fakeSubjectRepo{db}, cacheSvc, nil, nil)
	f.results = NewResultService(fakeResultRepo{db}, fakeStudentRepo{db}, fakeSubjectRepo{db}, cacheSvc, nil, nil, nil)
	f.reports = NewReportService(fakeResultRepo{db}, cacheSvc, classes, nil)
	f.dashboard = NewDashboardService(f.students, f.results, f.reports, nil)
	return f
}

func (f *fixture) teacher(name string, class models.ClassLevel, eo bool) models.Actor {
	t, err := f.teachers.Provision(context.Background(), models.ProvisionTeacherRequest{Name: name, Password: "pw1", ClassLevel: class, IsEO: eo})
	if err != nil {
		panic(err)
	}
	return models.ActorFor(t, "")
}

func (f *fixture) addStudent(actor models.Actor, regNo, first, last string) *models.Student {
	s, err := f.students.Create(context.Background(), actor, models.CreateStudentRequest{FirstName: first, LastName: last, RegNo: regNo})
	if err != nil {
		panic(err)
	}
	return s
}

func (f *fixture) addSubject(actor models.Actor, name string) *models.Subject {
	s, err := f.subjects.Create(context.Background(), actor, models.CreateSubjectRequest{Name: name})
	if err != nil {
		panic(err)
	}
	return s
}

func scores(test, exam string) (decimal.NullDecimal, decimal.NullDecimal) {
	return decimal.NewNullDecimal(decimal.RequireFromString(test)), decimal.NewNullDecimal(decimal.RequireFromString(exam))
}

func submitRequest(studentID, subjectID int64, test, exam string, term models.Term, session string) models.SubmitResultRequest {
	t, e := scores(test, exam)
	return models.SubmitResultRequest{StudentID: studentID, SubjectID: subjectID, TestScore: t, ExamScore: e, Term: term, Session: session}
}
