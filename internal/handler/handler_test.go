package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-records-api/internal/dto"
	"github.com/noah-isme/exam-records-api/internal/middleware"
	"github.com/noah-isme/exam-records-api/internal/models"
	appErrors "github.com/noah-isme/exam-records-api/pkg/errors"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, rec
}

func withActor(c *gin.Context, teacher *models.Teacher) {
	c.Set(middleware.ContextActorKey, models.ActorFor(teacher, "sid-1"))
}

func classTeacher() *models.Teacher {
	return &models.Teacher{ID: 7, Name: "Mrs Ade", ClassLevel: "SS1"}
}

type stubAuthService struct {
	loginReq    models.LoginRequest
	loginResp   *models.LoginResponse
	loginErr    error
	logoutToken string
}

func (s *stubAuthService) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	s.loginReq = req
	return s.loginResp, s.loginErr
}

func (s *stubAuthService) Logout(_ context.Context, token string) error {
	s.logoutToken = token
	return nil
}

func TestAuthHandlerLoginSetsCookie(t *testing.T) {
	svc := &stubAuthService{loginResp: &models.LoginResponse{
		Token:    "tok",
		Teacher:  models.TeacherInfo{ID: 7, Name: "Mrs Ade"},
		Redirect: models.ViewTeacherDashboard,
	}}
	h := NewAuthHandler(svc, nil, CookieConfig{Name: "exam_session"})
	c, rec := newGinContext(http.MethodPost, "/auth/login", []byte(`{"name":"Mrs Ade","password":"pw"}`))

	h.Login(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Mrs Ade", svc.loginReq.Name)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "exam_session=tok")
	env := decodeEnvelope(t, rec)
	assert.Equal(t, models.ViewTeacherDashboard, env.Meta["redirect"])
}

func TestAuthHandlerLoginFailureRedirectsToLogin(t *testing.T) {
	svc := &stubAuthService{loginErr: appErrors.Clone(appErrors.ErrInvalidCredential, "")}
	h := NewAuthHandler(svc, nil, CookieConfig{Name: "exam_session"})
	c, rec := newGinContext(http.MethodPost, "/auth/login", []byte(`{"name":"Mrs Ade","password":"bad"}`))

	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
	env := decodeEnvelope(t, rec)
	assert.Equal(t, appErrors.ErrInvalidCredential.Code, env.Error.Code)
	assert.Equal(t, models.ViewLogin, env.Meta["redirect"])
}

func TestAuthHandlerLoginRejectsMalformedBody(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, nil, CookieConfig{})
	c, rec := newGinContext(http.MethodPost, "/auth/login", []byte(`{`))

	h.Login(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlerLogoutClearsCookie(t *testing.T) {
	svc := &stubAuthService{}
	h := NewAuthHandler(svc, nil, CookieConfig{Name: "exam_session"})
	c, rec := newGinContext(http.MethodPost, "/auth/logout", nil)
	c.Set(middleware.ContextTokenKey, "tok")

	h.Logout(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", svc.logoutToken)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
}

type stubResultService struct {
	submitted models.SubmitResultRequest
	actor     models.Actor
	result    *models.Result
	err       error
	updatedID int64
}

func (s *stubResultService) Submit(_ context.Context, actor models.Actor, req models.SubmitResultRequest) (*models.Result, error) {
	s.actor = actor
	s.submitted = req
	return s.result, s.err
}

func (s *stubResultService) UpdateScores(_ context.Context, actor models.Actor, id int64, _ models.UpdateScoresRequest) (*models.Result, error) {
	s.actor = actor
	s.updatedID = id
	return s.result, s.err
}

func (s *stubResultService) Recent(context.Context, models.Actor) ([]models.ResultDetail, error) {
	return nil, s.err
}

type stubGraded struct {
	graded []dto.SubjectGradedStudents
}

func (s *stubGraded) GradedStudents(context.Context, models.Actor) ([]dto.SubjectGradedStudents, error) {
	return s.graded, nil
}

func TestResultHandlerSubmitPassesActorAndScores(t *testing.T) {
	svc := &stubResultService{result: &models.Result{ID: 1}}
	h := NewResultHandler(svc, &stubGraded{})
	c, rec := newGinContext(http.MethodPost, "/results", []byte(`{"student_id":3,"subject_id":4,"test_score":25.5,"exam_score":"60","term":"1","session":"2024/2025"}`))
	withActor(c, classTeacher())

	h.Submit(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(7), svc.actor.Teacher.ID)
	assert.True(t, svc.submitted.TestScore.Valid)
	assert.Equal(t, "25.5", svc.submitted.TestScore.Decimal.String())
	assert.Equal(t, "60", svc.submitted.ExamScore.Decimal.String())
	assert.Equal(t, models.TermFirst, svc.submitted.Term)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, models.ViewTeacherDashboard, env.Meta["redirect"])
}

func TestResultHandlerSubmitMissingScoreStaysInvalid(t *testing.T) {
	svc := &stubResultService{err: appErrors.Clone(appErrors.ErrValidation, "exam_score is required")}
	h := NewResultHandler(svc, &stubGraded{})
	c, rec := newGinContext(http.MethodPost, "/results", []byte(`{"student_id":3,"subject_id":4,"test_score":25,"term":"1","session":"2024"}`))
	withActor(c, classTeacher())

	h.Submit(c)

	assert.False(t, svc.submitted.ExamScore.Valid)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResultHandlerSubmitMapsDomainErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"duplicate", appErrors.Clone(appErrors.ErrDuplicateResult, ""), http.StatusConflict},
		{"scope", appErrors.Clone(appErrors.ErrScopeViolation, ""), http.StatusForbidden},
		{"not found", appErrors.Clone(appErrors.ErrNotFound, "student not found"), http.StatusNotFound},
		{"storage", appErrors.Clone(appErrors.ErrStorageUnavailable, ""), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewResultHandler(&stubResultService{err: tc.err}, &stubGraded{})
			c, rec := newGinContext(http.MethodPost, "/results", []byte(`{"student_id":3,"subject_id":4,"test_score":1,"exam_score":1,"term":"2","session":"2024"}`))
			withActor(c, classTeacher())

			h.Submit(c)

			assert.Equal(t, tc.status, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.Equal(t, appErrors.FromError(tc.err).Code, env.Error.Code)
		})
	}
}

func TestResultHandlerUpdateScoresRejectsBadID(t *testing.T) {
	svc := &stubResultService{}
	h := NewResultHandler(svc, &stubGraded{})
	c, rec := newGinContext(http.MethodPut, "/results/abc", []byte(`{}`))
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	h.UpdateScores(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.updatedID)
}

func TestResultHandlerUpdateScores(t *testing.T) {
	svc := &stubResultService{result: &models.Result{ID: 9}}
	h := NewResultHandler(svc, &stubGraded{})
	c, rec := newGinContext(http.MethodPut, "/results/9", []byte(`{"test_score":10,"exam_score":20}`))
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	withActor(c, classTeacher())

	h.UpdateScores(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(9), svc.updatedID)
}

func TestResultHandlerGradedEmptyIsArray(t *testing.T) {
	h := NewResultHandler(&stubResultService{}, &stubGraded{})
	c, rec := newGinContext(http.MethodGet, "/results/graded", nil)
	withActor(c, classTeacher())

	h.Graded(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", string(decodeEnvelope(t, rec).Data))
}

type stubReportService struct {
	format string
	file   *dto.ExportFile
	err    error
}

func (s *stubReportService) ClassReport(context.Context, models.Actor) ([]dto.ClassResults, error) {
	return []dto.ClassResults{{ClassName: "SS1"}}, s.err
}

func (s *stubReportService) Export(_ context.Context, _ models.Actor, format string) (*dto.ExportFile, error) {
	s.format = format
	return s.file, s.err
}

func TestReportHandlerExportDefaultsToCSV(t *testing.T) {
	svc := &stubReportService{file: &dto.ExportFile{Filename: "all_results.csv", ContentType: "text/csv", Payload: []byte("Student,Class\n")}}
	h := NewReportHandler(svc)
	c, rec := newGinContext(http.MethodGet, "/reports/results/export", nil)

	h.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", svc.format)
	assert.Equal(t, `attachment; filename="all_results.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Student,Class\n", rec.Body.String())
}

func TestReportHandlerAccessDeniedRedirects(t *testing.T) {
	h := NewReportHandler(&stubReportService{err: appErrors.Clone(appErrors.ErrAccessDenied, "")})
	c, rec := newGinContext(http.MethodGet, "/reports/results", nil)

	h.ClassReport(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, models.ViewTeacherDashboard, decodeEnvelope(t, rec).Meta["redirect"])
}

type stubStudentService struct {
	deletedID int64
	created   models.CreateStudentRequest
	err       error
}

func (s *stubStudentService) Create(_ context.Context, _ models.Actor, req models.CreateStudentRequest) (*models.Student, error) {
	s.created = req
	return &models.Student{ID: 1, RegNo: req.RegNo, ClassLevel: "SS1"}, s.err
}

func (s *stubStudentService) List(context.Context, models.Actor) ([]models.Student, error) {
	return nil, s.err
}

func (s *stubStudentService) Delete(_ context.Context, _ models.Actor, id int64) error {
	s.deletedID = id
	return s.err
}

func TestStudentHandler(t *testing.T) {
	svc := &stubStudentService{}
	h := NewStudentHandler(svc)

	c, rec := newGinContext(http.MethodPost, "/students", []byte(`{"first_name":"Ada","last_name":"Obi","reg_no":"STU0000001"}`))
	h.Create(c)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "STU0000001", svc.created.RegNo)

	c, rec = newGinContext(http.MethodGet, "/students", nil)
	h.List(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", string(decodeEnvelope(t, rec).Data))

	c, rec = newGinContext(http.MethodDelete, "/students/5", nil)
	c.Params = gin.Params{{Key: "id", Value: "5"}}
	h.Delete(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(5), svc.deletedID)
}

type stubSubjectService struct {
	err error
}

func (s *stubSubjectService) List(context.Context, models.Actor) ([]models.Subject, error) {
	return []models.Subject{{ID: 1, Name: "Biology"}}, nil
}

func (s *stubSubjectService) Create(_ context.Context, _ models.Actor, req models.CreateSubjectRequest) (*models.Subject, error) {
	return &models.Subject{ID: 2, Name: req.Name}, s.err
}

func (s *stubSubjectService) Delete(context.Context, models.Actor, int64) error {
	return s.err
}

func TestSubjectHandlerDeleteInUse(t *testing.T) {
	h := NewSubjectHandler(&stubSubjectService{err: appErrors.Clone(appErrors.ErrSubjectInUse, "")})
	c, rec := newGinContext(http.MethodDelete, "/subjects/1", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	h.Delete(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, appErrors.ErrSubjectInUse.Code, decodeEnvelope(t, rec).Error.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	healthy := NewMetricsHandler(nil, map[string]Pinger{
		"postgres": PingerFunc(func(context.Context) error { return nil }),
	})
	c, rec := newGinContext(http.MethodGet, "/ready", nil)
	healthy.Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	broken := NewMetricsHandler(nil, map[string]Pinger{
		"redis": PingerFunc(func(context.Context) error { return appErrors.ErrStorageUnavailable }),
	})
	c, rec = newGinContext(http.MethodGet, "/ready", nil)
	broken.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "storage unavailable")

	c, rec = newGinContext(http.MethodGet, "/metrics", nil)
	broken.Prometheus(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStudentHandlerDeleteThroughRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &stubStudentService{}
	r := gin.New()
	r.DELETE("/students/:id", NewStudentHandler(svc).Delete)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/students/12", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, int64(12), svc.deletedID)
}
