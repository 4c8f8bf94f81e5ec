package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-records-api/internal/models"
	"github.com/noah-isme/exam-records-api/internal/service"
	appErrors "github.com/noah-isme/exam-records-api/pkg/errors"
	"github.com/noah-isme/exam-records-api/pkg/logger"
)

type stubResolver struct {
	actors map[string]models.Actor
	err    error
	seen   []string
}

func (s *stubResolver) Resolve(_ context.Context, token string) (models.Actor, error) {
	s.seen = append(s.seen, token)
	if s.err != nil {
		return models.Anonymous(), s.err
	}
	return s.actors[token], nil
}

type envelope struct {
	Data  map[string]interface{} `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func newRouter(resolver *stubResolver, guards ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Session(resolver, "exam_session"))
	handlers := append(guards, func(c *gin.Context) {
		actor := ActorFrom(c)
		var id int64
		if actor.Authenticated() {
			id = actor.Teacher.ID
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"teacher_id": id, "logged_id": c.GetInt64(logger.ActorKey), "token": TokenFrom(c)}})
	})
	r.GET("/probe", handlers...)
	return r
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func actors() map[string]models.Actor {
	return map[string]models.Actor{
		"teacher": models.ActorFor(&models.Teacher{ID: 1, Name: "Ada", ClassLevel: "SS1"}, "s1"),
		"eo":      models.ActorFor(&models.Teacher{ID: 2, Name: "Grace", ClassLevel: "SS3", IsEO: true}, "s2"),
	}
}

func TestSessionReadsBearerThenCookie(t *testing.T) {
	resolver := &stubResolver{actors: actors()}
	r := newRouter(resolver)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer teacher")
	req.AddCookie(&http.Cookie{Name: "exam_session", Value: "eo"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(1), body.Data["teacher_id"])
	assert.Equal(t, float64(1), body.Data["logged_id"])

	req = httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.AddCookie(&http.Cookie{Name: "exam_session", Value: "eo"})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, float64(2), decode(t, rec).Data["teacher_id"])
	assert.Equal(t, []string{"teacher", "eo"}, resolver.seen)
}

func TestSessionAnonymousPassesThrough(t *testing.T) {
	r := newRouter(&stubResolver{actors: actors()})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec).Data["teacher_id"])
}

func TestSessionStorageFailureAborts(t *testing.T) {
	storage := appErrors.Wrap(errors.New("dial tcp"), appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to resolve session")
	r := newRouter(&stubResolver{err: storage})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "dial tcp")
}

func TestRequireTeacher(t *testing.T) {
	r := newRouter(&stubResolver{actors: actors()}, RequireTeacher())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "UNAUTHENTICATED", body.Error.Code)
	assert.Equal(t, models.ViewLogin, body.Meta["redirect"])
}

func TestRequireEO(t *testing.T) {
	r := newRouter(&stubResolver{actors: actors()}, RequireEO())

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer teacher")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ACCESS_DENIED", body.Error.Code)
	assert.Equal(t, models.ViewTeacherDashboard, body.Meta["redirect"])

	req = httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer eo")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsMiddlewareRecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/students/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/students/7", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	scrape := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), `path="/students/:id"`)
}

func TestMetricsMiddlewareCollapsesUnknownPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/students", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/wp-login.php", "/students/7/extra", "/random/123"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	scrape := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := scrape.Body.String()
	assert.Contains(t, body, `http_requests_total{method="GET",path="unmatched",status="404"} 3`)
	assert.NotContains(t, body, "wp-login")
}
