package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"examtracker/internal/database"
	"examtracker/internal/repository"
	"examtracker/internal/security"
	"examtracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T, limiter *security.RateLimiter) *gin.Engine {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "exams.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := func() time.Time { return testNow }
	repo := repository.NewExamRepository(db).WithClock(clock)
	svc := service.NewExamService(repo, zerolog.Nop(), clock)
	require.NoError(t, svc.Initialize(context.Background()))

	return NewRouter(NewExamHandler(svc, zerolog.Nop()), limiter)
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := do(t, r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestExamLifecycle(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := do(t, r, http.MethodPost, "/api/owners/7/exams", `{"name":"B","date":"10-01-2026","prep":80}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[ExamResponse](t, rec)
	assert.Equal(t, "B", created.Exam.Name)
	assert.Equal(t, int64(7), created.Exam.OwnerID)

	rec = do(t, r, http.MethodPost, "/api/owners/7/exams", `{"name":"A","date":"02-01-2026"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	second := decode[ExamResponse](t, rec)

	rec = do(t, r, http.MethodGet, "/api/owners/7/exams", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[ExamListResponse](t, rec)
	require.Len(t, list.Exams, 2)
	assert.Equal(t, "A", list.Exams[0].Name)
	assert.Equal(t, "B", list.Exams[1].Name)

	rec = do(t, r, http.MethodGet, "/api/owners/7/exams/ranked", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ranked := decode[RankedExamsResponse](t, rec)
	assert.Equal(t, "01-01-2026", ranked.Today)
	require.Len(t, ranked.Exams, 2)
	assert.Equal(t, "A", ranked.Exams[0].Name)
	assert.Equal(t, 500, ranked.Exams[0].PriorityScore)
	assert.Equal(t, 40, ranked.Exams[1].PriorityScore)

	rec = do(t, r, http.MethodPatch, "/api/owners/7/exams/"+itoa(second.Exam.ID), `{"prep":100}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 100, decode[ExamResponse](t, rec).Exam.Prep)

	rec = do(t, r, http.MethodDelete, "/api/owners/7/exams/"+itoa(created.Exam.ID), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, r, http.MethodDelete, "/api/owners/7/exams/"+itoa(created.Exam.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodDelete, "/api/owners/7/exams", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[ClearResponse](t, rec).Removed)
}

func TestRankedWithTodayOverride(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := do(t, r, http.MethodPost, "/api/owners/1/exams", `{"name":"OS","date":"20-01-2026"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/owners/1/exams/ranked?today=18-01-2026", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ranked := decode[RankedExamsResponse](t, rec)
	assert.Equal(t, "18-01-2026", ranked.Today)
	require.Len(t, ranked.Exams, 1)
	assert.Equal(t, 2, ranked.Exams[0].DaysUntil)
	assert.Equal(t, 5, ranked.Exams[0].UrgencyLevel)

	rec = do(t, r, http.MethodGet, "/api/owners/1/exams/ranked?today=2026-01-18", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddExamErrors(t *testing.T) {
	r := newTestRouter(t, nil)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "past date", path: "/api/owners/1/exams", body: `{"name":"OS","date":"15-01-2020"}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "date_past"},
		{name: "bad date", path: "/api/owners/1/exams", body: `{"name":"OS","date":"2026-01-19"}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "date_format"},
		{name: "blank name", path: "/api/owners/1/exams", body: `{"name":"  ","date":"19-01-2026"}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "name_required"},
		{name: "prep range", path: "/api/owners/1/exams", body: `{"name":"OS","date":"19-01-2026","prep":-5}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "prep_range"},
		{name: "missing name", path: "/api/owners/1/exams", body: `{"date":"19-01-2026"}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "name_required"},
		{name: "missing date", path: "/api/owners/1/exams", body: `{"name":"OS","prep":5}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "date_format"},
		{name: "empty body", path: "/api/owners/1/exams", body: `{}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "name_required"},
		{name: "malformed json", path: "/api/owners/1/exams", body: `{"name":`, wantStatus: http.StatusBadRequest, wantCode: "bad_request"},
		{name: "bad owner", path: "/api/owners/abc/exams", body: `{"name":"OS","date":"19-01-2026"}`, wantStatus: http.StatusBadRequest, wantCode: "bad_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, r, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}

	rec := do(t, r, http.MethodGet, "/api/owners/1/exams", "")
	assert.Empty(t, decode[ExamListResponse](t, rec).Exams)
}

func TestOwnersCannotTouchEachOther(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := do(t, r, http.MethodPost, "/api/owners/1/exams", `{"name":"OS","date":"19-01-2026"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := itoa(decode[ExamResponse](t, rec).Exam.ID)

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/owners/2/exams/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPatch, "/api/owners/2/exams/"+id, `{"prep":50}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodDelete, "/api/owners/2/exams/"+id, "").Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/owners/1/exams/"+id, "").Code)
}

func TestUpdatePrepRequiresBody(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := do(t, r, http.MethodPatch, "/api/owners/1/exams/1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPatch, "/api/owners/1/exams/zero", `{"prep":5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newTestRouter(t, security.NewRateLimiter(2, time.Hour))

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/owners/1/exams", "").Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/owners/1/exams", "").Code)

	rec := do(t, r, http.MethodGet, "/api/owners/1/exams", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", decodeError(t, rec).Code)

	// Health checks sit outside the limited group
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/healthz", "").Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
