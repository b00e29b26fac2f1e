package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/canjobs/internal/ai"
	"github.com/amishk599/canjobs/internal/ingest"
	"github.com/amishk599/canjobs/internal/model"
	"github.com/amishk599/canjobs/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeIngester struct {
	got    []ingest.Request
	result ingest.Result
	err    error
}

func (f *fakeIngester) Run(_ context.Context, req ingest.Request) (ingest.Result, error) {
	f.got = append(f.got, req)
	return f.result, f.err
}

type testEnv struct {
	srv      *Server
	store    *store.SQLStore
	ingester *fakeIngester
	jobs     []model.Job
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	added, err := st.UpsertJobs(context.Background(), []model.Job{
		{
			Source: "adzuna", SourceJobID: "a1", Title: "Go Developer", Company: "Maple Soft",
			Location: "Toronto, ON", URL: "https://example.com/a1",
			Description: "Remote role. 3+ years with Go, PostgreSQL and Docker. $110,000 - $130,000 per year.",
			WorkMode:    model.WorkModeRemote,
		},
		{
			Source: "lever", SourceJobID: "l1", Title: "Frontend Engineer", Company: "Northwind",
			Location: "Vancouver, BC", URL: "https://example.com/l1",
			Description: "Hybrid in Vancouver. React and TypeScript.",
			WorkMode:    model.WorkModeHybrid,
		},
	})
	require.NoError(t, err)
	require.Len(t, added, 2)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ing := &fakeIngester{result: ingest.Result{Fetched: 5, Matched: 3, Added: 2}}
	svc := ai.NewService(st, ai.NewRegexAnalyzer(), nil, logger)
	srv := New(st, svc, ing, Options{
		CORSOrigins: []string{"*"},
		Cities:      []string{"Canada (All)", "Toronto, ON", "Vancouver, BC"},
		DefaultDays: 3,
	}, logger)

	return &testEnv{srv: srv, store: st, ingester: ing, jobs: added}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
	assert.NoError(t, err, "response should carry a generated request id")
}

func TestRequestIDIsPropagated(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, id)
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, id, rec.Header().Get(requestIDHeader))
}

func TestCities(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/cities", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Canada (All)", "Toronto, ON", "Vancouver, BC"}, decode[[]string](t, rec))
}

func TestListJobs(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		target string
		titles []string
	}{
		{"all canada", "/api/jobs", []string{"Frontend Engineer", "Go Developer"}},
		{"city", "/api/jobs?city=Toronto,%20ON", []string{"Go Developer"}},
		{"mode", "/api/jobs?mode=Hybrid", []string{"Frontend Engineer"}},
		{"mode loose spelling", "/api/jobs?mode=remote", []string{"Go Developer"}},
		{"keyword", "/api/jobs?q=postgresql", []string{"Go Developer"}},
		{"no match", "/api/jobs?q=cobol", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			jobs := decode[[]jobResponse](t, rec)
			titles := make([]string, len(jobs))
			for i, j := range jobs {
				titles[i] = j.Title
				assert.Empty(t, j.Description, "list should not carry descriptions")
			}
			assert.Equal(t, tt.titles, titles)
			assert.Equal(t, len(tt.titles), atoi(t, rec.Header().Get(totalCountHeader)))
		})
	}
}

func TestListJobs_Pagination(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/jobs?page=2&page_size=1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	jobs := decode[[]jobResponse](t, rec)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Go Developer", jobs[0].Title)
	assert.Equal(t, "2", rec.Header().Get(totalCountHeader))
}

func TestListJobs_BadParams(t *testing.T) {
	env := newTestEnv(t)
	for _, target := range []string{
		"/api/jobs?days=0",
		"/api/jobs?days=31",
		"/api/jobs?days=abc",
		"/api/jobs?page=0",
		"/api/jobs?page_size=101",
		"/api/jobs?page_size=0",
		"/api/jobs?mode=sometimes",
	} {
		rec := env.do(t, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, decode[map[string]string](t, rec), "error", target)
	}
}

func TestGetJob(t *testing.T) {
	env := newTestEnv(t)
	id := env.jobs[0].ID

	rec := env.do(t, http.MethodGet, "/api/jobs/"+itoa(id), "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[jobDetailResponse](t, rec)
	assert.Equal(t, "Go Developer", got.Title)
	assert.Equal(t, "Toronto", got.City)
	assert.NotEmpty(t, got.Description)
	assert.Nil(t, got.Analysis)

	rec = env.do(t, http.MethodPost, "/api/ai/analyze", `{"job_id":`+itoa(id)+`}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/jobs/"+itoa(id), "")
	got = decode[jobDetailResponse](t, rec)
	require.NotNil(t, got.Analysis)
	assert.Equal(t, "Remote", got.Analysis.Type)
}

func TestGetJob_Errors(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/jobs/9999", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/jobs/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/nothing", "").Code)
}

func TestAnalyze(t *testing.T) {
	env := newTestEnv(t)
	body := `{"job_id":` + itoa(env.jobs[0].ID) + `,"your_skills":["go","Kubernetes"]}`

	rec := env.do(t, http.MethodPost, "/api/ai/analyze", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[analysisResponse](t, rec)
	assert.Equal(t, model.SourceRegex, got.Source)
	assert.Equal(t, "Remote", got.Type)
	assert.Equal(t, "3+ years", got.YearsExperienceRequired)
	assert.Contains(t, got.Skills, "go")
	assert.Contains(t, got.Skills, "postgresql")
	assert.Equal(t, []string{"go"}, got.MatchedSkills)
	assert.Contains(t, got.MissingSkills, "postgresql")
	assert.False(t, got.Cached)

	rec = env.do(t, http.MethodPost, "/api/ai/analyze", body)
	assert.True(t, decode[analysisResponse](t, rec).Cached)
}

func TestAnalyze_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{"job_id":`, http.StatusBadRequest},
		{"missing id", `{"your_skills":["go"]}`, http.StatusBadRequest},
		{"negative id", `{"job_id":-4}`, http.StatusBadRequest},
		{"unknown job", `{"job_id":9999}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/ai/analyze", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestIngestOnce(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/ingest/once?city=Toronto,%20ON&days=7", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"added":2,"fetched":5,"matched":3,"failed_sources":[]}`, rec.Body.String())
	require.Len(t, env.ingester.got, 1)
	assert.Equal(t, ingest.Request{City: "Toronto, ON", Days: 7}, env.ingester.got[0])
}

func TestIngestOnce_DefaultsAndErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/ingest/once", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ingest.Request{Days: 3}, env.ingester.got[0])

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/ingest/once?days=40", "").Code)

	env.ingester.err = errors.New("all sources failed")
	rec = env.do(t, http.MethodPost, "/api/ingest/once", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "all sources failed")
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/jobs", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSConfig_ExplicitOrigins(t *testing.T) {
	cfg := corsConfig([]string{"https://jobs.example.ca"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"https://jobs.example.ca"}, cfg.AllowOrigins)
	assert.Contains(t, cfg.ExposeHeaders, totalCountHeader)
}
