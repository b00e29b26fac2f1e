package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amishk599/canjobs/internal/ai"
	"github.com/amishk599/canjobs/internal/ingest"
	"github.com/amishk599/canjobs/internal/model"
	"github.com/amishk599/canjobs/internal/store"
)

const (
	totalCountHeader = "X-Total-Count"
	maxDays          = 30
)

type jobResponse struct {
	ID          int64      `json:"id"`
	Source      string     `json:"source"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	City        string     `json:"city"`
	Location    string     `json:"location"`
	URL         string     `json:"url"`
	PostedAt    *time.Time `json:"posted_at"`
	WorkMode    string     `json:"work_mode"`
	SalaryMin   *float64   `json:"salary_min,omitempty"`
	SalaryMax   *float64   `json:"salary_max,omitempty"`
	Currency    string     `json:"currency,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Description string     `json:"description,omitempty"`
}

type analysisResponse struct {
	JobID                   int64     `json:"job_id"`
	Skills                  []string  `json:"skills"`
	YearsExperienceRequired string    `json:"years_experience_required"`
	Type                    string    `json:"type"`
	Salary                  string    `json:"salary"`
	MatchedSkills           []string  `json:"matched_skills,omitempty"`
	MissingSkills           []string  `json:"missing_skills,omitempty"`
	Source                  string    `json:"source"`
	AnalyzedAt              time.Time `json:"analyzed_at"`
	Cached                  bool      `json:"cached"`
}

type jobDetailResponse struct {
	jobResponse
	Analysis *analysisResponse `json:"analysis"`
}

type analyzeRequest struct {
	JobID      int64    `json:"job_id" binding:"required"`
	YourSkills []string `json:"your_skills"`
	Refresh    bool     `json:"refresh"`
}

func toJobResponse(j model.Job, withDescription bool) jobResponse {
	r := jobResponse{
		ID:        j.ID,
		Source:    j.Source,
		Title:     j.Title,
		Company:   j.Company,
		City:      j.City,
		Location:  j.Location,
		URL:       j.URL,
		PostedAt:  j.PostedAt,
		WorkMode:  string(j.WorkMode),
		SalaryMin: j.SalaryMin,
		SalaryMax: j.SalaryMax,
		Currency:  j.Currency,
		CreatedAt: j.CreatedAt,
	}
	if withDescription {
		r.Description = j.Description
	}
	return r
}

func toAnalysisResponse(a model.Analysis) *analysisResponse {
	skills := a.Skills
	if skills == nil {
		skills = []string{}
	}
	return &analysisResponse{
		JobID:                   a.JobID,
		Skills:                  skills,
		YearsExperienceRequired: a.YearsText(),
		Type:                    string(a.WorkMode),
		Salary:                  a.SalaryText(),
		Source:                  a.Source,
		AnalyzedAt:              a.AnalyzedAt,
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listCities(c *gin.Context) {
	cities := s.opts.Cities
	if cities == nil {
		cities = []string{}
	}
	c.JSON(http.StatusOK, cities)
}

func (s *Server) listJobs(c *gin.Context) {
	days, err := intQuery(c, "days", s.opts.DefaultDays, 1, maxDays)
	if err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return
	}
	page, err := intQuery(c, "page", 1, 1, 0)
	if err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return
	}
	size, err := intQuery(c, "page_size", store.DefaultPageSize, 1, store.MaxPageSize)
	if err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return
	}
	mode, err := modeQuery(c.Query("mode"))
	if err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return
	}

	jobs, total, err := s.store.ListJobs(c.Request.Context(), model.ListQuery{
		City:     strings.TrimSpace(c.Query("city")),
		Days:     days,
		Mode:     mode,
		Keyword:  strings.TrimSpace(c.Query("q")),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		s.logger.Error("list jobs failed", "error", err)
		abortError(c, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	out := make([]jobResponse, len(jobs))
	for i, j := range jobs {
		out[i] = toJobResponse(j, false)
	}
	c.Header(totalCountHeader, strconv.Itoa(total))
	c.JSON(http.StatusOK, out)
}

func (s *Server) getJob(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortError(c, http.StatusBadRequest, "invalid job id")
		return
	}
	ctx := c.Request.Context()

	job, err := s.store.GetJob(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		abortError(c, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		s.logger.Error("get job failed", "id", id, "error", err)
		abortError(c, http.StatusInternalServerError, "failed to load job")
		return
	}

	resp := jobDetailResponse{jobResponse: toJobResponse(job, true)}
	a, err := s.store.GetAnalysis(ctx, id)
	switch {
	case err == nil:
		resp.Analysis = toAnalysisResponse(a)
	case !errors.Is(err, model.ErrNotFound):
		s.logger.Warn("get analysis failed", "id", id, "error", err)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.JobID <= 0 {
		abortError(c, http.StatusBadRequest, "job_id must be positive")
		return
	}

	res, err := s.analyzer.AnalyzeJob(c.Request.Context(), req.JobID, req.YourSkills, req.Refresh)
	if errors.Is(err, model.ErrNotFound) {
		abortError(c, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		s.logger.Error("analyze job failed", "id", req.JobID, "error", err)
		abortError(c, http.StatusInternalServerError, "analysis failed")
		return
	}
	c.JSON(http.StatusOK, analyzeResponse(res, len(req.YourSkills) > 0))
}

func analyzeResponse(res ai.Result, withMatch bool) *analysisResponse {
	out := toAnalysisResponse(res.Analysis)
	out.Cached = res.Cached
	if withMatch {
		out.MatchedSkills = res.Matched
		out.MissingSkills = res.Missing
	}
	return out
}

func (s *Server) ingestOnce(c *gin.Context) {
	days, err := intQuery(c, "days", s.opts.DefaultDays, 1, maxDays)
	if err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.ingester.Run(c.Request.Context(), ingest.Request{
		City: strings.TrimSpace(c.Query("city")),
		Days: days,
	})
	if err != nil {
		s.logger.Error("ingest failed", "error", err)
		abortError(c, http.StatusBadGateway, "ingest failed: "+err.Error())
		return
	}

	failed := res.Failed
	if failed == nil {
		failed = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"added":          res.Added,
		"fetched":        res.Fetched,
		"matched":        res.Matched,
		"failed_sources": failed,
	})
}

// intQuery parses an optional integer query parameter within [lo, hi]. hi <= 0
// means no upper bound.
func intQuery(c *gin.Context, name string, def, lo, hi int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	if v < lo || (hi > 0 && v > hi) {
		if hi > 0 {
			return 0, errors.New(name + " must be between " + strconv.Itoa(lo) + " and " + strconv.Itoa(hi))
		}
		return 0, errors.New(name + " must be at least " + strconv.Itoa(lo))
	}
	return v, nil
}

func modeQuery(raw string) (model.WorkMode, error) {
	m, err := model.ParseModeFilter(raw)
	if err != nil {
		return "", errors.New("mode must be one of Remote, Hybrid, Onsite, Not mentioned")
	}
	return m, nil
}
