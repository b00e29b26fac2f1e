package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/canjobs/internal/extract"
	"github.com/amishk599/canjobs/internal/model"
)

const adzunaBaseURL = "https://api.adzuna.com/v1/api/jobs/ca/search/1"

// SourceAdzuna is the source name stored on Adzuna jobs.
const SourceAdzuna = "adzuna"

// adzunaID accepts ids encoded as either JSON strings or numbers.
type adzunaID string

func (id *adzunaID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = adzunaID(s)
		return nil
	}
	*id = adzunaID(b)
	return nil
}

// adzunaJob represents a single result in the Adzuna search response.
type adzunaJob struct {
	ID          adzunaID        `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	RedirectURL string          `json:"redirect_url"`
	Created     json.RawMessage `json:"created"`
	SalaryMin   float64         `json:"salary_min"`
	SalaryMax   float64         `json:"salary_max"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
}

type adzunaResponse struct {
	Results []adzunaJob `json:"results"`
}

// AdzunaAdapter searches the Adzuna Canada API for one job title.
type AdzunaAdapter struct {
	appID          string
	appKey         string
	title          string
	resultsPerPage int
	baseURL        string
	client         *http.Client
	now            func() time.Time
}

// NewAdzunaAdapter creates an adapter that searches Adzuna for title.
func NewAdzunaAdapter(appID, appKey, title string, resultsPerPage int, client *http.Client) *AdzunaAdapter {
	if resultsPerPage <= 0 {
		resultsPerPage = 50
	}
	return &AdzunaAdapter{
		appID:          appID,
		appKey:         appKey,
		title:          title,
		resultsPerPage: resultsPerPage,
		baseURL:        adzunaBaseURL,
		client:         client,
		now:            time.Now,
	}
}

// Title returns the search term this adapter queries.
func (a *AdzunaAdapter) Title() string { return a.title }

// FetchJobs runs one search, newest first, and drops repeated ids and postings
// created before the search window.
func (a *AdzunaAdapter) FetchJobs(ctx context.Context, search model.Search) ([]model.Job, error) {
	params := url.Values{}
	params.Set("app_id", a.appID)
	params.Set("app_key", a.appKey)
	params.Set("what", a.title)
	params.Set("results_per_page", strconv.Itoa(a.resultsPerPage))
	params.Set("sort_by", "date")
	params.Set("content-type", "application/json")
	if !model.IsAllCanada(search.City) {
		params.Set("where", search.City)
	}

	var resp adzunaResponse
	label := fmt.Sprintf("adzuna search for %q", a.title)
	if err := getJSON(ctx, a.client, a.baseURL+"?"+params.Encode(), label, &resp); err != nil {
		return nil, err
	}

	cutoff := search.Cutoff(a.now())
	seen := make(map[string]bool, len(resp.Results))
	jobs := make([]model.Job, 0, len(resp.Results))
	for _, aj := range resp.Results {
		id := string(aj.ID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		created := parseAdzunaCreated(aj.Created)
		if created != nil && !cutoff.IsZero() && created.Before(cutoff) {
			continue
		}

		description := extractText(aj.Description)
		job := model.Job{
			Source:      SourceAdzuna,
			SourceJobID: id,
			Title:       extractText(aj.Title),
			Company:     strings.TrimSpace(aj.Company.DisplayName),
			Location:    strings.TrimSpace(aj.Location.DisplayName),
			Country:     model.CountryCA,
			URL:         aj.RedirectURL,
			Description: description,
			PostedAt:    created,
			WorkMode:    extract.WorkMode(description),
			Currency:    "CAD",
		}
		job.City = model.CityFromLocation(job.Location)
		if aj.SalaryMin > 0 {
			v := aj.SalaryMin
			job.SalaryMin = &v
		}
		if aj.SalaryMax > 0 {
			v := aj.SalaryMax
			job.SalaryMax = &v
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

// parseAdzunaCreated accepts an RFC 3339 string or unix seconds (as a number
// or a numeric string). Anything else yields nil.
func parseAdzunaCreated(raw json.RawMessage) *time.Time {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil
		}
		t := time.Unix(int64(n), 0).UTC()
		return &t
	}
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		t := time.Unix(n, 0).UTC()
		return &t
	}
	return nil
}
