package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/canjobs/internal/extract"
	"github.com/amishk599/canjobs/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// SourceGreenhouse is the source name stored on Greenhouse jobs.
const SourceGreenhouse = "greenhouse"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID             int64              `json:"id"`
	Title          string             `json:"title"`
	Location       greenhouseLocation `json:"location"`
	AbsoluteURL    string             `json:"absolute_url"`
	Content        string             `json:"content"`
	FirstPublished string             `json:"first_published"`
	UpdatedAt      string             `json:"updated_at"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseAdapter fetches a Canadian employer's jobs from the Greenhouse
// public boards API.
type GreenhouseAdapter struct {
	boardToken  string
	companyName string
	cities      []string
	client      *http.Client
	now         func() time.Time
}

// NewGreenhouseAdapter creates a new adapter for a Greenhouse board. Jobs are
// kept only when their location is in Canada or one of cities.
func NewGreenhouseAdapter(boardToken, companyName string, cities []string, client *http.Client) *GreenhouseAdapter {
	return &GreenhouseAdapter{
		boardToken:  boardToken,
		companyName: companyName,
		cities:      cities,
		client:      client,
		now:         time.Now,
	}
}

// FetchJobs retrieves the board with descriptions and normalizes the Canadian
// postings into the Job model.
func (a *GreenhouseAdapter) FetchJobs(ctx context.Context, search model.Search) ([]model.Job, error) {
	url := fmt.Sprintf("%s/%s/jobs?content=true", greenhouseBaseURL, a.boardToken)

	var ghResp greenhouseResponse
	if err := getJSON(ctx, a.client, url, "greenhouse fetch for "+a.boardToken, &ghResp); err != nil {
		return nil, err
	}

	cutoff := search.Cutoff(a.now())
	jobs := make([]model.Job, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		if !matchesSearch(gj.Location.Name, search, a.cities) {
			continue
		}

		posted := gj.FirstPublished
		if posted == "" {
			posted = gj.UpdatedAt
		}
		var postedAt *time.Time
		if t, err := time.Parse(time.RFC3339, posted); err == nil {
			if !cutoff.IsZero() && t.Before(cutoff) {
				continue
			}
			postedAt = &t
		}

		description := extractText(gj.Content)
		job := model.Job{
			Source:      SourceGreenhouse,
			SourceJobID: strconv.FormatInt(gj.ID, 10),
			Title:       gj.Title,
			Company:     a.companyName,
			Location:    gj.Location.Name,
			City:        model.CityFromLocation(gj.Location.Name),
			Country:     model.CountryCA,
			URL:         gj.AbsoluteURL,
			Description: description,
			PostedAt:    postedAt,
			WorkMode:    extract.WorkMode(description),
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}
