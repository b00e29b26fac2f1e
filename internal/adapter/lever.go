package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/canjobs/internal/extract"
	"github.com/amishk599/canjobs/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

// SourceLever is the source name stored on Lever jobs.
const SourceLever = "lever"

// leverCategories represents the categories object in a Lever job.
type leverCategories struct {
	Team         string   `json:"team"`
	Location     string   `json:"location"`
	Commitment   string   `json:"commitment"`
	AllLocations []string `json:"allLocations"`
}

// leverJob represents a single job in the Lever API response.
type leverJob struct {
	ID               string          `json:"id"`
	Text             string          `json:"text"`
	Description      string          `json:"description"`
	DescriptionPlain string          `json:"descriptionPlain"`
	Categories       leverCategories `json:"categories"`
	CreatedAt        int64           `json:"createdAt"`
	WorkplaceType    string          `json:"workplaceType"`
	HostedURL        string          `json:"hostedUrl"`
}

// LeverAdapter fetches a Canadian employer's jobs from the Lever public postings API.
type LeverAdapter struct {
	companySlug string
	companyName string
	cities      []string
	client      *http.Client
	now         func() time.Time
}

// NewLeverAdapter creates a new adapter for a Lever board. Jobs are kept only
// when their location is in Canada or one of cities.
func NewLeverAdapter(companySlug, companyName string, cities []string, client *http.Client) *LeverAdapter {
	return &LeverAdapter{
		companySlug: companySlug,
		companyName: companyName,
		cities:      cities,
		client:      client,
		now:         time.Now,
	}
}

// FetchJobs retrieves all jobs from the Lever board and normalizes the Canadian
// postings into the Job model.
func (a *LeverAdapter) FetchJobs(ctx context.Context, search model.Search) ([]model.Job, error) {
	url := fmt.Sprintf("%s/%s?mode=json", leverBaseURL, a.companySlug)

	var leverJobs []leverJob
	if err := getJSON(ctx, a.client, url, "lever fetch for "+a.companySlug, &leverJobs); err != nil {
		return nil, err
	}

	cutoff := search.Cutoff(a.now())
	jobs := make([]model.Job, 0, len(leverJobs))
	for _, lj := range leverJobs {
		// Prefer allLocations if available, fallback to location
		location := lj.Categories.Location
		if len(lj.Categories.AllLocations) > 0 {
			location = strings.Join(lj.Categories.AllLocations, "; ")
		}
		if !matchesSearch(location, search, a.cities) {
			continue
		}

		// createdAt is Unix milliseconds
		var postedAt *time.Time
		if lj.CreatedAt > 0 {
			t := time.UnixMilli(lj.CreatedAt).UTC()
			if !cutoff.IsZero() && t.Before(cutoff) {
				continue
			}
			postedAt = &t
		}

		description := strings.Join(strings.Fields(lj.DescriptionPlain), " ")
		if description == "" {
			description = extractText(lj.Description)
		}

		mode := model.ParseWorkMode(lj.WorkplaceType)
		if mode == model.WorkModeNotMentioned {
			mode = extract.WorkMode(description)
		}

		job := model.Job{
			Source:      SourceLever,
			SourceJobID: lj.ID,
			Title:       lj.Text,
			Company:     a.companyName,
			Location:    location,
			City:        leverCity(lj.Categories, a.cities),
			Country:     model.CountryCA,
			URL:         lj.HostedURL,
			Description: description,
			PostedAt:    postedAt,
			WorkMode:    mode,
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

// leverCity picks the city of the first Canadian location of a posting.
func leverCity(c leverCategories, cities []string) string {
	locations := c.AllLocations
	if len(locations) == 0 {
		locations = []string{c.Location}
	}
	for _, loc := range locations {
		if matchesSearch(loc, model.Search{}, cities) {
			return model.CityFromLocation(loc)
		}
	}
	return model.CityFromLocation(c.Location)
}
