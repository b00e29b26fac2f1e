package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amishk599/canjobs/internal/model"
)

func TestLeverAdapter_FetchJobs_Success(t *testing.T) {
	payload := `[
		{
			"id": "ff7ef527-b0d3-4c44-836a-8d6b58ac321e",
			"text": "Software Engineer",
			"description": "<div>Full HTML description</div>",
			"descriptionPlain": "Plain text job description",
			"categories": {
				"team": "Engineering",
				"location": "San Francisco, CA",
				"commitment": "Full-time",
				"allLocations": ["San Francisco, CA", "Toronto, ON"]
			},
			"createdAt": 1773043200000,
			"workplaceType": "hybrid",
			"hostedUrl": "https://jobs.lever.co/acme/ff7ef527-b0d3-4c44-836a-8d6b58ac321e"
		},
		{
			"id": "a1b2c3d4-e5f6-7890-abcd-ef1234567890",
			"text": "Backend Engineer",
			"description": "<div>Backend role, <b>fully remote</b></div>",
			"categories": {
				"team": "Engineering",
				"location": "Canada",
				"allLocations": []
			},
			"createdAt": 1773043200000,
			"workplaceType": "unspecified",
			"hostedUrl": "https://jobs.lever.co/acme/a1b2c3d4-e5f6-7890-abcd-ef1234567890"
		},
		{
			"id": "us-only",
			"text": "US Engineer",
			"categories": {"location": "New York, NY"},
			"createdAt": 1773043200000,
			"hostedUrl": "https://jobs.lever.co/acme/us-only"
		}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v0/postings/acme" || r.URL.Query().Get("mode") != "json" {
			t.Errorf("unexpected request: %s", r.URL)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	adapter := newLeverTestAdapter(srv, "acme", "Acme Corp")

	jobs, err := adapter.FetchJobs(context.Background(), model.Search{Days: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	j := jobs[0]
	if j.SourceJobID != "ff7ef527-b0d3-4c44-836a-8d6b58ac321e" {
		t.Errorf("unexpected id %s", j.SourceJobID)
	}
	if j.Company != "Acme Corp" || j.Title != "Software Engineer" || j.Source != "lever" {
		t.Errorf("unexpected job %+v", j)
	}
	if j.Location != "San Francisco, CA; Toronto, ON" {
		t.Errorf("expected joined locations, got %s", j.Location)
	}
	if j.City != "Toronto" {
		t.Errorf("expected city of the Canadian location, got %s", j.City)
	}
	if j.Description != "Plain text job description" {
		t.Errorf("expected plain description, got %q", j.Description)
	}
	if j.WorkMode != model.WorkModeHybrid {
		t.Errorf("expected workplaceType hybrid, got %s", j.WorkMode)
	}
	expected := time.UnixMilli(1773043200000).UTC()
	if j.PostedAt == nil || !j.PostedAt.Equal(expected) {
		t.Errorf("expected PostedAt %v, got %v", expected, j.PostedAt)
	}

	j2 := jobs[1]
	if j2.Description != "Backend role, fully remote" {
		t.Errorf("expected description from HTML, got %q", j2.Description)
	}
	if j2.WorkMode != model.WorkModeRemote {
		t.Errorf("expected work mode from description, got %s", j2.WorkMode)
	}
	if j2.City != "Canada" {
		t.Errorf("expected city Canada, got %s", j2.City)
	}
}

func TestLeverAdapter_FetchJobs_DropsOldPostings(t *testing.T) {
	payload := `[
		{"id": "old", "text": "Old", "categories": {"location": "Toronto, ON"}, "createdAt": 1767225600000},
		{"id": "new", "text": "New", "categories": {"location": "Toronto, ON"}, "createdAt": 1773043200000}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	adapter := newLeverTestAdapter(srv, "acme", "Acme Corp")
	jobs, err := adapter.FetchJobs(context.Background(), model.Search{Days: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].SourceJobID != "new" {
		t.Errorf("jobs = %+v, want only new", jobs)
	}
}

func TestLeverAdapter_FetchJobs_EmptyBoard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	adapter := newLeverTestAdapter(srv, "empty-co", "Empty Co")

	jobs, err := adapter.FetchJobs(context.Background(), model.Search{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected 0 jobs, got %d", len(jobs))
	}
}

func TestLeverAdapter_FetchJobs_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{not valid json`))
	}))
	defer srv.Close()

	adapter := newLeverTestAdapter(srv, "bad-co", "Bad Co")

	_, err := adapter.FetchJobs(context.Background(), model.Search{})
	if err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}

func TestLeverAdapter_FetchJobs_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	adapter := newLeverTestAdapter(srv, "fail-co", "Fail Co")

	_, err := adapter.FetchJobs(context.Background(), model.Search{})
	if err == nil {
		t.Fatal("expected error for HTTP 500, got nil")
	}
}

// --- helpers ---

// newLeverTestAdapter creates a LeverAdapter wired to a test server.
func newLeverTestAdapter(srv *httptest.Server, slug, company string) *LeverAdapter {
	a := NewLeverAdapter(slug, company, testCities, redirectClient(srv))
	a.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return a
}
