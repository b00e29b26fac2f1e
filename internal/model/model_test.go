package model

import (
	"testing"
	"time"
)

func TestParseWorkMode(t *testing.T) {
	tests := []struct {
		in   string
		want WorkMode
	}{
		{"remote", WorkModeRemote},
		{"Remote", WorkModeRemote},
		{" HYBRID ", WorkModeHybrid},
		{"on-site", WorkModeOnsite},
		{"onsite", WorkModeOnsite},
		{"unknown", WorkModeNotMentioned},
		{"", WorkModeNotMentioned},
		{"Not mentioned", WorkModeNotMentioned},
	}
	for _, tt := range tests {
		if got := ParseWorkMode(tt.in); got != tt.want {
			t.Errorf("ParseWorkMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseModeFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    WorkMode
		wantErr bool
	}{
		{"", "", false},
		{"remote", WorkModeRemote, false},
		{"on-site", WorkModeOnsite, false},
		{"not mentioned", WorkModeNotMentioned, false},
		{"Bogus", "", true},
		{"unknown", "", true},
	}
	for _, tt := range tests {
		got, err := ParseModeFilter(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseModeFilter(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseModeFilter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCityFromLocation(t *testing.T) {
	if got := CityFromLocation("Toronto, ON"); got != "Toronto" {
		t.Errorf("CityFromLocation = %q, want Toronto", got)
	}
	if got := CityFromLocation(""); got != "" {
		t.Errorf("CityFromLocation(empty) = %q, want empty", got)
	}
	if !IsAllCanada("Canada (All)") || !IsAllCanada("") || IsAllCanada("Ottawa, ON") {
		t.Error("IsAllCanada misclassified a selector")
	}
}

func TestYearsString(t *testing.T) {
	tests := []struct {
		y    Years
		want string
	}{
		{Years{Min: 3, Max: 5}, "3–5 years"},
		{Years{Min: 3, Qualifier: YearsPlus}, "3+ years"},
		{Years{Min: 2, Qualifier: YearsAtLeast}, "at least 2 years"},
		{Years{Min: 4}, "4 years"},
	}
	for _, tt := range tests {
		if got := tt.y.String(); got != tt.want {
			t.Errorf("Years%+v.String() = %q, want %q", tt.y, got, tt.want)
		}
	}
}

func TestSalaryString(t *testing.T) {
	s := Salary{Min: 80000, Max: 100000, Currency: "CAD", Unit: SalaryPerYear}
	if got := s.String(); got != "CAD 80,000 – 100,000 per year" {
		t.Errorf("Salary.String() = %q", got)
	}
	s = Salary{Min: 45, Unit: SalaryPerHour}
	if got := s.String(); got != "45 per hour" {
		t.Errorf("Salary.String() = %q", got)
	}
}

func TestFormatMoney(t *testing.T) {
	tests := map[float64]string{0: "0", 999: "999", 1000: "1,000", 120000: "120,000", 1234567: "1,234,567"}
	for in, want := range tests {
		if got := FormatMoney(in); got != want {
			t.Errorf("FormatMoney(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestDedupKey_CaseInsensitive(t *testing.T) {
	a := DedupKey("Software Engineer", "Shopify", "Toronto")
	b := DedupKey("software engineer", "SHOPIFY", "toronto")
	if a != b {
		t.Error("DedupKey should ignore case")
	}
	if a == DedupKey("Software Engineer", "Shopify", "Ottawa") {
		t.Error("DedupKey should differ by city")
	}
	if len(a) != 40 {
		t.Errorf("DedupKey length = %d, want 40 (sha1 hex)", len(a))
	}
}

func TestAnalysisValidate(t *testing.T) {
	valid := Analysis{
		Skills:   []string{"go"},
		Years:    &Years{Min: 3, Max: 5},
		WorkMode: WorkModeRemote,
		Salary:   &Salary{Min: 100000, Unit: SalaryPerYear},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	bad := []Analysis{
		{Skills: make([]string, MaxSkills+1), WorkMode: WorkModeRemote},
		{WorkMode: "Sometimes"},
		{WorkMode: WorkModeHybrid, Years: &Years{Min: -1}},
		{WorkMode: WorkModeHybrid, Years: &Years{Min: 5, Max: 3}},
		{WorkMode: WorkModeOnsite, Salary: &Salary{Min: 0, Unit: SalaryPerYear}},
		{WorkMode: WorkModeOnsite, Salary: &Salary{Min: 10, Unit: "week"}},
	}
	for i, a := range bad {
		if err := a.Validate(); err == nil {
			t.Errorf("case %d: Validate() = nil, want error", i)
		}
	}
}

func TestSearchCutoff(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if got := (Search{Days: 3}).Cutoff(now); !got.Equal(now.Add(-72 * time.Hour)) {
		t.Errorf("Cutoff(3 days) = %v", got)
	}
	if got := (Search{}).Cutoff(now); !got.IsZero() {
		t.Errorf("Cutoff(0 days) = %v, want zero time", got)
	}
}
