package model

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxSkills caps the number of skills an Analysis may carry.
const MaxSkills = 8

// Analysis sources.
const (
	SourceAI    = "ai"
	SourceRegex = "regex"
)

// NotMentioned is the text rendering of an absent field.
const NotMentioned = "not mentioned"

// Analysis is a structured summary of a job posting.
type Analysis struct {
	JobID      int64
	Skills     []string
	Years      *Years // nil when not mentioned
	WorkMode   WorkMode
	Salary     *Salary // nil when not mentioned
	Source     string  // SourceAI or SourceRegex
	AnalyzedAt time.Time
}

// Validate checks the invariants every stored analysis must hold.
func (a Analysis) Validate() error {
	if len(a.Skills) > MaxSkills {
		return fmt.Errorf("analysis has %d skills, max %d", len(a.Skills), MaxSkills)
	}
	if !a.WorkMode.Valid() {
		return fmt.Errorf("analysis has invalid work mode %q", a.WorkMode)
	}
	if a.Years != nil {
		if a.Years.Min < 0 {
			return fmt.Errorf("analysis has negative years %d", a.Years.Min)
		}
		if a.Years.Max != 0 && a.Years.Max < a.Years.Min {
			return fmt.Errorf("analysis years range %d-%d is inverted", a.Years.Min, a.Years.Max)
		}
	}
	if a.Salary != nil {
		if a.Salary.Min <= 0 {
			return fmt.Errorf("analysis salary %v is not positive", a.Salary.Min)
		}
		if a.Salary.Max != 0 && a.Salary.Max < a.Salary.Min {
			return fmt.Errorf("analysis salary range %v-%v is inverted", a.Salary.Min, a.Salary.Max)
		}
		if a.Salary.Unit != SalaryPerYear && a.Salary.Unit != SalaryPerHour {
			return fmt.Errorf("analysis salary unit %q is invalid", a.Salary.Unit)
		}
	}
	return nil
}

// YearsText renders the experience requirement, or "not mentioned".
func (a Analysis) YearsText() string {
	if a.Years == nil {
		return NotMentioned
	}
	return a.Years.String()
}

// SalaryText renders the salary, or "not mentioned".
func (a Analysis) SalaryText() string {
	if a.Salary == nil {
		return NotMentioned
	}
	return a.Salary.String()
}

// Qualifiers for a single-number experience requirement.
const (
	YearsExact   = ""
	YearsPlus    = "+"
	YearsAtLeast = "at least"
	YearsMinimum = "minimum"
	YearsOver    = "over"
)

// Years is a required-experience range. Max is zero for a single number.
type Years struct {
	Min       int
	Max       int
	Qualifier string
}

// IsRange reports whether y is a two-sided range like 3–5.
func (y Years) IsRange() bool { return y.Max > 0 }

func (y Years) String() string {
	if y.IsRange() {
		return fmt.Sprintf("%d–%d years", y.Min, y.Max)
	}
	switch y.Qualifier {
	case YearsPlus:
		return fmt.Sprintf("%d+ years", y.Min)
	case YearsAtLeast, YearsMinimum, YearsOver:
		return fmt.Sprintf("%s %d years", y.Qualifier, y.Min)
	default:
		return fmt.Sprintf("%d years", y.Min)
	}
}

// Salary units.
const (
	SalaryPerYear = "year"
	SalaryPerHour = "hour"
)

// Salary is a parsed pay range. Max is zero for a single figure.
type Salary struct {
	Min      float64
	Max      float64
	Currency string // "$", "CAD" or empty
	Unit     string // SalaryPerYear or SalaryPerHour
}

func (s Salary) String() string {
	core := FormatMoney(s.Min)
	if s.Max > 0 {
		core += " – " + FormatMoney(s.Max)
	}
	if s.Currency != "" {
		core = s.Currency + " " + core
	}
	return core + " per " + s.Unit
}

// FormatMoney renders a whole amount with thousands separators, e.g. 120000 -> "120,000".
func FormatMoney(v float64) string {
	digits := strconv.FormatInt(int64(v), 10)
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// DedupKey fingerprints a posting by title, company and city so the same role
// reposted under a new source id is stored once.
func DedupKey(title, company, city string) string {
	s := strings.ToLower(title) + "|" + strings.ToLower(company) + "|" + strings.ToLower(city)
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
