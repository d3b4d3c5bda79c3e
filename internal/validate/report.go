package validate

import "fmt"

// Severity groups issues into the three independent report lists.
type Severity string

const (
	// SeverityFatal issues break the item; it never enters the pool.
	SeverityFatal Severity = "fatal"

	// SeverityFormat issues are stylistic; they block only strict pipelines.
	SeverityFormat Severity = "format"

	// SeverityContent issues are advisory.
	SeverityContent Severity = "content"
)

// Issue is a single finding, tagged by the field it concerns.
type Issue struct {
	Check   string // Name of the check that raised it
	Field   string // Wire field name, e.g. "prefilled_positions"
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// Report collects the findings for one authored item.
type Report struct {
	ItemID  string
	Fatal   []Issue
	Format  []Issue
	Content []Issue
}

func (r *Report) add(sev Severity, check, field, format string, args ...any) {
	is := Issue{Check: check, Field: field, Message: fmt.Sprintf(format, args...)}
	switch sev {
	case SeverityFatal:
		r.Fatal = append(r.Fatal, is)
	case SeverityFormat:
		r.Format = append(r.Format, is)
	default:
		r.Content = append(r.Content, is)
	}
}

// Pass reports whether every list is empty.
func (r Report) Pass() bool {
	return len(r.Fatal) == 0 && len(r.Format) == 0 && len(r.Content) == 0
}

// Blocking reports whether the item must be kept out of the pool. Format
// issues block only in strict mode; content issues never block.
func (r Report) Blocking(strict bool) bool {
	if len(r.Fatal) > 0 {
		return true
	}
	return strict && len(r.Format) > 0
}

// Messages flattens the report into "severity field: message" strings.
func (r Report) Messages() []string {
	var out []string
	for _, group := range []struct {
		sev    Severity
		issues []Issue
	}{
		{SeverityFatal, r.Fatal},
		{SeverityFormat, r.Format},
		{SeverityContent, r.Content},
	} {
		for _, is := range group.issues {
			out = append(out, fmt.Sprintf("%s %s", group.sev, is))
		}
	}
	return out
}
