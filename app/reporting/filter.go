package reporting

import (
	"strings"

	"github.com/gilanghuda/weekly-report-backend/app/models"
)

// Filter holds the list-view criteria. Zero values match everything.
type Filter struct {
	Text   string
	Status models.ReportStatus
	Tags   string
}

// ParseTags splits comma-separated input into trimmed, non-empty, distinct tags.
func ParseTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return NormalizeTags(strings.Split(s, ","))
}

// NormalizeTags trims tags, drops empties and duplicates, and keeps the
// first-seen order for display. The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// FilterReports keeps the reports matching every criterion of f, in input order.
func FilterReports(reports []models.Report, f Filter) []models.Report {
	text := strings.ToLower(f.Text)
	tags := ParseTags(f.Tags)

	out := make([]models.Report, 0, len(reports))
	for _, r := range reports {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if text != "" && !matchesText(r, text) {
			continue
		}
		if len(tags) > 0 && !intersects(r.Tags, tags) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesText(r models.Report, lowered string) bool {
	for _, field := range []string{r.Achievements, r.Challenges, r.NextWeekPlan} {
		if strings.Contains(strings.ToLower(field), lowered) {
			return true
		}
	}
	return false
}

func intersects(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}
