package reporting

import (
	"sort"

	"github.com/gilanghuda/weekly-report-backend/app/models"
)

const unknownDepartment = "Unknown"

// Summarize computes the stats payload in memory, mirroring the SQL behind
// GET /api/reports/stats. Department comes from the embedded owner summary.
func Summarize(reports []models.Report) models.ReportStats {
	stats := models.ReportStats{
		Weekly:      []models.WeeklyCount{},
		Departments: []models.DepartmentCount{},
	}

	for _, g := range GroupByPeriod(reports) {
		wc := models.WeeklyCount{Year: g.Period.Year, Week: g.Period.Week}
		for _, r := range g.Reports {
			wc.Total++
			if submitted(r) {
				wc.Submitted++
			}
		}
		stats.Weekly = append(stats.Weekly, wc)
	}
	sort.SliceStable(stats.Weekly, func(i, j int) bool {
		a, b := stats.Weekly[i], stats.Weekly[j]
		return models.Period{Year: a.Year, Week: a.Week}.Before(models.Period{Year: b.Year, Week: b.Week})
	})

	deptIndex := map[string]int{}
	for _, r := range reports {
		dept := unknownDepartment
		if r.User != nil && r.User.Department != "" {
			dept = r.User.Department
		}
		i, ok := deptIndex[dept]
		if !ok {
			i = len(stats.Departments)
			deptIndex[dept] = i
			stats.Departments = append(stats.Departments, models.DepartmentCount{Department: dept})
		}
		stats.Departments[i].Total++
		if submitted(r) {
			stats.Departments[i].Submitted++
		}

		stats.Overall.Total++
		if submitted(r) {
			stats.Overall.Submitted++
		}
	}
	sort.SliceStable(stats.Departments, func(i, j int) bool {
		return stats.Departments[i].Total > stats.Departments[j].Total
	})

	stats.Overall.CompletionRate = CompletionRate(stats.Overall.Submitted, stats.Overall.Total)
	return stats
}

// CompletionRate is submitted/total as a percentage, 0 for an empty set.
func CompletionRate(submitted, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(submitted) / float64(total) * 100
}

func submitted(r models.Report) bool {
	return r.Status != models.StatusDraft
}
