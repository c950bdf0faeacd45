package reporting

import (
	"sort"

	"github.com/gilanghuda/weekly-report-backend/app/models"
)

type Group struct {
	Key     string          `json:"key" yaml:"key"`
	Period  models.Period   `json:"period" yaml:"period"`
	Reports []models.Report `json:"reports" yaml:"reports"`
}

// GroupByPeriod buckets reports by period key. Groups appear in order of
// first appearance and reports keep their input order within a group.
func GroupByPeriod(reports []models.Report) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, r := range reports {
		p := r.Period()
		key := p.Key()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key, Period: p})
		}
		groups[i].Reports = append(groups[i].Reports, r)
	}
	return groups
}

// SortGroups orders groups chronologically, oldest first. The sort is stable.
func SortGroups(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Period.Before(groups[j].Period)
	})
}
