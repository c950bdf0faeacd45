package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/gilanghuda/weekly-report-backend/app/reporting"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type periodSummary struct {
	Key      string         `yaml:"key"`
	Reports  int            `yaml:"reports"`
	Statuses map[string]int `yaml:"statuses"`
}

type summaryOutput struct {
	Periods []periodSummary    `yaml:"periods"`
	Stats   models.ReportStats `yaml:"stats"`
}

func newSummarizeCmd() *cobra.Command {
	var (
		filePath string
		filter   reporting.Filter
		status   string
	)
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize an exported report list.",
		Long: `Reads a YAML list of reports, applies the same q/status/tags filters as the
API and prints the reports per week, oldest first, with overall stats.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := loadReports(filePath)
			if err != nil {
				return err
			}
			if status != "" {
				s := models.ReportStatus(status)
				if !s.Valid() {
					return fmt.Errorf("unknown status %q", status)
				}
				filter.Status = s
			}

			selected := reporting.FilterReports(reports, filter)
			groups := reporting.GroupByPeriod(selected)
			reporting.SortGroups(groups)

			out := summaryOutput{
				Periods: make([]periodSummary, 0, len(groups)),
				Stats:   reporting.Summarize(selected),
			}
			for _, g := range groups {
				ps := periodSummary{Key: g.Key, Reports: len(g.Reports), Statuses: map[string]int{}}
				for _, r := range g.Reports {
					ps.Statuses[string(r.Status)]++
				}
				out.Periods = append(out.Periods, ps)
			}

			data, err := yaml.Marshal(out)
			if err != nil {
				return err
			}
			cmd.Print(string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "reports.yml", "Path to the YAML report list.")
	cmd.Flags().StringVar(&filter.Text, "q", "", "Free-text search over the report sections.")
	cmd.Flags().StringVar(&filter.Tags, "tags", "", "Comma-separated tags; any match keeps a report.")
	cmd.Flags().StringVar(&status, "status", "", "Only reports with this status.")
	return cmd
}

func loadReports(path string) ([]models.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var reports []models.Report
	if err := yaml.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i := range reports {
		if reports[i].Tags != nil {
			reports[i].Tags = reporting.NormalizeTags(reports[i].Tags)
		}
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}
