package cmd

import (
	"fmt"
	"time"

	"github.com/gilanghuda/weekly-report-backend/app/reporting"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type weekInfo struct {
	Key         string `yaml:"key"`
	Year        int    `yaml:"year"`
	Week        int    `yaml:"week"`
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
	WeeksInYear int    `yaml:"weeks_in_year"`
}

func newWeekCmd() *cobra.Command {
	var (
		date   string
		asYAML bool
	)
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Print the ISO report week of a date.",
		Long:  `Prints the report period (ISO week and week-year) containing the given date, today by default.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now()
			if date != "" {
				parsed, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", date)
				}
				day = parsed
			}

			p := reporting.WeekIdentityOf(day)
			start := reporting.WeekStart(p)
			info := weekInfo{
				Key:         p.Key(),
				Year:        p.Year,
				Week:        p.Week,
				Start:       start.Format("2006-01-02"),
				End:         start.AddDate(0, 0, 6).Format("2006-01-02"),
				WeeksInYear: reporting.WeeksInYear(p.Year),
			}

			if asYAML {
				out, err := yaml.Marshal(info)
				if err != nil {
					return err
				}
				cmd.Print(string(out))
				return nil
			}
			cmd.Printf("%s (%s to %s)\n", info.Key, info.Start, info.End)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD), defaults to today.")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print as YAML.")
	return cmd
}
