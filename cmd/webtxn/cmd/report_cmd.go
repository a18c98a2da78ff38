package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sd2k/webtxn/recorder"
)

var (
	reportDB     string
	reportName   string
	reportFailed bool
	reportSince  time.Duration
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "List transactions recorded in a local trace database.",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runReport()
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportDB, "db", "",
		"path to the trace database")
	reportCmd.Flags().StringVar(&reportName, "name", "",
		"only show transactions with this name")
	reportCmd.Flags().BoolVar(&reportFailed, "failed", false,
		"only show transactions that carry an error")
	reportCmd.Flags().DurationVar(&reportSince, "since", 0,
		"only show transactions started within this duration")
	_ = reportCmd.MarkFlagRequired("db")
	rootCmd.AddCommand(reportCmd)
}

func runReport() error {
	r := recorder.NewSQLiteReader(reportDB)
	if err := r.Init(); err != nil {
		return err
	}

	query := recorder.Query{
		Name:       reportName,
		FailedOnly: reportFailed,
	}
	if reportSince > 0 {
		now := float64(time.Now().UnixNano()) / 1e9
		query.EnableTimeRange = true
		query.StartTime = now - reportSince.Seconds()
		query.EndTime = now
	}

	txns, err := r.ListTransactions(query)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDURATION\tERRORS")

	for _, t := range txns {
		duration := time.Duration(
			(t.EndTime - t.StartTime) * float64(time.Second))

		errText := ""
		if len(t.Errors) > 0 {
			errText = t.Errors[0].Message
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			t.ID, t.Name, duration, errText)
	}

	return w.Flush()
}
