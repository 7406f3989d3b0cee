package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/UnknownOlympus/roster/internal/client/backend"
	"github.com/UnknownOlympus/roster/internal/config"
	"github.com/UnknownOlympus/roster/internal/metrics"
	"github.com/UnknownOlympus/roster/internal/report"
	"github.com/UnknownOlympus/roster/internal/roster"
	"github.com/UnknownOlympus/roster/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const reportFileMode = 0o600

var errMissingCredentials = errors.New("--username and --password (or ROSTER_USERNAME and ROSTER_PASSWORD) are required")

func newExportCmd() *cobra.Command {
	var (
		username string
		password string
		query    string
		sortBy   string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the employee list to an xlsx workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if username == "" || password == "" {
				username, password = os.Getenv("ROSTER_USERNAME"), os.Getenv("ROSTER_PASSWORD")
			}
			if username == "" || password == "" {
				return errMissingCredentials
			}

			cfg := config.MustLoad()
			logger := setupLogger(cfg.Env)
			appMetrics := metrics.NewMetrics(prometheus.NewRegistry())

			client, err := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout, appMetrics)
			if err != nil {
				return err
			}

			token, err := client.Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("failed to log in: %w", err)
			}
			sess, err := session.New(token)
			if err != nil {
				return fmt.Errorf("failed to start session: %w", err)
			}

			view := roster.NewView(client.WithSession(sess), logger)
			if err = view.Load(cmd.Context()); err != nil {
				return err
			}
			view.SetQuery(query)
			view.SetSort(roster.ParseSortOption(sortBy))

			rows := view.Rows()
			start := time.Now()
			buf, err := report.GenerateExcelReport(report.RowsFromEmployees(rows))
			appMetrics.ReportGeneration.WithLabelValues("cli").Observe(time.Since(start).Seconds())
			if err != nil {
				return err
			}

			if output == "" {
				output = "employees-" + time.Now().Format("20060102") + ".xlsx"
			}
			if err = os.WriteFile(output, buf.Bytes(), reportFileMode); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d employees to %s\n", len(rows), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "backend username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "backend password")
	cmd.Flags().StringVarP(&query, "query", "q", "", "search query applied before export")
	cmd.Flags().StringVarP(&sortBy, "sort", "s", "none", "sort option, e.g. name-asc or date-desc")
	cmd.Flags().StringVarP(&output, "out", "o", "", "output file, defaults to employees-YYYYMMDD.xlsx")

	return cmd
}
