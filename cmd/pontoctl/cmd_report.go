package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/espacohidro/pontocerto/internal/application/access"
	"github.com/espacohidro/pontocerto/internal/application/query"
	"github.com/espacohidro/pontocerto/internal/domain/attendance"
	"github.com/espacohidro/pontocerto/internal/infrastructure/report"
	"github.com/espacohidro/pontocerto/pkg/timeutil"
)

var (
	reportStart  string
	reportEnd    string
	reportOutput string
)

// reportCmd exports a timesheet workbook
var reportCmd = &cobra.Command{
	Use:   "report USER_ID",
	Short: "Export a user's timesheet as an Excel workbook",
	Long: `Export a user's timesheet as an Excel workbook.

--start and --end limit the range to local dates (YYYY-MM-DD). Without
--output the file is named Relatorio_<Name>_<date>.xlsx.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportStart, "start", "", "first day (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportEnd, "end", "", "last day (YYYY-MM-DD)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "output file")
}

func runReport(cmd *cobra.Command, args []string) error {
	for _, day := range []string{reportStart, reportEnd} {
		if day == "" {
			continue
		}
		if _, err := timeutil.ParseDay(day, nil); err != nil {
			return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", day)
		}
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ts, err := a.Queries.BuildTimesheet.Handle(cmd.Context(), query.LogsQuery{
		ActorID: access.System,
		UserID:  args[0],
		Filter: attendance.Filter{
			Start: reportStart,
			End:   reportEnd,
			Type:  attendance.TypeAll,
		},
	})
	if err != nil {
		return err
	}

	renderer := report.NewXLSXRenderer()
	var buf bytes.Buffer
	if err := renderer.Render(ts, &buf); err != nil {
		return fmt.Errorf("render timesheet: %w", err)
	}

	path := reportOutput
	if path == "" {
		path = renderer.FileName(ts)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write timesheet: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d log(s), %s worked, to %s\n",
		len(ts.Logs), ts.Hours.TotalFormatted, path)
	return nil
}
