package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"auditdesk/internal/api"
	"auditdesk/internal/ipc"
	"auditdesk/internal/report"
	"auditdesk/internal/textutil"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var summaryPath string
	var outPath string
	var viaDaemon bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render an audit summary to a one-page PDF",
		Long: `Render a JSON audit summary to a single-page PDF.

Relative --out paths are placed under paths.report_dir. Without --out the
file is named after the report title and the current time. Pass --summary -
to read the summary from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := strings.TrimSpace(outPath)
			if dest == "" {
				dest = textutil.ReportFileName(ctx.reportTitle(), time.Now())
			}
			summary, err := loadSummary(cmd.InOrStdin(), summaryPath)
			if err != nil {
				return err
			}
			req := api.ReportRequest{Path: dest, Payload: summary}

			var resp api.ReportResponse
			if viaDaemon {
				err = ctx.withClient(func(client *ipc.Client) error {
					out, callErr := client.GeneratePDFReport(req)
					if callErr != nil {
						return callErr
					}
					resp = *out
					return nil
				})
			} else {
				var svc *api.Service
				svc, err = api.NewService(ctx.configValue(), ctx.cliLogger())
				if err == nil {
					resp, err = svc.GenerateReport(cliContext(cmd), req)
				}
			}
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Report written to %s\n", resp.Path)
			if resp.RowsDropped > 0 {
				fmt.Fprintf(out, "%d event rows shown, %d omitted to fit the page\n", resp.RowsShown, resp.RowsDropped)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&summaryPath, "summary", "s", "-", "Summary JSON file, or - for stdin")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Destination PDF path (default <title>-<time>.pdf)")
	cmd.Flags().BoolVar(&viaDaemon, "via-daemon", false, "Render through the running daemon")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the response as JSON")

	cmd.AddCommand(newReportPreviewCommand(ctx))
	return cmd
}

func newReportPreviewCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preview [summary.json]",
		Short: "Show where each line of the report would be placed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summaryPath := ""
			if len(args) == 1 {
				summaryPath = args[0]
			}
			summary, err := loadSummary(cmd.InOrStdin(), summaryPath)
			if err != nil {
				return err
			}
			page := report.Layout(summary, ctx.reportTitle(), time.Now())

			rows := make([][]string, 0, len(page.Blocks))
			for _, block := range page.Blocks {
				rows = append(rows, []string{
					formatMM(block.Y),
					formatMM(block.X),
					formatMM(block.Size),
					block.Text,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Y (mm)", "X (mm)", "Size", "Text"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "Rows shown: %d  Rows omitted: %d\n", page.RowsShown, page.RowsDropped)
			return nil
		},
	}
}

// loadSummary reads a summary from path, or from stdin when path is "-" or
// empty.
func loadSummary(stdin io.Reader, path string) (report.Summary, error) {
	path = strings.TrimSpace(path)
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return report.Summary{}, fmt.Errorf("read summary: %w", err)
	}
	return report.DecodeSummary(data)
}

// reportTitle is the configured report title, or the default one.
func (c *commandContext) reportTitle() string {
	if cfg := c.configValue(); cfg != nil && strings.TrimSpace(cfg.Report.Title) != "" {
		return cfg.Report.Title
	}
	return report.DefaultTitle
}

func formatMM(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
