package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go-template-trends-ui/internal/dashboard"
)

func newTrendCommand(opts *rootOptions) *cobra.Command {
	var (
		req     dashboard.TrendRequest
		svgPath string
	)
	cmd := &cobra.Command{
		Use:   "trend <template-id>",
		Short: "Fetch the series of one metric",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			req.TemplateID = args[0]
			p := s.dash.Trends.Query(cmd.Context(), req)
			fmt.Fprintln(cmd.OutOrStdout(), p.Text)
			if err := panelResult(p); err != nil {
				return err
			}

			if svgPath == "" {
				return nil
			}
			view := s.dash.Trends.View()
			if view.Chart == nil {
				return nil
			}
			return os.WriteFile(svgPath, []byte(view.Chart.SVG()), 0o644)
		},
	}
	cmd.Flags().StringVar(&req.Metric, "metric", "", "metric name (required)")
	cmd.Flags().StringVar(&req.SheetName, "sheet", "", "restrict to one sheet")
	cmd.Flags().StringVar(&req.StartDate, "start", "", "start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&req.EndDate, "end", "", "end date, YYYY-MM-DD")
	cmd.Flags().StringVar(&svgPath, "svg", "", "write the chart to this file")
	return cmd
}
