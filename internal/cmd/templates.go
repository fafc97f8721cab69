package cmd

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newTemplatesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List registered templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			if p := s.dash.Catalog.Refresh(cmd.Context()); p.Failed() {
				return panelResult(p)
			}
			items := s.dash.Catalog.Snapshot()
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No templates available.")
				return nil
			}

			table := tablewriter.NewWriter(out)
			table.Header("ID", "Name", "Version", "Created", "Age")
			for _, t := range items {
				age := ""
				if ts, ok := t.CreatedTime(); ok {
					age = humanize.Time(ts)
				}
				table.Append(
					strconv.FormatInt(t.TemplateID, 10),
					t.TemplateName,
					strconv.Itoa(t.TemplateVersion),
					t.CreatedAt,
					age,
				)
			}
			return table.Render()
		},
	}
}

func newTemplateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "template <id>",
		Short: "Show the stored detail of one template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid template id %q", args[0])
			}
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			p := s.dash.Catalog.ShowDetail(cmd.Context(), id)
			fmt.Fprintln(cmd.OutOrStdout(), p.Text)
			return panelResult(p)
		},
	}
}

func newMetricsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics <template-id>",
		Short: "List the metrics available for a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			if p := s.dash.Trends.SelectTemplate(cmd.Context(), args[0]); p.Failed() {
				return panelResult(p)
			}
			out := cmd.OutOrStdout()
			for _, o := range s.dash.Trends.View().MetricOptions {
				if o.Value == "" {
					continue
				}
				fmt.Fprintln(out, o.Value)
			}
			return nil
		},
	}
}
