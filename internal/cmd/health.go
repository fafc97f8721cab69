package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the template API is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			badge := s.dash.Health.Probe(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), badge.Text)
			if badge.Warn {
				return fmt.Errorf("backend %s is not reachable", s.client.Endpoint())
			}
			return nil
		},
	}
}
