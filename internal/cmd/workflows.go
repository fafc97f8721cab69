package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"go-template-trends-ui/internal/connectors/backend"
	"go-template-trends-ui/internal/dashboard"
)

func openUpload(path string) (*backend.Upload, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%s is a directory", path)
	}
	up := &backend.Upload{Filename: filepath.Base(path), Reader: f, Size: info.Size()}
	return up, func() { _ = f.Close() }, nil
}

func newAnalyzeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a spreadsheet without registering it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			up, closeFile, err := openUpload(args[0])
			if err != nil {
				return err
			}
			defer closeFile()

			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			p := s.dash.Analyze.Submit(cmd.Context(), up)
			fmt.Fprintln(cmd.OutOrStdout(), p.Text)
			return panelResult(p)
		},
	}
}

func newIngestCommand(opts *rootOptions) *cobra.Command {
	var (
		templateName string
		templateID   string
		force        bool
	)
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Register a spreadsheet as a template version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			up, closeFile, err := openUpload(args[0])
			if err != nil {
				return err
			}
			defer closeFile()

			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			p := s.dash.Ingest.Submit(cmd.Context(), dashboard.IngestSubmission{
				File:         up,
				TemplateName: templateName,
				TemplateID:   templateID,
				Force:        force,
			})
			fmt.Fprintln(cmd.OutOrStdout(), p.Text)
			return panelResult(p)
		},
	}
	cmd.Flags().StringVar(&templateName, "template-name", "", "template name to register under")
	cmd.Flags().StringVar(&templateID, "template-id", "", "existing template id to add a version to")
	cmd.Flags().BoolVar(&force, "force", false, "ingest even when an identical version exists")
	return cmd
}
