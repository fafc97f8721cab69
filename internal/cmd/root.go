// Package cmd implements the dashboard command line.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-template-trends-ui/internal/config"
	"go-template-trends-ui/internal/connectors/activity"
	"go-template-trends-ui/internal/connectors/backend"
	"go-template-trends-ui/internal/dashboard"
	"go-template-trends-ui/internal/logging"
)

// Version is set at build time.
var Version = "dev"

type rootOptions struct {
	backendURL string
	logLevel   string
}

// NewRootCommand builds a fresh command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "dashboard",
		Short: "Template trends dashboard",
		Long: `Upload spreadsheet documents to the template API, register them as
versioned templates and chart the metrics extracted from each ingestion.

"dashboard serve" runs the web dashboard; the other commands drive the same
workflows from a terminal.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&opts.backendURL, "backend", "", "template API base URL (overrides APP_BACKEND_URL)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides APP_LOG_LEVEL)")

	root.AddCommand(
		newServeCommand(opts),
		newHealthCommand(opts),
		newTemplatesCommand(opts),
		newTemplateCommand(opts),
		newMetricsCommand(opts),
		newAnalyzeCommand(opts),
		newIngestCommand(opts),
		newTrendCommand(opts),
	)
	return root
}

// Execute runs the command line against ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (o *rootOptions) config() (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, err
	}
	if v := strings.TrimSpace(o.backendURL); v != "" {
		cfg.BackendURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(o.logLevel); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

// session is what a one-shot command needs: a dashboard over the backend
// plus the resources to release afterwards.
type session struct {
	cfg    config.Config
	logger *zap.Logger
	client *backend.Client
	dash   *dashboard.Dashboard
	store  activity.Store
}

func (o *rootOptions) open() (*session, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, "console")
	if err != nil {
		return nil, err
	}
	store, err := activity.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open activity store: %w", err)
	}

	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, logger.Named("backend"))
	dash := dashboard.New(client, dashboard.Options{
		Logger:        logger,
		Recorder:      store,
		HealthHistory: 1,
	})
	return &session{cfg: cfg, logger: logger, client: client, dash: dash, store: store}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.logger.Warn("close activity store", zap.Error(err))
	}
	_ = s.logger.Sync()
}

// panelResult turns a failed panel into a command error.
func panelResult(p dashboard.Panel) error {
	if p.Failed() {
		return fmt.Errorf("%s", p.Text)
	}
	return nil
}
