package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/filingscan/chunk"
	"github.com/hazyhaar/filingscan/config"
	"github.com/hazyhaar/filingscan/docpipe"
	"github.com/hazyhaar/filingscan/ingest"
	"github.com/hazyhaar/filingscan/intel"
	"github.com/hazyhaar/filingscan/report"
	"github.com/hazyhaar/filingscan/rules"
	"github.com/hazyhaar/filingscan/server"
)

var (
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "filingscan",
	Short: "Financial filing extraction and regulatory scoring",
	Long: `filingscan extracts text from financial and regulatory filings (txt, csv,
json, pdf, scanned images), indexes it into chunks and evaluates the corpus
against a regulatory rule book: compliance status, descriptive analytics and
a preliminary escalate-or-monitor exam that also weighs regulator news.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c
		logger = newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c",
		envOr("FILINGSCAN_CONFIG", "filingscan.yaml"), "path to the YAML config file")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// app is the wired set of components for one command run.
type app struct {
	pipeline  *docpipe.Pipeline
	orch      *ingest.Orchestrator
	engine    *rules.Engine
	refresher *intel.Refresher
	archive   *report.SQLiteSink
	sink      report.Sink
}

func buildApp(c *config.Config, progress ingest.ProgressFunc) (*app, error) {
	pcfg := docpipe.Config{
		MaxFileSize: c.MaxFileSize,
		OCRLanguage: c.OCR.Language,
		PDF:         docpipe.NewPdfcpuExtractor(),
		Logger:      logger,
	}
	if c.OCR.Endpoint != "" {
		pcfg.OCR = docpipe.NewHTTPOCR(c.OCR.Endpoint, c.OCR.Timeout, logger)
	}
	pipe := docpipe.New(pcfg)

	book := rules.DefaultBook()
	if c.RuleBook != "" {
		b, err := rules.LoadBook(c.RuleBook)
		if err != nil {
			return nil, err
		}
		book = b
	}

	fetcher := intel.NewFeedFetcher(intel.FetcherConfig{
		Timeout:  c.Intel.Timeout,
		MaxItems: c.Intel.MaxItems,
		Logger:   logger,
	})

	a := &app{
		pipeline: pipe,
		orch: ingest.New(pipe, ingest.Config{
			Chunk:    chunk.Options{MaxChars: c.ChunkMaxChars},
			Progress: progress,
			Logger:   logger,
		}),
		engine: rules.New(rules.Config{Book: book, Logger: logger}),
		refresher: intel.NewRefresher(fetcher, intel.RefresherConfig{
			Sources:  c.Intel.Sources,
			Interval: c.Intel.Interval,
			Logger:   logger,
		}),
	}

	if c.Report.Dir != "" {
		if err := os.MkdirAll(c.Report.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("report dir: %w", err)
		}
		a.sink = report.JSONFileSink{Path: c.Report.Dir}
	}
	if c.Report.Archive != "" {
		arc, err := report.OpenArchive(c.Report.Archive, report.ArchiveConfig{Actor: c.Report.Actor, Logger: logger})
		if err != nil {
			return nil, err
		}
		a.archive = arc
	}
	return a, nil
}

func (a *app) workspace() *server.Workspace {
	return server.NewWorkspace(server.WorkspaceConfig{
		Pipeline:     a.pipeline,
		Orchestrator: a.orch,
		Engine:       a.engine,
		Refresher:    a.refresher,
		Sink:         a.sink,
		Archive:      a.archive,
		Logger:       logger,
	})
}

func (a *app) Close() {
	if a.archive != nil {
		a.archive.Close()
	}
}
