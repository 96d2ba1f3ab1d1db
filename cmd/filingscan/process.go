package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/filingscan/docpipe"
	"github.com/hazyhaar/filingscan/ingest"
	"github.com/hazyhaar/filingscan/report"
	"github.com/hazyhaar/filingscan/rules"
)

var (
	processWithIntel bool
	processOutput    string
)

var processCmd = &cobra.Command{
	Use:   "process <file>...",
	Short: "Extract a batch of filings and run every engine",
	Long: `Extracts each file in order, builds the chunk index, then runs compliance,
analytics and (with --intel) the intelligence refresh and preliminary exam.
The report is printed as JSON and written to the configured sinks.

A file that fails to extract is reported and the batch continues.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().BoolVar(&processWithIntel, "intel", false, "refresh regulator feeds and run the preliminary exam")
	processCmd.Flags().StringVarP(&processOutput, "output", "o", "", "also write the report JSON to this path")
	rootCmd.AddCommand(processCmd)
}

func readFiles(paths []string) ([]docpipe.File, error) {
	files := make([]docpipe.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, docpipe.File{
			Name:      filepath.Base(p),
			MediaType: mime.TypeByExtension(filepath.Ext(p)),
			Data:      data,
		})
	}
	return files, nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	files, err := readFiles(args)
	if err != nil {
		return err
	}

	progress := func(i, total int, d ingest.Document) {
		cmd.PrintErrf("[%d/%d] %s: %s\n", i+1, total, d.Name, d.State)
	}
	a, err := buildApp(cfg, progress)
	if err != nil {
		return err
	}
	defer a.Close()

	ws := a.workspace()
	ctx := cmd.Context()
	sess := ws.Process(ctx, files)
	cmd.PrintErrln(sess.Status.Message)

	if _, err := ws.Compliance(); err != nil && !errors.Is(err, rules.ErrNotReady) {
		return err
	}
	if _, err := ws.Analytics(); err != nil && !errors.Is(err, rules.ErrNotReady) {
		return err
	}
	if processWithIntel {
		if _, err := ws.RefreshIntelligence(ctx); err != nil {
			return err
		}
		if _, err := ws.Exam(); err != nil && !errors.Is(err, rules.ErrNotReady) {
			return err
		}
	}

	rep, err := ws.Report(ctx)
	if err != nil {
		return err
	}
	if processOutput != "" {
		if err := (report.JSONFileSink{Path: processOutput}).Write(ctx, rep); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
