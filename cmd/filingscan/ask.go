package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askFiles []string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the chunks of a batch",
	Long: `Extracts --files, then returns the chunks that share the most terms with
the question, e.g. filingscan ask "related party" --files ar.pdf,notes.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := readFiles(askFiles)
		if err != nil {
			return err
		}
		a, err := buildApp(cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		ws := a.workspace()
		ws.Process(cmd.Context(), files)
		ans := ws.Ask(strings.Join(args, " "))

		fmt.Fprintln(cmd.OutOrStdout(), ans.Text)
		for _, h := range ans.Hits {
			cmd.PrintErrf("  source: %s #%d (score %d)\n", h.Chunk.Source, h.Chunk.Index, h.Score)
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringSliceVarP(&askFiles, "files", "f", nil, "files to index")
	_ = askCmd.MarkFlagRequired("files")
	rootCmd.AddCommand(askCmd)
}
