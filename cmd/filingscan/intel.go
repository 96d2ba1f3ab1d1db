package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var intelJSON bool

var intelCmd = &cobra.Command{
	Use:   "intel",
	Short: "Fetch regulator feeds once and print items ranked by risk",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := buildApp(cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		items := a.refresher.Refresh(cmd.Context())
		if intelJSON {
			data, err := json.MarshalIndent(items, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal items: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sources configured.")
			return nil
		}
		for _, it := range items {
			mark := ""
			if it.Placeholder {
				mark = " (unavailable)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%d] %-6s %s%s\n", it.Risk, it.Source, it.Title, mark)
		}
		return nil
	},
}

func init() {
	intelCmd.Flags().BoolVar(&intelJSON, "json", false, "output items as JSON")
	rootCmd.AddCommand(intelCmd)
}
