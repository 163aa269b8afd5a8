package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages",
	RunE:  runLanguages,
}

func init() {
	languagesCmd.Flags().Bool("json", false, "Print descriptors as JSON")
	rootCmd.AddCommand(languagesCmd)
}

func runLanguages(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	registry := defaultRegistry(cfg)

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(registry.All())
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tRUNNER\tEXT")
	for _, d := range registry.All() {
		fmt.Fprintf(w, "%s\t%s\t%s\t.%s\n", d.ID, d.DisplayName, d.Runner, d.Extension)
	}
	return w.Flush()
}
