// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trialcast/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previously featured trials",
	Long: `History lists the trials recorded by fetch, most recent first. These are
the articles the selection stage will skip on future runs.`,
	RunE: runHistoryList,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget all previously featured trials",
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.Flags().String("data-dir", "data", "directory holding the selection history")
	historyCmd.Flags().Bool("json", false, "output entries as JSON")

	historyClearCmd.Flags().String("data-dir", "data", "directory holding the selection history")

	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	asJSON, _ := cmd.Flags().GetBool("json")
	w := cmd.OutOrStdout()

	store, err := history.Open(dataDir)
	if err != nil {
		return fmt.Errorf("opening selection history: %w", err)
	}
	defer store.Close()

	entries, err := store.List(cmd.Context())
	if err != nil {
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling history: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "no trials featured yet")
		return nil
	}
	for _, e := range entries {
		id := e.DOI
		if id == "" {
			id = "PMID " + e.PMID
		}
		title := e.Title
		if e.Journal != "" {
			title += " (" + e.Journal + ")"
		}
		fmt.Fprintf(w, "%s  %s  %s\n", e.SelectedAt.Format("2006-01-02"), id, title)
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	store, err := history.Open(dataDir)
	if err != nil {
		return fmt.Errorf("opening selection history: %w", err)
	}
	defer store.Close()

	if err := store.Clear(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "selection history cleared")
	return nil
}
