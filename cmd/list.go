package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var listFormat string

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: "credentials",
	Short:   "List all credentials in the vault",
	Long: `List shows the non-secret fields of every entry: title, username, URL,
tags, and timestamps. Passwords and notes are never listed; retrieve them
per entry with 'rsafe get'.`,
	Example: `  # List as a table
  rsafe list

  # List as JSON
  rsafe list --format json

  # One title per line (for scripts)
  rsafe list --format simple`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().String("vault", "", "vault file path (overrides config)")
	listCmd.Flags().StringVar(&listFormat, "format", "table", "output format (table, json, simple)")
}

func runList(cmd *cobra.Command, args []string) error {
	handle, _, err := unlockFromStorage(cmd)
	if err != nil {
		return err
	}
	defer handle.Lock()

	entries, err := handle.ListEntriesMetadata()
	if err != nil {
		return err
	}

	switch listFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	case "simple":
		for _, e := range entries {
			fmt.Println(e.Title)
		}
		return nil
	case "table":
		// handled below
	default:
		return fmt.Errorf("unknown format %q (expected table, json, or simple)", listFormat)
	}

	if len(entries) == 0 {
		fmt.Println("Vault is empty. Add a credential with 'rsafe add <title>'.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Title", "Username", "URL", "Tags", "Updated"})

	var data [][]string
	for _, e := range entries {
		url := e.URL
		if url == "" {
			url = "-"
		}
		tags := strings.Join(e.Tags, ", ")
		if tags == "" {
			tags = "-"
		}
		data = append(data, []string{e.Title, e.Username, url, tags, formatRelativeTime(e.UpdatedAt)})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Printf("\n%d entries\n", len(entries))
	return nil
}
