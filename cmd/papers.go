package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var papersCmd = &cobra.Command{
	Use:   "papers",
	Short: "List the papers in the indexed corpus",
	RunE:  runPapers,
}

func init() {
	rootCmd.AddCommand(papersCmd)
}

func runPapers(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	catalog, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	defer catalog.Close()

	papers, err := catalog.ListPapers(ctx)
	if err != nil {
		return err
	}
	if len(papers) == 0 {
		fmt.Println("No papers indexed yet. Run `paperchat build <topic>` first.")
		return nil
	}

	for _, p := range papers {
		fmt.Printf("%s\n", p.Title)
		fmt.Printf("  id: %s\n", p.ID)
		if len(p.Authors) > 0 {
			fmt.Printf("  authors: %s\n", strings.Join(p.Authors, ", "))
		}
		if !p.Published.IsZero() {
			fmt.Printf("  published: %s\n", p.Published.Format("2006-01-02"))
		}
		if p.Topic != "" {
			fmt.Printf("  topic: %s\n", p.Topic)
		}
		if verbose && p.Summary != "" {
			fmt.Printf("  summary: %s\n", strings.ReplaceAll(p.Summary, "\n", "\n    "))
		}
		fmt.Println()
	}
	return nil
}
