package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paperchat/paperchat/internal/arxiv"
)

var buildCmd = &cobra.Command{
	Use:   "build [topic]",
	Short: "Fetch papers for a topic and build the corpus indices",
	Long: `Searches arXiv for the topic, downloads the top matching papers, and
builds the per-paper fact-lookup and summarization indices. Indices and
summaries are persisted, so rebuilding an already-indexed paper is a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().Int("max-papers", 0, "override the configured paper limit")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	topic := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if maxPapers, _ := cmd.Flags().GetInt("max-papers"); maxPapers > 0 {
		cfg.MaxPapers = maxPapers
	}

	sess, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}

	catalog, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	defer catalog.Close()

	fmt.Println("Please wait, this might take a few minutes")

	result, err := sess.buildCorpus(ctx, topic, catalog)
	if errors.Is(err, arxiv.ErrNoPapersFound) {
		fmt.Println("No papers found. Retry using a different search term.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nIndexed %d paper(s) for %q:\n", len(result.Registered), topic)
	for _, doc := range result.Registered {
		fmt.Printf("  > %s\n", doc.Title)
	}
	for _, failure := range result.Failed {
		fmt.Printf("  ! skipped %s: %v\n", failure.DocID, failure.Err)
	}
	return nil
}
