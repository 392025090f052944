package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paperchat/paperchat/internal/arxiv"
	"github.com/paperchat/paperchat/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [topic]",
	Short: "Expose the corpus to AI agents over the Model Context Protocol",
	Long: `Builds the corpus for the topic and serves MCP tools on stdio so other
AI agents can ask questions about the indexed papers. All progress output
goes to stderr; stdout is reserved for the protocol.`,
	Args: cobra.ExactArgs(1),
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	topic := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
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

	fmt.Fprintf(os.Stderr, "Building corpus for %q...\n", topic)
	result, err := sess.buildCorpus(ctx, topic, catalog)
	if errors.Is(err, arxiv.ErrNoPapersFound) {
		return fmt.Errorf("no papers found for %q, retry using a different search term", topic)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Corpus ready: %d papers indexed\n", len(result.Registered))

	mcpserver.Version = Version
	return mcpserver.NewServer(sess.agent, sess.builder).Serve()
}
