package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paperchat/paperchat/internal/agent"
	"github.com/paperchat/paperchat/internal/corpus"
	"github.com/paperchat/paperchat/internal/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve [topic]",
	Short: "Serve a browser chat interface over the corpus",
	Long: `Starts a web server with a chat interface. The corpus for the topic is
built in the background; queries are accepted once indexing completes.`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	topic := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.ListenAddr = serveAddr
	}

	catalog, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	defer catalog.Close()

	server := web.New(catalog)
	server.StartBuild(func() (*agent.Agent, []corpus.Document, error) {
		sess, err := newSession(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		result, err := sess.buildCorpus(ctx, topic, catalog)
		if err != nil {
			return nil, nil, err
		}
		return sess.agent, result.Registered, nil
	})

	fmt.Printf("Listening on http://%s\n", cfg.ListenAddr)
	return server.ListenAndServe(cfg.ListenAddr)
}
