package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/paperchat/paperchat/internal/arxiv"
)

var chatCmd = &cobra.Command{
	Use:   "chat [topic]",
	Short: "Build a corpus for a topic and chat about it interactively",
	Long: `Fetches and indexes papers for the topic, then starts an interactive
question-answering loop over them. Type "exit" to end the session.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
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

	fmt.Println("\nPlease wait, this might take a few minutes")
	fmt.Println(strings.Repeat("-", 50))

	result, err := sess.buildCorpus(ctx, topic, catalog)
	if errors.Is(err, arxiv.ErrNoPapersFound) {
		fmt.Println("> No papers found. Retry using a different search term.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println(strings.Repeat("-", 50))
	fmt.Println("Papers I have knowledge on:")
	for _, doc := range result.Registered {
		fmt.Printf("> %s\n", doc.Title)
	}
	fmt.Println(strings.Repeat("-", 50))
	fmt.Println("> Type 'exit' to close the chat <")
	fmt.Println(strings.Repeat("-", 50))

	sess.agent.Reset()

	dbSession, err := catalog.CreateSession(ctx, "cli")
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("User: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" {
			break
		}

		answer, err := sess.agent.Chat(ctx, input)
		if err != nil {
			// The turn failed; the session remains usable.
			fmt.Printf("Error: %v\n", err)
			continue
		}

		if err := catalog.AppendMessage(ctx, dbSession.ID, "user", input); err != nil && verbose {
			fmt.Fprintf(os.Stderr, "record message: %v\n", err)
		}
		if err := catalog.AppendMessage(ctx, dbSession.ID, "assistant", answer); err != nil && verbose {
			fmt.Fprintf(os.Stderr, "record message: %v\n", err)
		}

		fmt.Println(strings.Repeat("*", 50))
		fmt.Printf("Agent: %s\n", answer)
		fmt.Println(strings.Repeat("*", 50))
	}
	return scanner.Err()
}
