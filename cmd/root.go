package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "paperchat",
	Short: "Retrieval-augmented question answering over arXiv papers",
	Long: `Paperchat searches arXiv for a topic, downloads the matching papers,
builds a fact-lookup and summarization index per paper, and answers
questions by routing them to per-paper tools, a cross-paper comparison
tool, or a unified corpus tool.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".paperchat.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
