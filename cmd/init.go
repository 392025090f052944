package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paperchat/paperchat/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RunWizard()
		if err != nil {
			return err
		}
		fmt.Printf("\nConfiguration saved. Provider: %s, model: %s\n", cfg.Provider, cfg.Model)
		fmt.Println("Start with `paperchat chat \"your topic\"`")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
