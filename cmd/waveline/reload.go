package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload the daemon's configuration from disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := connect()
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.ReloadConfig(); err != nil {
			return fmt.Errorf("reload failed: %w", err)
		}
		fmt.Println("configuration reloaded")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reloadCmd)
}
