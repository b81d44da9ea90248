package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var closeMenusCmd = &cobra.Command{
	Use:   "close-menus",
	Short: "Close every open menu",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := connect()
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.CloseAllMenus(); err != nil {
			return fmt.Errorf("close failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(closeMenusCmd)
}
