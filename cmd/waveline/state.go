package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var stateOpts struct {
	format string
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the daemon's output registry state",
	Long: `Print the running daemon's state: every known display, its surface
pairs and any open menu.`,
	RunE: runState,
}

func init() {
	stateCmd.Flags().StringVarP(&stateOpts.format, "format", "f", "json",
		"Output format (json or yaml)")
	rootCmd.AddCommand(stateCmd)
}

func runState(cmd *cobra.Command, args []string) error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer client.Close()

	state, err := client.GetState()
	if err != nil {
		return err
	}

	switch stateOpts.format {
	case "json":
		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(state)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
	default:
		return fmt.Errorf("unknown format %q, must be json or yaml", stateOpts.format)
	}
	return nil
}
