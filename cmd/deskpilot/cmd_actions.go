package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"deskpilot/internal/registry"
)

var actionsCategory string

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "Print the action library as JSON",
	Long: `Prints the machine-readable description of every registered action:
parameters, defaults, return fields, and examples. This is the contract
the planner's prompt is built from.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r := registry.New()
		registry.RegisterAll(r)

		library := r.Describe()
		if actionsCategory != "" {
			filtered := make(map[string]registry.Description)
			for name, desc := range library {
				if desc.Category == actionsCategory {
					filtered[name] = desc
				}
			}
			library = filtered
		}

		data, err := json.MarshalIndent(library, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	actionsCmd.Flags().StringVar(&actionsCategory, "category", "", "filter by category")
}
