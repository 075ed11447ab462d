package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <program.json>",
	Short: "Parse and validate a program file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime(cmd.Context(), false)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read program: %w", err)
		}

		prog, result, parseErr := rt.validator.Parse(data)
		fmt.Println(renderValidation(args[0], result))
		if parseErr != nil {
			return fmt.Errorf("program is invalid")
		}

		fmt.Printf("%d action(s), %d macro(s)\n", len(prog.Actions), len(prog.Macros))
		return nil
	},
}
