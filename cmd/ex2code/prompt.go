package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ex2code/internal/specfile"
)

var promptCmd = &cobra.Command{
	Use:   "prompt <file>",
	Short: "Print the prompts for every spec in a document.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := specfile.Load(args[0])
		if err != nil {
			return err
		}
		specs, err := doc.Specs()
		if err != nil {
			return err
		}
		for i, s := range specs {
			p, err := s.Prompt()
			if err != nil {
				return err
			}
			if i > 0 {
				fmt.Println()
			}
			fmt.Printf("### %s %s\n\n%s", s.Kind(), s.Name(), p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promptCmd)
}
