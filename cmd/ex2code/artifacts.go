package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ex2code/internal/db"
)

var (
	listKind  string
	listName  string
	listLimit int
)

var artifactsCmd = &cobra.Command{
	Use:     "artifacts",
	Aliases: []string{"a"},
	Short:   "Inspect stored artifacts.",
}

var artifactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored artifacts, newest first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		arts, err := db.ListArtifacts(cmd.Context(), database, db.ListOptions{Kind: listKind, Name: listName, Limit: listLimit})
		if err != nil {
			return err
		}
		if len(arts) == 0 {
			fmt.Println("No artifacts stored.")
			return nil
		}
		for _, a := range arts {
			fmt.Printf("%s  %-8s %-20s %-10s %s\n", a.ID, a.Kind, a.Name, a.State, a.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var artifactsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the prompt and completion of an artifact.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		a, err := db.GetArtifact(cmd.Context(), database, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("ID:          %s\n", a.ID)
		fmt.Printf("Kind:        %s\n", a.Kind)
		fmt.Printf("Name:        %s\n", a.Name)
		fmt.Printf("Description: %s\n", a.Description)
		fmt.Printf("State:       %s\n", a.State)
		if a.Error != "" {
			fmt.Printf("Error:       %s\n", a.Error)
		}
		fmt.Printf("\n--- prompt ---\n%s\n--- completion ---\n%s\n", a.Prompt, a.Completion)
		return nil
	},
}

var artifactsRmCmd = &cobra.Command{
	Use:   "rm <id>...",
	Short: "Delete stored artifacts.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		for _, id := range args {
			if err := db.DeleteArtifact(cmd.Context(), database, id); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(artifactsCmd)
	artifactsCmd.AddCommand(artifactsListCmd, artifactsShowCmd, artifactsRmCmd)
	artifactsListCmd.Flags().StringVar(&listKind, "kind", "", "Only list this kind (function, class, module)")
	artifactsListCmd.Flags().StringVar(&listName, "name", "", "Only list artifacts with this name")
	artifactsListCmd.Flags().IntVar(&listLimit, "limit", 0, "Limit the number of artifacts listed (0 for no limit)")
}
