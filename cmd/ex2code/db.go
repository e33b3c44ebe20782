package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ex2code/internal/db"
)

var assumeYes bool

// dbCmd represents the base command for database operations.
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the local database.",
}

// resetCmd drops every stored artifact.
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every stored artifact.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
			fmt.Println("Database file does not exist. Nothing to do.")
			return nil
		}

		if !assumeYes {
			fmt.Printf("Are you sure you want to delete all artifacts in %s? [y/N]: ", cfg.DBPath)
			var response string
			fmt.Scanln(&response)
			if response != "y" && response != "Y" {
				fmt.Println("Reset cancelled.")
				return nil
			}
		}

		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		if err := db.Reset(cmd.Context(), database); err != nil {
			return err
		}
		fmt.Println("Database successfully reset.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(resetCmd)
	resetCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
}
