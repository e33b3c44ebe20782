package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ex2code/internal/runner"
	"ex2code/internal/server"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API.",
	Long:  `Serves prompt rendering, generation and the artifact store over HTTP until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		provider, err := newProvider()
		if err != nil {
			return err
		}

		fmt.Printf("Starting server on port %d...\n", port)
		return server.StartServer(cmd.Context(), port, server.Options{
			DB:          database,
			Client:      provider,
			Binder:      newBinder(),
			Concurrency: runner.DefaultConcurrency,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to run the server on")
}
