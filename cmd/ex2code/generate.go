package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ex2code/internal/runner"
	"ex2code/internal/specfile"
)

var (
	outDir      string
	concurrency int
	noStore     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <file>",
	Short: "Generate and bind code for every spec in a document.",
	Long: `Renders each spec, asks the configured provider for the code and binds the
answer. Every outcome is stored in the local database; bound sources are
written to --out when given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := specfile.Load(args[0])
		if err != nil {
			return err
		}
		specs, err := doc.Specs()
		if err != nil {
			return err
		}
		if len(specs) == 0 {
			fmt.Println("No specs found. Nothing to do.")
			return nil
		}

		provider, err := newProvider()
		if err != nil {
			return err
		}
		opts := runner.Options{
			Client:      provider,
			Binder:      newBinder(),
			OutDir:      outDir,
			Concurrency: concurrency,
		}
		if !noStore {
			database, err := openDB()
			if err != nil {
				return err
			}
			defer database.Close()
			opts.DB = database
		}

		fmt.Printf("Generating %d artifacts with %s...\n", len(specs), cfg.Provider)
		recs, err := runner.Run(cmd.Context(), specs, opts)
		if err != nil {
			return err
		}

		failed := 0
		for _, r := range recs {
			if r.Error != "" {
				failed++
				fmt.Printf("  %-8s %-20s %s: %s\n", r.Kind, r.Name, r.State, r.Error)
				continue
			}
			fmt.Printf("  %-8s %-20s %s %s\n", r.Kind, r.Name, r.State, r.ID)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d generations failed", failed, len(recs))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory to write bound sources to")
	generateCmd.Flags().IntVarP(&concurrency, "concurrency", "c", runner.DefaultConcurrency, "Number of generations to run in parallel")
	generateCmd.Flags().BoolVar(&noStore, "no-store", false, "Do not record results in the database")
}
