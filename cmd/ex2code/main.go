package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ex2code/internal/ai"
	"ex2code/internal/config"
	"ex2code/internal/db"
	"ex2code/pkg/binder"
)

var (
	cfg     *config.Config
	trusted bool
)

var rootCmd = &cobra.Command{
	Use:   "ex2code",
	Short: "ex2code turns examples into working Go code.",
	Long: `Describe functions, types and packages by name, description and
input/output examples; ex2code renders them into prompts, asks a model for
the code and binds the answer into something you can call.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitConfig(); err != nil {
			return err
		}
		c, err := config.Load()
		if err != nil {
			return err
		}
		cfg = c
		setupLogging(cfg.LogLevel)
		cmd.SetContext(log.Logger.WithContext(cmd.Context()))
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func newProvider() (ai.Provider, error) {
	return ai.New(cfg.AI(), nil)
}

func newBinder() *binder.Binder {
	opts := cfg.Binder()
	if trusted {
		opts.Policy = binder.PolicyTrusted
	}
	return binder.New(opts)
}

func openDB() (*sql.DB, error) {
	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("could not initialize database: %w", err)
	}
	return database, nil
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("provider", "", "Generation backend: ollama, anthropic or openai")
	flags.String("model", "", "Model name (provider default if empty)")
	flags.String("base-url", "", "Provider base URL")
	flags.String("proxy", "", "HTTP proxy to use for network requests (e.g. http://127.0.0.1:7890)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&trusted, "trusted", false, "Give generated code the whole standard library (files, network, processes)")

	for key, name := range map[string]string{
		"provider":  "provider",
		"model":     "model",
		"base_url":  "base-url",
		"proxy":     "proxy",
		"log_level": "log-level",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func main() {
	Execute()
}
