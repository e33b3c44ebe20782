package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ex2code/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the configuration file.",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration.",
	Run: func(cmd *cobra.Command, args []string) {
		key := "(unset)"
		if cfg.APIKey != "" {
			key = "(set)"
		}
		fmt.Printf("provider:   %s\n", cfg.Provider)
		fmt.Printf("model:      %s\n", cfg.Model)
		fmt.Printf("base_url:   %s\n", cfg.BaseURL)
		fmt.Printf("api_key:    %s\n", key)
		fmt.Printf("proxy:      %s\n", cfg.Proxy)
		fmt.Printf("max_tokens: %d\n", cfg.MaxTokens)
		fmt.Printf("policy:     %s\n", cfg.Policy)
		fmt.Printf("allow:      %v\n", cfg.Allow)
		fmt.Printf("timeout:    %s\n", cfg.Timeout)
		fmt.Printf("db_path:    %s\n", cfg.DBPath)
		fmt.Printf("log_level:  %s\n", cfg.LogLevel)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Long:  "Keys: " + strings.Join(config.Keys(), ", "),
	Short: "Store a value in the configuration file.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Set(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("%s saved.\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configSetCmd)
}
