// Package cli implements plazactl, the operator CLI for the admin API
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "plazactl",
		Short: "Operator CLI for the plaza admin API",
		Long: `plazactl manages a running plaza server: banned words and IPs,
the drawing review queue, registered names, strict mode, and the chat log.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.LoadToken(); err != nil {
				return err
			}
			client = NewClient(cfg.ServerURL, cfg.Token)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Admin API URL (env: PLAZA_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Admin token (env: PLAZA_ADMIN_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "Token file path (env: PLAZA_TOKEN_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")

	rootCmd.AddCommand(newWordsCmd())
	rootCmd.AddCommand(newIPsCmd())
	rootCmd.AddCommand(newDrawingsCmd())
	rootCmd.AddCommand(newPlayersCmd())
	rootCmd.AddCommand(newChatLogCmd())
	rootCmd.AddCommand(newStrictCmd())
	rootCmd.AddCommand(newAccountsCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
