package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newPlayersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "players",
		Short: "List connected players",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result PlayersResult
			if err := client.Get("/admin/v1/players", &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newChatLogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chatlog",
		Short: "Show recent chat messages, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ChatLogResult
			if err := client.Get("/admin/v1/chat-log", &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newStrictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strict [on|off]",
		Short: "Show or set strict moderation mode",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result StrictModeResult

			if len(args) == 0 {
				if err := client.Get("/admin/v1/strict-mode", &result); err != nil {
					return err
				}
				NewOutput(cfg.Output).Print(result)
				return nil
			}

			enabled, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			if err := client.Put("/admin/v1/strict-mode", map[string]bool{"enabled": enabled}, &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	return cmd
}

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return strconv.ParseBool(s)
	}
}

func newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage registered player names",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "register <username> <password>",
		Short: "Reserve a player name behind a password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"username": args[0], "password": args[1]}
			if err := client.Post("/admin/v1/accounts", body, nil); err != nil {
				return err
			}
			NewOutput(cfg.Output).PrintMessage("Account registered: " + args[0])
			return nil
		},
	})

	return cmd
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult
			if err := client.Get("/admin/v1/health", &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
