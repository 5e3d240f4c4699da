package cli

import (
	"github.com/spf13/cobra"
)

func newIPsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ips",
		Short: "Manage the banned IP list",
	}

	cmd.AddCommand(newIPsListCmd())
	cmd.AddCommand(newIPsBanCmd())
	cmd.AddCommand(newIPsUnbanCmd())

	return cmd
}

func newIPsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List banned IPs",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result BannedIPsResult
			if err := client.Get("/admin/v1/banned-ips", &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newIPsBanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ban <ip>",
		Short: "Ban an IP, kicking its live connection if it has one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result BanIPResult
			if err := client.Post("/admin/v1/banned-ips", map[string]string{"ip": args[0]}, &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newIPsUnbanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unban <ip>",
		Short: "Remove an IP from the ban list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/admin/v1/banned-ips/" + args[0]); err != nil {
				return err
			}
			NewOutput(cfg.Output).PrintMessage("IP unbanned: " + args[0])
			return nil
		},
	}
}
