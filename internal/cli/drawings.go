package cli

import (
	"github.com/spf13/cobra"
)

func newDrawingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drawings",
		Short: "Review submitted drawings",
	}

	cmd.AddCommand(newDrawingsListCmd())
	cmd.AddCommand(newDrawingsApproveCmd())
	cmd.AddCommand(newDrawingsRejectCmd())

	return cmd
}

func newDrawingsListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List drawings awaiting review",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/admin/v1/drawings?pending=true"
			if all {
				path = "/admin/v1/drawings"
			}

			var result DrawingsResult
			if err := client.Get(path, &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include approved drawings")

	return cmd
}

func newDrawingsApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a drawing and publish it to the room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/admin/v1/drawings/"+args[0]+"/approve", nil, nil); err != nil {
				return err
			}
			NewOutput(cfg.Output).PrintMessage("Drawing approved: " + args[0])
			return nil
		},
	}
}

func newDrawingsRejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject and delete a drawing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/admin/v1/drawings/"+args[0]+"/reject", nil, nil); err != nil {
				return err
			}
			NewOutput(cfg.Output).PrintMessage("Drawing rejected: " + args[0])
			return nil
		},
	}
}
