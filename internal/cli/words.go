package cli

import (
	"github.com/spf13/cobra"
)

func newWordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "words",
		Short: "Manage the banned word list",
	}

	cmd.AddCommand(newWordsListCmd())
	cmd.AddCommand(newWordsBanCmd())
	cmd.AddCommand(newWordsUnbanCmd())

	return cmd
}

func newWordsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List banned words",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result BannedWordsResult
			if err := client.Get("/admin/v1/banned-words", &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newWordsBanCmd() *cobra.Command {
	var fullBan bool

	cmd := &cobra.Command{
		Use:   "ban <word>",
		Short: "Ban a word (masked in chat; --full rejects the whole message)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"word": args[0], "full_ban": fullBan}
			if err := client.Post("/admin/v1/banned-words", body, nil); err != nil {
				return err
			}
			NewOutput(cfg.Output).PrintMessage("Word banned: " + args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&fullBan, "full", false, "Reject messages containing the word instead of masking it")

	return cmd
}

func newWordsUnbanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unban <word>",
		Short: "Remove a word from the ban list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/admin/v1/banned-words/" + args[0]); err != nil {
				return err
			}
			NewOutput(cfg.Output).PrintMessage("Word unbanned: " + args[0])
			return nil
		},
	}
}
