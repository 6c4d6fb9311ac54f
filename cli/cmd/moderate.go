package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sorrymonster/cli/internal/report"
)

func newModerateCmd(v *viper.Viper) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "moderate [text]",
		Short: "Check whether text would pass content moderation",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(v)
			if err != nil {
				return err
			}
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(v, cmd)
			defer cancel()

			res, err := newClient(v).Moderate(ctx, text)
			if err != nil {
				return err
			}
			if err := report.WriteModeration(cmd.OutOrStdout(), format, res); err != nil {
				return err
			}
			if strict && !res.Allowed {
				return &blockedError{category: res.Category}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when the text is blocked")
	return cmd
}

type blockedError struct {
	category string
}

func (e *blockedError) Error() string {
	return "text blocked by moderation (" + e.category + ")"
}
