package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sorrymonster/cli/internal/report"
	"sorrymonster/pkg/models"
)

func newLuckyCmd(v *viper.Viper) *cobra.Command {
	var req models.LuckyRequest
	var severity string
	cmd := &cobra.Command{
		Use:   "lucky",
		Short: "Instant apology for Twitter and customer email with preset settings",
		Example: `  sorry lucky --summary "Checkout outage" --what "Payments failed" --harm "Lost orders"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(v)
			if err != nil {
				return err
			}
			req.Severity = models.Severity(severity)

			ctx, cancel := commandContext(v, cmd)
			defer cancel()

			res, err := newClient(v).Lucky(ctx, &req)
			if err != nil {
				return err
			}
			return report.WriteLucky(cmd.OutOrStdout(), format, res)
		},
	}
	cmd.Flags().StringVar(&req.Summary, "summary", "", "one-line incident summary")
	cmd.Flags().StringVar(&req.What, "what", "", "what happened")
	cmd.Flags().StringVar(&req.Harm, "harm", "", "who was hurt and how")
	cmd.Flags().StringVar(&severity, "severity", "", "low|medium|high (service default: medium)")
	_ = cmd.MarkFlagRequired("summary")
	_ = cmd.MarkFlagRequired("what")
	_ = cmd.MarkFlagRequired("harm")
	return cmd
}
