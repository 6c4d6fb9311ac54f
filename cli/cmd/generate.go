package cmd

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sorrymonster/cli/internal/incidentfile"
	"sorrymonster/cli/internal/report"
)

func newGenerateCmd(v *viper.Viper) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate apology drafts from an incident file",
		Example: `  sorry generate --file incident.yaml
  sorry interpret "checkout was down" | sorry generate -f - -o markdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return errors.New("--file is required (use - for stdin)")
			}
			format, err := outputFormat(v)
			if err != nil {
				return err
			}

			var f *incidentfile.File
			if file == "-" {
				f, err = incidentfile.Read(cmd.InOrStdin())
			} else {
				f, err = incidentfile.Load(file)
			}
			if err != nil {
				return err
			}
			req, err := f.Request()
			if err != nil {
				return err
			}

			logger := newLogger(v, cmd)
			ctx, cancel := commandContext(v, cmd)
			defer cancel()

			start := time.Now()
			res, err := newClient(v).Generate(ctx, req)
			if err != nil {
				return err
			}
			logger.WithFields(logrus.Fields{
				"channels": len(res.Drafts),
				"duration": time.Since(start).Round(time.Millisecond).String(),
			}).Debug("Generated drafts")

			return report.WriteGeneration(cmd.OutOrStdout(), format, res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "incident YAML file, or - for stdin")
	return cmd
}
