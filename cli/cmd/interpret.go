package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sorrymonster/cli/internal/incidentfile"
	"sorrymonster/cli/internal/report"
	"sorrymonster/pkg/models"
)

func newInterpretCmd(v *viper.Viper) *cobra.Command {
	var links []string
	cmd := &cobra.Command{
		Use:   "interpret [text]",
		Short: "Turn free-form incident notes into an editable incident file",
		Long: `interpret asks the service to structure raw notes into an incident and
prints it as YAML ready for "sorry generate --file". Notes are read from the
arguments, or from stdin when none are given.`,
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

			res, err := newClient(v).Interpret(ctx, &models.InterpretRequest{
				Mode: models.ModeInterpret,
				IncidentInput: models.IncidentInput{
					Text:  text,
					Links: append([]string{}, links...),
					Files: []string{},
				},
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, note := range res.Notes {
				fmt.Fprintf(cmd.ErrOrStderr(), "note: %s\n", note)
			}
			if format == report.FormatJSON {
				return writeJSON(out, res)
			}
			if len(res.Extractions) > 0 {
				fmt.Fprintln(out, "# extracted:")
				for _, key := range sortedKeys(res.Extractions) {
					fmt.Fprintf(out, "#   %s: %s\n", key, strings.Join(res.Extractions[key], ", "))
				}
			}
			return incidentfile.FromIncident(res.Incident).Encode(out)
		},
	}
	cmd.Flags().StringSliceVar(&links, "link", nil, "reference link to include (repeatable)")
	return cmd
}
