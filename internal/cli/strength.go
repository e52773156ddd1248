package cli

import (
	"github.com/spf13/cobra"

	"github.com/jwalitptl/formkit/internal/indicator"
	"github.com/jwalitptl/formkit/pkg/strength"
)

func newStrengthCmd(opts *options) *cobra.Command {
	var requireThreshold bool

	cmd := &cobra.Command{
		Use:   "strength [password|-]",
		Short: "Score a password; reads stdin when no password or - is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 && args[0] != "-" {
				password = args[0]
			} else {
				var err error
				if password, err = readSecret(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			r := strength.Evaluate(password)
			v := indicator.Render(r)
			if opts.jsonOut {
				if err := writeJSON(cmd.OutOrStdout(), struct {
					strength.Result
					Indicator indicator.View `json:"indicator"`
				}{r, v}); err != nil {
					return err
				}
			} else {
				printMeter(cmd.OutOrStdout(), v)
			}

			if requireThreshold && !r.MeetsThreshold {
				return ErrWeak
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&requireThreshold, "require-threshold", false, "fail unless the password meets the submission threshold")
	return cmd
}
