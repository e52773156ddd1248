package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/formkit/internal/submit"
)

func newSubmitCmd(opts *options) *cobra.Command {
	var (
		fields        []string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "submit <form>",
		Short: "Validate a form and post it to the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := opts.controller(cmd)
			if err != nil {
				return err
			}
			values, err := formValues(cmd.InOrStdin(), ctrl.Catalog(), args[0], fields, passwordStdin)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			out, err := ctrl.Submit(ctx, args[0], values)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.jsonOut {
				if err := writeJSON(w, out); err != nil {
					return err
				}
			} else {
				printOutcome(cmd, out)
			}

			switch out.Kind {
			case submit.OutcomeRedirect, submit.OutcomeMessage:
				return nil
			default:
				return ErrNotSubmitted
			}
		},
	}
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "form value as key=value, repeatable")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password field from stdin")
	return cmd
}

func printOutcome(cmd *cobra.Command, out submit.Outcome) {
	w := cmd.OutOrStdout()
	switch out.Kind {
	case submit.OutcomeRedirect:
		fmt.Fprintf(w, "%s redirect to %s\n", okColor.Sprint("✓"), out.RedirectTo)
	case submit.OutcomeMessage:
		fmt.Fprintln(w, okColor.Sprint("✓ "+out.Message))
	case submit.OutcomeInvalid:
		printFieldErrors(w, out.FieldErrors)
	default:
		fmt.Fprintln(w, errorColor.Sprint("✗ "+out.Message))
	}
}
