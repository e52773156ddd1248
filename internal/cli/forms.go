package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/formkit/internal/form"
	"github.com/jwalitptl/formkit/internal/indicator"
)

func newFormsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "forms",
		Short: "List the known forms and their fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			catalog, err := form.DefaultCatalog(cfg.Backend.Endpoints)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), catalog.List())
			}

			w := cmd.OutOrStdout()
			for _, def := range catalog.List() {
				fmt.Fprintf(w, "%s %s\n", okColor.Sprint(def.Name), dimColor.Sprintf("(%s, POST %s)", def.Kind, def.Endpoint))
				for _, f := range def.Fields {
					req := ""
					if f.Required {
						req = " required"
					}
					fmt.Fprintf(w, "  %s%s\n", f.ID, dimColor.Sprint(req))
				}
			}
			return nil
		},
	}
}

func newCheckCmd(opts *options) *cobra.Command {
	var (
		fields        []string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "check <form>",
		Short: "Validate form values and the password gate without submitting",
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

			res, err := ctrl.Check(args[0], values)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.jsonOut {
				if err := writeJSON(w, res); err != nil {
					return err
				}
			} else {
				printFieldErrors(w, res.FieldErrors)
				if res.Strength != nil {
					printMeter(w, indicator.Render(*res.Strength))
				}
				if res.Message != "" {
					fmt.Fprintln(w, errorColor.Sprint(res.Message))
				}
				if res.CanSubmit() {
					fmt.Fprintln(w, okColor.Sprint("ready to submit"))
				}
			}

			if !res.CanSubmit() {
				return ErrBlocked
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "form value as key=value, repeatable")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password field from stdin")
	return cmd
}

// formValues collects --field values and, when asked, the password from
// stdin. Unknown forms are reported by the controller.
func formValues(stdin io.Reader, catalog *form.Catalog, name string, pairs []string, passwordStdin bool) (map[string]string, error) {
	values, err := parseFields(pairs)
	if err != nil {
		return nil, err
	}
	if !passwordStdin {
		return values, nil
	}

	def, ok := catalog.Get(name)
	if !ok || def.PasswordField == "" {
		return values, nil
	}
	pw, err := readSecret(stdin)
	if err != nil {
		return nil, err
	}
	values[def.PasswordField] = pw
	return values, nil
}
