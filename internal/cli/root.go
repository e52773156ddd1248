// Package cli implements formctl, which scores passwords and checks or
// submits the login and signup forms from a terminal.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/formkit/internal/config"
	"github.com/jwalitptl/formkit/internal/form"
	"github.com/jwalitptl/formkit/internal/submit"
	"github.com/jwalitptl/formkit/pkg/circuitbreaker"
	"github.com/jwalitptl/formkit/pkg/logger"
)

var (
	// ErrBlocked is returned when a checked form could not be submitted.
	ErrBlocked = errors.New("form would not be submitted")
	// ErrNotSubmitted is returned when a submission did not succeed.
	ErrNotSubmitted = errors.New("form was not submitted")
	// ErrWeak is returned by strength --require-threshold.
	ErrWeak = errors.New("password does not meet the strength threshold")
)

type options struct {
	configDir string
	baseURL   string
	jsonOut   bool
	verbose   bool
}

// NewRootCmd builds the formctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "formctl [command] [flags]",
		Short:         "Score passwords and check or submit login and signup forms",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configDir, "config-dir", "", "directory holding config.yaml")
	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "backend base URL, overrides configuration")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print JSON instead of text")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log submissions to stderr")

	root.AddCommand(
		newStrengthCmd(opts),
		newFormsCmd(opts),
		newCheckCmd(opts),
		newSubmitCmd(opts),
	)
	return root
}

// Execute runs formctl with the process arguments.
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *options) loadConfig() (*config.Config, error) {
	var dirs []string
	if o.configDir != "" {
		dirs = append(dirs, o.configDir)
	}
	cfg, err := config.LoadConfig(dirs...)
	if err != nil {
		return nil, err
	}
	if o.baseURL != "" {
		cfg.Backend.BaseURL = o.baseURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (o *options) controller(cmd *cobra.Command) (*submit.Controller, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	catalog, err := form.DefaultCatalog(cfg.Backend.Endpoints)
	if err != nil {
		return nil, err
	}

	level := logger.WarnLevel
	if o.verbose {
		level = logger.DebugLevel
	}
	log := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.Kitchen,
		Output:     cmd.ErrOrStderr(),
	})

	return submit.NewController(catalog, submit.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
		Breaker: circuitbreaker.Settings{
			MaxFailures: cfg.Breaker.MaxFailures,
			MaxRequests: cfg.Breaker.MaxRequests,
			Interval:    cfg.Breaker.Interval,
			Timeout:     cfg.Breaker.Timeout,
		},
	}, log, nil), nil
}

func writeJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
