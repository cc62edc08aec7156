package cli

import (
	"github.com/spf13/cobra"

	"github.com/andante-io/andante/internal/config"
	"github.com/andante-io/andante/internal/pacer"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.yaml>",
		Short: "Validate a pipeline config without running it",
		Long: `Validate a YAML pipeline config against the schema and check every
filter's settings, without starting the pipeline.

All problems are reported, not just the first one.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, configPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	cfg, errs := config.Load(configPath, config.LoadModeCollectAll)
	if len(errs) > 0 {
		if outErr := formatter.Failure(errs); outErr != nil {
			return outErr
		}
		return NewExitError(ExitFailure, "config is invalid")
	}

	// Schema validation covers shape; filter settings are validated by the
	// filters themselves, the same check pipeline construction performs.
	var settingErrs []error
	for _, f := range cfg.Filters {
		if f.Use != pacer.Name {
			continue
		}
		if _, err := pacer.ParseConfig(f.Settings); err != nil {
			settingErrs = append(settingErrs, err)
		}
	}
	if len(settingErrs) > 0 {
		if outErr := formatter.Failure(settingErrs); outErr != nil {
			return outErr
		}
		return NewExitError(ExitFailure, "filter settings are invalid")
	}

	return formatter.Success("config is valid", map[string]any{
		"pipeline": cfg.Pipeline.Name,
		"filters":  len(cfg.Filters),
	})
}
