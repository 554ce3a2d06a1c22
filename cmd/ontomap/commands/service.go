package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/ontomap/config"
	"github.com/teranos/ontomap/display"
	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/logger"
	"github.com/teranos/ontomap/mapping"
)

// verbosity returns the -v count of the running command
func verbosity(cmd *cobra.Command) int {
	v, _ := cmd.Flags().GetCount("verbose")
	return v
}

// withService loads the configuration, wires a mapping service, runs fn and
// closes the service, flushing metrics.
func withService(cmd *cobra.Command, fn func(*mapping.Service, *config.Config) error) (err error) {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if logger.ShouldOutput(verbosity(cmd), logger.OutputConfig) {
		logger.Debugw("Configuration loaded",
			"cache_dir", cfg.Cache.Dir,
			logger.FieldMapper, cfg.Mapping.Mapper,
		)
	}

	svc, err := mapping.NewServiceFromConfig(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := svc.Close(cfg.Metrics.Textfile); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to close mapping service")
		}
	}()

	return fn(svc, cfg)
}

// startSpinner shows progress on stderr from -v up; JSON output never spins
func startSpinner(cmd *cobra.Command, text string) *pterm.SpinnerPrinter {
	if display.ShouldOutputJSON(cmd) || !logger.ShouldOutput(verbosity(cmd), logger.OutputProgress) {
		return nil
	}
	spinner, err := pterm.DefaultSpinner.
		WithWriter(cmd.ErrOrStderr()).
		WithRemoveWhenDone(true).
		Start(text)
	if err != nil {
		return nil
	}
	return spinner
}

func stopSpinner(spinner *pterm.SpinnerPrinter) {
	if spinner != nil {
		_ = spinner.Stop()
	}
}

// success prints a confirmation to stderr unless JSON output was requested
func success(cmd *cobra.Command, format string, args ...interface{}) {
	if display.ShouldOutputJSON(cmd) {
		return
	}
	pterm.Success.WithWriter(cmd.ErrOrStderr()).Printfln(format, args...)
}
