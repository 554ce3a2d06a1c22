package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/ontomap/config"
	"github.com/teranos/ontomap/display"
	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/sym"
)

// ConfigCmd shows and initialises ontomap configuration
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: sym.Short("config"),
	Long: sym.Config + ` config: show and initialise settings

Configuration sources (later overrides earlier):
  1. Built-in defaults
  2. /etc/ontomap/config.toml
  3. ~/.ontomap/config.toml
  4. ontomap.toml in the working directory or a parent
  5. ONTOMAP_* environment variables (ONTOMAP_MAPPING_MIN_SCORE, ...)

Examples:
  ontomap config show                   # Show the merged configuration
  ontomap config show --format yaml
  ontomap config init                   # Write defaults to ~/.ontomap/config.toml
  ontomap config init --path ontomap.toml --force`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the merged configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var (
	configFormat    string
	configInitPath  string
	configInitForce bool
)

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	configInitCmd.Flags().StringVar(&configInitPath, "path", "", "Config file to write (default ~/.ontomap/config.toml)")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configInitCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	// The API key never leaves the process
	shown := *cfg
	if shown.BioPortal.APIKey != "" {
		shown.BioPortal.APIKey = "********"
	}

	format := configFormat
	if display.ShouldOutputJSON(cmd) {
		format = "json"
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		data, err := json.MarshalIndent(shown, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		fmt.Fprintln(out, string(data))

	case "yaml":
		data, err := yaml.Marshal(shown)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(out, "# ontomap configuration\n%s", data)

	case "toml":
		data, err := toml.Marshal(shown)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Fprintf(out, "# ontomap configuration\n%s", data)

	default:
		return errors.NewInvalidRequestError("unsupported format: %s (supported: toml, json, yaml)", format)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configInitPath
	if path == "" {
		path = config.UserConfigPath()
	}
	if path == "" {
		return errors.WithHint(
			errors.New("no home directory to write the config to"),
			"pass --path",
		)
	}
	if err := config.Init(path, configInitForce); err != nil {
		return err
	}
	success(cmd, "Wrote default configuration to %s", path)
	return nil
}
