package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teranos/ontomap/cmd/ontomap/commands"
	"github.com/teranos/ontomap/config"
	"github.com/teranos/ontomap/display"
	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/logger"
)

var rootCmd = &cobra.Command{
	Use:   "ontomap",
	Short: "ontomap - map free-text terms to ontology terms",
	Long: `ontomap - map free-text terms to ontology terms.

ontomap scores source terms against the labels and synonyms of a target
ontology with syntactic or TF-IDF mappers, or asks the Zooma and BioPortal
annotators, and writes the best mappings per term.

Available commands:
  map        - Map source terms to ontology terms
  cache      - Store ontologies locally for repeated mapping
  preprocess - Rewrite terms with templates and blocklists
  config     - Show and initialise settings
  version    - Show version information

Examples:
  ontomap map traits.txt efo.owl -o mappings.csv
  ontomap cache add efo.owl EFO
  ontomap map traits.txt EFO --use-cache --mapper jarowinkler
  ontomap -vv map traits.txt EFO,NCIT --mapper zooma --json`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs := display.ShouldOutputJSON(cmd) || config.GetViper().GetBool("log.json")
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "Output results as JSON")

	rootCmd.AddCommand(commands.MapCmd)
	rootCmd.AddCommand(commands.CacheCmd)
	rootCmd.AddCommand(commands.PreprocessCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		display.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
