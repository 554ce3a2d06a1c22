package commands

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/ontomap/cache"
	"github.com/teranos/ontomap/config"
	"github.com/teranos/ontomap/display"
	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/mapping"
	"github.com/teranos/ontomap/sym"
	"github.com/teranos/ontomap/termutil"
)

// CacheCmd manages cached ontologies
var CacheCmd = &cobra.Command{
	Use:   "cache",
	Short: sym.Short("cache"),
	Long: sym.Cache + ` cache: store ontologies locally for repeated mapping

Cached ontologies are parsed once and stored under the configured cache
directory. Map against them with 'ontomap map --use-cache SOURCE ACRONYM'.

Examples:
  ontomap cache add efo.owl EFO                  # Cache a local file
  ontomap cache add http://purl.obolibrary.org/obo/hp.owl HP
  ontomap cache add MONDO MONDO                  # Resolve the download through bioregistry
  ontomap cache add efo.owl EFO --own-terms      # Skip terms imported from other ontologies
  ontomap cache set ontologies.yaml              # Cache every ontology in a set file
  ontomap cache ls                               # List cached ontologies
  ontomap cache exists EFO
  ontomap cache clear EFO                        # Remove one ontology
  ontomap cache clear --all                      # Remove every cached ontology`,
}

var cacheAddCmd = &cobra.Command{
	Use:   "add SOURCE ACRONYM",
	Short: "Cache an ontology file, URL or acronym under ACRONYM",
	Args:  cobra.ExactArgs(2),
	RunE:  runCacheAdd,
}

var cacheSetCmd = &cobra.Command{
	Use:   "set FILE",
	Short: "Cache every ontology listed in a CSV, YAML or TOML set file",
	Long: `Cache every ontology listed in an ontology set file.

CSV files need acronym and url columns and may carry a version column.
YAML and TOML files hold an 'ontologies' list with the same keys.
Ontologies already cached at the listed version are kept unless --refresh
is given; entries that fail to load are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runCacheSet,
}

var cacheLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List cached ontologies",
	Args:    cobra.NoArgs,
	RunE:    runCacheLs,
}

var cacheExistsCmd = &cobra.Command{
	Use:   "exists ACRONYM",
	Short: "Report whether an ontology is cached",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheExists,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [ACRONYM]",
	Short: "Remove a cached ontology, or all of them with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClear,
}

var (
	cacheBaseIRIs     []string
	cacheOwnTermsOnly bool
	cacheRefresh      bool
	cacheClearAll     bool
)

func init() {
	cacheAddCmd.Flags().StringSliceVar(&cacheBaseIRIs, "base-iris", nil, "Only cache terms under these IRIs")
	cacheAddCmd.Flags().BoolVar(&cacheOwnTermsOnly, "own-terms", false, "Only cache terms under the known base IRI of ACRONYM")
	cacheSetCmd.Flags().BoolVar(&cacheRefresh, "refresh", false, "Reload ontologies that are already cached")
	cacheClearCmd.Flags().BoolVar(&cacheClearAll, "all", false, "Remove every cached ontology")

	CacheCmd.AddCommand(cacheAddCmd)
	CacheCmd.AddCommand(cacheSetCmd)
	CacheCmd.AddCommand(cacheLsCmd)
	CacheCmd.AddCommand(cacheExistsCmd)
	CacheCmd.AddCommand(cacheClearCmd)
}

func runCacheAdd(cmd *cobra.Command, args []string) error {
	source, acronym := args[0], args[1]
	baseIRIs, err := cacheAddBaseIRIs(acronym)
	if err != nil {
		return err
	}

	return withService(cmd, func(svc *mapping.Service, _ *config.Config) error {
		spinner := startSpinner(cmd, fmt.Sprintf("Caching %s as %s", source, acronym))
		handle, err := svc.CacheOntology(cmd.Context(), source, acronym, baseIRIs)
		stopSpinner(spinner)
		if err != nil {
			return err
		}

		meta, err := svc.Cache().Metadata(cmd.Context(), handle.Acronym())
		if err != nil {
			return err
		}
		if display.ShouldOutputJSON(cmd) {
			return display.OutputJSON(cmd.OutOrStdout(), meta)
		}
		success(cmd, "Cached %s: %d terms%s", meta.Acronym, meta.TermCount, versionSuffix(meta.Version))
		return nil
	})
}

// cacheAddBaseIRIs resolves --own-terms to the acronym's known namespace
func cacheAddBaseIRIs(acronym string) ([]string, error) {
	if !cacheOwnTermsOnly {
		return cacheBaseIRIs, nil
	}
	if len(cacheBaseIRIs) > 0 {
		return nil, errors.NewInvalidRequestError("pass either --base-iris or --own-terms, not both")
	}
	base, ok := termutil.BaseIRIFor(acronym)
	if !ok {
		return nil, errors.WithHint(
			errors.NewInvalidRequestError("no known base IRI for %s", acronym),
			"pass --base-iris with the ontology's term namespace",
		)
	}
	return []string{base}, nil
}

func runCacheSet(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(svc *mapping.Service, _ *config.Config) error {
		spinner := startSpinner(cmd, "Caching ontologies from "+args[0])
		handles, err := svc.CacheOntologySet(cmd.Context(), args[0], cacheRefresh)
		stopSpinner(spinner)
		if err != nil {
			return err
		}

		acronyms := make([]string, 0, len(handles))
		for acronym := range handles {
			acronyms = append(acronyms, acronym)
		}
		sort.Strings(acronyms)

		if display.ShouldOutputJSON(cmd) {
			return display.OutputJSON(cmd.OutOrStdout(), acronyms)
		}
		for _, acronym := range acronyms {
			fmt.Fprintln(cmd.OutOrStdout(), acronym)
		}
		success(cmd, "%d ontologies cached from %s", len(acronyms), args[0])
		return nil
	})
}

func runCacheLs(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(svc *mapping.Service, _ *config.Config) error {
		entries, err := svc.Cache().List(cmd.Context())
		if err != nil {
			return err
		}
		if display.ShouldOutputJSON(cmd) {
			if entries == nil {
				entries = []*cache.Metadata{}
			}
			return display.OutputJSON(cmd.OutOrStdout(), entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No cached ontologies")
			return nil
		}

		rows := make([][]string, len(entries))
		for i, m := range entries {
			rows[i] = []string{
				m.Acronym,
				m.Version,
				strconv.Itoa(m.TermCount),
				m.Source,
				m.CachedAt.Local().Format(time.DateTime),
			}
		}
		return display.Table(cmd.OutOrStdout(), []string{"Acronym", "Version", "Terms", "Source", "Cached"}, rows)
	})
}

func runCacheExists(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(svc *mapping.Service, _ *config.Config) error {
		handle, err := svc.Handle(args[0])
		if err != nil {
			return err
		}
		exists := handle.Exists()
		if display.ShouldOutputJSON(cmd) {
			return display.OutputJSON(cmd.OutOrStdout(), map[string]interface{}{
				"acronym": handle.Acronym(),
				"exists":  exists,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), exists)
		return nil
	})
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !cacheClearAll {
		return errors.WithHint(
			errors.NewInvalidRequestError("no ontology to clear"),
			"pass an acronym, or --all to clear the whole cache",
		)
	}
	if len(args) == 1 && cacheClearAll {
		return errors.NewInvalidRequestError("pass either an acronym or --all, not both")
	}

	return withService(cmd, func(svc *mapping.Service, _ *config.Config) error {
		if cacheClearAll {
			if err := svc.Cache().Clear(cmd.Context(), ""); err != nil {
				return err
			}
			success(cmd, "Cleared every cached ontology")
			return nil
		}

		handle, err := svc.Handle(args[0])
		if err != nil {
			return err
		}
		if err := handle.Clear(cmd.Context()); err != nil {
			return err
		}
		success(cmd, "Cleared %s", handle.Acronym())
		return nil
	})
}

func versionSuffix(version string) string {
	if version == "" {
		return ""
	}
	return ", version " + version
}
