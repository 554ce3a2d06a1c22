package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/ontomap/config"
	"github.com/teranos/ontomap/display"
	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/logger"
	"github.com/teranos/ontomap/mapper"
	"github.com/teranos/ontomap/mapping"
	"github.com/teranos/ontomap/ontology"
	"github.com/teranos/ontomap/preprocess"
	"github.com/teranos/ontomap/sym"
)

// MapCmd maps source terms to ontology terms
var MapCmd = &cobra.Command{
	Use:   "map SOURCE TARGET",
	Short: sym.Short("map"),
	Long: sym.Map + ` map: map source terms to ontology terms

SOURCE is a file with one term per line, or a CSV/TSV table (pick the
columns with --term-column and --id-column). With --list, SOURCE is a
comma-separated list of terms instead.

TARGET is an ontology file, URL or acronym resolved through bioregistry.
With --use-cache it is the acronym of a cached ontology, and with
--target-labels a comma-separated list of labels. For the zooma and
bioportal mappers it is a comma-separated list of ontology acronyms.

Mappers: levenshtein, jaro, jarowinkler, jaccard, indel, fuzzy, soundex,
tfidf, zooma, bioportal. Defaults come from the [mapping] config section.

Examples:
  ontomap map traits.txt efo.owl                      # Map against a local file
  ontomap map traits.csv EFO --use-cache -o out.csv   # Map against a cached ontology
  ontomap map --list "asthma,fever" http://purl.obolibrary.org/obo/hp.owl
  ontomap map traits.txt EFO,NCIT --mapper zooma
  ontomap map --list "heart attack" "myocardial infarction,stroke" --target-labels`,
	Args: cobra.ExactArgs(2),
	RunE: runMap,
}

var (
	mapMapper            string
	mapMaxMappings       int
	mapMinScore          float64
	mapBaseIRIs          []string
	mapExcludeDeprecated bool
	mapTermType          string
	mapUseCache          bool
	mapTargetLabels      bool
	mapIncludeUnmapped   bool
	mapOutput            string
	mapSeparator         string
	mapSaveGraphs        bool
	mapList              bool
	mapTermColumn        string
	mapIDColumn          string
	mapTemplates         string
	mapBlocklist         string
	mapBioPortalKey      string
)

func init() {
	f := MapCmd.Flags()
	f.StringVarP(&mapMapper, "mapper", "m", "", "Mapper to use (default from config: tfidf)")
	f.IntVar(&mapMaxMappings, "max-mappings", 0, "Mappings kept per source term")
	f.Float64Var(&mapMinScore, "min-score", 0, "Drop mappings scoring below this, within [0,1]")
	f.StringSliceVar(&mapBaseIRIs, "base-iris", nil, "Only map to terms under these IRIs")
	f.BoolVar(&mapExcludeDeprecated, "exclude-deprecated", false, "Skip deprecated ontology terms")
	f.StringVar(&mapTermType, "term-type", "", "Target term type: class, property, individual or any")
	f.BoolVar(&mapUseCache, "use-cache", false, "TARGET is a cached ontology acronym")
	f.BoolVar(&mapTargetLabels, "target-labels", false, "TARGET is a comma-separated list of labels to map onto")
	f.BoolVar(&mapIncludeUnmapped, "include-unmapped", false, "Emit rows tagged unmapped for terms without mappings")
	f.StringVarP(&mapOutput, "output", "o", "", "Save mappings to this file (.json writes JSON, otherwise CSV)")
	f.StringVar(&mapSeparator, "separator", "", "Field separator of the saved CSV")
	f.BoolVar(&mapSaveGraphs, "save-graphs", false, "Save the hierarchy around each mapped term next to --output")
	f.BoolVar(&mapList, "list", false, "SOURCE is a comma-separated list of terms")
	f.StringVar(&mapTermColumn, "term-column", "", "Term column of a CSV/TSV source (default: first column)")
	f.StringVar(&mapIDColumn, "id-column", "", "Id column of a CSV/TSV source (default: generated ids)")
	f.StringVar(&mapTemplates, "templates", "", "Preprocess source terms with the templates in this file")
	f.StringVar(&mapBlocklist, "blocklist", "", "Leave source terms matching these patterns unmapped")
	f.StringVar(&mapBioPortalKey, "bioportal-apikey", "", "BioPortal API key (or ONTOMAP_BIOPORTAL_API_KEY)")
}

func runMap(cmd *cobra.Command, args []string) error {
	sourceArg, target := args[0], args[1]

	return withService(cmd, func(svc *mapping.Service, cfg *config.Config) error {
		opts := mapOptions(cmd, cfg)

		source, err := readMapSource(sourceArg)
		if err != nil {
			return err
		}
		if source, err = preprocessSource(source); err != nil {
			return err
		}

		spinner := startSpinner(cmd, fmt.Sprintf("Mapping %d terms to %s with %s", len(source), target, opts.Mapper))
		result, err := svc.MapTerms(cmd.Context(), source, target, opts)
		stopSpinner(spinner)
		if err != nil {
			return err
		}

		if display.ShouldOutputJSON(cmd) {
			return display.OutputJSON(cmd.OutOrStdout(), result)
		}
		if err := display.Table(cmd.OutOrStdout(), mapping.Columns, markBest(result)); err != nil {
			return err
		}
		success(cmd, "Mapped %d of %d terms with %s", result.MappedCount(), len(source), result.Mapper)
		if opts.SaveMappings {
			success(cmd, "Saved mappings to %s", opts.OutputFile)
		}
		if opts.SaveGraphs {
			success(cmd, "Saved term graphs to %s", mapping.GraphsFile(opts.OutputFile))
		}
		return nil
	})
}

// mapOptions starts from the configured defaults and applies the flags that were set
func mapOptions(cmd *cobra.Command, cfg *config.Config) mapping.Options {
	opts := mapping.OptionsFromConfig(cfg)
	f := cmd.Flags()

	if f.Changed("mapper") {
		opts.Mapper = mapper.Kind(mapMapper)
	}
	if f.Changed("max-mappings") {
		opts.MaxMappings = mapMaxMappings
	}
	if f.Changed("min-score") {
		opts.MinScore = mapMinScore
	}
	if f.Changed("term-type") {
		opts.TermType = ontology.TermType(mapTermType)
	}
	if f.Changed("separator") {
		opts.Separator = mapSeparator
	}
	if f.Changed("exclude-deprecated") {
		opts.ExcludeDeprecated = mapExcludeDeprecated
	}
	if f.Changed("include-unmapped") {
		opts.IncludeUnmapped = mapIncludeUnmapped
	}
	if mapBioPortalKey != "" {
		opts.BioPortalAPIKey = mapBioPortalKey
	}
	opts.BaseIRIs = mapBaseIRIs
	opts.UseCache = mapUseCache
	opts.TargetLabels = mapTargetLabels
	opts.SaveGraphs = mapSaveGraphs
	if mapOutput != "" || mapSaveGraphs {
		opts.SaveMappings = true
		opts.OutputFile = mapOutput
	}
	return opts
}

func readMapSource(arg string) ([]mapper.SourceTerm, error) {
	if !mapList {
		return mapping.ReadSource(arg, mapping.TableOptions{
			TermColumn: mapTermColumn,
			IDColumn:   mapIDColumn,
		})
	}

	terms := mapping.SplitList(arg)
	if len(terms) == 0 {
		return nil, errors.NewInvalidRequestError("no terms in --list source")
	}
	return mapping.SourceFromList(terms, nil)
}

// preprocessSource applies --templates and --blocklist, keeping source ids
func preprocessSource(source []mapper.SourceTerm) ([]mapper.SourceTerm, error) {
	if mapTemplates == "" && mapBlocklist == "" {
		return source, nil
	}

	opts, err := preprocessOptions(mapTemplates, mapBlocklist)
	if err != nil {
		return nil, err
	}

	tagged := make([]preprocess.TaggedTerm, len(source))
	for i, st := range source {
		tagged[i] = preprocess.TaggedTerm{Term: st.Term, Tags: st.Tags}
	}
	processed := preprocess.TaggedTerms(tagged, opts)

	out := make([]mapper.SourceTerm, len(processed))
	for i, tt := range processed {
		out[i] = mapper.SourceTerm{ID: source[i].ID, Term: tt.Term, Tags: tt.Tags}
	}
	logger.Debugw("Preprocessed source terms", logger.FieldCount, len(out))
	return out, nil
}

// markBest renders result rows, flagging the first mapping of each source
// term and rows without a mapping.
func markBest(result *mapping.Result) [][]string {
	rows := result.Rows()
	var prev mapping.Mapping
	for i, m := range result.Mappings {
		switch {
		case m.Unmapped():
			rows[i][2] = sym.Unmapped
		case i == 0 || m.SourceTermID != prev.SourceTermID || m.SourceTerm != prev.SourceTerm:
			rows[i][2] = sym.Best + " " + rows[i][2]
		}
		prev = m
	}
	return rows
}
