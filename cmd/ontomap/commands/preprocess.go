package commands

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teranos/ontomap/config"
	"github.com/teranos/ontomap/display"
	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/preprocess"
	"github.com/teranos/ontomap/sym"
)

// PreprocessCmd rewrites source terms with templates and blocklists
var PreprocessCmd = &cobra.Command{
	Use:   "preprocess INPUT",
	Short: sym.Short("preprocess"),
	Long: sym.Preprocess + ` preprocess: rewrite terms with templates and blocklists

INPUT holds one term per line. Template files hold one regular expression
per line; a term that fully matches a template is replaced by its capture
groups. Blocklist files hold one regular expression per line; matching terms
are replaced by --blocklist-char.

With --tagged, lines of INPUT and of the template file may carry tags after
";:;", comma separated. Template tags are added to the terms they rewrite
and blocklisted terms are tagged "blocklisted".

Examples:
  ontomap preprocess traits.txt --templates templates.txt
  ontomap preprocess traits.txt --blocklist blocklist.txt --remove-duplicates -o clean.csv
  ontomap preprocess tagged.txt --templates tagged-templates.txt --tagged --json`,
	Args: cobra.ExactArgs(1),
	RunE: runPreprocess,
}

var (
	preTemplates        string
	preBlocklist        string
	preBlocklistChar    string
	preRemoveDuplicates bool
	preTagged           bool
	preOutput           string
)

func init() {
	f := PreprocessCmd.Flags()
	f.StringVar(&preTemplates, "templates", "", "File of templates, one regular expression per line")
	f.StringVar(&preBlocklist, "blocklist", "", "File of blocklist patterns, one regular expression per line")
	f.StringVar(&preBlocklistChar, "blocklist-char", "", "Replacement for blocklisted terms")
	f.BoolVar(&preRemoveDuplicates, "remove-duplicates", false, "Drop terms whose processed form was already produced")
	f.BoolVar(&preTagged, "tagged", false, "Input lines and templates carry tags after ';:;'")
	f.StringVarP(&preOutput, "output", "o", "", "Write the processed terms to this CSV file")
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	opts, err := preprocessOptions(preTemplates, preBlocklist)
	if err != nil {
		return err
	}
	opts.BlocklistChar = preBlocklistChar
	opts.RemoveDuplicates = preRemoveDuplicates

	var (
		header []string
		rows   [][]string
		out    interface{}
	)
	if preTagged {
		terms, err := preprocess.ReadTaggedTerms(args[0])
		if err != nil {
			return err
		}
		processed := preprocess.TaggedTerms(terms, opts)
		header = []string{"Original", "Processed", "Tags"}
		for _, tt := range processed {
			rows = append(rows, []string{tt.Original, tt.Term, strings.Join(tt.Tags, ",")})
		}
		out = processed
	} else {
		terms, err := preprocess.ReadLines(args[0])
		if err != nil {
			return err
		}
		pairs := preprocess.Terms(terms, opts)
		header = []string{"Original", "Processed"}
		for _, p := range pairs {
			rows = append(rows, []string{p.Original, p.Processed})
		}
		out = pairs
	}

	if preOutput != "" {
		if err := writeCSV(preOutput, header, rows); err != nil {
			return err
		}
		success(cmd, "Saved %d processed terms to %s", len(rows), preOutput)
		return nil
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), out)
	}
	return display.Table(cmd.OutOrStdout(), header, rows)
}

// preprocessOptions reads the template and blocklist files that are set
func preprocessOptions(templatesFile, blocklistFile string) (preprocess.Options, error) {
	var opts preprocess.Options
	if templatesFile != "" {
		templates, err := preprocess.ReadTemplates(templatesFile)
		if err != nil {
			return opts, err
		}
		opts.Templates = templates
	}
	if blocklistFile != "" {
		blocklist, err := preprocess.ReadBlocklist(blocklistFile)
		if err != nil {
			return opts, err
		}
		opts.Blocklist = blocklist
	}
	return opts, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, config.DefaultFilePermissions)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return f.Close()
}
