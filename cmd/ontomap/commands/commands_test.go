package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/ontomap/cache"
	"github.com/teranos/ontomap/config"
	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/mapping"
	"github.com/teranos/ontomap/preprocess"
	"github.com/teranos/ontomap/version"
)

const miniOWL = "../../../ontology/testdata/mini.owl"

var (
	testRoot     *cobra.Command
	testRootOnce sync.Once
)

func root() *cobra.Command {
	testRootOnce.Do(func() {
		testRoot = &cobra.Command{Use: "ontomap", SilenceUsage: true, SilenceErrors: true}
		testRoot.PersistentFlags().CountP("verbose", "v", "")
		testRoot.PersistentFlags().Bool("json", false, "")
		testRoot.AddCommand(MapCmd, CacheCmd, PreprocessCmd, ConfigCmd, VersionCmd)
	})
	return testRoot
}

// resetFlags restores every flag in the tree so runs do not leak into each other
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

// setupEnv points configuration and the cache at temporary directories
func setupEnv(t *testing.T) string {
	t.Helper()
	pterm.DisableStyling()
	t.Cleanup(pterm.EnableStyling)

	home := t.TempDir()
	cacheDir := filepath.Join(home, "cache")
	t.Setenv("HOME", home)
	t.Setenv("ONTOMAP_CACHE_DIR", cacheDir)
	t.Setenv("ONTOMAP_BIOPORTAL_API_KEY", "")
	t.Setenv("BIOPORTAL_API_KEY", "")
	config.Reset()
	t.Cleanup(config.Reset)
	return cacheDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := root()
	resetFlags(cmd)

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCacheAndMapCommands(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "cache", "add", miniOWL, "mini", "--json")
	require.NoError(t, err)
	var meta cache.Metadata
	require.NoError(t, json.Unmarshal([]byte(out), &meta))
	assert.Equal(t, "MINI", meta.Acronym)
	assert.Equal(t, "2024-01-01", meta.Version)
	assert.Positive(t, meta.TermCount)

	out, err = execute(t, "cache", "exists", "mini")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, err = execute(t, "cache", "ls", "--json")
	require.NoError(t, err)
	var listed []cache.Metadata
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "MINI", listed[0].Acronym)

	out, err = execute(t, "cache", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "MINI")
	assert.Contains(t, out, "2024-01-01")

	out, err = execute(t, "map", "--list", "asthma, lung", "mini", "--use-cache", "--json")
	require.NoError(t, err)
	var result mapping.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NotEmpty(t, result.Mappings)
	assert.Equal(t, "http://purl.obolibrary.org/obo/MONDO_0004979", result.Mappings[0].MappedTermIRI)
	assert.Equal(t, 2, result.MappedCount())

	_, err = execute(t, "cache", "clear", "mini")
	require.NoError(t, err)
	out, err = execute(t, "cache", "exists", "mini")
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)

	_, err = execute(t, "map", "--list", "asthma", "mini", "--use-cache")
	assert.True(t, errors.IsCacheMiss(err))
}

func TestMapCommand_SavesOutput(t *testing.T) {
	setupEnv(t)
	output := filepath.Join(t.TempDir(), "mappings.csv")

	out, err := execute(t, "map", "--list", "asthma,the", miniOWL,
		"--mapper", "jarowinkler", "--include-unmapped", "--max-mappings", "1", "-o", output)
	require.NoError(t, err)
	assert.Contains(t, out, "MONDO:0004979")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(mapping.Columns, ","), lines[0])
	assert.Contains(t, lines[1], "MONDO:0004979")
	assert.True(t, strings.HasSuffix(lines[2], ",unmapped"))
}

func TestMapCommand_Preprocessing(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	source := filepath.Join(dir, "terms.txt")
	templates := filepath.Join(dir, "templates.txt")
	blocklist := filepath.Join(dir, "blocklist.txt")
	require.NoError(t, os.WriteFile(source, []byte("history of lung\nasthma\nlung\n"), 0o644))
	require.NoError(t, os.WriteFile(templates, []byte(`history of (.*);:;history`+"\n"), 0o644))
	require.NoError(t, os.WriteFile(blocklist, []byte("^asthma$\n"), 0o644))

	out, err := execute(t, "map", source, miniOWL, "--templates", templates, "--blocklist", blocklist,
		"--include-unmapped", "--json")
	require.NoError(t, err)

	var result mapping.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NotEmpty(t, result.Mappings)

	first := result.Mappings[0]
	assert.Equal(t, "lung", first.SourceTerm)
	assert.Equal(t, "http://purl.obolibrary.org/obo/UBERON_0002048", first.MappedTermIRI)
	assert.Equal(t, []string{"history"}, first.Tags)

	var blocked *mapping.Mapping
	for i := range result.Mappings {
		if result.Mappings[i].Unmapped() {
			blocked = &result.Mappings[i]
		}
	}
	require.NotNil(t, blocked)
	assert.Equal(t, []string{preprocess.BlocklistedTag, mapping.UnmappedTag}, blocked.Tags)
}

func TestMapCommand_Errors(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "map", "--list", "asthma", miniOWL, "--mapper", "word2vec")
	assert.True(t, errors.IsInvalidRequestError(err))

	_, err = execute(t, "map", "--list", " , ", miniOWL)
	assert.True(t, errors.IsInvalidRequestError(err))

	_, err = execute(t, "map", "--list", "asthma")
	assert.Error(t, err)
}

func TestMapCommand_TargetLabels(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "map", "--list", "asthmatic,lung", "asthma,lung disease,fever",
		"--target-labels", "--mapper", "jarowinkler", "--max-mappings", "1", "--json")
	require.NoError(t, err)

	var result mapping.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Mappings, 2)
	assert.Equal(t, "asthma", result.Mappings[0].MappedTermLabel)
	assert.Equal(t, "lung disease", result.Mappings[1].MappedTermLabel)
	assert.True(t, strings.HasPrefix(result.Mappings[0].MappedTermIRI, "http"))

	_, err = execute(t, "map", "--list", "asthma", "asthma", "--target-labels", "--use-cache")
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestCacheAdd_OwnTerms(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "cache", "add", miniOWL, "EFO", "--own-terms", "--json")
	require.NoError(t, err)
	var meta cache.Metadata
	require.NoError(t, json.Unmarshal([]byte(out), &meta))
	assert.Equal(t, []string{"http://www.ebi.ac.uk/efo/"}, meta.BaseIRIs)
	assert.Equal(t, 1, meta.TermCount)

	_, err = execute(t, "cache", "add", miniOWL, "mini", "--own-terms")
	assert.True(t, errors.IsInvalidRequestError(err))

	_, err = execute(t, "cache", "add", miniOWL, "EFO", "--own-terms", "--base-iris", "http://www.ebi.ac.uk/efo/")
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestCacheClear_NeedsTarget(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "cache", "clear")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
	assert.Contains(t, errors.FlattenHints(err), "--all")

	_, err = execute(t, "cache", "clear", "EFO", "--all")
	assert.True(t, errors.IsInvalidRequestError(err))

	_, err = execute(t, "cache", "clear", "--all")
	assert.NoError(t, err)
}

func TestCacheSetCommand(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	source, err := filepath.Abs(miniOWL)
	require.NoError(t, err)

	setFile := filepath.Join(dir, "ontologies.yaml")
	require.NoError(t, os.WriteFile(setFile, []byte(
		"ontologies:\n"+
			"  - acronym: mini\n"+
			"    version: \"2024-01-01\"\n"+
			"    url: "+source+"\n"+
			"  - acronym: gone\n"+
			"    url: "+filepath.Join(dir, "gone.owl")+"\n"), 0o644))

	out, err := execute(t, "cache", "set", setFile, "--json")
	require.NoError(t, err)
	var acronyms []string
	require.NoError(t, json.Unmarshal([]byte(out), &acronyms))
	assert.Equal(t, []string{"MINI"}, acronyms)
}

func TestPreprocessCommand(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "terms.txt")
	templates := filepath.Join(dir, "templates.txt")
	require.NoError(t, os.WriteFile(input, []byte("asthma (disorder)\nasthma\nfever\n"), 0o644))
	require.NoError(t, os.WriteFile(templates, []byte(`(.*) \(disorder\)`+"\n"), 0o644))

	out, err := execute(t, "preprocess", input, "--templates", templates, "--remove-duplicates", "--json")
	require.NoError(t, err)
	var pairs []preprocess.Pair
	require.NoError(t, json.Unmarshal([]byte(out), &pairs))
	assert.Equal(t, []preprocess.Pair{
		{Original: "asthma (disorder)", Processed: "asthma"},
		{Original: "fever", Processed: "fever"},
	}, pairs)

	output := filepath.Join(dir, "out.csv")
	_, err = execute(t, "preprocess", input, "--templates", templates, "-o", output)
	require.NoError(t, err)
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "Original,Processed\nasthma (disorder),asthma\nasthma,asthma\nfever,fever\n", string(data))

	tagged := filepath.Join(dir, "tagged.txt")
	require.NoError(t, os.WriteFile(tagged, []byte("asthma (disorder);:;trait\n"), 0o644))
	out, err = execute(t, "preprocess", tagged, "--templates", templates, "--tagged")
	require.NoError(t, err)
	assert.Contains(t, out, "trait")
}

func TestConfigCommands(t *testing.T) {
	setupEnv(t)
	t.Setenv("ONTOMAP_BIOPORTAL_API_KEY", "secret-key")

	out, err := execute(t, "config", "show", "--format", "toml")
	require.NoError(t, err)
	assert.Contains(t, out, "[mapping]")
	assert.NotContains(t, out, "secret-key")

	out, err = execute(t, "config", "show", "--json")
	require.NoError(t, err)
	var shown config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, config.DefaultMapper, shown.Mapping.Mapper)
	assert.Equal(t, "********", shown.BioPortal.APIKey)

	_, err = execute(t, "config", "show", "--format", "ini")
	assert.True(t, errors.IsInvalidRequestError(err))

	path := filepath.Join(t.TempDir(), "ontomap.toml")
	_, err = execute(t, "config", "init", "--path", path)
	require.NoError(t, err)
	_, err = config.LoadFromFile(path)
	require.NoError(t, err)

	_, err = execute(t, "config", "init", "--path", path)
	assert.Error(t, err, "existing files need --force")
	_, err = execute(t, "config", "init", "--path", path, "--force")
	assert.NoError(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--json")
	require.NoError(t, err)
	var info version.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Version, info.Version)

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ontomap")
	assert.Contains(t, out, "Platform:")
}
