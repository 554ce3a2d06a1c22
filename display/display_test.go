package display

import (
	"bytes"
	"testing"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/ontomap/errors"
)

func newCommandTree() (*cobra.Command, *cobra.Command) {
	root := &cobra.Command{Use: "ontomap"}
	root.PersistentFlags().Bool("json", false, "")
	child := &cobra.Command{Use: "ls", Run: func(*cobra.Command, []string) {}}
	root.AddCommand(child)
	return root, child
}

func TestShouldOutputJSON(t *testing.T) {
	assert.False(t, ShouldOutputJSON(nil))

	root, child := newCommandTree()
	assert.False(t, ShouldOutputJSON(child))

	require.NoError(t, root.PersistentFlags().Set("json", "true"))
	assert.True(t, ShouldOutputJSON(child))
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, OutputJSON(&buf, map[string]int{"terms": 2}))
	assert.Equal(t, "{\n  \"terms\": 2\n}\n", buf.String())
}

func TestTable(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	var buf bytes.Buffer
	require.NoError(t, Table(&buf, []string{"Acronym", "Terms"}, [][]string{{"EFO", "42"}}))
	assert.Contains(t, buf.String(), "Acronym")
	assert.Contains(t, buf.String(), "EFO")
	assert.Contains(t, buf.String(), "42")
}

func TestPrintError(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	var buf bytes.Buffer
	PrintError(&buf, errors.WithHint(errors.New("cache EFO does not exist"), "run 'ontomap cache add' first"))
	assert.Contains(t, buf.String(), "cache EFO does not exist")
	assert.Contains(t, buf.String(), "run 'ontomap cache add' first")

	buf.Reset()
	PrintError(&buf, nil)
	assert.Empty(t, buf.String())
}
