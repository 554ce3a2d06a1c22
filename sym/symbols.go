// Package sym defines the glyphs ontomap prints next to its commands and
// result markers. They are stable across help text and table output.
package sym

import "strings"

// Command glyphs
const (
	Map        = "⟶" // map: source terms onto ontology terms
	Cache      = "⊔" // cache: stored ontologies
	Preprocess = "⌗" // preprocess: templates and blocklists
	Config     = "≡" // config: settings and their sources
)

// Result markers
const (
	Unmapped = "∅" // source term without a mapping
	Best     = "✦" // top-scoring mapping of a source term
)

// entry binds a glyph to its command and description
type entry struct {
	glyph       string
	command     string
	label       string
	description string
}

// registry is the canonical command list, in help order
var registry = []entry{
	{Map, "map", "Map", "Map source terms to ontology terms"},
	{Cache, "cache", "Cache", "Store ontologies locally for repeated mapping"},
	{Preprocess, "preprocess", "Preprocess", "Rewrite terms with templates and blocklists"},
	{Config, "config", "Configuration", "Show and initialise settings"},
}

// PaletteOrder lists command glyphs in help order
var PaletteOrder []string

// Commands lists command names in help order
var Commands []string

// SymbolToCommand maps glyphs to command names
var SymbolToCommand map[string]string

// CommandToSymbol maps command names to glyphs
var CommandToSymbol map[string]string

// CommandDescriptions holds the one-line help of each command
var CommandDescriptions map[string]string

func init() {
	SymbolToCommand = make(map[string]string, len(registry))
	CommandToSymbol = make(map[string]string, len(registry))
	CommandDescriptions = make(map[string]string, len(registry))
	for _, e := range registry {
		PaletteOrder = append(PaletteOrder, e.glyph)
		Commands = append(Commands, e.command)
		SymbolToCommand[e.glyph] = e.command
		CommandToSymbol[e.command] = e.glyph
		CommandDescriptions[e.command] = e.label + ": " + e.description
	}
}

// Short renders the help line of command, prefixed with its glyph
func Short(command string) string {
	glyph, ok := CommandToSymbol[command]
	if !ok {
		return ""
	}
	_, desc, _ := strings.Cut(CommandDescriptions[command], ": ")
	return glyph + " " + desc
}
