package sym

import (
	"testing"
	"unicode/utf8"
)

func TestSymbolToCommandAndCommandToSymbolAreBidirectional(t *testing.T) {
	for symbol, cmd := range SymbolToCommand {
		got, ok := CommandToSymbol[cmd]
		if !ok {
			t.Errorf("SymbolToCommand has %q → %q, but CommandToSymbol has no entry for %q", symbol, cmd, cmd)
			continue
		}
		if got != symbol {
			t.Errorf("bidirectional mismatch: SymbolToCommand[%q] = %q, but CommandToSymbol[%q] = %q", symbol, cmd, cmd, got)
		}
	}
}

func TestMapsHaveSameSize(t *testing.T) {
	if len(SymbolToCommand) != len(CommandToSymbol) {
		t.Errorf("map size mismatch: SymbolToCommand has %d entries, CommandToSymbol has %d",
			len(SymbolToCommand), len(CommandToSymbol))
	}
	if len(PaletteOrder) != len(Commands) {
		t.Errorf("PaletteOrder has %d entries, Commands has %d", len(PaletteOrder), len(Commands))
	}
}

func TestCommandDescriptionsCoversAllCommands(t *testing.T) {
	for _, cmd := range Commands {
		if _, ok := CommandDescriptions[cmd]; !ok {
			t.Errorf("CommandDescriptions missing entry for command %q", cmd)
		}
	}
}

func TestSymbolsAreValidUnicode(t *testing.T) {
	for _, symbol := range append(PaletteOrder, Unmapped, Best) {
		if !utf8.ValidString(symbol) || utf8.RuneCountInString(symbol) != 1 {
			t.Errorf("symbol %q must be a single valid rune", symbol)
		}
	}
}

func TestNoDuplicateSymbolValues(t *testing.T) {
	seen := make(map[string]bool)
	for _, symbol := range append(PaletteOrder, Unmapped, Best) {
		if seen[symbol] {
			t.Errorf("duplicate symbol %q", symbol)
		}
		seen[symbol] = true
	}
}

func TestShort(t *testing.T) {
	if got, want := Short("map"), Map+" Map source terms to ontology terms"; got != want {
		t.Errorf("Short(map) = %q, want %q", got, want)
	}
	if got := Short("version"); got != "" {
		t.Errorf("Short(version) = %q, want empty", got)
	}
}
