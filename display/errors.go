package display

import (
	"io"

	"github.com/pterm/pterm"

	"github.com/teranos/ontomap/errors"
)

// PrintError writes err and any hints attached to it
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	pterm.Error.WithWriter(w).Println(err.Error())
	for _, hint := range errors.GetAllHints(err) {
		pterm.Info.WithWriter(w).Println(hint)
	}
}
