package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yolodolo42/typedsig/internal/ui"
)

// render writes result as indented JSON or blocks as text, depending on the
// output setting.
func (a *app) render(cmd *cobra.Command, result any, blocks ...ui.Block) error {
	out := cmd.OutOrStdout()
	if a.jsonOutput() {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	_, err := fmt.Fprintln(out, ui.Render(termWidth(out), blocks...))
	return err
}
