// internal/render/summary.go
package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// PrintSummary writes a human-readable grouped listing of the diff,
// used when no template is supplied.
func PrintSummary(w io.Writer, data TemplateData) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	total := len(data.Added) + len(data.Removed) + len(data.Changed)
	if total == 0 {
		fmt.Fprintln(w, "No changes to the public interface")
		return
	}

	if len(data.Added) > 0 {
		fmt.Fprintln(w, "Added:")
		for _, item := range data.Added {
			fmt.Fprintf(w, "\t%s %s\n", green("+"), item)
		}
		fmt.Fprintln(w)
	}

	if len(data.Removed) > 0 {
		fmt.Fprintln(w, "Removed:")
		for _, item := range data.Removed {
			fmt.Fprintf(w, "\t%s %s\n", red("-"), item)
		}
		fmt.Fprintln(w)
	}

	if len(data.Changed) > 0 {
		fmt.Fprintln(w, "Changed:")
		for _, item := range data.Changed {
			fmt.Fprintf(w, "\t%s %s\n\t  %s\n", yellow("~"), item.Old, item.New)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "%d added, %d removed, %d changed\n",
		len(data.Added), len(data.Removed), len(data.Changed))
}
