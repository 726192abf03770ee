// Package report renders release summaries for the terminal.
package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/warehouse-tools/whrel/internal/services/build"
)

// PrintArtifacts renders the built distributions as a table.
func PrintArtifacts(w io.Writer, result build.Result) {
	if len(result.Artifacts) == 0 {
		return
	}

	fmt.Fprintf(w, "\n%s\n", text.FgGreen.Sprintf("📦 Release %s (build %s)", result.Version, result.BuildTag))

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Type", "Filename", "Size"})
	for _, artifact := range result.Artifacts {
		tw.AppendRow(table.Row{artifact.Kind, artifact.Filename, formatSize(artifact.Size)})
	}
	tw.SetStyle(table.StyleLight)
	tw.Render()

	fmt.Fprintf(w, "Next development version: %s\n", result.NextDevVersion)
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	value := float64(bytes)
	suffixes := []string{"KiB", "MiB", "GiB"}
	suffix := suffixes[0]
	for _, s := range suffixes {
		suffix = s
		value /= unit
		if value < unit {
			break
		}
	}
	return fmt.Sprintf("%.1f %s", value, suffix)
}
