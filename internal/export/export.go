// Package export handles exporting debate runs to various formats.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redwing-381/ethglb-p1-sub001/internal/core"
)

// Format represents an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatJSON     Format = "json"
)

// Exporter defines the interface for exporting debate runs.
type Exporter interface {
	Export(result *core.RunResult, w io.Writer) error
	FileExtension() string
}

// GetExporter returns an exporter for the given format. "md" is
// accepted as an alias for markdown, matching the file extension.
func GetExporter(format Format) (Exporter, error) {
	switch format {
	case FormatMarkdown, "md":
		return &MarkdownExporter{}, nil
	case FormatPDF:
		return &PDFExporter{}, nil
	case FormatJSON:
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// GenerateFilename creates a filename for the export.
func GenerateFilename(result *core.RunResult, ext string) string {
	topic := result.Topic
	if len(topic) > 50 {
		topic = topic[:50]
	}

	replacer := strings.NewReplacer(
		" ", "_",
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	)
	topic = replacer.Replace(topic)

	return fmt.Sprintf("debate_%s_%s.%s", topic, result.CreatedAt.Format("20060102_150405"), ext)
}

// formatDuration formats the elapsed time between two timestamps.
func formatDuration(start, end time.Time) string {
	d := end.Sub(start).Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
