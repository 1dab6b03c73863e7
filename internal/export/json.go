package export

import (
	"encoding/json"
	"io"

	"github.com/redwing-381/ethglb-p1-sub001/internal/core"
)

// JSONExporter exports debate runs to JSON format.
type JSONExporter struct{}

// Export writes the full run as JSON.
func (e *JSONExporter) Export(result *core.RunResult, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return "json"
}
