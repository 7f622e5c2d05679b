package formatter

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Document is one converted tab.
type Document struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Strategy string `json:"strategy"`
	Markdown string `json:"markdown"`
}

// Extension returns the file extension for format.
func Extension(format string) (string, error) {
	switch strings.ToLower(format) {
	case "markdown", "md", "":
		return ".md", nil
	case "json":
		return ".json", nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

// Format renders doc in format.
func Format(doc Document, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "markdown", "md", "":
		return []byte(doc.Markdown), nil
	case "json":
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return append(b, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
