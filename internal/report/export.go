package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format is an export format name as accepted on the command line.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatPNG      Format = "png"
	FormatHTML     Format = "html"
)

// Formats lists every supported format.
var Formats = []Format{FormatCSV, FormatJSON, FormatMarkdown, FormatPNG, FormatHTML}

// ParseFormat accepts a format name, case-insensitively. "md" is an alias for
// markdown.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "md" {
		return FormatMarkdown, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid format %q: must be one of csv, json, markdown, png, html", s)
}

// FileName returns the base name of an export without extension.
func (r *Report) FileName() string {
	return "Report_" + r.ID
}

type output struct {
	suffix   string
	renderer Renderer
}

func outputs(f Format) []output {
	switch f {
	case FormatCSV:
		return []output{{".csv", CSVRenderer{}}}
	case FormatJSON:
		return []output{{".json", JSONRenderer{}}}
	case FormatMarkdown:
		return []output{{".md", MarkdownRenderer{}}}
	case FormatHTML:
		return []output{{".html", HTMLRenderer{}}}
	case FormatPNG:
		return []output{
			{"_lateral.png", ChartRenderer{Axis: AxisLateral}},
			{"_vertical.png", ChartRenderer{Axis: AxisVertical}},
		}
	}
	return nil
}

// Export renders r in format f into dir and returns the written paths. PNG
// produces one file per chart.
func Export(r *Report, f Format, dir string) ([]string, error) {
	outs := outputs(f)
	if outs == nil {
		return nil, fmt.Errorf("invalid format %q", f)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	paths := make([]string, 0, len(outs))
	for _, o := range outs {
		data, err := o.renderer.Render(r)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, r.FileName()+o.suffix)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
