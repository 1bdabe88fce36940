// Package output renders a finished scan report. The core never depends
// on any of this; renderers are thin serializers over the report object.
package output

import (
	"fmt"
	"os"

	"github.com/Giladt2789/pods-limit-checker-tool/pkg/scan"
)

// Format selects how the report is rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatTable, FormatJSON, FormatCSV:
		return Format(name), nil
	}
	return "", fmt.Errorf("unknown output format %q (expected table, json or csv)", name)
}

// Render writes the report to stdout in the requested format.
func Render(format Format, report *scan.ScanReport, outcomes []scan.AnnotationOutcome) error {
	switch format {
	case FormatJSON:
		rendered, err := JSON(report, outcomes)
		if err != nil {
			return err
		}
		fmt.Println(rendered)
		return nil
	case FormatCSV:
		rendered, err := CSV(report)
		if err != nil {
			return err
		}
		fmt.Print(rendered)
		return nil
	default:
		return Table(report)
	}
}

// WriteFile persists the JSON rendering of the report, writing a temp file
// first and renaming it into place so consumers never see a partial file.
func WriteFile(path string, report *scan.ScanReport, outcomes []scan.AnnotationOutcome) error {
	rendered, err := JSON(report, outcomes)
	if err != nil {
		return err
	}
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, []byte(rendered), 0644); err != nil {
		return fmt.Errorf("writing output to file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("renaming output file: %w", err)
	}
	return nil
}
