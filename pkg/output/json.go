package output

import (
	"encoding/json"

	"github.com/Giladt2789/pods-limit-checker-tool/pkg/scan"
)

type jsonReport struct {
	*scan.ScanReport
	Annotations []scan.AnnotationOutcome `json:"annotations,omitempty"`
}

// JSON renders the report, plus any annotation outcomes, as indented JSON.
func JSON(report *scan.ScanReport, outcomes []scan.AnnotationOutcome) (string, error) {
	rendered, err := json.MarshalIndent(jsonReport{ScanReport: report, Annotations: outcomes}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(rendered), nil
}
