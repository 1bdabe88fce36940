package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/Giladt2789/pods-limit-checker-tool/pkg/scan"
)

var csvHeader = []string{"NAMESPACE", "POD_NAME", "CONTAINER_NAME", "MISSING_CPU_LIMIT", "MISSING_MEMORY_LIMIT"}

// CSV renders the report's records as CSV, one row per container.
func CSV(report *scan.ScanReport) (string, error) {
	var buffer bytes.Buffer
	writer := csv.NewWriter(&buffer)
	if err := writer.Write(csvHeader); err != nil {
		return "", err
	}
	for _, record := range report.Records {
		row := []string{
			record.Namespace,
			record.PodName,
			record.ContainerName,
			strconv.FormatBool(record.MissingCPU()),
			strconv.FormatBool(record.MissingMemory()),
		}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return buffer.String(), nil
}
