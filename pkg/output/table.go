package output

import (
	"fmt"

	prettytable "github.com/tatsushid/go-prettytable"

	"github.com/Giladt2789/pods-limit-checker-tool/pkg/scan"
)

// Table prints the report as a human-readable table on stdout.
func Table(report *scan.ScanReport) error {
	if len(report.Records) == 0 {
		fmt.Println("No containers with missing resource limits found.")
		return nil
	}

	table, err := prettytable.NewTable(
		prettytable.Column{Header: "Namespace"},
		prettytable.Column{Header: "Pod Name"},
		prettytable.Column{Header: "Container Name"},
		prettytable.Column{Header: "Missing CPU"},
		prettytable.Column{Header: "Missing Memory"},
	)
	if err != nil {
		return err
	}
	table.Separator = " | "
	for _, record := range report.Records {
		if err := table.AddRow(
			record.Namespace,
			record.PodName,
			record.ContainerName,
			yesNo(record.MissingCPU()),
			yesNo(record.MissingMemory()),
		); err != nil {
			return err
		}
	}
	table.Print()
	return nil
}

func yesNo(value bool) string {
	if value {
		return "YES"
	}
	return "NO"
}
