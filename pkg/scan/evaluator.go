package scan

import (
	"time"

	"github.com/samber/lo"
)

// Evaluate filters the collected inventory down to containers missing at
// least one limit. It is a pure function: record order is preserved and
// nothing is written anywhere.
func Evaluate(records []ContainerResourceRecord, scope Scope, startedAt time.Time) *ScanReport {
	violating := lo.Filter(records, func(record ContainerResourceRecord, _ int) bool {
		return !record.Compliant()
	})
	return &ScanReport{
		ScopeNamespace: scope.String(),
		GeneratedAt:    startedAt,
		Records:        violating,
	}
}

// PodViolations groups violating records by pod, unioning missing-limit
// flags across all of a pod's containers. A pod with one container missing
// only CPU and another missing only memory comes out flagged for both.
// Pods appear in the order their first violating container was collected.
func PodViolations(records []ContainerResourceRecord) []PodViolation {
	byPod := map[string]*PodViolation{}
	order := []string{}
	for _, record := range records {
		if record.Compliant() {
			continue
		}
		key := record.Namespace + "/" + record.PodName
		violation, seen := byPod[key]
		if !seen {
			violation = &PodViolation{Namespace: record.Namespace, PodName: record.PodName}
			byPod[key] = violation
			order = append(order, key)
		}
		violation.MissingCPU = violation.MissingCPU || record.MissingCPU()
		violation.MissingMemory = violation.MissingMemory || record.MissingMemory()
	}
	return lo.Map(order, func(key string, _ int) PodViolation {
		return *byPod[key]
	})
}
