package scan

import "time"

// WarningAnnotation is the single annotation key this tool ever writes.
const WarningAnnotation = "warning"

// Values written to the warning annotation, derived from the union of
// missing-limit flags across all containers of a pod.
const (
	WarningNoCPULimit    = "no-cpu-limit"
	WarningNoMemoryLimit = "no-memory-limit"
	WarningNoLimits      = "no-limits"
)

// ContainerResourceRecord captures one container's resource-limit state as
// observed during a single scan pass.
type ContainerResourceRecord struct {
	Namespace      string `json:"namespace"`
	PodName        string `json:"pod_name"`
	ContainerName  string `json:"container_name"`
	CPULimitSet    bool   `json:"cpu_limit_set"`
	MemoryLimitSet bool   `json:"memory_limit_set"`
}

// MissingCPU reports whether the container has no positive CPU limit.
func (r ContainerResourceRecord) MissingCPU() bool {
	return !r.CPULimitSet
}

// MissingMemory reports whether the container has no positive memory limit.
func (r ContainerResourceRecord) MissingMemory() bool {
	return !r.MemoryLimitSet
}

// Compliant reports whether both limits are set.
func (r ContainerResourceRecord) Compliant() bool {
	return r.CPULimitSet && r.MemoryLimitSet
}

// ScanReport is the result of one scan run. Records only contains
// containers missing at least one limit; fully compliant pods contribute
// nothing. Order follows the collector's emission order.
type ScanReport struct {
	ScopeNamespace string                    `json:"scope_namespace"`
	GeneratedAt    time.Time                 `json:"generated_at"`
	Records        []ContainerResourceRecord `json:"records"`
}

// PodViolation aggregates the missing-limit flags of every container in a
// non-compliant pod. Annotation is pod-scoped, so this is the unit the
// annotator works with.
type PodViolation struct {
	Namespace     string
	PodName       string
	MissingCPU    bool
	MissingMemory bool
}

// Key identifies the pod within a single run.
func (v PodViolation) Key() string {
	return v.Namespace + "/" + v.PodName
}

// WarningValue maps the unioned missing-limit flags to the annotation
// value for the pod.
func (v PodViolation) WarningValue() string {
	switch {
	case v.MissingCPU && v.MissingMemory:
		return WarningNoLimits
	case v.MissingCPU:
		return WarningNoCPULimit
	default:
		return WarningNoMemoryLimit
	}
}

// AnnotationOutcome records the result of annotating one violating pod.
type AnnotationOutcome struct {
	Namespace    string `json:"namespace"`
	PodName      string `json:"pod_name"`
	WarningValue string `json:"warning_value"`
	Applied      bool   `json:"applied"`
	Error        string `json:"error,omitempty"`
}
