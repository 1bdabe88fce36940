package scan

import "fmt"

// ClusterAccessError wraps a failure of the pod listing call. It is fatal
// to the run: without a complete inventory there is no valid report.
type ClusterAccessError struct {
	Scope Scope
	Err   error
}

func (e *ClusterAccessError) Error() string {
	return fmt.Sprintf("listing pods in scope %q: %v", e.Scope, e.Err)
}

func (e *ClusterAccessError) Unwrap() error {
	return e.Err
}
