package annotate

import "fmt"

// ForbiddenError reports that the cluster denied the annotation patch.
// The first occurrence aborts the annotation phase: permissions are
// cluster-wide, so every remaining pod would fail the same way.
type ForbiddenError struct {
	Namespace string
	PodName   string
	Err       error
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("annotating pod %s/%s forbidden: %v", e.Namespace, e.PodName, e.Err)
}

func (e *ForbiddenError) Unwrap() error {
	return e.Err
}
