// Package annotate applies warning annotations to pods that are missing
// resource limits. It is only ever constructed when annotation mode is on;
// the read-only path never touches this package, so a scan works with
// nothing but list permission.
package annotate

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"

	"github.com/Giladt2789/pods-limit-checker-tool/pkg/scan"
)

const defaultMaxAttempts = 3

// Config tunes the annotation phase. Zero values fall back to safe
// defaults in New.
type Config struct {
	// Workers bounds how many pods are patched concurrently.
	Workers int
	// RatePerMinute caps patch calls against the API server.
	RatePerMinute int
	// MaxAttempts bounds retries of a single pod's patch on write conflict.
	MaxAttempts int
}

// Annotator patches the warning annotation onto violating pods.
type Annotator struct {
	client      kubernetes.Interface
	limiter     *rate.Limiter
	workers     int
	maxAttempts int
}

func New(client kubernetes.Interface, config Config) *Annotator {
	if config.Workers <= 0 {
		config.Workers = 5
	}
	if config.RatePerMinute <= 0 {
		config.RatePerMinute = 120
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaultMaxAttempts
	}
	return &Annotator{
		client:      client,
		limiter:     rate.NewLimiter(rate.Limit(config.RatePerMinute)/60.0, 1),
		workers:     config.Workers,
		maxAttempts: config.MaxAttempts,
	}
}

// Apply annotates every violating pod and returns one outcome per pod, in
// the order the violations were handed in. A pod whose patch keeps
// conflicting is reported as not applied and the run continues. A
// forbidden response cancels the remaining work and surfaces as
// ForbiddenError, since write permission is cluster-wide and repeating the
// failure per pod adds nothing; outcomes gathered before the abort are
// still returned.
func (a *Annotator) Apply(parent context.Context, violations []scan.PodViolation) ([]scan.AnnotationOutcome, error) {
	if len(violations) == 0 {
		return nil, nil
	}
	logrus.Infof("annotating %d pod(s) with warning labels", len(violations))

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var (
		mu       sync.Mutex
		outcomes = map[string]scan.AnnotationOutcome{}
		abortErr error
	)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, a.workers)
	for _, violation := range violations {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		semaphore <- struct{}{} // acquire

		go func(violation scan.PodViolation) {
			defer wg.Done()
			defer func() { <-semaphore }() // release

			if ctx.Err() != nil {
				return
			}
			outcome, err := a.annotatePod(ctx, violation)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if abortErr == nil {
					abortErr = err
				}
				cancel()
				return
			}
			if ctx.Err() != nil && !outcome.Applied {
				// Canceled mid-flight, not a real per-pod result.
				return
			}
			outcomes[violation.Key()] = outcome
		}(violation)
	}
	wg.Wait()

	// A cancellation of the whole run trumps per-pod bookkeeping.
	if abortErr == nil && parent.Err() != nil {
		abortErr = parent.Err()
	}

	ordered := make([]scan.AnnotationOutcome, 0, len(outcomes))
	for _, violation := range violations {
		if outcome, ok := outcomes[violation.Key()]; ok {
			ordered = append(ordered, outcome)
		}
	}
	return ordered, abortErr
}

// annotatePod patches one pod, retrying on write conflicts up to the
// configured bound with a re-fetch between attempts. Only a forbidden
// response is returned as an error; every other failure lands in the
// outcome so the caller keeps going.
func (a *Annotator) annotatePod(ctx context.Context, violation scan.PodViolation) (scan.AnnotationOutcome, error) {
	outcome := scan.AnnotationOutcome{
		Namespace:    violation.Namespace,
		PodName:      violation.PodName,
		WarningValue: violation.WarningValue(),
	}

	var lastErr error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err := a.limiter.Wait(ctx); err != nil {
			lastErr = err
			break
		}
		err := a.setAnnotation(ctx, violation.Namespace, violation.PodName, scan.WarningAnnotation, outcome.WarningValue)
		if err == nil {
			logrus.Infof("annotated pod %s with %s=%s", violation.Key(), scan.WarningAnnotation, outcome.WarningValue)
			outcome.Applied = true
			return outcome, nil
		}
		if apierrors.IsForbidden(err) {
			return outcome, &ForbiddenError{Namespace: violation.Namespace, PodName: violation.PodName, Err: err}
		}
		lastErr = err
		if !apierrors.IsConflict(err) {
			break
		}
		if attempt == a.maxAttempts {
			break
		}
		logrus.WithField("pod", violation.Key()).Debugf("patch conflict on attempt %d of %d, re-fetching", attempt, a.maxAttempts)
		if _, getErr := a.client.CoreV1().Pods(violation.Namespace).Get(ctx, violation.PodName, metav1.GetOptions{}); getErr != nil {
			lastErr = getErr
			break
		}
	}

	logrus.Errorf("failed to annotate pod %s: %v", violation.Key(), lastErr)
	outcome.Error = lastErr.Error()
	return outcome, nil
}

// setAnnotation issues a strategic merge patch writing a single annotation
// key. Re-applying the same value is a no-op on the server side, which
// keeps repeated runs idempotent.
func (a *Annotator) setAnnotation(ctx context.Context, namespace, podName, key, value string) error {
	patch, err := json.Marshal(map[string]interface{}{
		"metadata": map[string]interface{}{
			"annotations": map[string]string{key: value},
		},
	})
	if err != nil {
		return err
	}
	_, err = a.client.CoreV1().Pods(namespace).Patch(ctx, podName, types.StrategicMergePatchType, patch, metav1.PatchOptions{})
	return err
}
