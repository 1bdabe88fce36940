package annotate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/Giladt2789/pods-limit-checker-tool/pkg/scan"
)

var podsResource = schema.GroupResource{Resource: "pods"}

func newPod(namespace, name string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Namespace: namespace, Name: name},
		Spec:       corev1.PodSpec{Containers: []corev1.Container{{Name: "app"}}},
	}
}

func testConfig() Config {
	// High rate so tests never sit in the limiter; single worker keeps
	// reactor bookkeeping deterministic.
	return Config{Workers: 1, RatePerMinute: 60000}
}

func violation(namespace, name string, missingCPU, missingMemory bool) scan.PodViolation {
	return scan.PodViolation{
		Namespace:     namespace,
		PodName:       name,
		MissingCPU:    missingCPU,
		MissingMemory: missingMemory,
	}
}

func TestApplySetsWarningAnnotation(t *testing.T) {
	client := fake.NewSimpleClientset(newPod("default", "web"))
	annotator := New(client, testConfig())

	outcomes, err := annotator.Apply(context.Background(), []scan.PodViolation{
		violation("default", "web", true, false),
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Applied)
	assert.Equal(t, scan.WarningNoCPULimit, outcomes[0].WarningValue)
	assert.Empty(t, outcomes[0].Error)

	pod, err := client.CoreV1().Pods("default").Get(context.Background(), "web", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, scan.WarningNoCPULimit, pod.Annotations[scan.WarningAnnotation])
}

func TestApplyIsIdempotent(t *testing.T) {
	client := fake.NewSimpleClientset(newPod("default", "web"))
	annotator := New(client, testConfig())
	violations := []scan.PodViolation{violation("default", "web", true, true)}

	for run := 0; run < 2; run++ {
		outcomes, err := annotator.Apply(context.Background(), violations)
		require.NoError(t, err)
		require.Len(t, outcomes, 1)
		assert.True(t, outcomes[0].Applied)
		assert.Equal(t, scan.WarningNoLimits, outcomes[0].WarningValue)
	}

	pod, err := client.CoreV1().Pods("default").Get(context.Background(), "web", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, scan.WarningNoLimits, pod.Annotations[scan.WarningAnnotation])
}

func TestApplyRetriesOnConflict(t *testing.T) {
	client := fake.NewSimpleClientset(newPod("default", "web"))
	conflicts := 0
	client.PrependReactor("patch", "pods", func(action k8stesting.Action) (bool, runtime.Object, error) {
		if conflicts < 2 {
			conflicts++
			return true, nil, apierrors.NewConflict(podsResource, "web", errors.New("object was modified"))
		}
		return false, nil, nil
	})
	annotator := New(client, testConfig())

	outcomes, err := annotator.Apply(context.Background(), []scan.PodViolation{
		violation("default", "web", true, false),
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Applied)
	assert.Equal(t, 2, conflicts)

	// Each conflicted attempt re-fetches the pod before the next patch.
	gets := 0
	for _, action := range client.Actions() {
		if action.GetVerb() == "get" {
			gets++
		}
	}
	assert.Equal(t, 2, gets)
}

func TestApplyConflictExhaustionDoesNotAbortRun(t *testing.T) {
	client := fake.NewSimpleClientset(newPod("default", "stuck"), newPod("default", "fine"))
	client.PrependReactor("patch", "pods", func(action k8stesting.Action) (bool, runtime.Object, error) {
		patch := action.(k8stesting.PatchAction)
		if patch.GetName() == "stuck" {
			return true, nil, apierrors.NewConflict(podsResource, "stuck", errors.New("object was modified"))
		}
		return false, nil, nil
	})
	annotator := New(client, testConfig())

	outcomes, err := annotator.Apply(context.Background(), []scan.PodViolation{
		violation("default", "stuck", true, false),
		violation("default", "fine", false, true),
	})
	require.NoError(t, err, "one pod's conflict exhaustion must not fail the run")
	require.Len(t, outcomes, 2)

	assert.Equal(t, "stuck", outcomes[0].PodName)
	assert.False(t, outcomes[0].Applied)
	assert.Contains(t, outcomes[0].Error, "object was modified")

	assert.Equal(t, "fine", outcomes[1].PodName)
	assert.True(t, outcomes[1].Applied)
}

func TestApplyForbiddenAbortsPhase(t *testing.T) {
	client := fake.NewSimpleClientset(newPod("default", "a"), newPod("default", "b"))
	patches := 0
	client.PrependReactor("patch", "pods", func(action k8stesting.Action) (bool, runtime.Object, error) {
		patches++
		return true, nil, apierrors.NewForbidden(podsResource, "a", errors.New("patch is forbidden"))
	})
	annotator := New(client, testConfig())

	outcomes, err := annotator.Apply(context.Background(), []scan.PodViolation{
		violation("default", "a", true, false),
		violation("default", "b", true, false),
	})
	var forbidden *ForbiddenError
	require.True(t, errors.As(err, &forbidden))
	assert.Empty(t, outcomes)
	assert.Equal(t, 1, patches, "a cluster-wide permission failure is not repeated per pod")
}

func TestApplyNoViolationsNoWrites(t *testing.T) {
	client := fake.NewSimpleClientset(newPod("default", "web"))
	annotator := New(client, testConfig())

	outcomes, err := annotator.Apply(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
	assert.Empty(t, client.Actions())
}

func TestApplyCanceledContextSurfacesError(t *testing.T) {
	client := fake.NewSimpleClientset(newPod("default", "web"))
	annotator := New(client, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcomes, err := annotator.Apply(ctx, []scan.PodViolation{
		violation("default", "web", true, false),
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, outcomes, "an aborted run returns no partial outcomes")
	assert.Empty(t, client.Actions())
}
