package scan

import (
	"context"

	"github.com/sirupsen/logrus"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// Collect lists every pod in scope and emits one record per container,
// compliant or not. Filtering to violations happens in Evaluate, so the
// returned slice is a complete inventory. Init containers are skipped.
//
// A listing failure aborts the whole collection with a ClusterAccessError;
// a single pod with an unusable limit quantity does not.
func Collect(ctx context.Context, client kubernetes.Interface, scope Scope) ([]ContainerResourceRecord, error) {
	if scope.All() {
		logrus.Info("checking pods across all namespaces")
	} else {
		logrus.Infof("checking pods in namespace %s", scope)
	}

	podList, err := client.CoreV1().Pods(scope.ListNamespace()).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, &ClusterAccessError{Scope: scope, Err: err}
	}

	records := []ContainerResourceRecord{}
	for _, pod := range podList.Items {
		for _, container := range pod.Spec.Containers {
			record := ContainerResourceRecord{
				Namespace:      pod.Namespace,
				PodName:        pod.Name,
				ContainerName:  container.Name,
				CPULimitSet:    limitIsSet(container.Resources.Limits, corev1.ResourceCPU, pod.Namespace, pod.Name, container.Name),
				MemoryLimitSet: limitIsSet(container.Resources.Limits, corev1.ResourceMemory, pod.Namespace, pod.Name, container.Name),
			}
			if !record.Compliant() {
				logrus.Debugf("found container with missing limits: %s/%s/%s (cpu: %t, memory: %t)",
					record.Namespace, record.PodName, record.ContainerName, record.MissingCPU(), record.MissingMemory())
			}
			records = append(records, record)
		}
	}
	logrus.Infof("collected %d container(s) from %d pod(s)", len(records), len(podList.Items))
	return records, nil
}

// limitIsSet reports whether the limits map declares a positive quantity
// for the given resource. An absent key, an explicit zero, or a quantity
// that did not survive parsing all count as not set; the degenerate cases
// are logged so a misconfigured pod is visible without failing the scan.
func limitIsSet(limits corev1.ResourceList, name corev1.ResourceName, namespace, podName, containerName string) bool {
	quantity, ok := limits[name]
	if !ok {
		return false
	}
	if quantity.Sign() <= 0 {
		logrus.WithFields(logrus.Fields{
			"namespace": namespace,
			"pod":       podName,
			"container": containerName,
			"resource":  name,
			"quantity":  quantity.String(),
		}).Warn("ignoring non-positive limit quantity, treating limit as not set")
		return false
	}
	return true
}
