package kube

import (
	"fmt"

	"k8s.io/client-go/kubernetes"
	_ "k8s.io/client-go/plugin/pkg/client/auth" // needed for local development with .kube/config
	ctrl "sigs.k8s.io/controller-runtime"
)

// GetClient builds a typed clientset, trying in-cluster config first and
// falling back to $KUBECONFIG or ~/.kube/config.
func GetClient() (kubernetes.Interface, error) {
	config, err := ctrl.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("fetching KubeConfig: %w", err)
	}
	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("creating Kubernetes client: %w", err)
	}
	return client, nil
}
