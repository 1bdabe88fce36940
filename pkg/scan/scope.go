package scan

// Scope selects the pod population for a scan: either every namespace in
// the cluster or a single named one.
type Scope struct {
	namespace string
	all       bool
}

// AllNamespaces returns a Scope covering the whole cluster.
func AllNamespaces() Scope {
	return Scope{all: true}
}

// InNamespace returns a Scope restricted to the given namespace.
func InNamespace(namespace string) Scope {
	return Scope{namespace: namespace}
}

// All reports whether the scope covers every namespace.
func (s Scope) All() bool {
	return s.all
}

// ListNamespace is the namespace argument handed to the pods listing call.
// The empty string means all namespaces, matching client-go conventions.
func (s Scope) ListNamespace() string {
	if s.all {
		return ""
	}
	return s.namespace
}

func (s Scope) String() string {
	if s.all {
		return "*"
	}
	return s.namespace
}
