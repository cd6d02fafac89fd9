package k8s

import (
	"fmt"
	"strings"

	"github.com/awesome-it/adeploy/pkg/utils/uo"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// ObjectRef identifies an object the way kubectl prints it, e.g.
// "deployment.apps/nginx". Kinds are lowercased so that refs built from
// manifests and refs parsed from kubectl output compare equal.
type ObjectRef struct {
	GR        schema.GroupResource
	Name      string
	Namespace string
}

// Key returns the ref without its namespace as printed by kubectl.
func (r ObjectRef) Key() string {
	return r.GR.String() + "/" + r.Name
}

func (r ObjectRef) String() string {
	if r.Namespace == "" {
		return r.Key()
	}
	return r.Namespace + "/" + r.Key()
}

// ParseObjectRef parses "<resource>[.<group>]/<name>".
func ParseObjectRef(s string) (ObjectRef, error) {
	resource, name, _ := strings.Cut(s, "/")
	if resource == "" || name == "" {
		return ObjectRef{}, fmt.Errorf("invalid object reference '%s'", s)
	}
	return ObjectRef{
		GR:   schema.ParseGroupResource(resource),
		Name: name,
	}, nil
}

// RefFromObject builds the ref of a manifest. Objects without a namespace get defaultNamespace.
func RefFromObject(o *uo.UnstructuredObject, defaultNamespace string) (ObjectRef, error) {
	kind, _, err := o.GetNestedString("kind")
	if err != nil {
		return ObjectRef{}, err
	}
	apiVersion, _, err := o.GetNestedString("apiVersion")
	if err != nil {
		return ObjectRef{}, err
	}
	gv, err := schema.ParseGroupVersion(apiVersion)
	if err != nil {
		return ObjectRef{}, err
	}
	name, _, _ := o.GetNestedString("metadata", "name")
	ns, _, _ := o.GetNestedString("metadata", "namespace")
	if ns == "" {
		ns = defaultNamespace
	}
	if kind == "" || name == "" {
		return ObjectRef{}, fmt.Errorf("object has no kind or name")
	}
	return ObjectRef{
		GR:        schema.GroupResource{Group: gv.Group, Resource: strings.ToLower(kind)},
		Name:      name,
		Namespace: ns,
	}, nil
}
