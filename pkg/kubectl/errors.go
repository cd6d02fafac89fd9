package kubectl

import (
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

var secretsResource = schema.GroupResource{Resource: "secrets"}

func NewSecretNotFound(name string) error {
	return apierrors.NewNotFound(secretsResource, name)
}

func IsNotFound(err error) bool {
	return apierrors.IsNotFound(err)
}

func isNotFoundOutput(stderr string) bool {
	return strings.Contains(stderr, "(NotFound)") || strings.Contains(stderr, "not found")
}
