package k8s

import (
	"testing"

	"github.com/awesome-it/adeploy/pkg/utils/uo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObjectRef(t *testing.T) {
	r, err := ParseObjectRef("deployment.apps/nginx")
	require.NoError(t, err)
	assert.Equal(t, "deployment", r.GR.Resource)
	assert.Equal(t, "apps", r.GR.Group)
	assert.Equal(t, "nginx", r.Name)

	r.Namespace = "web"
	assert.Equal(t, "web/deployment.apps/nginx", r.String())
	assert.Equal(t, "deployment.apps/nginx", r.Key())

	r, err = ParseObjectRef("secret/secret-abc")
	require.NoError(t, err)
	assert.Equal(t, "secret/secret-abc", r.String())

	for _, s := range []string{"nonsense", "secret/", "/name"} {
		_, err = ParseObjectRef(s)
		assert.Error(t, err, s)
	}
}

func TestRefFromObject(t *testing.T) {
	o, err := uo.FromString("apiVersion: apps/v1\nkind: Deployment\nmetadata:\n  name: nginx\n")
	require.NoError(t, err)
	r, err := RefFromObject(o, "web")
	require.NoError(t, err)
	assert.Equal(t, "web/deployment.apps/nginx", r.String())

	parsed, err := ParseObjectRef("deployment.apps/nginx")
	require.NoError(t, err)
	assert.Equal(t, parsed.Key(), r.Key())

	o, err = uo.FromString("apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: cm\n  namespace: other\n")
	require.NoError(t, err)
	r, err = RefFromObject(o, "web")
	require.NoError(t, err)
	assert.Equal(t, "other/configmap/cm", r.String())

	_, err = RefFromObject(uo.New(), "web")
	assert.Error(t, err)
}
