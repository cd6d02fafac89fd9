package kubectl

import (
	"bufio"
	"strings"

	"github.com/awesome-it/adeploy/pkg/types/k8s"
	"github.com/awesome-it/adeploy/pkg/utils/uo"
	log "github.com/sirupsen/logrus"
)

type ApplyResult struct {
	Ref    k8s.ObjectRef
	Status string
}

// ParseApplyOutput parses the human readable output of kubectl apply, e.g.
// "deployment.apps/nginx configured (server dry run)". The namespace of each
// object is looked up in manifests and defaults to namespace.
func ParseApplyOutput(output string, manifests []*uo.UnstructuredObject, namespace string) []ApplyResult {
	namespaces := map[string]string{}
	for _, m := range manifests {
		ref, err := k8s.RefFromObject(m, namespace)
		if err != nil {
			continue
		}
		namespaces[ref.Key()] = ref.Namespace
	}

	var results []ApplyResult
	s := bufio.NewScanner(strings.NewReader(output))
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		obj, status, _ := strings.Cut(line, " ")
		ref, err := k8s.ParseObjectRef(obj)
		if err != nil {
			log.Debugf("Ignoring apply output line: %s", line)
			continue
		}
		ref.Namespace = namespace
		if ns, ok := namespaces[ref.Key()]; ok {
			ref.Namespace = ns
		}
		results = append(results, ApplyResult{
			Ref:    ref,
			Status: strings.TrimSpace(status),
		})
	}
	return results
}

func ReportApply(results []ApplyResult) {
	for _, r := range results {
		log.Infof("%s: %s", r.Ref.String(), r.Status)
	}
}
