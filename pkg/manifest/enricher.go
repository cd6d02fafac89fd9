package manifest

import (
	"fmt"
	"strings"

	"dario.cat/mergo"
	"github.com/awesome-it/adeploy/pkg/utils/uo"
	"github.com/awesome-it/adeploy/pkg/yaml"
	"github.com/huandu/xstrings"
	log "github.com/sirupsen/logrus"
)

const (
	LabelsKey    = "_labels"
	ProbesKey    = "_probes"
	ResourcesKey = "_resources"
)

var probeTypes = []string{"readiness", "liveness", "startup"}
var resourceTypes = []string{"limits", "requests"}

// Enricher merges deployment wide defaults into rendered manifests. Values
// declared in the manifests always win over the defaults.
type Enricher struct {
	labels    map[string]interface{}
	probes    *uo.UnstructuredObject
	resources *uo.UnstructuredObject
}

// NewEnricher reads the defaults from the _labels, _probes and _resources
// sections of a deployment config.
func NewEnricher(config *uo.UnstructuredObject) (*Enricher, error) {
	e := &Enricher{}

	labels, _, err := config.GetNestedObject(LabelsKey)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", LabelsKey, err)
	}
	if labels != nil {
		e.labels = map[string]interface{}{}
		for k, v := range labels.Object {
			if v == nil {
				continue
			}
			e.labels[k] = fmt.Sprint(v)
		}
	}

	e.probes, _, err = config.GetNestedObject(ProbesKey)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ProbesKey, err)
	}
	e.resources, _, err = config.GetNestedObject(ResourcesKey)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ResourcesKey, err)
	}
	return e, nil
}

// EnrichYaml enriches every document of a multi document YAML string.
func (e *Enricher) EnrichYaml(s string) (string, error) {
	docs, err := uo.FromStringMulti(s)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return s, nil
	}
	var l []interface{}
	for _, d := range docs {
		err = e.Enrich(d)
		if err != nil {
			return "", err
		}
		l = append(l, d.Object)
	}
	return yaml.WriteYamlAllString(l)
}

func (e *Enricher) Enrich(doc *uo.UnstructuredObject) error {
	if err := e.enrichProbes(doc); err != nil {
		return err
	}
	if err := e.enrichLabels(doc); err != nil {
		return err
	}
	return e.enrichResources(doc)
}

func objectName(doc *uo.UnstructuredObject) string {
	name, _, _ := doc.GetNestedString("metadata", "name")
	return name
}

func objectKind(doc *uo.UnstructuredObject) string {
	kind, _, _ := doc.GetNestedString("kind")
	return strings.ToLower(kind)
}

// findMaps returns all maps for which match returns true.
func findMaps(doc *uo.UnstructuredObject, match func(path []interface{}, m map[string]interface{}) bool) ([]map[string]interface{}, error) {
	var ret []map[string]interface{}
	err := doc.WalkMaps(func(path []interface{}, m map[string]interface{}) error {
		if match(path, m) {
			ret = append(ret, m)
		}
		return nil
	})
	return ret, err
}

// lastKey returns the last key of path or nil for the root map.
func lastKey(path []interface{}) interface{} {
	if len(path) == 0 {
		return nil
	}
	return path[len(path)-1]
}

func (e *Enricher) enrichLabels(doc *uo.UnstructuredObject) error {
	if len(e.labels) == 0 {
		return nil
	}
	kind := objectKind(doc)

	// every metadata block, including pod templates and volume claim templates,
	// but not maps nested inside of another metadata block
	metadatas, err := findMaps(doc, func(path []interface{}, m map[string]interface{}) bool {
		if lastKey(path) != "metadata" {
			return false
		}
		for _, k := range path[:len(path)-1] {
			if k == "metadata" {
				return false
			}
		}
		return true
	})
	if err != nil {
		return err
	}

	var targets []map[string]interface{}
	for _, m := range metadatas {
		labels, ok := m["labels"].(map[string]interface{})
		if !ok {
			labels = map[string]interface{}{}
			m["labels"] = labels
		}
		targets = append(targets, labels)
	}

	switch kind {
	case "service":
		selector, _, err := doc.GetNestedObject("spec", "selector")
		if err != nil {
			return err
		}
		// services without selector are backed by manually managed endpoints
		if selector != nil {
			targets = append(targets, selector.Object)
		}
	case "deployment", "statefulset", "daemonset":
		matchLabels, err := doc.EnsureNestedObject("spec", "selector", "matchLabels")
		if err != nil {
			return err
		}
		targets = append(targets, matchLabels.Object)
	}

	for _, t := range targets {
		uo.MergeMapDefaults(t, uo.CopyMap(e.labels))
	}
	return nil
}

func (e *Enricher) defaultProbe(objName string, probeType string) (map[string]interface{}, error) {
	global, _, err := e.probes.GetNestedObject(probeType)
	if err != nil {
		return nil, err
	}
	perObject, _, err := e.probes.GetNestedObject(objName, probeType)
	if err != nil {
		return nil, err
	}
	if global == nil && perObject == nil {
		return nil, nil
	}
	var g, o map[string]interface{}
	if global != nil {
		g = global.Object
	}
	if perObject != nil {
		o = perObject.Object
	}
	return camelCaseKeys(uo.Merge(g, o, uo.Override)), nil
}

// camelCaseKeys converts snake_case keys to the camelCase used in manifests.
func camelCaseKeys(m map[string]interface{}) map[string]interface{} {
	ret := make(map[string]interface{}, len(m))
	for k, v := range m {
		if strings.Contains(k, "_") {
			k = xstrings.ToCamelCase(k)
		}
		if vm, ok := v.(map[string]interface{}); ok {
			v = camelCaseKeys(vm)
		}
		ret[k] = v
	}
	return ret
}

func (e *Enricher) enrichProbes(doc *uo.UnstructuredObject) error {
	if e.probes == nil {
		return nil
	}
	objName := objectName(doc)

	for _, probeType := range probeTypes {
		key := probeType + "Probe"
		probes, err := findMaps(doc, func(path []interface{}, m map[string]interface{}) bool {
			return lastKey(path) == key
		})
		if err != nil {
			return err
		}
		if len(probes) == 0 {
			continue
		}
		def, err := e.defaultProbe(objName, probeType)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", ProbesKey, err)
		}
		if def == nil {
			continue
		}
		log.Debugf("Updating %s probe for \"%s\"", probeType, objName)
		for _, p := range probes {
			uo.MergeMapDefaults(p, uo.CopyMap(def))
		}
	}
	return nil
}

func (e *Enricher) resourceLayer(keys ...interface{}) (map[string]interface{}, error) {
	o, _, err := e.resources.GetNestedObject(keys...)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, nil
	}
	return o.Object, nil
}

func (e *Enricher) enrichResources(doc *uo.UnstructuredObject) error {
	if e.resources == nil {
		return nil
	}
	objName := objectName(doc)

	pods, err := findMaps(doc, func(path []interface{}, m map[string]interface{}) bool {
		_, hasContainers := m["containers"]
		_, hasInitContainers := m["initContainers"]
		return hasContainers || hasInitContainers
	})
	if err != nil {
		return err
	}

	for _, pod := range pods {
		for _, ck := range []string{"containers", "initContainers"} {
			containers, _, err := uo.FromMap(pod).GetNestedObjectList(ck)
			if err != nil {
				return err
			}
			for _, c := range containers {
				err = e.enrichContainerResources(objName, c.Object)
				if err != nil {
					return fmt.Errorf("invalid %s: %w", ResourcesKey, err)
				}
			}
		}
	}
	return nil
}

func (e *Enricher) enrichContainerResources(objName string, container map[string]interface{}) error {
	containerName, _ := container["name"].(string)
	resources, _ := container["resources"].(map[string]interface{})

	for _, t := range resourceTypes {
		r := map[string]interface{}{}
		layers := [][]interface{}{
			{t},
			{objName, t},
			{objName, containerName, t},
		}
		for _, keys := range layers {
			l, err := e.resourceLayer(keys...)
			if err != nil {
				return err
			}
			if l == nil {
				continue
			}
			err = mergo.Merge(&r, l, mergo.WithOverride)
			if err != nil {
				return err
			}
		}
		if declared, ok := resources[t].(map[string]interface{}); ok {
			err := mergo.Merge(&r, declared, mergo.WithOverride)
			if err != nil {
				return err
			}
		}
		if len(r) == 0 {
			continue
		}
		if resources == nil {
			resources = map[string]interface{}{}
			container["resources"] = resources
		}
		log.Debugf("Setting %s for %s/%s: %v", t, objName, containerName, r)
		resources[t] = r
	}
	return nil
}
