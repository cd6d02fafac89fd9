package uo

import (
	"fmt"

	"github.com/awesome-it/adeploy/pkg/yaml"
	"github.com/jinzhu/copier"
	log "github.com/sirupsen/logrus"
)

// UnstructuredObject wraps a generic YAML/JSON document (configuration or rendered manifest).
type UnstructuredObject struct {
	Object map[string]interface{}
}

func New() *UnstructuredObject {
	return &UnstructuredObject{Object: map[string]interface{}{}}
}

func FromMap(o map[string]interface{}) *UnstructuredObject {
	if o == nil {
		o = map[string]interface{}{}
	}
	return &UnstructuredObject{Object: o}
}

// FromString parses a single YAML or JSON document. An empty document results
// in an empty object.
func FromString(s string) (*UnstructuredObject, error) {
	var m map[string]interface{}
	err := yaml.ReadYamlString(s, &m)
	if err != nil {
		return nil, err
	}
	return FromMap(m), nil
}

// FromStringMulti parses a multi document YAML stream. Empty documents are skipped.
func FromStringMulti(s string) ([]*UnstructuredObject, error) {
	docs, err := yaml.ReadYamlAllString(s)
	if err != nil {
		return nil, err
	}
	ret := make([]*UnstructuredObject, 0, len(docs))
	for i, doc := range docs {
		if doc == nil {
			continue
		}
		m, ok := doc.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("document %d is a %T, expected a map", i, doc)
		}
		ret = append(ret, FromMap(m))
	}
	return ret, nil
}

func (uo *UnstructuredObject) Clone() *UnstructuredObject {
	return FromMap(CopyMap(uo.Object))
}

// CopyMap returns a deep copy of m.
func CopyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	var c map[string]interface{}
	err := copier.CopyWithOption(&c, &m, copier.Option{
		DeepCopy: true,
	})
	if err != nil {
		// only plain maps, lists and scalars end up here
		log.Fatal(err)
	}
	return c
}
