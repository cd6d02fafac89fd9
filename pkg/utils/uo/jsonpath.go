package uo

import (
	"github.com/ohler55/ojg/jp"
)

// JsonPath is a compiled JSONPath expression, e.g. "$.items[*].metadata.name".
type JsonPath struct {
	exp jp.Expr
}

func NewJsonPath(p string) (*JsonPath, error) {
	exp, err := jp.ParseString(p)
	if err != nil {
		return nil, err
	}
	return &JsonPath{exp: exp}, nil
}

func NewJsonPathMust(p string) *JsonPath {
	j, err := NewJsonPath(p)
	if err != nil {
		panic(err)
	}
	return j
}

// GetStrings returns all matches that are strings, other matches are ignored.
func (j *JsonPath) GetStrings(o *UnstructuredObject) []string {
	var ret []string
	for _, x := range j.exp.Get(o.Object) {
		if s, ok := x.(string); ok {
			ret = append(ret, s)
		}
	}
	return ret
}
