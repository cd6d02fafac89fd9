package uo

import (
	"sort"
)

// MapVisitor is called for every map of a document. path is the key path of m,
// the root map has an empty path.
type MapVisitor func(path []interface{}, m map[string]interface{}) error

// WalkMaps visits all maps depth first, a map is visited before its children.
// Map keys are visited in sorted order.
func (uo *UnstructuredObject) WalkMaps(fn MapVisitor) error {
	return walkMaps(nil, uo.Object, fn)
}

func walkMaps(path []interface{}, v interface{}, fn MapVisitor) error {
	switch x := v.(type) {
	case map[string]interface{}:
		err := fn(path, x)
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			err = walkMaps(appendKey(path, k), x[k], fn)
			if err != nil {
				return err
			}
		}
	case []interface{}:
		for i, e := range x {
			err := walkMaps(appendKey(path, i), e, fn)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// appendKey never shares the backing array with path, visitors may keep the slice.
func appendKey(path []interface{}, k interface{}) []interface{} {
	ret := make([]interface{}, len(path)+1)
	copy(ret, path)
	ret[len(path)] = k
	return ret
}
