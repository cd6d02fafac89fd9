package uo

import (
	"fmt"
	"strings"
)

// Key paths address values inside a document. String keys index maps, int
// keys index lists.

func formatPath(keys []interface{}) string {
	var sb strings.Builder
	for _, k := range keys {
		switch x := k.(type) {
		case int:
			fmt.Fprintf(&sb, "[%d]", x)
		default:
			if sb.Len() != 0 {
				sb.WriteByte('.')
			}
			fmt.Fprintf(&sb, "%v", x)
		}
	}
	return sb.String()
}

// child looks up key in parent. Out of range list indexes are reported as not found.
func child(parent interface{}, key interface{}) (interface{}, bool, error) {
	switch p := parent.(type) {
	case map[string]interface{}:
		k, ok := key.(string)
		if !ok {
			return nil, false, fmt.Errorf("invalid map key %v", key)
		}
		v, found := p[k]
		return v, found, nil
	case []interface{}:
		i, ok := key.(int)
		if !ok {
			return nil, false, fmt.Errorf("invalid list index %v", key)
		}
		if i < 0 || i >= len(p) {
			return nil, false, nil
		}
		return p[i], true, nil
	default:
		return nil, false, fmt.Errorf("can not look up %v in a %T", key, parent)
	}
}

func (uo *UnstructuredObject) GetNestedField(keys ...interface{}) (interface{}, bool, error) {
	var cur interface{} = uo.Object
	for i, k := range keys {
		v, found, err := child(cur, k)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", formatPath(keys[:i]), err)
		}
		if !found {
			return nil, false, nil
		}
		cur = v
	}
	return cur, true, nil
}

// SetNestedField sets value at the given key path. Missing or null intermediate
// values are created as maps.
func (uo *UnstructuredObject) SetNestedField(value interface{}, keys ...interface{}) error {
	if len(keys) == 0 {
		return fmt.Errorf("empty key path")
	}
	m := uo.Object
	for i, k := range keys[:len(keys)-1] {
		ks, ok := k.(string)
		if !ok {
			return fmt.Errorf("%s: only map keys are supported when setting values", formatPath(keys[:i+1]))
		}
		next, ok := m[ks].(map[string]interface{})
		if !ok {
			if m[ks] != nil {
				return fmt.Errorf("value at %s is not a map", formatPath(keys[:i+1]))
			}
			next = map[string]interface{}{}
			m[ks] = next
		}
		m = next
	}
	last, ok := keys[len(keys)-1].(string)
	if !ok {
		return fmt.Errorf("%s: only map keys are supported when setting values", formatPath(keys))
	}
	m[last] = value
	return nil
}

func (uo *UnstructuredObject) GetNestedString(keys ...interface{}) (string, bool, error) {
	v, found, err := uo.GetNestedField(keys...)
	if err != nil || !found {
		return "", false, err
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("value at %s is not a string", formatPath(keys))
	}
	return s, true, nil
}

// GetNestedObject returns the map at the given key path. A null value is reported as not found.
func (uo *UnstructuredObject) GetNestedObject(keys ...interface{}) (*UnstructuredObject, bool, error) {
	v, found, err := uo.GetNestedField(keys...)
	if err != nil || !found || v == nil {
		return nil, false, err
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, false, fmt.Errorf("value at %s is not a map", formatPath(keys))
	}
	return FromMap(m), true, nil
}

// GetNestedObjectList returns the list of maps at the given key path. A null value is reported as not found.
func (uo *UnstructuredObject) GetNestedObjectList(keys ...interface{}) ([]*UnstructuredObject, bool, error) {
	v, found, err := uo.GetNestedField(keys...)
	if err != nil || !found || v == nil {
		return nil, false, err
	}
	l, ok := v.([]interface{})
	if !ok {
		return nil, false, fmt.Errorf("value at %s is not a list", formatPath(keys))
	}
	ret := make([]*UnstructuredObject, 0, len(l))
	for i, x := range l {
		m, ok := x.(map[string]interface{})
		if !ok {
			return nil, false, fmt.Errorf("value at %s is not a map", formatPath(append(keys[:len(keys):len(keys)], i)))
		}
		ret = append(ret, FromMap(m))
	}
	return ret, true, nil
}

// EnsureNestedObject returns the map at the given key path, creating it if it is missing or null.
func (uo *UnstructuredObject) EnsureNestedObject(keys ...interface{}) (*UnstructuredObject, error) {
	o, found, err := uo.GetNestedObject(keys...)
	if err != nil || found {
		return o, err
	}
	m := map[string]interface{}{}
	err = uo.SetNestedField(m, keys...)
	if err != nil {
		return nil, err
	}
	return FromMap(m), nil
}
