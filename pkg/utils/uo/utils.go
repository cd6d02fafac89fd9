package uo

// MergeDirection selects which side of a merge wins on conflicting non-map values.
type MergeDirection int

const (
	// Override lets values of the second document replace values of the first.
	Override MergeDirection = iota
	// Defaults keeps values of the first document and only fills in what is missing.
	Defaults
)

func (d MergeDirection) String() string {
	switch d {
	case Override:
		return "override"
	case Defaults:
		return "defaults"
	}
	return "unknown"
}

// MergeMap recursively merges b into a. Nested maps are merged, everything else
// (scalars and lists) is replaced wholesale by the value from b.
func MergeMap(a, b map[string]interface{}) {
	mergeMap(a, b, Override)
}

// MergeMapDefaults recursively merges b into a, using b only as fallback for
// keys that are missing or null in a.
func MergeMapDefaults(a, b map[string]interface{}) {
	mergeMap(a, b, Defaults)
}

// Merge returns a new document with override merged into base. Neither input is modified.
// A nil override returns a copy of base.
func Merge(base, override map[string]interface{}, direction MergeDirection) map[string]interface{} {
	ret := CopyMap(base)
	if ret == nil {
		ret = map[string]interface{}{}
	}
	if override == nil {
		return ret
	}
	mergeMap(ret, CopyMap(override), direction)
	return ret
}

func mergeMap(a, b map[string]interface{}, direction MergeDirection) {
	for key, bv := range b {
		av, ok := a[key]
		if !ok {
			a[key] = bv
			continue
		}
		adict, adictOk := av.(map[string]interface{})
		bdict, bdictOk := bv.(map[string]interface{})
		if adictOk && bdictOk {
			mergeMap(adict, bdict, direction)
			continue
		}
		switch direction {
		case Override:
			a[key] = bv
		case Defaults:
			if av == nil {
				a[key] = bv
			}
		}
	}
}
