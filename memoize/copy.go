package memoize

import "reflect"

// CopyLevel controls whether a value crossing the cache boundary (in either
// direction: being stored, or being handed back to a caller) is copied
// first, so the caller and the cached copy cannot alias a mutable
// container.
type CopyLevel int

const (
	// CopyNone returns/stores the value by reference. The default.
	CopyNone CopyLevel = 0
	// CopyContainers shallow-copies only map, slice, and pointer values;
	// scalars already copy on assignment in Go, so this is the only level
	// that meaningfully changes behavior relative to CopyNone.
	CopyContainers CopyLevel = 1
	// CopyAlways shallow-copies unconditionally, including through a
	// caller-supplied Copier when one is registered via WithCopier.
	CopyAlways CopyLevel = 2
)

// Copier is an optional caller-supplied shallow-copy function for V. When
// absent, applyCopy falls back to reflectShallowCopy, a reflect-based copy
// of map/slice/pointer kinds.
type Copier[V any] func(V) V

func applyCopy[V any](v V, level CopyLevel, copier Copier[V]) V {
	switch level {
	case CopyNone:
		return v
	case CopyContainers:
		if !isMutableContainer(v) {
			return v
		}
	case CopyAlways:
		// always copy, below
	}

	if copier != nil {
		return copier(v)
	}

	return reflectShallowCopy(v)
}

func isMutableContainer(v any) bool {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer:
		return true
	default:
		return false
	}
}

// reflectShallowCopy copies map/slice/pointer values one level deep; every
// other kind is returned unchanged (scalars and structs passed by value are
// already independent copies by Go's assignment semantics).
func reflectShallowCopy[V any](v V) V {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return v
		}

		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())

		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}

		//nolint:forcetypeassert // rv was built from a V, so Interface() is always a V
		return out.Interface().(V)
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}

		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Cap())
		reflect.Copy(out, rv)

		//nolint:forcetypeassert // see Map case
		return out.Interface().(V)
	case reflect.Pointer:
		if rv.IsNil() {
			return v
		}

		out := reflect.New(rv.Type().Elem())
		out.Elem().Set(rv.Elem())

		//nolint:forcetypeassert // see Map case
		return out.Interface().(V)
	default:
		return v
	}
}
