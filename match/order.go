package match

import (
	"cmp"
	"reflect"
)

// Comparer is implemented by event types that define their own ordering.
type Comparer[E any] interface {
	Compare(other E) int
}

// NaturalOrder compares two events by their natural order. Types implementing
// Comparer use it; integer, float, string and bool kinds (including named types)
// compare by value. Anything else has no order and compares as equal.
func NaturalOrder[E comparable](a, b E) int {
	if c, ok := any(a).(Comparer[E]); ok {
		return c.Compare(b)
	}

	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !ra.IsValid() || !rb.IsValid() || ra.Kind() != rb.Kind() {
		return 0
	}

	switch ra.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(ra.Int(), rb.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cmp.Compare(ra.Uint(), rb.Uint())
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(ra.Float(), rb.Float())
	case reflect.String:
		return cmp.Compare(ra.String(), rb.String())
	case reflect.Bool:
		return compareBool(ra.Bool(), rb.Bool())
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}
