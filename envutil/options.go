package envutil

// Option modifies a Reader. Typed readers such as String and Int accept options
// so that callers can attach defaults and validation inline.
type Option[T any] func(Reader[T]) Reader[T]

// Default provides a default value for the Reader.
func Default[T any](dfl T) Option[T] {
	return func(rdr Reader[T]) Reader[T] {
		return rdr.WithDefault(dfl)
	}
}

// Validate runs f on the Reader's value; a non-nil error becomes the Reader's error.
func Validate[T any](f func(T) error) Option[T] {
	return func(rdr Reader[T]) Reader[T] {
		return Map(rdr, func(val T) (T, error) {
			return val, f(val)
		})
	}
}
