package seq

// Result is the outcome of a single pull: either a value or termination.
type Result[T any] struct {
	Value T
	Done  bool
}

// Yield wraps v in a non-terminal Result.
func Yield[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// End returns the terminal Result.
func End[T any]() Result[T] {
	return Result[T]{Done: true}
}
