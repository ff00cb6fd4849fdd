// Package result provides a two-variant outcome type used at the boundaries
// between the LLM gateway, the agents and the chat session.
package result

import "fmt"

// Result holds either a success value of type T or a failure value of type E.
// Exactly one side is populated. A Result is never mutated after construction.
type Result[E, T any] struct {
	value T
	err   E
	ok    bool
}

// Success creates a successful Result.
func Success[E, T any](value T) Result[E, T] {
	return Result[E, T]{value: value, ok: true}
}

// Failure creates a failed Result.
func Failure[E, T any](err E) Result[E, T] {
	return Result[E, T]{err: err}
}

// IsSuccess reports whether the Result holds a success value.
func (r Result[E, T]) IsSuccess() bool {
	return r.ok
}

// Value returns the success value and true, or the zero value and false.
func (r Result[E, T]) Value() (T, bool) {
	return r.value, r.ok
}

// Failure returns the failure value and true, or the zero value and false.
func (r Result[E, T]) Failure() (E, bool) {
	return r.err, !r.ok
}

// String implements fmt.Stringer for debugging output.
func (r Result[E, T]) String() string {
	if r.ok {
		return fmt.Sprintf("Success(%v)", r.value)
	}
	return fmt.Sprintf("Failure(%v)", r.err)
}

// Map transforms the success value with f. A failure passes through unchanged.
func Map[E, T, U any](r Result[E, T], f func(T) U) Result[E, U] {
	if !r.ok {
		return Failure[E, U](r.err)
	}
	return Success[E](f(r.value))
}

// Chain applies f to the success value and flattens the returned Result.
// A failure passes through unchanged and f is not called.
func Chain[E, T, U any](r Result[E, T], f func(T) Result[E, U]) Result[E, U] {
	if !r.ok {
		return Failure[E, U](r.err)
	}
	return f(r.value)
}

// MapFailure transforms the failure value with f. A success passes through
// unchanged.
func MapFailure[E, F, T any](r Result[E, T], f func(E) F) Result[F, T] {
	if r.ok {
		return Success[F](r.value)
	}
	return Failure[F, T](f(r.err))
}

// Fold collapses both branches into a single value of type R.
func Fold[E, T, R any](r Result[E, T], onSuccess func(T) R, onFailure func(E) R) R {
	if r.ok {
		return onSuccess(r.value)
	}
	return onFailure(r.err)
}

// Try runs op and converts a returned error, or a panic raised inside op,
// into a Failure built by wrap.
func Try[E, T any](op func() (T, error), wrap func(error) E) (res Result[E, T]) {
	defer func() {
		if p := recover(); p != nil {
			err, ok := p.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", p)
			}
			res = Failure[E, T](wrap(err))
		}
	}()

	value, err := op()
	if err != nil {
		return Failure[E, T](wrap(err))
	}
	return Success[E](value)
}
