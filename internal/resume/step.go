// Package resume models computations that may stop to wait for host input.
//
// A Step is either finished (Done, Fail), waiting for a line of input
// (Await), or holding the rest of the work as a thunk (Defer). Hosts either
// drive a step to completion with Run or push input themselves with
// Pending and Resume.
package resume

import (
	"github.com/funvibe/cppi/internal/config"
	"github.com/funvibe/cppi/internal/diagnostics"
)

type stepKind int

const (
	kindDone stepKind = iota
	kindFail
	kindAwait
	kindDefer
)

// Step is one state of a resumable computation.
type Step[T any] struct {
	kind   stepKind
	value  T
	err    error
	prompt string
	cont   func(input string) Step[T]
	thunk  func() Step[T]
}

func Done[T any](v T) Step[T] { return Step[T]{kind: kindDone, value: v} }

func Fail[T any](err error) Step[T] { return Step[T]{kind: kindFail, err: err} }

// Await suspends until the host supplies input for prompt.
func Await[T any](prompt string, k func(input string) Step[T]) Step[T] {
	return Step[T]{kind: kindAwait, prompt: prompt, cont: k}
}

// Defer postpones thunk until the step is driven.
func Defer[T any](thunk func() Step[T]) Step[T] {
	return Step[T]{kind: kindDefer, thunk: thunk}
}

// From lifts a Go result.
func From[T any](v T, err error) Step[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Done(v)
}

// Finished reports whether the step is Done or Fail.
func (s Step[T]) Finished() bool { return s.kind == kindDone || s.kind == kindFail }

// Result returns the value or error of a finished step.
func (s Step[T]) Result() (T, error) { return s.value, s.err }

// Pending returns the prompt of an Await step.
func (s Step[T]) Pending() (string, bool) {
	if s.kind != kindAwait {
		return "", false
	}
	return s.prompt, true
}

// Resume feeds input to an Await step and runs deferred work up to the
// next suspension or the end. Other steps are returned unchanged. More than
// config.DefaultMaxYields consecutive Defer steps fail with E9002.
func (s Step[T]) Resume(input string) Step[T] {
	return s.ResumeWithin(input, config.DefaultMaxYields)
}

// ResumeWithin is Resume with an explicit bound on consecutive Defer
// steps; a non-positive bound means the default.
func (s Step[T]) ResumeWithin(input string, maxYields int) Step[T] {
	if s.kind != kindAwait {
		return s
	}
	if maxYields <= 0 {
		maxYields = config.DefaultMaxYields
	}
	return s.cont(input).settle(maxYields)
}

// settle trampolines Defer steps.
func (s Step[T]) settle(limit int) Step[T] {
	for yields := 0; s.kind == kindDefer; yields++ {
		if yields >= limit {
			return Fail[T](iterationLimit(limit))
		}
		s = s.thunk()
	}
	return s
}

func iterationLimit(limit int) error {
	return diagnostics.New(diagnostics.ErrIterationLimit, "more than %d consecutive deferred steps", limit)
}

// Then sequences f after s.
func Then[A, B any](s Step[A], f func(A) Step[B]) Step[B] {
	switch s.kind {
	case kindDone:
		return f(s.value)
	case kindFail:
		return Fail[B](s.err)
	case kindAwait:
		return Await(s.prompt, func(in string) Step[B] { return Then(s.cont(in), f) })
	default:
		return Defer(func() Step[B] { return Then(s.thunk(), f) })
	}
}

// Map applies a fallible function to the result of s.
func Map[A, B any](s Step[A], f func(A) (B, error)) Step[B] {
	return Then(s, func(a A) Step[B] { return From(f(a)) })
}

// Each runs f over items in order and collects the results. Items that
// finish immediately are handled in a loop; the rest resume the loop from
// their continuation.
func Each[A, B any](items []A, f func(int, A) Step[B]) Step[[]B] {
	out := make([]B, 0, len(items))
	var loop func(i int) Step[[]B]
	loop = func(i int) Step[[]B] {
		for ; i < len(items); i++ {
			s := f(i, items[i])
			switch s.kind {
			case kindDone:
				out = append(out, s.value)
				continue
			case kindFail:
				return Fail[[]B](s.err)
			}
			next := i + 1
			return Then(s, func(b B) Step[[]B] {
				out = append(out, b)
				return loop(next)
			})
		}
		return Done(out)
	}
	return loop(0)
}
