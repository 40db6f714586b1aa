package testutil

import (
	"sync"
)

// Recorder captures the signals delivered to an observer. Its methods can be
// passed directly as onNext/onError/onComplete callbacks and are safe for
// concurrent use.
type Recorder[T any] struct {
	mu        sync.Mutex
	values    []T
	errs      []error
	completes int
	done      chan struct{}
	doneOnce  sync.Once
}

// NewRecorder creates an empty Recorder.
func NewRecorder[T any]() *Recorder[T] {
	return &Recorder[T]{done: make(chan struct{})}
}

// OnNext records an element.
func (r *Recorder[T]) OnNext(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

// OnError records a failure signal.
func (r *Recorder[T]) OnError(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	r.doneOnce.Do(func() { close(r.done) })
}

// OnComplete records a completion signal.
func (r *Recorder[T]) OnComplete() {
	r.mu.Lock()
	r.completes++
	r.mu.Unlock()
	r.doneOnce.Do(func() { close(r.done) })
}

// Done is closed after the first terminal signal.
func (r *Recorder[T]) Done() <-chan struct{} {
	return r.done
}

// Values returns a copy of the recorded elements.
func (r *Recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.values...)
}

// Errors returns a copy of the recorded failures.
func (r *Recorder[T]) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// Completions returns how many completion signals were recorded.
func (r *Recorder[T]) Completions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completes
}
