// Package poller runs at most one background fetch at a time and hands its
// result back to a single consuming goroutine.
//
// The pattern is a one-sided ownership transfer: Start launches a fetch
// whose result lands in a one-slot channel, Poll moves a finished result
// into Current without ever blocking, and Wait drains an outstanding fetch
// at shutdown. There is no cancellation; a started fetch always runs to
// completion. All methods must be called from the same goroutine.
package poller

// Job tracks one in-flight fetch producing a *T.
type Job[T any] struct {
	current *T
	active  bool
	done    chan *T
}

// New creates an idle job with no current result.
func New[T any]() *Job[T] {
	return &Job[T]{
		done: make(chan *T, 1),
	}
}

// Start launches fn in the background. It returns false without starting
// anything if a previous fetch is still outstanding.
//
// fn must always return a result, never nil; failures are expected to be
// encoded in the result itself.
func (j *Job[T]) Start(fn func() *T) bool {
	if j.active {
		return false
	}
	j.active = true

	go func() {
		j.done <- fn()
	}()
	return true
}

// Poll checks for a finished fetch without blocking. When one has landed,
// its result becomes Current. Poll reports whether a fetch is still
// outstanding afterwards.
func (j *Job[T]) Poll() bool {
	if !j.active {
		return false
	}
	select {
	case res := <-j.done:
		j.current = res
		j.active = false
	default:
	}
	return j.active
}

// Active reports whether a fetch is outstanding.
func (j *Job[T]) Active() bool {
	return j.active
}

// Current returns the most recently landed result, or nil if no fetch has
// completed yet. The caller owns the returned value until the next Poll
// that lands a result.
func (j *Job[T]) Current() *T {
	return j.current
}

// Wait blocks until an outstanding fetch completes, landing its result in
// Current. It returns immediately when the job is idle. Intended for
// shutdown, so a background fetch never outlives its owner.
func (j *Job[T]) Wait() {
	if !j.active {
		return
	}
	j.current = <-j.done
	j.active = false
}
