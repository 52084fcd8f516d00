package future

import (
	"sync"
)

type result[T any] struct {
	v   T
	err error
}

// Future is a single-shot result that completes exactly once. Join and
// one_of members each run behind one.
type Future[T any] struct {
	doneChannel chan struct{}
	res         result[T]
	once        sync.Once
}

// Outcome is the settled state of one future, see Settle.
type Outcome[T any] struct {
	Value T
	Err   error
}

// New runs fn in a goroutine and completes the Future when fn returns.
func New[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{doneChannel: make(chan struct{})}
	go func() {
		v, err := fn()
		f.complete(v, err)
	}()
	return f
}

// Await blocks until completion and returns the result.
func (f *Future[T]) Await() (T, error) {
	<-f.doneChannel
	return f.res.v, f.res.err
}

// Settle waits for every future, failed or not, and keeps input order.
func Settle[T any](futures ...*Future[T]) *Future[[]Outcome[T]] {
	return New(func() ([]Outcome[T], error) {
		out := make([]Outcome[T], len(futures))
		for i, fut := range futures {
			v, err := fut.Await()
			out[i] = Outcome[T]{Value: v, Err: err}
		}
		return out, nil
	})
}

// FirstMatch completes with the first value accepted by pick. When no value
// is accepted the result of the first future in input order is returned.
func FirstMatch[T any](pick func(T, error) bool, futures ...*Future[T]) *Future[T] {
	return New(func() (T, error) {
		type indexed struct {
			i int
			r result[T]
		}
		ch := make(chan indexed, len(futures))
		for i, f := range futures {
			i, f := i, f
			go func() {
				v, err := f.Await()
				ch <- indexed{i: i, r: result[T]{v: v, err: err}}
			}()
		}
		all := make([]result[T], len(futures))
		for range futures {
			got := <-ch
			if pick(got.r.v, got.r.err) {
				return got.r.v, got.r.err
			}
			all[got.i] = got.r
		}
		if len(all) == 0 {
			var zero T
			return zero, nil
		}
		return all[0].v, all[0].err
	})
}

// complete sets the result exactly once and closes doneChannel.
func (f *Future[T]) complete(v T, err error) {
	f.once.Do(func() {
		f.res = result[T]{v: v, err: err}
		close(f.doneChannel)
	})
}
