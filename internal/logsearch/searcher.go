// Package logsearch debounces query input and drops responses that a newer
// query has superseded.
package logsearch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"carbon-admin-console/internal/logquery"
)

const DefaultDebounce = 350 * time.Millisecond

// Result is the outcome of one search generation.
type Result[T any] struct {
	Generation uint64
	Query      logquery.ParsedQuery
	Value      T
	Err        error
}

type SearchFunc[T any] func(ctx context.Context, q logquery.ParsedQuery) (T, error)

// Searcher runs Fn for the latest submitted query only. Each Submit cancels
// the previous request's context and bumps the generation; a result is
// delivered to OnResult only if its generation is still current.
type Searcher[T any] struct {
	fn       SearchFunc[T]
	onResult func(Result[T])
	debounce time.Duration
	parent   context.Context

	mu         sync.Mutex
	generation uint64
	timer      *time.Timer
	cancel     context.CancelFunc
	closed     bool

	deliverMu sync.Mutex
}

type Option[T any] func(*Searcher[T])

func WithDebounce[T any](d time.Duration) Option[T] {
	return func(s *Searcher[T]) { s.debounce = d }
}

func New[T any](ctx context.Context, fn func(ctx context.Context, q logquery.ParsedQuery) (T, error), onResult func(Result[T]), opts ...Option[T]) *Searcher[T] {
	s := &Searcher[T]{
		fn:       fn,
		onResult: onResult,
		debounce: DefaultDebounce,
		parent:   ctx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit schedules a search for raw and returns its generation.
func (s *Searcher[T]) Submit(raw string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.generation
	}

	s.stopLocked()
	s.generation++
	gen := s.generation

	ctx, cancel := context.WithCancel(s.parent)
	s.cancel = cancel
	s.timer = time.AfterFunc(s.debounce, func() { s.run(ctx, gen, raw) })
	return gen
}

// Generation is the latest submitted generation.
func (s *Searcher[T]) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Close cancels any pending or in-flight search.
func (s *Searcher[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopLocked()
}

func (s *Searcher[T]) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Searcher[T]) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && gen == s.generation
}

func (s *Searcher[T]) run(ctx context.Context, gen uint64, raw string) {
	if !s.current(gen) {
		return
	}
	q := logquery.Parse(raw)
	v, err := s.fn(ctx, q)

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if !s.current(gen) {
		log.Debug().Uint64("generation", gen).Str("query", raw).Msg("Discarding stale search result")
		return
	}
	if s.onResult != nil {
		s.onResult(Result[T]{Generation: gen, Query: q, Value: v, Err: err})
	}
}
