package livequery

import (
	"context"
	"log"
	"sync"

	"github.com/grepguru/zenlock-engine/internal/core/domain"
)

// Query is any read over the stores. A live query declares the tables it
// reads; writers publish table names after commit and never learn who is
// subscribed.
type Query func(ctx context.Context) (any, error)

// Result carries one delivery to a subscriber. Err is set when the
// recomputation itself failed; the subscription stays alive.
type Result struct {
	Value any
	Err   error
}

// Registry tracks active subscriptions and re-runs them whenever a commit
// touches one of their dependency tables.
type Registry struct {
	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
}

func NewRegistry() *Registry {
	return &Registry{subs: make(map[uint64]*Subscription)}
}

// Subscription is one registered live query. Results arrive on Results()
// with a latest-wins buffer: a slow consumer only ever misses intermediate
// states, never the newest one.
type Subscription struct {
	id       uint64
	registry *Registry
	tables   map[domain.Table]struct{}
	query    Query

	mu       sync.Mutex
	closed   bool
	inflight context.CancelFunc
	results  chan Result
}

// Subscribe registers a query over the given dependency tables and kicks
// off the initial evaluation asynchronously.
func (r *Registry) Subscribe(tables []domain.Table, query Query) *Subscription {
	sub := &Subscription{
		registry: r,
		tables:   make(map[domain.Table]struct{}, len(tables)),
		query:    query,
		results:  make(chan Result, 1),
	}
	for _, t := range tables {
		sub.tables[t] = struct{}{}
	}

	r.mu.Lock()
	r.nextID++
	sub.id = r.nextID
	r.subs[sub.id] = sub
	r.mu.Unlock()

	sub.recompute()
	return sub
}

// Publish notifies the registry that a committed write touched the given
// tables. Every dependency-matching subscription is recomputed; an
// in-flight recomputation for the same subscription is superseded, not
// queued behind.
func (r *Registry) Publish(tables ...domain.Table) {
	r.mu.Lock()
	var matched []*Subscription
	for _, sub := range r.subs {
		for _, t := range tables {
			if _, ok := sub.tables[t]; ok {
				matched = append(matched, sub)
				break
			}
		}
	}
	r.mu.Unlock()

	for _, sub := range matched {
		sub.recompute()
	}
}

// ActiveCount reports the number of live subscriptions.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

func (s *Subscription) recompute() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.inflight != nil {
		s.inflight()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.inflight = cancel
	s.mu.Unlock()

	go func() {
		value, err := s.query(ctx)
		if ctx.Err() != nil {
			// Superseded or unsubscribed mid-run; the newer run delivers.
			return
		}
		s.deliver(Result{Value: value, Err: err})
	}()
}

func (s *Subscription) deliver(res Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.results <- res:
			return
		default:
			// Consumer lagged: drop the stale buffered result.
			select {
			case <-s.results:
			default:
			}
		}
	}
}

// Results is the delivery channel. It is closed by Unsubscribe.
func (s *Subscription) Results() <-chan Result {
	return s.results
}

// Unsubscribe synchronously deregisters the query: once it returns, no
// further recomputation runs and no further result is delivered.
func (s *Subscription) Unsubscribe() {
	s.registry.mu.Lock()
	delete(s.registry.subs, s.id)
	s.registry.mu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.inflight != nil {
		s.inflight()
		s.inflight = nil
	}
	close(s.results)
	s.mu.Unlock()

	log.Printf("[LIVE] Subscription %d closed", s.id)
}
