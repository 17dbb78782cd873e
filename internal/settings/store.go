package settings

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"requestarr/internal/logging"
)

// Fetcher reads the current public settings from the application.
type Fetcher interface {
	PublicSettings(ctx context.Context) (PublicSettings, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) (PublicSettings, error)

// PublicSettings implements Fetcher.
func (f FetcherFunc) PublicSettings(ctx context.Context) (PublicSettings, error) {
	return f(ctx)
}

// Option customises Store construction.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logging.NewComponentLogger(logger, "settings")
	}
}

// WithFetchTimeout bounds each background fetch. Zero means no deadline.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.fetchTimeout = d
	}
}

// WithBaseContext sets the parent context of background fetches.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Store) {
		if ctx != nil {
			s.baseCtx = ctx
		}
	}
}

// Store holds the process-wide public settings snapshot.
//
// Readers call Get and never block. The only writer is apply, reached from a
// resolved fetch: success replaces the whole snapshot, failure resets it to
// Default and drops the previous value.
type Store struct {
	fetcher      Fetcher
	logger       *slog.Logger
	baseCtx      context.Context
	fetchTimeout time.Duration

	current atomic.Pointer[PublicSettings]

	mu       sync.Mutex
	idle     *sync.Cond
	inflight bool
	pending  bool
	subs     map[int]chan PublicSettings
	nextSub  int
	applied  uint64
}

// New seeds a store with the snapshot supplied at startup.
func New(seed PublicSettings, fetcher Fetcher, opts ...Option) *Store {
	s := &Store{
		fetcher: fetcher,
		logger:  logging.NewComponentLogger(nil, "settings"),
		baseCtx: context.Background(),
		subs:    make(map[int]chan PublicSettings),
	}
	s.idle = sync.NewCond(&s.mu)
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(&seed)
	return s
}

// Key returns the cache key shared by all readers.
func (s *Store) Key() string {
	return CacheKey
}

// Get returns the current snapshot.
func (s *Store) Get() PublicSettings {
	return *s.current.Load()
}

// Invalidate schedules a background revalidation and returns immediately.
// Calls made while a fetch is outstanding collapse into one follow-up fetch.
func (s *Store) Invalidate() {
	s.mu.Lock()
	if s.inflight {
		s.pending = true
		s.mu.Unlock()
		return
	}
	s.inflight = true
	s.mu.Unlock()

	go s.revalidateLoop()
}

func (s *Store) revalidateLoop() {
	for {
		ctx, cancel := s.fetchContext()
		_ = s.Revalidate(ctx)
		cancel()

		s.mu.Lock()
		if s.pending {
			s.pending = false
			s.mu.Unlock()
			continue
		}
		s.inflight = false
		s.idle.Broadcast()
		s.mu.Unlock()
		return
	}
}

func (s *Store) fetchContext() (context.Context, context.CancelFunc) {
	if s.fetchTimeout > 0 {
		return context.WithTimeout(s.baseCtx, s.fetchTimeout)
	}
	return context.WithCancel(s.baseCtx)
}

// Revalidate fetches synchronously and applies the result. The fetch error is
// returned for logging only; readers see it as a reset to Default.
func (s *Store) Revalidate(ctx context.Context) error {
	if s.fetcher == nil {
		s.apply(Default())
		return nil
	}
	next, err := s.fetcher.PublicSettings(ctx)
	if err != nil {
		s.logger.Warn("public settings revalidation failed; falling back to defaults",
			slog.String("key", CacheKey),
			logging.Error(err),
		)
		s.apply(Default())
		return err
	}
	s.apply(next)
	s.logger.Debug("public settings revalidated",
		slog.String("key", CacheKey),
		slog.Bool("initialized", next.Initialized),
	)
	return nil
}

func (s *Store) apply(next PublicSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := next
	s.current.Store(&snapshot)
	s.applied++
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}

// Applied reports how many snapshot replacements have been published.
func (s *Store) Applied() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied
}

// Wait blocks until no background fetch is outstanding.
func (s *Store) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.inflight {
		s.idle.Wait()
	}
}

// Subscribe returns a channel that receives the latest snapshot after every
// replacement. Only the most recent unread snapshot is kept. Call the returned
// function to unsubscribe.
func (s *Store) Subscribe() (<-chan PublicSettings, func()) {
	ch := make(chan PublicSettings, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Run revalidates every interval until ctx is cancelled. A non-positive
// interval returns immediately.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Invalidate()
		}
	}
}
