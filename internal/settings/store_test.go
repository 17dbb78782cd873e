package settings

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"requestarr/internal/mediaserver"
)

type scriptedFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	calls   atomic.Int32
	gate    chan struct{}
	started chan struct{}
}

type fetchResult struct {
	value PublicSettings
	err   error
}

func (f *scriptedFetcher) PublicSettings(ctx context.Context) (PublicSettings, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return PublicSettings{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.results) == 0 {
		return PublicSettings{}, errors.New("no scripted result")
	}
	next := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return next.value, next.err
}

func seedSnapshot() PublicSettings {
	seed := Default()
	seed.ApplicationTitle = "Seeded"
	seed.ApplicationURL = "https://requests.example.com"
	seed.Region = "US"
	seed.MediaServerType = mediaserver.TypePlex
	return seed
}

func TestGetReturnsSeed(t *testing.T) {
	store := New(seedSnapshot(), nil)
	if got := store.Get(); got != seedSnapshot() {
		t.Fatalf("expected seed, got %+v", got)
	}
	if store.Key() != "public-settings" {
		t.Fatalf("unexpected key %q", store.Key())
	}
}

func TestRevalidateReplacesWholeSnapshot(t *testing.T) {
	fetched := PublicSettings{
		Initialized:      true,
		ApplicationTitle: "Requests",
		Locale:           "de",
		MediaServerType:  mediaserver.TypeJellyfin,
	}
	store := New(seedSnapshot(), &scriptedFetcher{results: []fetchResult{{value: fetched}}})

	if err := store.Revalidate(context.Background()); err != nil {
		t.Fatalf("Revalidate returned error: %v", err)
	}
	got := store.Get()
	if got != fetched {
		t.Fatalf("expected exact fetched snapshot, got %+v", got)
	}
	if got.ApplicationURL != "" || got.Region != "" {
		t.Fatalf("seed fields must not carry over: %+v", got)
	}
}

func TestRevalidateFailureResetsToDefault(t *testing.T) {
	store := New(seedSnapshot(), &scriptedFetcher{results: []fetchResult{{err: errors.New("503")}}})

	if err := store.Revalidate(context.Background()); err == nil {
		t.Fatal("expected fetch error to be reported")
	}
	if got := store.Get(); got != Default() {
		t.Fatalf("expected default snapshot after failure, got %+v", got)
	}
}

func TestRevalidateFailureDiscardsLastGoodSnapshot(t *testing.T) {
	good := PublicSettings{Initialized: true, ApplicationTitle: "Good"}
	fetcher := &scriptedFetcher{results: []fetchResult{{value: good}, {err: errors.New("timeout")}}}
	store := New(Default(), fetcher)

	_ = store.Revalidate(context.Background())
	if store.Get() != good {
		t.Fatalf("expected good snapshot, got %+v", store.Get())
	}
	_ = store.Revalidate(context.Background())
	if store.Get() != Default() {
		t.Fatalf("expected defaults after failure, got %+v", store.Get())
	}
}

func TestInvalidateRunsInBackground(t *testing.T) {
	fetched := PublicSettings{Initialized: true, ApplicationTitle: "Fresh"}
	fetcher := &scriptedFetcher{
		results: []fetchResult{{value: fetched}},
		gate:    make(chan struct{}),
	}
	store := New(seedSnapshot(), fetcher)

	store.Invalidate()
	if store.Get() != seedSnapshot() {
		t.Fatal("Invalidate must not block or change the snapshot before the fetch resolves")
	}
	close(fetcher.gate)
	store.Wait()

	if store.Get() != fetched {
		t.Fatalf("expected fetched snapshot, got %+v", store.Get())
	}
}

func TestInvalidateCoalescesWhileFetchOutstanding(t *testing.T) {
	first := PublicSettings{ApplicationTitle: "first"}
	second := PublicSettings{ApplicationTitle: "second"}
	fetcher := &scriptedFetcher{
		results: []fetchResult{{value: first}, {value: second}},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 4),
	}
	store := New(Default(), fetcher)
	updates, cancel := store.Subscribe()
	defer cancel()

	store.Invalidate()
	<-fetcher.started
	store.Invalidate()
	store.Invalidate()

	fetcher.gate <- struct{}{}
	if got := <-updates; got != first {
		t.Fatalf("expected first replacement, got %+v", got)
	}
	<-fetcher.started
	fetcher.gate <- struct{}{}
	if got := <-updates; got != second {
		t.Fatalf("expected second replacement, got %+v", got)
	}
	store.Wait()

	if calls := fetcher.calls.Load(); calls != 2 {
		t.Fatalf("expected one follow-up fetch, got %d fetches", calls)
	}
	if applied := store.Applied(); applied != 2 {
		t.Fatalf("expected one replacement per resolved fetch, got %d", applied)
	}
	if store.Get() != second {
		t.Fatalf("expected latest snapshot, got %+v", store.Get())
	}
}

func TestSubscribeKeepsOnlyLatest(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{value: PublicSettings{ApplicationTitle: "a"}},
		{value: PublicSettings{ApplicationTitle: "b"}},
	}}
	store := New(Default(), fetcher)
	updates, cancel := store.Subscribe()

	_ = store.Revalidate(context.Background())
	_ = store.Revalidate(context.Background())

	if got := <-updates; got.ApplicationTitle != "b" {
		t.Fatalf("expected latest snapshot, got %+v", got)
	}
	cancel()
	cancel()
	_ = store.Revalidate(context.Background())
	select {
	case got := <-updates:
		t.Fatalf("unexpected update after unsubscribe: %+v", got)
	default:
	}
}

func TestFetchTimeoutFallsBackToDefault(t *testing.T) {
	fetcher := &scriptedFetcher{
		results: []fetchResult{{value: PublicSettings{ApplicationTitle: "late"}}},
		gate:    make(chan struct{}),
	}
	store := New(seedSnapshot(), fetcher, WithFetchTimeout(10*time.Millisecond))

	store.Invalidate()
	store.Wait()
	if store.Get() != Default() {
		t.Fatalf("expected defaults after timed out fetch, got %+v", store.Get())
	}
}

func TestRunInvalidatesOnInterval(t *testing.T) {
	fetched := PublicSettings{Initialized: true}
	store := New(Default(), FetcherFunc(func(ctx context.Context) (PublicSettings, error) {
		return fetched, nil
	}))
	updates, cancel := store.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	select {
	case got := <-updates:
		if got != fetched {
			t.Fatalf("unexpected snapshot %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for background revalidation")
	}
	stop()
	<-done
	store.Wait()
}

func TestRunWithoutIntervalReturns(t *testing.T) {
	store := New(Default(), nil)
	store.Run(context.Background(), 0)
}
