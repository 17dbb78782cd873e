package journal_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"requestarr/internal/journal"
	"requestarr/internal/mediaserver"
	"requestarr/internal/services"
	"requestarr/internal/testsupport"
	"requestarr/internal/wizard"
)

func TestOpenCreatesJournal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)

	if store.Path() != cfg.JournalPath() {
		t.Fatalf("unexpected path %q", store.Path())
	}
	run, err := store.LastRun(context.Background())
	if err != nil {
		t.Fatalf("LastRun failed: %v", err)
	}
	if run != nil {
		t.Fatalf("expected empty journal, got %#v", run)
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	first, err := journal.OpenPath(path, nil)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	if err := first.Record(context.Background(), wizard.Transition{
		RunID: "run-a", Event: "complete", From: wizard.StepSignIn, To: wizard.StepMediaServer,
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	first.Close()

	second, err := journal.OpenPath(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()
	run, err := second.GetRun(context.Background(), "run-a")
	if err != nil || run == nil {
		t.Fatalf("GetRun = %#v, %v", run, err)
	}
}

func TestRecordTracksRunProgress(t *testing.T) {
	store := testsupport.MustOpenJournal(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	transitions := []wizard.Transition{
		{RunID: "run-1", Event: "complete", From: wizard.StepSignIn, To: wizard.StepMediaServer, ServerType: mediaserver.TypeJellyfin, At: base},
		{RunID: "run-1", Event: "media_server_configured", From: wizard.StepMediaServer, To: wizard.StepMediaServer, ServerType: mediaserver.TypeJellyfin, At: base.Add(time.Second)},
		{RunID: "run-1", Event: "complete", From: wizard.StepMediaServer, To: wizard.StepServices, ServerType: mediaserver.TypeJellyfin, At: base.Add(2 * time.Second)},
		{RunID: "run-1", Event: "finalize", From: wizard.StepServices, To: wizard.StepServices, ServerType: mediaserver.TypeJellyfin, Err: errors.New("connection refused"), At: base.Add(3 * time.Second)},
	}
	for _, tr := range transitions {
		if err := store.Record(ctx, tr); err != nil {
			t.Fatalf("Record(%s) failed: %v", tr.Event, err)
		}
	}

	run, err := store.LastRun(ctx)
	if err != nil {
		t.Fatalf("LastRun failed: %v", err)
	}
	if run == nil || run.ID != "run-1" {
		t.Fatalf("unexpected run %#v", run)
	}
	if run.Step != wizard.StepServices || run.MediaServerType != mediaserver.TypeJellyfin {
		t.Fatalf("unexpected run summary %#v", run)
	}
	if run.Committed || run.LastError != "connection refused" {
		t.Fatalf("expected uncommitted run with error, got %#v", run)
	}
	if !run.StartedAt.Equal(base) {
		t.Fatalf("started_at changed to %s", run.StartedAt)
	}

	events, err := store.Events(ctx, "run-1")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != len(transitions) {
		t.Fatalf("expected %d events, got %d", len(transitions), len(events))
	}
	if events[3].Name != "finalize" || events[3].Error != "connection refused" || events[3].Outcome != services.OutcomeRetryable {
		t.Fatalf("unexpected last event %#v", events[3])
	}
	if events[0].Outcome != services.OutcomeOK {
		t.Fatalf("expected ok outcome, got %q", events[0].Outcome)
	}
	if events[0].From != wizard.StepSignIn || events[0].To != wizard.StepMediaServer {
		t.Fatalf("unexpected first event %#v", events[0])
	}
}

func TestCommittedIsSticky(t *testing.T) {
	store := testsupport.MustOpenJournal(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.Record(ctx, wizard.Transition{RunID: "run-2", Event: "finalize", From: wizard.StepServices, To: wizard.StepServices, Committed: true}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, wizard.Transition{RunID: "run-2", Event: "finalize", From: wizard.StepServices, To: wizard.StepServices}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	run, err := store.GetRun(ctx, "run-2")
	if err != nil || run == nil {
		t.Fatalf("GetRun = %#v, %v", run, err)
	}
	if !run.Committed || !run.State().Committed {
		t.Fatal("committed flag must not be cleared")
	}
}

func TestLastRunPicksMostRecent(t *testing.T) {
	store := testsupport.MustOpenJournal(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"older", "newer"} {
		if err := store.Record(ctx, wizard.Transition{
			RunID: id, Event: "complete", From: wizard.StepSignIn, To: wizard.StepMediaServer,
			At: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	run, err := store.LastRun(ctx)
	if err != nil || run == nil {
		t.Fatalf("LastRun = %#v, %v", run, err)
	}
	if run.ID != "newer" {
		t.Fatalf("expected newer run, got %s", run.ID)
	}
}

func TestRecordRequiresRunID(t *testing.T) {
	store := testsupport.MustOpenJournal(t, testsupport.NewConfig(t))
	if err := store.Record(context.Background(), wizard.Transition{Event: "complete"}); err == nil {
		t.Fatal("expected error without run id")
	}
}

func TestObserveWiresIntoController(t *testing.T) {
	store := testsupport.MustOpenJournal(t, testsupport.NewConfig(t))
	ctx := context.Background()

	resolver := resolverFunc(func(context.Context) (mediaserver.Type, error) { return mediaserver.TypePlex, nil })
	c := wizard.NewController(resolver, nil, wizard.WithObserver(store), wizard.WithRunID("observed"))
	if err := c.Complete(ctx, wizard.StepCompleted{Step: wizard.StepSignIn}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	run, err := store.GetRun(ctx, "observed")
	if err != nil || run == nil {
		t.Fatalf("GetRun = %#v, %v", run, err)
	}
	state := run.State()
	if state.Step != wizard.StepMediaServer || state.MediaServerType != mediaserver.TypePlex {
		t.Fatalf("unexpected rebuilt state %+v", state)
	}
}

func TestClearRemovesRunsAndEvents(t *testing.T) {
	store := testsupport.MustOpenJournal(t, testsupport.NewConfig(t))
	ctx := context.Background()
	if err := store.Record(ctx, wizard.Transition{RunID: "gone", Event: "complete", From: wizard.StepSignIn, To: wizard.StepMediaServer}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one run removed, got %d", removed)
	}
	events, err := store.Events(ctx, "gone")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected cascade delete, got %d events", len(events))
	}
}

type resolverFunc func(context.Context) (mediaserver.Type, error)

func (f resolverFunc) Resolve(ctx context.Context) (mediaserver.Type, error) { return f(ctx) }
