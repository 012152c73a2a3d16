package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"homeheroes/internal/engine"
	"homeheroes/internal/models"
	"homeheroes/internal/store"
)

const testKey = "myFamily"

var (
	kidActor    = engine.Actor{Label: "kiosk", Privileged: false}
	parentActor = engine.Actor{Label: "parent@example.com", Privileged: true}
)

// fakeClock is a settable clock shared with the loop under test
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func mondayMorning() time.Time {
	return time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
}

func testSeed() models.FamilyState {
	return models.FamilyState{
		FamilyGoal:       350,
		BossHP:           500,
		MaxBossHP:        500,
		CurrentDay:       models.Monday,
		CurrentTimePhase: models.Morning,
		Players: []models.Player{
			{
				ID:       1,
				Name:     "Alex",
				AgeGroup: models.AgeBig,
				Points:   120,
				Tasks: []models.Task{
					{ID: "t1", Title: "Make bed", Value: 50, Time: models.Morning, Days: []models.Weekday{models.Monday}, Status: models.StatusOpen},
				},
			},
			{
				ID:       2,
				Name:     "Sam",
				AgeGroup: models.AgeToddler,
				Points:   30,
				Tasks: []models.Task{
					{ID: "t2", Title: "Put away toys", Value: 20, Time: models.Morning, Days: []models.Weekday{models.Monday}, Status: models.StatusOpen},
					{ID: "t3", Title: "Brush teeth", Value: 10, Time: models.Morning, Days: []models.Weekday{models.Monday}, Status: models.StatusOpen},
				},
			},
		},
	}
}

// startReconciler runs a reconciler until the test ends and waits for it to
// reach connected.
func startReconciler(t *testing.T, st store.Store, clk *fakeClock, opts ...Option) *Reconciler {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r := New(st, testKey, clk, testSeed(), opts...)
	go func() {
		if err := r.Run(ctx); err != nil {
			t.Errorf("Run() error = %v", err)
		}
	}()

	waitStatus(t, r, StatusConnected)
	return r
}

func waitStatus(t *testing.T, r *Reconciler, want Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if status, _ := r.Status(); status == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	status, err := r.Status()
	t.Fatalf("status = %v (err %v), want %v", status, err, want)
}

func waitCondition(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRunSeedsAbsentDocument(t *testing.T) {
	st := store.NewMemoryStore()
	clk := &fakeClock{now: mondayMorning()}

	r := startReconciler(t, st, clk)

	snap, ok := r.Snapshot()
	if !ok {
		t.Fatal("no snapshot after connect")
	}
	if snap.BossHP != 500 || len(snap.Players) != 2 {
		t.Errorf("snapshot = %+v, want the seed document", snap)
	}
	current, ok := st.Current(testKey)
	if !ok || current.BossHP != 500 {
		t.Errorf("store document = %+v, want the seed", current)
	}
}

func TestRunAdoptsExistingDocument(t *testing.T) {
	st := store.NewMemoryStore()
	existing := testSeed()
	existing.BossHP = 321
	if err := st.CreateIfAbsent(context.Background(), testKey, existing); err != nil {
		t.Fatalf("CreateIfAbsent() error = %v", err)
	}

	clk := &fakeClock{now: mondayMorning()}
	r := startReconciler(t, st, clk)

	snap, _ := r.Snapshot()
	if snap.BossHP != 321 {
		t.Errorf("bossHP = %d, want 321: an existing document must win over the seed", snap.BossHP)
	}
}

func TestDispatchAppliesAndWrites(t *testing.T) {
	st := store.NewMemoryStore()
	clk := &fakeClock{now: mondayMorning()}
	r := startReconciler(t, st, clk)

	outcome, err := r.Dispatch(context.Background(), engine.CompleteTask{PlayerID: 2, TaskID: "t2"}, kidActor)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if outcome.Awarded != 20 || !outcome.Celebrate {
		t.Errorf("outcome = %+v, want 20 points and a celebration", outcome)
	}

	snap, _ := r.Snapshot()
	if snap.Player(2).Points != 50 || snap.BossHP != 480 {
		t.Errorf("local snapshot points = %d bossHP = %d, want 50 and 480", snap.Player(2).Points, snap.BossHP)
	}

	waitCondition(t, "store to carry the write", func() bool {
		current, ok := st.Current(testKey)
		return ok && current.BossHP == 480
	})
}

func TestDispatchBeforeLoadIsRejected(t *testing.T) {
	st := store.NewMemoryStore()
	clk := &fakeClock{now: mondayMorning()}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := New(st, testKey, clk, testSeed())
	go r.Run(ctx)

	// race against connect deliberately; either response is acceptable, but
	// a rejection must be ErrNotReady
	_, err := r.Dispatch(ctx, engine.CompleteTask{PlayerID: 2, TaskID: "t2"}, kidActor)
	if err != nil && !errors.Is(err, ErrNotReady) {
		t.Errorf("Dispatch() error = %v, want nil or ErrNotReady", err)
	}
}

func TestDispatchRejectionLeavesSnapshot(t *testing.T) {
	st := store.NewMemoryStore()
	clk := &fakeClock{now: mondayMorning()}
	r := startReconciler(t, st, clk)

	_, err := r.Dispatch(context.Background(), engine.BuyShield{PlayerID: 2}, kidActor)
	if !errors.Is(err, engine.ErrInsufficientFunds) {
		t.Fatalf("Dispatch() error = %v, want ErrInsufficientFunds", err)
	}

	snap, _ := r.Snapshot()
	if snap.Player(2).Points != 30 {
		t.Errorf("points = %d after rejected command, want 30", snap.Player(2).Points)
	}
}

func TestRemotePushReplacesLocalSnapshot(t *testing.T) {
	st := store.NewMemoryStore()
	clk := &fakeClock{now: mondayMorning()}
	r := startReconciler(t, st, clk)

	// another console writes a diverged document
	other := testSeed()
	other.BossHP = 250
	other.Players[0].Points = 999
	if err := st.Write(context.Background(), testKey, other); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	waitCondition(t, "remote push to land", func() bool {
		snap, ok := r.Snapshot()
		return ok && snap.BossHP == 250 && snap.Player(1).Points == 999
	})
}

func TestConcurrentConsolesLastWriterWins(t *testing.T) {
	// Two consoles load the same document, then each completes a different
	// toddler task before seeing the other's write. Both push their full
	// stale copy; the store keeps only the second one, and the first
	// console's completion is silently lost.
	ctx := context.Background()
	st := store.NewMemoryStore()
	if err := st.CreateIfAbsent(ctx, testKey, testSeed()); err != nil {
		t.Fatalf("CreateIfAbsent() error = %v", err)
	}

	clk := &fakeClock{now: mondayMorning()}

	ctxA, cancelA := context.WithCancel(ctx)
	defer cancelA()
	consoleA := New(st, testKey, clk, testSeed())
	go consoleA.Run(ctxA)
	waitStatus(t, consoleA, StatusConnected)

	// console B holds a stale copy: same document, loaded before A writes
	staleB, _ := consoleA.Snapshot()

	if _, err := consoleA.Dispatch(ctx, engine.CompleteTask{PlayerID: 2, TaskID: "t2"}, kidActor); err != nil {
		t.Fatalf("console A dispatch: %v", err)
	}
	waitCondition(t, "console A's write", func() bool {
		current, ok := st.Current(testKey)
		return ok && current.BossHP == 480
	})

	// B applies its own command to the stale copy and pushes wholesale,
	// exactly as a second reconciler that has not drained A's push yet would
	nextB, _, err := engine.Apply(staleB, engine.CompleteTask{PlayerID: 2, TaskID: "t3"}, kidActor, clk.Now())
	if err != nil {
		t.Fatalf("console B apply: %v", err)
	}
	if err := st.Write(ctx, testKey, nextB); err != nil {
		t.Fatalf("console B write: %v", err)
	}

	final, _ := st.Current(testKey)
	if final.BossHP != 490 {
		t.Errorf("final bossHP = %d, want 490: B's whole document replaces A's", final.BossHP)
	}
	if got := final.Player(2).Task("t2").Status; got != models.StatusOpen {
		t.Errorf("t2 status = %v, want open: A's completion is lost", got)
	}
	if got := final.Player(2).Task("t3").Status; got != models.StatusDone {
		t.Errorf("t3 status = %v, want done", got)
	}

	// A converges to B's version on the next push
	waitCondition(t, "console A to adopt B's write", func() bool {
		snap, ok := consoleA.Snapshot()
		return ok && snap.BossHP == 490 && snap.Player(2).Task("t2").Status == models.StatusOpen
	})
}

func TestWriteFailureKeepsOptimisticState(t *testing.T) {
	st := store.NewMemoryStore()
	clk := &fakeClock{now: mondayMorning()}
	r := startReconciler(t, st, clk)

	boom := errors.New("store is down")
	st.FailWrites(boom)

	outcome, err := r.Dispatch(context.Background(), engine.CompleteTask{PlayerID: 2, TaskID: "t2"}, kidActor)
	if err != nil {
		t.Fatalf("Dispatch() error = %v: a failed push must not fail the command", err)
	}
	if outcome.Awarded != 20 {
		t.Errorf("Awarded = %d, want 20", outcome.Awarded)
	}

	// the optimistic state stands locally
	snap, _ := r.Snapshot()
	if snap.BossHP != 480 {
		t.Errorf("local bossHP = %d, want 480", snap.BossHP)
	}
	// but the store never saw it
	current, _ := st.Current(testKey)
	if current.BossHP != 500 {
		t.Errorf("store bossHP = %d, want 500", current.BossHP)
	}

	status, lastErr := r.Status()
	if status != StatusError || !errors.Is(lastErr, boom) {
		t.Errorf("status = %v err = %v, want error status carrying the write failure", status, lastErr)
	}

	// a later remote push recovers the connection
	st.FailWrites(nil)
	if err := st.Write(context.Background(), testKey, testSeed()); err != nil {
		t.Fatalf("recovery write: %v", err)
	}
	waitStatus(t, r, StatusConnected)
}

func TestResyncWritesOnlyOnDrift(t *testing.T) {
	st := store.NewMemoryStore()
	clk := &fakeClock{now: mondayMorning()}
	r := startReconciler(t, st, clk, WithResyncInterval(20*time.Millisecond))

	// no drift: the document must keep its day/phase and nobody rewrites it
	time.Sleep(100 * time.Millisecond)
	snap, _ := r.Snapshot()
	if snap.CurrentDay != models.Monday || snap.CurrentTimePhase != models.Morning {
		t.Fatalf("day/phase drifted without clock movement: %v %v", snap.CurrentDay, snap.CurrentTimePhase)
	}

	// move the clock into the afternoon; the next tick must sync the document
	clk.Set(time.Date(2026, 8, 24, 14, 0, 0, 0, time.UTC))
	waitCondition(t, "phase resync", func() bool {
		snap, ok := r.Snapshot()
		return ok && snap.CurrentTimePhase == models.Noon
	})

	waitCondition(t, "resync to reach the store", func() bool {
		current, ok := st.Current(testKey)
		return ok && current.CurrentTimePhase == models.Noon
	})
}

func TestResyncOverridesSimulatedTime(t *testing.T) {
	st := store.NewMemoryStore()
	clk := &fakeClock{now: mondayMorning()}
	r := startReconciler(t, st, clk, WithResyncInterval(20*time.Millisecond))

	if _, err := r.Dispatch(context.Background(), engine.SetTime{Phase: models.Evening}, parentActor); err != nil {
		t.Fatalf("set_time: %v", err)
	}

	// the drift check snaps the simulated phase back to the wall clock
	waitCondition(t, "simulated phase to be overridden", func() bool {
		snap, ok := r.Snapshot()
		return ok && snap.CurrentTimePhase == models.Morning
	})
}

type recordingNotifier struct {
	mu      sync.Mutex
	pending []engine.PendingApproval
}

func (n *recordingNotifier) TaskPending(_ context.Context, p engine.PendingApproval) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = append(n.pending, p)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}

func TestPendingApprovalNotifiesParent(t *testing.T) {
	st := store.NewMemoryStore()
	clk := &fakeClock{now: mondayMorning()}
	notifier := &recordingNotifier{}
	r := startReconciler(t, st, clk, WithNotifier(notifier))

	if _, err := r.Dispatch(context.Background(), engine.CompleteTask{PlayerID: 1, TaskID: "t1"}, kidActor); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	waitCondition(t, "pending notification", func() bool { return notifier.count() == 1 })

	notifier.mu.Lock()
	got := notifier.pending[0]
	notifier.mu.Unlock()
	if got.PlayerName != "Alex" || got.TaskTitle != "Make bed" || got.TaskValue != 50 {
		t.Errorf("notification = %+v", got)
	}

	// toddler completions auto-approve and must not notify
	if _, err := r.Dispatch(context.Background(), engine.CompleteTask{PlayerID: 2, TaskID: "t2"}, kidActor); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if notifier.count() != 1 {
		t.Errorf("notifications = %d after toddler completion, want 1", notifier.count())
	}
}

func TestWatchDeliversStateChanges(t *testing.T) {
	st := store.NewMemoryStore()
	clk := &fakeClock{now: mondayMorning()}
	r := startReconciler(t, st, clk)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watch := r.Watch(ctx)

	// initial snapshot arrives immediately
	select {
	case snap := <-watch:
		if snap.BossHP != 500 {
			t.Errorf("initial watch snapshot bossHP = %d, want 500", snap.BossHP)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial watch snapshot")
	}

	if _, err := r.Dispatch(context.Background(), engine.CompleteTask{PlayerID: 2, TaskID: "t2"}, kidActor); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-watch:
			if snap.BossHP == 480 {
				return
			}
		case <-deadline:
			t.Fatal("watch never delivered the dispatched change")
		}
	}
}
