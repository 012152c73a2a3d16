// Package reconcile owns the optimistic local copy of the family document
// and keeps it reconciled with the remote store. Remote pushes and local
// commands are two independent event sources; both funnel into one
// serialized loop so the in-memory snapshot is never mutated re-entrantly.
// Writes are whole-document last-writer-wins: two consoles racing on stale
// copies can lose one party's update, which is accepted behavior at
// household write rates, not a defect.
package reconcile

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"homeheroes/internal/clock"
	"homeheroes/internal/engine"
	"homeheroes/internal/models"
	"homeheroes/internal/store"
)

// Status is the reconciler's connection state as seen by the consoles
type Status string

const (
	StatusConnecting  Status = "connecting"
	StatusLoadingData Status = "loading_data"
	StatusConnected   Status = "connected"
	StatusError       Status = "error"
)

// DefaultResyncInterval is how often stored day/phase drift is checked
const DefaultResyncInterval = time.Minute

// ErrNotReady is returned for commands dispatched before the first snapshot
// has been loaded from the store.
var ErrNotReady = errors.New("family document not loaded yet")

// systemActor issues the reconciler's own real-time sync writes
var systemActor = engine.Actor{Label: "system", Privileged: true}

// Notifier is told when a completion lands in pending approval. Calls are
// fire-and-forget; a failed notification never fails the command.
type Notifier interface {
	TaskPending(ctx context.Context, pending engine.PendingApproval)
}

// Reconciler runs one console's view of the shared document
type Reconciler struct {
	store          store.Store
	key            string
	clk            clock.Clock
	seed           models.FamilyState
	resyncInterval time.Duration
	notifier       Notifier

	dispatch chan dispatchRequest

	mu          sync.Mutex
	snapshot    models.FamilyState
	hasSnapshot bool
	status      Status
	lastErr     error
	watchers    map[chan models.FamilyState]struct{}
}

type dispatchRequest struct {
	cmd   engine.Command
	actor engine.Actor
	reply chan dispatchResult
}

type dispatchResult struct {
	outcome engine.Outcome
	err     error
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithResyncInterval overrides the drift-check period
func WithResyncInterval(d time.Duration) Option {
	return func(r *Reconciler) { r.resyncInterval = d }
}

// WithNotifier wires the pending-approval notifier
func WithNotifier(n Notifier) Option {
	return func(r *Reconciler) { r.notifier = n }
}

// New builds a reconciler for the document under key. seed is written via
// CreateIfAbsent when the remote document does not exist yet; its day and
// phase should come from the clock at startup.
func New(st store.Store, key string, clk clock.Clock, seed models.FamilyState, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:          st,
		key:            key,
		clk:            clk,
		seed:           seed,
		resyncInterval: DefaultResyncInterval,
		dispatch:       make(chan dispatchRequest),
		status:         StatusConnecting,
		watchers:       make(map[chan models.FamilyState]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run subscribes to the store and processes events until ctx is done.
// It returns the subscription error if the initial subscribe fails.
func (r *Reconciler) Run(ctx context.Context) error {
	r.setStatus(StatusConnecting, nil)

	updates, err := r.store.Subscribe(ctx, r.key)
	if err != nil {
		r.setStatus(StatusError, err)
		return err
	}
	r.setStatus(StatusLoadingData, nil)

	ticker := time.NewTicker(r.resyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			r.handleRemote(ctx, snap)

		case req := <-r.dispatch:
			req.reply <- r.handleCommand(ctx, req.cmd, req.actor)

		case <-ticker.C:
			r.resyncRealTime(ctx)
		}
	}
}

// Dispatch hands a command to the reconciler loop and waits for the result.
// The snapshot side effects are already applied optimistically when the call
// returns, even if the remote write later fails.
func (r *Reconciler) Dispatch(ctx context.Context, cmd engine.Command, actor engine.Actor) (engine.Outcome, error) {
	req := dispatchRequest{cmd: cmd, actor: actor, reply: make(chan dispatchResult, 1)}
	select {
	case r.dispatch <- req:
	case <-ctx.Done():
		return engine.Outcome{}, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res.outcome, res.err
	case <-ctx.Done():
		return engine.Outcome{}, ctx.Err()
	}
}

// Snapshot returns the current optimistic local copy
func (r *Reconciler) Snapshot() (models.FamilyState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasSnapshot {
		return models.FamilyState{}, false
	}
	return r.snapshot.Clone(), true
}

// Status reports the connection state and the last store error, if any
func (r *Reconciler) Status() (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status, r.lastErr
}

// Watch delivers a snapshot after every local or remote state change until
// ctx is done. Slow consumers are coalesced, never blocked on.
func (r *Reconciler) Watch(ctx context.Context) <-chan models.FamilyState {
	ch := make(chan models.FamilyState, 8)

	r.mu.Lock()
	r.watchers[ch] = struct{}{}
	if r.hasSnapshot {
		ch <- r.snapshot.Clone()
	}
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.watchers[ch]; ok {
			delete(r.watchers, ch)
			close(ch)
		}
	}()

	return ch
}

// handleRemote replaces the local snapshot wholesale with the pushed one.
// An absent document means this console is first in: seed it and wait for
// the store to push the created version back.
func (r *Reconciler) handleRemote(ctx context.Context, snap store.Snapshot) {
	if snap.Err != nil {
		log.Printf("Store read failed: %v", snap.Err)
		r.setStatus(StatusError, snap.Err)
		return
	}

	if !snap.Exists {
		if err := r.store.CreateIfAbsent(ctx, r.key, r.seed); err != nil {
			log.Printf("Failed to seed family document: %v", err)
			r.setStatus(StatusError, err)
		}
		return
	}

	r.replaceSnapshot(snap.State)
	r.setStatus(StatusConnected, nil)
}

// handleCommand applies cmd to the latest local snapshot, installs the
// result optimistically, then pushes it. A failed push is surfaced through
// the status but the optimistic state is kept; the next remote push wins.
func (r *Reconciler) handleCommand(ctx context.Context, cmd engine.Command, actor engine.Actor) dispatchResult {
	current, ok := r.Snapshot()
	if !ok {
		return dispatchResult{err: ErrNotReady}
	}

	next, outcome, err := engine.Apply(current, cmd, actor, r.clk.Now())
	if err != nil {
		return dispatchResult{err: err}
	}

	r.replaceSnapshot(next)

	if err := r.store.Write(ctx, r.key, next); err != nil {
		log.Printf("Store write failed for %s: %v", cmd.Kind(), err)
		r.setStatus(StatusError, err)
	}

	if outcome.Pending != nil && r.notifier != nil {
		pending := *outcome.Pending
		go r.notifier.TaskPending(ctx, pending)
	}

	return dispatchResult{outcome: outcome}
}

// resyncRealTime compares the stored day/phase against the wall clock and
// issues a sync write only on drift. This is what makes scheduled tasks
// appear and disappear without anyone touching a console; it also silently
// overwrites a parent's simulated day/phase within one period.
func (r *Reconciler) resyncRealTime(ctx context.Context) {
	current, ok := r.Snapshot()
	if !ok {
		return
	}
	day, phase := clock.Resolve(r.clk.Now())
	if current.CurrentDay == day && current.CurrentTimePhase == phase {
		return
	}
	if res := r.handleCommand(ctx, engine.SyncRealTime{}, systemActor); res.err != nil {
		log.Printf("Real-time resync failed: %v", res.err)
	}
}

func (r *Reconciler) replaceSnapshot(state models.FamilyState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.snapshot = state
	r.hasSnapshot = true

	for ch := range r.watchers {
		snap := state.Clone()
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (r *Reconciler) setStatus(status Status, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
	r.lastErr = err
}
