// Package store ties the rewind engine together: it owns the shared logical
// clock, one commit log per namespace, the genesis liveness log, and the
// retention policy, and exposes the transactional write/read/undo/redo API.
//
// The engine models a single logical timeline advanced by one writer at a
// time; the store's internal mutex is the serialization the model requires,
// so any goroutine may call in but mutations never interleave.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rewindkv/rewind/clock"
	"github.com/rewindkv/rewind/layer"
	"github.com/rewindkv/rewind/observability"
)

// Store is the orchestrator for a set of versioned namespaces sharing one
// logical clock.
type Store struct {
	mu            sync.Mutex
	clock         *clock.Clock
	namespaces    map[string]*layer.Layer
	genesis       *layer.Layer
	cfg           Config
	lastFlush     int64
	subscribers   map[string]func()
	dispatcher    Dispatcher
	observer      observability.Observer
	notifyPending bool
}

// Option configures a Store beyond its serializable Config.
type Option func(*Store)

// WithObserver routes engine events to obs instead of discarding them.
func WithObserver(obs observability.Observer) Option {
	return func(s *Store) {
		if obs != nil {
			s.observer = obs
		}
	}
}

// WithDispatcher replaces the default synchronous notification dispatcher.
func WithDispatcher(d Dispatcher) Option {
	return func(s *Store) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

// New creates a Store from configuration. Namespaces are created lazily on
// first write.
func New(cfg Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Store{
		clock:       clock.New(),
		namespaces:  make(map[string]*layer.Layer),
		genesis:     layer.New(),
		cfg:         cfg,
		subscribers: make(map[string]func()),
		dispatcher:  SyncDispatcher{},
		observer:    observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Set applies one atomic transaction: a nested partial update per namespace,
// all committed at a single new clock time and undone together as one step.
//
// When no leaf across any namespace differs structurally from its currently
// visible value, the transaction is discarded before the clock advances: no
// commit, no notification. A write issued while the caller sits behind the
// recorded maximum forks the timeline, discarding the abandoned branch from
// every namespace before the new commits land.
func (s *Store) Set(updates map[string]map[string]any) {
	s.mu.Lock()
	committed := s.applySet(updates)
	s.mu.Unlock()

	if committed {
		s.scheduleNotify()
	}
}

func (s *Store) applySet(updates map[string]map[string]any) bool {
	now := s.clock.Current()

	meaningful := false
	for ns, update := range updates {
		if s.updateChanged(ns, update, now) {
			meaningful = true
			break
		}
	}
	if !meaningful {
		s.emit(EventTxNoop, observability.LevelVerbose, "store.Set", map[string]any{
			"namespaces": len(updates),
		})
		return false
	}

	fork := s.clock.Current() < s.clock.Max()
	t := s.clock.Tick()
	if fork {
		s.pruneAll(t)
		s.emit(EventClockFork, observability.LevelInfo, "store.Set", nil)
	}

	for ns, update := range updates {
		l, ok := s.namespaces[ns]
		if !ok {
			l = layer.New()
			s.namespaces[ns] = l
		}
		if !s.alive(ns, t) {
			s.genesis.Set(ns, true, t)
			s.emit(EventNamespaceCreate, observability.LevelInfo, "store.Set", map[string]any{
				"namespace": ns,
			})
		}
		l.Apply(update, t)
	}

	s.autoFlush(t)
	s.emit(EventTxCommit, observability.LevelInfo, "store.Set", map[string]any{
		"namespaces": len(updates),
	})
	return true
}

// updateChanged evaluates the meaningful-change gate for one namespace
// against the state visible at time t. A namespace with no commit log yet is
// empty, so any non-tombstone leaf counts as a change.
func (s *Store) updateChanged(ns string, update map[string]any, t int64) bool {
	if l, ok := s.namespaces[ns]; ok {
		return l.Changed(update, t)
	}
	for _, v := range layer.Flatten(update) {
		if !layer.IsTombstone(v) {
			return true
		}
	}
	return false
}

// Get returns the snapshot of the requested namespaces (default: all) at the
// current clock position. Namespaces not alive at that time are filtered out.
// Snapshot keys are the flattened dot paths.
func (s *Store) Get(namespaces ...string) map[string]map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(namespaces)
}

func (s *Store) snapshot(namespaces []string) map[string]map[string]any {
	t := s.clock.Current()
	if len(namespaces) == 0 {
		namespaces = make([]string, 0, len(s.namespaces))
		for ns := range s.namespaces {
			namespaces = append(namespaces, ns)
		}
	}

	out := make(map[string]map[string]any, len(namespaces))
	for _, ns := range namespaces {
		l, ok := s.namespaces[ns]
		if !ok || !s.alive(ns, t) {
			continue
		}
		out[ns] = l.State(t)
	}
	return out
}

// Undo steps the clock back one position and returns the resulting snapshot.
// At time zero it is a no-op that still notifies, observable by the caller
// as "no visible change".
func (s *Store) Undo() map[string]map[string]any {
	s.mu.Lock()
	s.clock.Undo()
	s.emit(EventClockUndo, observability.LevelVerbose, "store.Undo", nil)
	snap := s.snapshot(nil)
	s.mu.Unlock()

	s.scheduleNotify()
	return snap
}

// Redo steps the clock forward one position and returns the resulting
// snapshot. At the recorded maximum it is a no-op that still notifies.
func (s *Store) Redo() map[string]map[string]any {
	s.mu.Lock()
	s.clock.Redo()
	s.emit(EventClockRedo, observability.LevelVerbose, "store.Redo", nil)
	snap := s.snapshot(nil)
	s.mu.Unlock()

	s.scheduleNotify()
	return snap
}

// Remove advances the clock one tick and marks the namespace dead in genesis
// at the new time. The namespace's history is not purged here; normal flush
// and prune passes reclaim it. Removing a namespace that is not currently
// alive is a silent no-op.
func (s *Store) Remove(namespace string) {
	s.mu.Lock()
	removed := s.applyRemove(namespace)
	s.mu.Unlock()

	if removed {
		s.scheduleNotify()
	}
}

func (s *Store) applyRemove(namespace string) bool {
	if !s.alive(namespace, s.clock.Current()) {
		return false
	}

	fork := s.clock.Current() < s.clock.Max()
	t := s.clock.Tick()
	if fork {
		s.pruneAll(t)
		s.emit(EventClockFork, observability.LevelInfo, "store.Remove", nil)
	}

	s.genesis.Set(namespace, false, t)
	s.emit(EventNamespaceRemove, observability.LevelInfo, "store.Remove", map[string]any{
		"namespace": namespace,
	})
	return true
}

// Flush runs a manual retention pass at threshold current-BufferSize across
// every namespace and genesis, then notifies.
func (s *Store) Flush() {
	s.mu.Lock()
	t := s.clock.Current()
	s.flushAll(t - s.cfg.BufferSize)
	s.lastFlush = t
	s.mu.Unlock()

	s.scheduleNotify()
}

// Prune discards every commit at or after minTime from every namespace and
// genesis, then notifies. The clock position is left untouched.
func (s *Store) Prune(minTime int64) {
	s.mu.Lock()
	s.pruneAll(minTime)
	s.emit(EventRetentionPrune, observability.LevelInfo, "store.Prune", map[string]any{
		"min_time": minTime,
	})
	s.mu.Unlock()

	s.scheduleNotify()
}

// Subscribe registers a callback invoked once per drained notification batch.
// The callback receives no payload; re-query Get for the new state. The
// returned function unsubscribes and is safe to call more than once.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := uuid.NewString()
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// CurrentTime returns the clock position the caller currently observes.
func (s *Store) CurrentTime() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.Current()
}

// MaxTime returns the highest time any commit has been recorded at.
func (s *Store) MaxTime() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.Max()
}

// alive reports whether the namespace's genesis flag resolves to true at t.
func (s *Store) alive(ns string, t int64) bool {
	v, ok := s.genesis.Get(ns, t)
	return ok && v == true
}

func (s *Store) pruneAll(forkTime int64) {
	for _, l := range s.namespaces {
		l.Prune(forkTime)
	}
	s.genesis.Prune(forkTime)
}

func (s *Store) flushAll(threshold int64) {
	for _, l := range s.namespaces {
		l.Flush(threshold)
	}
	s.genesis.Flush(threshold)
	s.emit(EventRetentionFlush, observability.LevelInfo, "store.Flush", map[string]any{
		"threshold": threshold,
	})
}

// autoFlush re-evaluates retention after a commit at time t. The tolerance
// window is hysteresis: flushing on every tick would defeat the point of
// keeping cheap histories.
func (s *Store) autoFlush(t int64) {
	if t-s.lastFlush <= s.cfg.BufferSize+s.cfg.ToleranceWindow {
		return
	}
	s.flushAll(t - s.cfg.BufferSize)
	s.lastFlush = t
}

// scheduleNotify hands one drain closure to the dispatcher unless a
// notification is already pending, collapsing bursts of mutating calls into
// a single delivery per drain.
func (s *Store) scheduleNotify() {
	s.mu.Lock()
	if s.notifyPending {
		s.mu.Unlock()
		return
	}
	s.notifyPending = true
	d := s.dispatcher
	s.mu.Unlock()

	d.Dispatch(s.drainNotify)
}

func (s *Store) drainNotify() {
	s.mu.Lock()
	s.notifyPending = false
	fns := make([]func(), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (s *Store) emit(typ observability.EventType, level observability.Level, source string, data map[string]any) {
	s.observer.OnEvent(context.Background(), observability.Event{
		Type:      typ,
		Level:     level,
		Time:      s.clock.Current(),
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
	})
}
