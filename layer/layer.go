package layer

import (
	"fmt"
	"sort"
)

// Layer is the commit log for one namespace. It maps flattened dot-path keys
// to their histories: ordered commit sequences with strictly increasing
// timestamps, append-only except for the two trimming operations.
//
// A Layer is exclusively owned by its store entry and performs no locking of
// its own.
type Layer struct {
	histories map[string][]Commit
}

// New returns an empty Layer.
func New() *Layer {
	return &Layer{histories: make(map[string][]Commit)}
}

// trimDir selects which side of a cut point a trim keeps.
type trimDir int

const (
	trimAfter  trimDir = iota // branch prune: drop the future
	trimBefore                // retention flush: drop the deep past
)

// Set appends a commit for one flattened key. The caller guarantees t is not
// below the key's latest timestamp; the log never re-sorts.
func (l *Layer) Set(key string, value any, t int64) {
	l.histories[key] = append(l.histories[key], Commit{Time: t, Value: value})
}

// Apply flattens a nested update and appends a commit at t for every
// resulting leaf.
func (l *Layer) Apply(update map[string]any, t int64) {
	for key, value := range Flatten(update) {
		l.Set(key, value, t)
	}
}

// Get resolves key at time t: the value of the latest commit with timestamp
// <= t. Returns false when no commit qualifies or the latest is a tombstone.
func (l *Layer) Get(key string, t int64) (any, bool) {
	h := l.histories[key]
	i := latestAt(h, t)
	if i < 0 || IsTombstone(h[i].Value) {
		return nil, false
	}
	return h[i].Value, true
}

// State returns the full snapshot of the layer at time t: every key mapped to
// its resolved value, with absent and tombstoned keys omitted. Keys are the
// flattened dot paths.
func (l *Layer) State(t int64) map[string]any {
	state := make(map[string]any, len(l.histories))
	for key := range l.histories {
		if v, ok := l.Get(key, t); ok {
			state[key] = v
		}
	}
	return state
}

// Changed reports whether the nested update carries a meaningful change
// against the layer's state at time t: any leaf whose proposed value is not
// structurally equal to the currently resolved value. A proposed tombstone is
// meaningful only when the key currently resolves.
func (l *Layer) Changed(update map[string]any, t int64) bool {
	for key, value := range Flatten(update) {
		if l.leafChanged(key, value, t) {
			return true
		}
	}
	return false
}

func (l *Layer) leafChanged(key string, value any, t int64) bool {
	current, ok := l.Get(key, t)
	if IsTombstone(value) {
		return ok
	}
	if !ok {
		return true
	}
	return !Equal(value, current)
}

// Prune discards the abandoned branch: for every key, every commit after the
// latest commit with timestamp <= forkTime-1 is dropped. A key with no
// qualifying commit loses its entire history. Run before appending at a fork
// so branch commits never leak forward onto the new timeline.
func (l *Layer) Prune(forkTime int64) {
	l.trim(forkTime, trimAfter)
}

// Flush applies bounded retention: for every key, the latest commit with
// timestamp <= threshold-1 is kept as the boundary (its timestamp rewritten
// to threshold so queries at the threshold still resolve) together with
// everything after it. A key with no commit below the threshold is untouched;
// a key with only old commits keeps exactly its most recent one, so the last
// known value is never dropped.
func (l *Layer) Flush(threshold int64) {
	l.trim(threshold, trimBefore)
}

func (l *Layer) trim(at int64, dir trimDir) {
	for key, h := range l.histories {
		i := latestAt(h, at-1)
		switch dir {
		case trimAfter:
			if i < 0 {
				delete(l.histories, key)
				continue
			}
			l.histories[key] = h[:i+1]
		case trimBefore:
			if i < 0 {
				continue
			}
			h = h[i:]
			if len(h) > 1 && h[1].Time <= at {
				// A live commit already sits at the threshold; the boundary
				// would only duplicate its timestamp.
				h = h[1:]
			} else if h[0].Time < at {
				h[0].Time = at
			}
			l.histories[key] = h
		default:
			panic(fmt.Sprintf("layer: unknown trim direction %d", dir))
		}
	}
}

// Keys returns the flattened keys currently tracked, in no particular order.
func (l *Layer) Keys() []string {
	keys := make([]string, 0, len(l.histories))
	for key := range l.histories {
		keys = append(keys, key)
	}
	return keys
}

// History returns the commit sequence recorded for key. The returned slice is
// the log's own backing storage; callers must treat it as read-only.
func (l *Layer) History(key string) []Commit {
	return l.histories[key]
}

// Len returns the number of tracked keys.
func (l *Layer) Len() int {
	return len(l.histories)
}

// latestAt returns the index of the latest commit with Time <= t, or -1.
// Histories are sorted by strictly increasing timestamps, so a binary search
// suffices and ties are impossible.
func latestAt(h []Commit, t int64) int {
	return sort.Search(len(h), func(i int) bool { return h[i].Time > t }) - 1
}
