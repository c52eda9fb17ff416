// Package layer implements the per-namespace commit log for the rewind
// engine: timestamped commits per flattened key, point-in-time lookup,
// structural change detection, and the two trimming policies (exact branch
// pruning and bounded-retention flushing).
package layer

// Commit is one immutable (timestamp, value) record for one key. The only
// mutation the engine ever performs is rewriting a retained boundary commit's
// timestamp forward during a flush, to keep threshold-time queries resolving.
type Commit struct {
	Time  int64
	Value any
}

// tombstone marks logical deletion. A tombstone commit occupies a history
// slot but is excluded from snapshots and resolves as absent.
type tombstone struct{}

// Tombstone is the deletion marker. Writing it as a leaf value records a
// deletion commit for that key.
var Tombstone any = tombstone{}

// IsTombstone reports whether v is the deletion marker.
func IsTombstone(v any) bool {
	_, ok := v.(tombstone)
	return ok
}
