package store

import "github.com/rewindkv/rewind/observability"

const (
	// Transactions
	EventTxCommit observability.EventType = "tx.commit"
	EventTxNoop   observability.EventType = "tx.noop"

	// Timeline motion
	EventClockFork observability.EventType = "clock.fork"
	EventClockUndo observability.EventType = "clock.undo"
	EventClockRedo observability.EventType = "clock.redo"

	// Namespace lifecycle
	EventNamespaceCreate observability.EventType = "namespace.create"
	EventNamespaceRemove observability.EventType = "namespace.remove"

	// History trimming
	EventRetentionFlush observability.EventType = "retention.flush"
	EventRetentionPrune observability.EventType = "retention.prune"
)
