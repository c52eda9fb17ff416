package observability

import "context"

// NoOpObserver discards all engine events with zero overhead. It is the
// store's default sink.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(ctx context.Context, event Event) {}
