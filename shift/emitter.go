package shift

import "courierd/store"

// EventEmitter is the interface the shift manager uses to emit events.
type EventEmitter interface {
	EmitShiftStarted(s *store.Shift)
	EmitShiftEnded(s *store.Shift)
	EmitBreakStarted(s *store.Shift)
	EmitBreakEnded(s *store.Shift)
}

// Enqueuer appends a mutation to the offline queue.
type Enqueuer interface {
	Enqueue(kind string, payload any) (int64, error)
}
