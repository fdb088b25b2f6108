// Package audit records security-relevant actions as structured events.
//
// A Logger builds events from an action name and EventOption values,
// scrubs sensitive metadata through a MetadataFilter and hands them to a
// Storage. A Reader returns stored events newest first.
//
// Storage implementations live next to the backends that use them. This
// package ships MemoryStorage and AsyncWriter, which wraps any BatchWriter
// and groups concurrent Store calls into bulk writes.
//
// Basic usage:
//
//	store := audit.NewMemoryStorage()
//	logger := audit.NewLogger(store)
//	_ = logger.Log(ctx, "two_factor.enabled", audit.WithActor("user", id))
//
//	events, _ := audit.NewReader(store).Find(ctx, audit.Criteria{ActorKind: "user", ActorID: id})
package audit
