// Package event turns discrete, push-style events into a pull-based sequence.
//
// A Target accepts listeners. From subscribes to one event name on a target
// and buffers matching events until the consumer pulls them, in dispatch
// order. The subscription ends when a configured abort event is dispatched,
// when an external Signal aborts, or when the sequence is closed. Events
// dispatched after that are never buffered.
//
//	em := event.NewEmitter()
//	clicks := event.From(em, "click", event.WithAbortEvent("close"))
//	em.Dispatch(event.Message{Name: "click"})
//	ev, ok, err := clicks.Next(ctx)
//
// Only one pull may be outstanding at a time.
package event
