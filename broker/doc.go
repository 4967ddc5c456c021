// Package broker routes text events from publishers to subscribers grouped
// by topic name.
//
// A single goroutine (Run) owns the topic registry and drains one FIFO
// queue of Connect, Disconnect and Publish requests, so operations take
// effect in the order they were submitted and no lock guards the registry.
// Delivery never blocks the broker: a full inbox loses the event, a closed
// handle is evicted on the spot and a topic with no subscribers is removed.
//
// Usage:
//
//	b := broker.New()
//	go b.Run(ctx)
//
//	h := broker.NewHandle("client-1", 64)
//	if err := b.Connect(ctx, "news", h); err != nil { ... }
//	b.Publish("news", "hello")
//	ev := <-h.Events()
//	b.Disconnect(h)
package broker
