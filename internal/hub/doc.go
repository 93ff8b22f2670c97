// Package hub implements in-process fan-out of chat messages to live
// subscribers.
//
// A Registry maps channel ids to Hubs. A Hub owns the set of Subscribers
// currently streaming that channel and a Sequence that numbers every publish
// starting at 1. Publish stamps the message with the next sequence number
// and offers the same Delivery to every subscriber registered at that
// moment. Offers never block: each Subscriber has a bounded buffer and a
// subscriber whose buffer is full is evicted with ErrSlowSubscriber while
// the rest of the hub is unaffected.
//
// Each Hub is guarded by its own mutex and the Registry by a RW mutex, so
// publishes to different channels never contend.
//
// Hubs are created lazily on the first subscribe and live until the channel
// is removed or the registry is closed. Removing a hub ends its subscribers
// with ErrChannelDeleted; closing the registry ends them with ErrShutdown.
// Subscribers observe this through Done and Err.
package hub
