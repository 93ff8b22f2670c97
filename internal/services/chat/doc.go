// Package chatsvc implements channel and message operations on top of the
// runtime's store and hub registry. It is the only place that combines the
// two: PostMessage persists first and only then broadcasts, and
// DeleteChannel removes the channel's rows before tearing down its hub.
//
// Example:
//
//	svc := chatsvc.New(rt)
//	ch, _ := svc.CreateChannel(ctx, "general")
//	msg, err := svc.PostMessage(ctx, ch.ID, "hello", "ann")
//	if errors.Is(err, chatsvc.ErrNoSubscribers) {
//		// msg is stored; nobody was listening
//	}
package chatsvc
