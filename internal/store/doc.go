// Package store persists channels and messages.
//
// Two backends implement Store: an embedded Pebble key space (default, no
// external service) and PostgreSQL through pgx with goose-managed migrations.
// Both keep the same contract: channels listed by id ascending, messages
// listed newest first, and deleting a channel deletes its messages.
//
//	db, _ := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
//	st := store.NewPebble(db)
//	ch, _ := st.CreateChannel(ctx, "general")
//	msg, _ := st.CreateMessage(ctx, store.NewMessage{ChannelID: ch.ID, Content: "hi", Username: "alice"})
package store
