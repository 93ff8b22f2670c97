// Package pebblestore wraps a Pebble database for the embedded relay store.
// It applies the configured fsync mode to every commit and offers prefix
// scans in either direction plus whole-prefix deletes inside a batch.
//
//	mode, _ := pebblestore.ParseFsyncMode("interval")
//	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: mode})
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	prefix := []byte("msg/")
//	b := db.NewBatch()
//	_ = pebblestore.DeletePrefix(b, prefix)
//	if err := db.CommitBatch(b); err != nil {
//		return err
//	}
//
//	// newest first
//	_ = db.Scan(prefix, true, func(k, v []byte) bool {
//		return true
//	})
package pebblestore
