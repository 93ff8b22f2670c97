// Package pgstore manages the PostgreSQL connection pool used by the
// postgres store driver.
//
// Connect builds a pgxpool.Pool from Options and retries the initial ping
// with exponential backoff, so a relay process started alongside its database
// waits for it instead of failing. Migrate applies goose migrations from an
// fs.FS through a database/sql handle borrowed from the pool, and Healthcheck
// returns a ping closure suitable for readiness probes.
//
// The Is*Error helpers classify pgx errors so callers can map them to their
// own sentinel values.
package pgstore
