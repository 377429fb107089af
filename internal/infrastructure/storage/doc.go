/*
Package storage persists the server's durable state in SQLite through the
pure-Go modernc.org/sqlite driver.

Tables:
  - users, staff: accounts and staff departments
  - activity_logs: archived activity rows, timestamps in unix milliseconds
  - kv: namespaced key-value pairs; each user's settings live under their
    own namespace

KV satisfies the desktop settings store. Archiver copies desktop activity
records into activity_logs from a background goroutine, guarded by a
circuit breaker so a failing database sheds load instead of blocking
desktop sessions.
*/
package storage
