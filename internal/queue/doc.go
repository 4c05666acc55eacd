// Package queue persists moderation jobs in SQLite.
//
// Each job is stored as a JSON document alongside the handful of columns the
// workers and the CLI query on: status, worker assignment, heartbeat, cancel
// flag and timestamps. Workers claim the oldest uploaded job atomically with
// ClaimNext, save after every state change, and refresh their heartbeat while
// a stage runs. ReclaimStale fails jobs whose worker disappeared so that they
// can be retried explicitly.
//
// The database is treated as working storage for in-flight and recent jobs
// rather than an archive. Schema changes bump the version in schema.go; users
// clear the database to adopt the new schema.
package queue
