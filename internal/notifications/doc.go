// Package notifications delivers job outcome events via pluggable notifiers.
//
// The default implementation publishes to ntfy using notifications.ntfy_topic
// and degrades to a no-op when no topic is configured. The workflow manager
// publishes once per finished job; delivery failures are logged and never
// change the job's outcome.
package notifications
