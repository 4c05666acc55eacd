// Package logs tails the JSON log file the daemon and the process command
// append to (log_dir/fwea.log).
//
// Tail reads the last N matching lines with bounded memory and, in follow
// mode, polls for new ones from a byte offset. Query filters records by job,
// stage, event type or minimum level so "fwea logs --job <id>" shows one job's
// history across daemon restarts.
package logs
