// Package daemon coordinates the long-running fwea process.
//
// It wires configuration, the job store and the workflow manager into a single
// lifecycle with flock-based locking so only one daemon drives a data
// directory at a time. The daemon also owns periodic housekeeping: terminal
// jobs older than workflow.job_expiry_days are removed together with their
// output and preview files.
//
// Keep orchestration logic here: individual pipeline steps live in their own
// packages while the daemon focuses on startup, shutdown and housekeeping.
package daemon
