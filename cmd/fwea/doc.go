// Package main hosts the fwea CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the daemon ("serve"), job submission,
// one-shot synchronous processing, queue inspection and maintenance, config
// scaffolding and dependency checks. Every command talks to the SQLite job
// store directly; the daemon picks up submitted jobs on its next poll and
// observes cancel requests between stages.
//
// Keep this package lean: new behaviour belongs in the internal packages
// first and is surfaced here through commands or flags.
package main
