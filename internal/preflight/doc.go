// Package preflight provides readiness checks for the directories, binaries
// and detection backend that fwea depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failing check so an
//     operator sees a broken backend before the first job stalls on it.
//   - The CLI "fwea doctor" command renders the same results as a table.
//
// Checks never mutate state; a failing check is reported, not repaired.
package preflight
