// Package staging sweeps per-job artifact directories.
//
// Processing and preview write into <dir>/<job id>/. Jobs removed with
// "fwea queue clear" or interrupted mid-write can leave those directories
// behind; CleanOrphaned removes the ones no stored job owns once they are
// older than a grace period.
package staging
