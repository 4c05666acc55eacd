package logging

import "strings"

// FormatSubject builds the worker/job/stage subject string used in console output.
// Job IDs are shortened to their first eight characters.
func FormatSubject(worker, jobID, stage string) string {
	worker = strings.TrimSpace(worker)
	jobID = strings.TrimSpace(jobID)
	stage = strings.TrimSpace(stage)
	if len(jobID) > 8 {
		jobID = jobID[:8]
	}
	parts := make([]string, 0, 2)
	if worker != "" {
		parts = append(parts, worker)
	}
	switch {
	case jobID != "" && stage != "":
		parts = append(parts, "job "+jobID+" ("+stage+")")
	case jobID != "":
		parts = append(parts, "job "+jobID)
	case stage != "":
		parts = append(parts, stage)
	}
	return strings.Join(parts, " · ")
}
