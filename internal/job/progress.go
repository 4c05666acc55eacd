package job

import "math"

// ComputeProgress returns the weighted completion percentage of the given
// attempts. Only the latest attempt per stage counts. Every stage of the
// pipeline contributes its weight to the denominator unless its latest
// attempt was skipped.
func ComputeProgress(stages []StageRecord) float64 {
	latest := make(map[StageName]StageRecord, len(stages))
	for _, rec := range stages {
		latest[rec.Name] = rec
	}
	var total, done float64
	for _, name := range Stages() {
		rec, seen := latest[name]
		if seen && rec.Status == StageSkipped {
			continue
		}
		w := float64(name.Weight())
		total += w
		if !seen {
			continue
		}
		switch rec.Status {
		case StageCompleted:
			done += w
		case StageRunning:
			done += w * clampPercent(rec.Progress) / 100
		}
	}
	if total == 0 {
		return 0
	}
	return 100 * done / total
}

// recomputeProgress keeps job progress monotonic within an attempt and below
// 100 until Complete.
func (j *Job) recomputeProgress() {
	if j.Status == StatusCompleted {
		j.Progress = 100
		return
	}
	p := int(math.Round(ComputeProgress(j.Stages)))
	if p > 99 {
		p = 99
	}
	if p > j.Progress {
		j.Progress = p
	}
}
