package redaction

import (
	"path/filepath"

	"fwea/internal/job"
	"fwea/internal/textutil"
)

func displayName(j *job.Job) string {
	if j.OriginalName != "" {
		return j.OriginalName
	}
	return filepath.Base(j.SourcePath)
}

// OutputPath is where processing writes the redacted file for j.
func OutputPath(dir string, j *job.Job) string {
	return filepath.Join(dir, j.ID, textutil.DerivedName(displayName(j), "clean", filepath.Ext(j.SourcePath)))
}

// PreviewPath is where the preview stage writes the clip for j.
func PreviewPath(dir string, j *job.Job) string {
	return filepath.Join(dir, j.ID, textutil.DerivedName(displayName(j), "preview", filepath.Ext(j.SourcePath)))
}
