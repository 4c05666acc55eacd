package notifications

import (
	"fmt"
	"strings"

	"fwea/internal/job"
)

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

// PayloadForJob extracts the fields the job events render.
func PayloadForJob(j *job.Job) Payload {
	if j == nil {
		return Payload{}
	}
	name := strings.TrimSpace(j.OriginalName)
	if name == "" {
		name = j.SourcePath
	}
	return Payload{
		"jobID":      j.ID,
		"name":       name,
		"severity":   string(j.Severity),
		"spans":      len(j.DetectedSpans),
		"redacted":   j.Redacted,
		"outputPath": j.OutputPath,
		"errorStage": j.ErrorStage,
		"error":      j.Error,
		"canRetry":   j.CanRetry(),
	}
}

func format(event Event, p Payload) (message, bool) {
	switch event {
	case EventJobCompleted:
		body := fmt.Sprintf("Cleaned: %s", str(p, "name"))
		if spans := intValue(p, "spans"); spans > 0 {
			body += fmt.Sprintf("\n%d segment(s) muted, severity %s", spans, str(p, "severity"))
		} else {
			body += "\nNo profanity detected"
		}
		if out := str(p, "outputPath"); out != "" {
			body += "\nOutput: " + out
		}
		return message{
			title: "fwea - Job Complete",
			body:  body,
			tags:  []string{"fwea", "job", "completed"},
		}, true
	case EventJobFailed:
		body := fmt.Sprintf("Failed: %s", str(p, "name"))
		if stage := str(p, "errorStage"); stage != "" {
			body += " (" + stage + ")"
		}
		if errText := str(p, "error"); errText != "" {
			body += "\n" + errText
		}
		if retry, _ := p["canRetry"].(bool); retry {
			body += fmt.Sprintf("\nRetry with: fwea queue retry %s", str(p, "jobID"))
		}
		return message{
			title:    "fwea - Job Failed",
			body:     body,
			tags:     []string{"fwea", "job", "failed"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "fwea - Test",
			body:     "Notification delivery test",
			tags:     []string{"fwea", "test"},
			priority: "low",
		}, true
	}
	return message{}, false
}

func str(p Payload, key string) string {
	value, _ := p[key].(string)
	return strings.TrimSpace(value)
}

func intValue(p Payload, key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
