package logs

import (
	"encoding/json"
	"log/slog"
	"strings"

	"fwea/internal/logging"
)

// Query selects JSON log records. Empty fields match everything; JobID
// matches by prefix so short IDs from "queue list" work.
type Query struct {
	JobID    string
	Stage    string
	Event    string
	MinLevel string
}

// Empty reports whether the query matches every record.
func (q Query) Empty() bool {
	return q.JobID == "" && q.Stage == "" && q.Event == "" && q.MinLevel == ""
}

// Filter returns a line predicate for Tail, or nil for an empty query.
// Lines that are not JSON objects never match a non-empty query.
func (q Query) Filter() func(string) bool {
	if q.Empty() {
		return nil
	}
	var minLevel slog.Level
	checkLevel := q.MinLevel != ""
	if checkLevel {
		if err := minLevel.UnmarshalText([]byte(q.MinLevel)); err != nil {
			minLevel = slog.LevelInfo
		}
	}
	return func(line string) bool {
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return false
		}
		if q.JobID != "" && !strings.HasPrefix(field(rec, logging.FieldJobID), q.JobID) {
			return false
		}
		if q.Stage != "" && field(rec, logging.FieldStage) != q.Stage {
			return false
		}
		if q.Event != "" && field(rec, logging.FieldEventType) != q.Event {
			return false
		}
		if checkLevel {
			var level slog.Level
			if err := level.UnmarshalText([]byte(field(rec, slog.LevelKey))); err != nil || level < minLevel {
				return false
			}
		}
		return true
	}
}

func field(rec map[string]any, key string) string {
	value, _ := rec[key].(string)
	return value
}
