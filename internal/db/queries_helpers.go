package db

import (
	"database/sql"
	"time"
)

// timeLayout sorts lexically in SQLite and is accepted by MySQL DATETIME(3).
const timeLayout = "2006-01-02 15:04:05.000"

var readLayouts = []string{
	timeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads a timestamp written by either backend. Stored values are UTC.
func parseTime(s string) time.Time {
	for _, layout := range readLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nullStr(s string) any {
	if s == "" || s == "null" {
		return nil
	}
	return s
}

// nullTimeStr renders a nullable timestamp column as RFC 3339 UTC.
func nullTimeStr(ns sql.NullString) string {
	if !ns.Valid || ns.String == "" {
		return ""
	}
	t := parseTime(ns.String)
	if t.IsZero() {
		return ns.String
	}
	return t.UTC().Format(time.RFC3339)
}
