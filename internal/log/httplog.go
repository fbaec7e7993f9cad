package log

import (
	"time"
)

// HTTPLogEntry describes one served dashboard request
type HTTPLogEntry struct {
	RequestID  string
	Method     string
	Path       string
	Status     int
	Duration   time.Duration
	Size       int
	RemoteAddr string
	UserAgent  string
	Err        error
}

// LogHTTPRequest writes an access log line for a served request. Requests
// that ended in a 5xx status or carry an error are logged at error level.
func LogHTTPRequest(e HTTPLogEntry) {
	fields := []interface{}{
		"request_id", e.RequestID,
		"method", e.Method,
		"path", e.Path,
		"status", e.Status,
		"duration_ms", e.Duration.Milliseconds(),
		"size", e.Size,
		"remote_addr", e.RemoteAddr,
		"user_agent", e.UserAgent,
	}

	if e.Err != nil || e.Status >= 500 {
		if e.Err != nil {
			fields = append(fields, "error", e.Err.Error())
		}
		GetSugaredLogger().Errorw("http request", fields...)
		return
	}

	GetSugaredLogger().Infow("http request", fields...)
}
