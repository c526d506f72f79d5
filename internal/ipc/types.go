package ipc

import "time"

// PingRequest checks daemon liveness.
type PingRequest struct{}

// PingResponse echoes daemon liveness.
type PingResponse struct {
	Pong bool `json:"pong"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse is a snapshot of the running daemon.
type StatusResponse struct {
	Running        bool      `json:"running"`
	PID            int       `json:"pid"`
	StartedAt      time.Time `json:"started_at"`
	WatchDir       string    `json:"watch_dir"`
	QueueDepth     int       `json:"queue_depth"`
	EventsSeen     uint64    `json:"events_seen"`
	ReportsEmitted uint64    `json:"reports_emitted"`
	LockPath       string    `json:"lock_path"`
}

// StopRequest asks the daemon to shut down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}
