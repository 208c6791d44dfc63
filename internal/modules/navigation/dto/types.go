package dto

import "time"

type SessionOutput struct {
	ID         string
	Target     string
	From       string
	Location   string
	Outcome    string
	Error      string
	StartedAt  time.Time
	EndedAt    time.Time
	DurationMs int64
}

type HistoryInput struct {
	Limit int
}

type ReportOutput struct {
	Path     string
	Sessions int
}

type RouteOutput struct {
	Key         string
	Title       string
	Description string
}
