// Package ingest receives identified position reports over HTTP and persists
// them for later analysis.
package ingest

import "time"

// Report is one identified position fix received from the bot's background
// reporter.
type Report struct {
	Name       string    `json:"name"`
	IDNumber   string    `json:"id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"timestamp"`
}
