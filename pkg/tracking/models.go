// Package tracking holds the live-location domain: the last known position
// reported by each chat and the background reporter that forwards it.
package tracking

// Coordinates is a geographic position reported by a chat client.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Payload is the document delivered to the location backend on each firing.
// Name and IDNumber are snapshotted when the reporter is scheduled; the
// coordinates are re-read from the store at fire time.
type Payload struct {
	Name      string  `json:"name"`
	IDNumber  string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
