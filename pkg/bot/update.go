package bot

import "github.com/illmade-knight/vehicle-intake/pkg/tracking"

// Update is one inbound user event: free text (including slash commands), a
// button selection, a shared location, or a photo reference. Exactly one of
// the payload fields is normally set.
type Update struct {
	ChatID   int64
	Text     string
	Callback string
	Location *tracking.Coordinates
	PhotoRef string
}
