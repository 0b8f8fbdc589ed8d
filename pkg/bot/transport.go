package bot

import "context"

// Button is one key of a keyboard attached to a prompt. Buttons with Data
// set report a callback selection; buttons with RequestLocation set ask the
// client to share its position.
type Button struct {
	Label           string
	Data            string
	RequestLocation bool
}

// Row builds a one-button keyboard row.
func Row(buttons ...Button) []Button { return buttons }

// Chat is the narrow surface of the chat transport the conversation needs.
// Implementations are thin I/O; all conversation logic stays in this package.
type Chat interface {
	// SendMessage sends text with an optional keyboard and returns the id of
	// the new message.
	SendMessage(ctx context.Context, chatID int64, text string, keyboard [][]Button) (int64, error)
	// EditMessage replaces the text of an existing message.
	EditMessage(ctx context.Context, chatID int64, messageID int64, text string) error
	// SendPhoto sends a previously-uploaded photo by reference with a caption.
	SendPhoto(ctx context.Context, chatID int64, photoRef, caption string) error
}
