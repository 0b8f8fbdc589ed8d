package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/illmade-knight/vehicle-intake/pkg/bot"
	"github.com/illmade-knight/vehicle-intake/pkg/tracking"
	"github.com/rs/zerolog"
)

// longPollSeconds is how long getUpdates is allowed to hold the connection
// open on the server side before returning an empty batch.
const longPollSeconds = 30

// TelegramClient is a thin transport over the Telegram Bot API. It satisfies
// bot.Chat and additionally sources inbound updates for the dispatch loop.
type TelegramClient struct {
	baseURL    string
	httpClient *http.Client
	offset     int64
	logger     zerolog.Logger
}

// NewTelegramClient creates a client for one bot token. baseURL is normally
// https://api.telegram.org; tests point it at a local server.
func NewTelegramClient(baseURL, token string, logger zerolog.Logger) *TelegramClient {
	return &TelegramClient{
		baseURL: fmt.Sprintf("%s/bot%s", baseURL, token),
		httpClient: &http.Client{
			// Long enough to sit out a full long poll.
			Timeout: (longPollSeconds + 10) * time.Second,
		},
		logger: logger.With().Str("client", "telegram").Logger(),
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type apiMessage struct {
	MessageID int64 `json:"message_id"`
}

type apiUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text     string `json:"text"`
		Location *struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
		Photo []struct {
			FileID string `json:"file_id"`
		} `json:"photo"`
	} `json:"message"`
	CallbackQuery *struct {
		ID      string `json:"id"`
		Data    string `json:"data"`
		Message *struct {
			Chat struct {
				ID int64 `json:"id"`
			} `json:"chat"`
		} `json:"message"`
	} `json:"callback_query"`
}

// SendMessage sends text with an optional keyboard and returns the new
// message's id.
func (c *TelegramClient) SendMessage(ctx context.Context, chatID int64, text string, keyboard [][]bot.Button) (int64, error) {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if markup := replyMarkup(keyboard); markup != nil {
		payload["reply_markup"] = markup
	}

	var msg apiMessage
	if err := c.call(ctx, "sendMessage", payload, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// EditMessage replaces the text of an existing message.
func (c *TelegramClient) EditMessage(ctx context.Context, chatID, messageID int64, text string) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}
	return c.call(ctx, "editMessageText", payload, nil)
}

// SendPhoto re-sends a previously uploaded photo by file id with a caption.
func (c *TelegramClient) SendPhoto(ctx context.Context, chatID int64, photoRef, caption string) error {
	payload := map[string]any{
		"chat_id": chatID,
		"photo":   photoRef,
		"caption": caption,
	}
	return c.call(ctx, "sendPhoto", payload, nil)
}

// GetUpdates long-polls for the next batch of inbound events and translates
// them into the conversation's update type. The confirmed offset advances past
// every returned update, so each is delivered once.
func (c *TelegramClient) GetUpdates(ctx context.Context) ([]bot.Update, error) {
	payload := map[string]any{
		"offset":  c.offset,
		"timeout": longPollSeconds,
	}

	var raw []apiUpdate
	if err := c.call(ctx, "getUpdates", payload, &raw); err != nil {
		return nil, err
	}

	updates := make([]bot.Update, 0, len(raw))
	for _, ru := range raw {
		if ru.UpdateID >= c.offset {
			c.offset = ru.UpdateID + 1
		}
		u, ok := translate(ru)
		if !ok {
			continue
		}
		updates = append(updates, u)

		if ru.CallbackQuery != nil {
			c.acknowledgeCallback(ctx, ru.CallbackQuery.ID)
		}
	}
	return updates, nil
}

// acknowledgeCallback clears the client-side loading state after a button
// press. Failures only cost the user a lingering spinner, so they are logged
// and dropped.
func (c *TelegramClient) acknowledgeCallback(ctx context.Context, callbackID string) {
	payload := map[string]any{"callback_query_id": callbackID}
	if err := c.call(ctx, "answerCallbackQuery", payload, nil); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to acknowledge callback query")
	}
}

func translate(ru apiUpdate) (bot.Update, bool) {
	if ru.CallbackQuery != nil && ru.CallbackQuery.Message != nil {
		return bot.Update{
			ChatID:   ru.CallbackQuery.Message.Chat.ID,
			Callback: ru.CallbackQuery.Data,
		}, true
	}
	if ru.Message == nil {
		return bot.Update{}, false
	}

	u := bot.Update{
		ChatID: ru.Message.Chat.ID,
		Text:   ru.Message.Text,
	}
	if ru.Message.Location != nil {
		u.Location = &tracking.Coordinates{
			Latitude:  ru.Message.Location.Latitude,
			Longitude: ru.Message.Location.Longitude,
		}
	}
	if len(ru.Message.Photo) > 0 {
		// The last size is the largest rendition.
		u.PhotoRef = ru.Message.Photo[len(ru.Message.Photo)-1].FileID
	}
	return u, true
}

// call posts one Bot API method and decodes its result envelope.
func (c *TelegramClient) call(ctx context.Context, method string, payload map[string]any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", method, err)
	}

	endpoint, err := url.JoinPath(c.baseURL, method)
	if err != nil {
		return fmt.Errorf("failed to build %s url: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute %s request: %w", method, err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !envelope.OK {
		return fmt.Errorf("%s returned an error: %s", method, envelope.Description)
	}
	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

// replyMarkup builds the Bot API keyboard object for a prompt. Buttons with
// callback data become an inline keyboard; plain and location-request buttons
// become a one-shot reply keyboard.
func replyMarkup(keyboard [][]bot.Button) map[string]any {
	if len(keyboard) == 0 {
		return nil
	}

	inline := false
	for _, row := range keyboard {
		for _, b := range row {
			if b.Data != "" {
				inline = true
			}
		}
	}

	if inline {
		rows := make([][]map[string]any, 0, len(keyboard))
		for _, row := range keyboard {
			buttons := make([]map[string]any, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, map[string]any{
					"text":          b.Label,
					"callback_data": b.Data,
				})
			}
			rows = append(rows, buttons)
		}
		return map[string]any{"inline_keyboard": rows}
	}

	rows := make([][]map[string]any, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]map[string]any, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, map[string]any{
				"text":             b.Label,
				"request_location": b.RequestLocation,
			})
		}
		rows = append(rows, buttons)
	}
	return map[string]any{
		"keyboard":          rows,
		"resize_keyboard":   true,
		"one_time_keyboard": true,
	}
}
