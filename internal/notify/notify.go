// Package notify delivers shop notifications to the owner's Telegram chat.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bill-mart/internal/config"

	"github.com/gofiber/fiber/v2"
)

// Button is an inline link shown under a message.
type Button struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Message is Markdown text with optional link buttons, one per row.
type Message struct {
	Text    string
	Buttons []Button
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Noop drops every message. Used when no bot token is configured.
type Noop struct{}

func (Noop) Notify(context.Context, Message) error { return nil }

// Telegram sends messages through the Bot API sendMessage method.
type Telegram struct {
	baseURL string
	token   string
	chatID  string
	timeout time.Duration
}

// New returns a Telegram notifier, or Noop when the bot is not configured.
func New(cfg config.TelegramConfig) Notifier {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return Noop{}
	}
	return NewTelegram(cfg)
}

func NewTelegram(cfg config.TelegramConfig) *Telegram {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Telegram{baseURL: cfg.APIBaseURL, token: cfg.BotToken, chatID: cfg.ChatID, timeout: timeout}
}

type sendMessageRequest struct {
	ChatID      string          `json:"chat_id"`
	Text        string          `json:"text"`
	ParseMode   string          `json:"parse_mode"`
	ReplyMarkup *inlineKeyboard `json:"reply_markup,omitempty"`
}

type inlineKeyboard struct {
	InlineKeyboard [][]Button `json:"inline_keyboard"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := sendMessageRequest{ChatID: t.chatID, Text: msg.Text, ParseMode: "Markdown"}
	if len(msg.Buttons) > 0 {
		rows := make([][]Button, len(msg.Buttons))
		for i, b := range msg.Buttons {
			rows[i] = []Button{b}
		}
		req.ReplyMarkup = &inlineKeyboard{InlineKeyboard: rows}
	}

	timeout := t.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	agent := fiber.Post(fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token))
	agent.JSON(req).Timeout(timeout)
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("telegram sendMessage: %w", errs[0])
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("telegram sendMessage: status %d: %w", code, err)
	}
	if code != fiber.StatusOK || !resp.OK {
		return fmt.Errorf("telegram sendMessage: status %d: %s", code, resp.Description)
	}
	return nil
}
