package handler

import (
	"crypto/subtle"
	"encoding/json"

	"bill-mart/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

type telegramChat struct {
	ID int64 `json:"id"`
}

type telegramMessage struct {
	Chat telegramChat `json:"chat"`
	Text string       `json:"text"`
}

type telegramUpdate struct {
	UpdateID      int64            `json:"update_id"`
	Message       *telegramMessage `json:"message"`
	EditedMessage *telegramMessage `json:"edited_message"`
	CallbackQuery json.RawMessage  `json:"callback_query"`
}

// WebhookHandler acknowledges bot updates. It only logs what it receives.
type WebhookHandler struct {
	secret string
}

// NewWebhookHandler refuses every update when secret is empty.
func NewWebhookHandler(secret string) *WebhookHandler {
	return &WebhookHandler{secret: secret}
}

// Telegram receives bot updates
// POST /api/telegram
func (h *WebhookHandler) Telegram(c *fiber.Ctx) error {
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(c.Get(telegramSecretHeader)), []byte(h.secret)) != 1 {
		return c.Status(403).SendString("Forbidden")
	}

	var update telegramUpdate
	if err := json.Unmarshal(c.Body(), &update); err != nil {
		// still acknowledged so the platform does not retry
		logger.LogError("webhook", "Telegram", "Error processing telegram update", nil, err)
		return c.JSON(fiber.Map{"ok": true})
	}

	log := logger.Get().WithFields(logrus.Fields{"module": "webhook", "update_id": update.UpdateID})
	switch {
	case update.Message != nil:
		log.WithFields(logrus.Fields{"chat_id": update.Message.Chat.ID, "text": update.Message.Text}).Info("Received message")
	case update.CallbackQuery != nil:
		log.Info("Received callback query")
	case update.EditedMessage != nil:
		log.WithField("chat_id", update.EditedMessage.Chat.ID).Info("Received edited message")
	default:
		log.Debug("Ignored update")
	}

	return c.JSON(fiber.Map{"ok": true})
}
