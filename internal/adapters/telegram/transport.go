package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"roe-outage-bot/internal/domain"
	"roe-outage-bot/internal/infra/metrics"
)

// Описания ошибок Bot API, после которых сообщение уже нельзя отредактировать.
var editExpiredMarkers = []string{
	"message can't be edited",
	"message_edit_time_expired",
	"message to edit not found",
}

const notModifiedMarker = "message is not modified"

// Requester — часть tgbotapi.BotAPI, нужная транспорту.
type Requester interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Transport публикует и редактирует HTML-сообщение в одном чате.
type Transport struct {
	bot  Requester
	chat chatTarget
}

var _ domain.MessageTransport = (*Transport)(nil)

type chatTarget struct {
	id       int64
	username string
}

// NewTransport создаёт транспорт для чата. chat — числовой id или @username канала.
func NewTransport(bot Requester, chat string) *Transport {
	return &Transport{bot: bot, chat: parseChat(chat)}
}

func parseChat(raw string) chatTarget {
	raw = strings.TrimSpace(raw)
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return chatTarget{id: id}
	}
	return chatTarget{username: raw}
}

// Create отправляет новое сообщение и возвращает его идентификатор.
func (t *Transport) Create(ctx context.Context, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, &domain.TransportError{Kind: domain.TransportCreateFailed, Err: err}
	}
	var msg tgbotapi.MessageConfig
	if t.chat.username != "" {
		msg = tgbotapi.NewMessageToChannel(t.chat.username, FitMessage(text))
	} else {
		msg = tgbotapi.NewMessage(t.chat.id, FitMessage(text))
	}
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	start := time.Now()
	resp, err := t.bot.Request(msg)
	metrics.ObserveNetworkRequest("telegram_bot", "send_message", start, err)
	if err != nil {
		return 0, &domain.TransportError{Kind: domain.TransportCreateFailed, Err: err}
	}
	var sent struct {
		MessageID int `json:"message_id"`
	}
	if err := json.Unmarshal(resp.Result, &sent); err != nil {
		return 0, &domain.TransportError{Kind: domain.TransportMalformedResponse, Err: fmt.Errorf("decode result: %w", err)}
	}
	if sent.MessageID == 0 {
		return 0, &domain.TransportError{Kind: domain.TransportMalformedResponse, Err: errors.New("result has no message_id")}
	}
	return sent.MessageID, nil
}

// Edit заменяет текст ранее отправленного сообщения.
func (t *Transport) Edit(ctx context.Context, messageID int, text string) error {
	if err := ctx.Err(); err != nil {
		return &domain.TransportError{Kind: domain.TransportEditFailed, Err: err}
	}
	edit := tgbotapi.EditMessageTextConfig{
		BaseEdit: tgbotapi.BaseEdit{
			ChatID:          t.chat.id,
			ChannelUsername: t.chat.username,
			MessageID:       messageID,
		},
		Text:                  FitMessage(text),
		ParseMode:             tgbotapi.ModeHTML,
		DisableWebPagePreview: true,
	}

	start := time.Now()
	_, err := t.bot.Request(edit)
	metrics.ObserveNetworkRequest("telegram_bot", "edit_message_text", start, err)
	if err == nil {
		return nil
	}
	return classifyEditError(err)
}

func classifyEditError(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		desc := strings.ToLower(apiErr.Message)
		if strings.Contains(desc, notModifiedMarker) {
			return nil
		}
		if apiErr.Code == 400 {
			for _, marker := range editExpiredMarkers {
				if strings.Contains(desc, marker) {
					return &domain.TransportError{Kind: domain.TransportEditExpired, Err: err}
				}
			}
		}
	}
	return &domain.TransportError{Kind: domain.TransportEditFailed, Err: err}
}
