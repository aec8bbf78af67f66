package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"
)

type TelegramConfig struct {
	Token  string
	ChatID int64
	APIURL string // empty means the public Bot API
}

// TelegramSink posts reminders to the front desk's Telegram chat. The bot never polls.
type TelegramSink struct {
	bot  *tele.Bot
	chat *tele.Chat
}

func NewTelegramSink(cfg TelegramConfig) (*TelegramSink, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	b, err := tele.NewBot(tele.Settings{
		URL:     cfg.APIURL,
		Token:   cfg.Token,
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	return &TelegramSink{bot: b, chat: &tele.Chat{ID: cfg.ChatID}}, nil
}

func (s *TelegramSink) Deliver(_ context.Context, r Reminder) error {
	text := fmt.Sprintf("%s\n%s", r.Title, r.Message)
	if r.Phone != "" {
		text += fmt.Sprintf("\n%s (%s)", r.ClientName, r.Phone)
	}
	_, err := s.bot.Send(s.chat, text)
	return err
}
