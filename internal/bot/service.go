package bot

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamwavecut/tool"

	"github.com/vipmusic/guardbot/internal/db"
	"github.com/vipmusic/guardbot/internal/event"
	"github.com/vipmusic/guardbot/internal/i18n"
)

type service struct {
	bot             *api.BotAPI
	db              db.Client
	defaultLanguage string
}

func NewService(bot *api.BotAPI, db db.Client, defaultLanguage string) *service {
	if !tool.In(defaultLanguage, i18n.GetLanguagesList()...) {
		defaultLanguage = "en"
	}
	return &service{
		bot:             bot,
		db:              db,
		defaultLanguage: defaultLanguage,
	}
}

func (s *service) GetBot() *api.BotAPI {
	return s.bot
}

func (s *service) GetDB() db.Client {
	return s.db
}

func (s *service) GetLanguage(ctx context.Context, chatID int64, user event.User) string {
	_ = ctx
	_ = chatID
	_ = user
	return s.defaultLanguage
}
