package bot

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/vipmusic/guardbot/internal/db"
	"github.com/vipmusic/guardbot/internal/event"
)

// ServiceBot defines bot-specific operations
type ServiceBot interface {
	GetBot() *api.BotAPI
}

// ServiceDB defines database-specific operations
type ServiceDB interface {
	GetDB() db.Client
}

type Service interface {
	ServiceBot
	ServiceDB
	GetLanguage(ctx context.Context, chatID int64, user event.User) string
}

// Handler processes one inbound event. Returning proceed=false stops the chain.
type Handler interface {
	Handle(ctx context.Context, ev event.Event) (proceed bool, err error)
}

type HandlerFunc func(ctx context.Context, ev event.Event) (bool, error)

func (f HandlerFunc) Handle(ctx context.Context, ev event.Event) (bool, error) {
	return f(ctx, ev)
}
