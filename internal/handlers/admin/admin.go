package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/vipmusic/guardbot/internal/db"
	apperrors "github.com/vipmusic/guardbot/internal/errors"
	"github.com/vipmusic/guardbot/internal/event"
	"github.com/vipmusic/guardbot/internal/handlers/moderation"
	"github.com/vipmusic/guardbot/internal/i18n"
)

type Store interface {
	db.ConfigStore
	db.WhitelistRegistry
}

type Platform interface {
	SendMessage(ctx context.Context, chatID int64, replyTo int, text string, markup *api.InlineKeyboardMarkup) (int, error)
	EditMessage(ctx context.Context, chatID int64, messageID int, text string, markup *api.InlineKeyboardMarkup) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID string, text string, alert bool) error
	IsAdmin(ctx context.Context, chatID, userID int64) (bool, error)
	ResolveUser(ctx context.Context, chatID int64, arg string) (event.User, error)
	UserName(ctx context.Context, chatID, userID int64) (string, error)
}

// Whitelister exempts a user and forgives their warnings.
type Whitelister interface {
	Whitelist(ctx context.Context, chatID, userID int64) error
}

// Admin serves the settings menu and the whitelist commands.
type Admin struct {
	store       Store
	platform    Platform
	whitelister Whitelister
	language    string
}

func NewAdmin(store Store, platform Platform, whitelister Whitelister, language string) *Admin {
	a := &Admin{
		store:       store,
		platform:    platform,
		whitelister: whitelister,
		language:    language,
	}
	a.getLogEntry().WithField("method", "NewAdmin").Debug("created new admin handler")
	return a
}

func (a *Admin) getLogEntry() *log.Entry {
	return log.WithField("object", "Admin")
}

func (a *Admin) Handle(ctx context.Context, ev event.Event) (bool, error) {
	switch ev := ev.(type) {
	case event.Message:
		return a.handleMessage(ctx, ev)
	case event.Callback:
		return a.handleCallback(ctx, ev)
	}
	return true, nil
}

func (a *Admin) handleMessage(ctx context.Context, msg event.Message) (bool, error) {
	if !msg.IsGroup() || !msg.IsCommand() {
		return true, nil
	}
	var run func(context.Context, event.Message) error
	switch msg.Command {
	case "config":
		run = a.configure
	case "free":
		run = a.free
	case "unfree":
		run = a.unfree
	case "freelist":
		run = a.freelist
	default:
		return true, nil
	}

	isAdmin, err := a.platform.IsAdmin(ctx, msg.ChatID, msg.From.ID)
	if err != nil {
		return false, pkgerrors.WithMessage(err, "check admin")
	}
	if !isAdmin {
		a.getLogEntry().WithFields(log.Fields{
			"chat_id": msg.ChatID,
			"user_id": msg.From.ID,
			"command": msg.Command,
		}).Debug("command from non-admin ignored")
		return false, nil
	}
	return false, run(ctx, msg)
}

func (a *Admin) configure(ctx context.Context, msg event.Message) error {
	cfg, err := a.store.GetConfig(ctx, msg.ChatID)
	if err != nil {
		return pkgerrors.WithMessage(err, "get config")
	}
	if _, err := a.platform.SendMessage(ctx, msg.ChatID, 0, menuText(cfg, a.language), mainKeyboard(cfg, a.language)); err != nil {
		return pkgerrors.WithMessage(err, "send settings")
	}
	if err := a.platform.DeleteMessage(ctx, msg.ChatID, msg.MessageID); err != nil {
		a.getLogEntry().WithField("error", err.Error()).Debug("cant delete config command")
	}
	return nil
}

// target picks the replied-to user first, then the first argument.
func (a *Admin) target(ctx context.Context, msg event.Message) (event.User, error) {
	if msg.ReplyTo != nil {
		return *msg.ReplyTo, nil
	}
	args := strings.Fields(msg.Args)
	if len(args) == 0 {
		return event.User{}, apperrors.ErrNotFound
	}
	return a.platform.ResolveUser(ctx, msg.ChatID, args[0])
}

func (a *Admin) free(ctx context.Context, msg event.Message) error {
	user, err := a.target(ctx, msg)
	if errors.Is(err, apperrors.ErrNotFound) {
		_, err = a.platform.SendMessage(ctx, msg.ChatID, msg.MessageID, i18n.Get("Reply or use /free user or id to whitelist someone.", a.language), nil)
		return err
	}
	if err != nil {
		return pkgerrors.WithMessage(err, "resolve target")
	}

	if err := a.whitelister.Whitelist(ctx, msg.ChatID, user.ID); err != nil {
		return err
	}
	text := fmt.Sprintf(i18n.Get("✅ %s has been whitelisted.", a.language), user.Mention())
	_, err = a.platform.SendMessage(ctx, msg.ChatID, 0, text, moderation.UnwhitelistKeyboard(user.ID, a.language))
	return err
}

func (a *Admin) unfree(ctx context.Context, msg event.Message) error {
	user, err := a.target(ctx, msg)
	if errors.Is(err, apperrors.ErrNotFound) {
		_, err = a.platform.SendMessage(ctx, msg.ChatID, msg.MessageID, i18n.Get("Reply or use /unfree user or id to unwhitelist someone.", a.language), nil)
		return err
	}
	if err != nil {
		return pkgerrors.WithMessage(err, "resolve target")
	}

	whitelisted, err := a.store.IsWhitelisted(ctx, msg.ChatID, user.ID)
	if err != nil {
		return pkgerrors.WithMessage(err, "check whitelist")
	}
	text := fmt.Sprintf(i18n.Get("ℹ️ %s is not whitelisted.", a.language), user.Mention())
	if whitelisted {
		if err := a.store.RemoveWhitelist(ctx, msg.ChatID, user.ID); err != nil {
			return pkgerrors.WithMessage(err, "remove whitelist")
		}
		text = fmt.Sprintf(i18n.Get("❌ %s has been removed from the whitelist.", a.language), user.Mention())
	}
	_, err = a.platform.SendMessage(ctx, msg.ChatID, 0, text, moderation.WhitelistKeyboard(user.ID, a.language))
	return err
}

func (a *Admin) freelist(ctx context.Context, msg event.Message) error {
	ids, err := a.store.GetWhitelist(ctx, msg.ChatID)
	if err != nil {
		return pkgerrors.WithMessage(err, "get whitelist")
	}
	if len(ids) == 0 {
		_, err = a.platform.SendMessage(ctx, msg.ChatID, 0, i18n.Get("⚠️ No users are whitelisted in this group.", a.language), nil)
		return err
	}

	var sb strings.Builder
	sb.WriteString(i18n.Get("📋 Whitelisted users:", a.language))
	sb.WriteString("\n\n")
	for i, id := range ids {
		label := i18n.Get("[User not found]", a.language)
		if name, err := a.platform.UserName(ctx, msg.ChatID, id); err == nil && name != "" {
			label = api.EscapeText(api.ModeMarkdown, name)
		}
		fmt.Fprintf(&sb, "%d: %s [`%d`]\n", i+1, label, id)
	}
	kb := api.NewInlineKeyboardMarkup(api.NewInlineKeyboardRow(moderation.CloseButton(a.language)))
	_, err = a.platform.SendMessage(ctx, msg.ChatID, 0, sb.String(), &kb)
	return err
}
