package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	api "github.com/OvyFlash/telegram-bot-api"
	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/vipmusic/guardbot/internal/db"
	apperrors "github.com/vipmusic/guardbot/internal/errors"
	"github.com/vipmusic/guardbot/internal/event"
	"github.com/vipmusic/guardbot/internal/handlers/moderation"
	"github.com/vipmusic/guardbot/internal/i18n"
)

const (
	maxMenuLimit = 5
	selectedMark = "🍏"
	checkMark    = " ✅"
)

func menuText(cfg *db.ChatConfig, lang string) string {
	return i18n.Get("Choose penalty for users with links in bio:", lang) + "\n\n" +
		fmt.Sprintf(i18n.Get("Mode: %s, limit: %d, penalty: %s", lang), cfg.Mode, cfg.Limit, cfg.Penalty)
}

func mark(label string, selected bool) string {
	if selected {
		return label + checkMark
	}
	return label
}

func mainKeyboard(cfg *db.ChatConfig, lang string) *api.InlineKeyboardMarkup {
	kb := api.NewInlineKeyboardMarkup(
		api.NewInlineKeyboardRow(
			api.NewInlineKeyboardButtonData(i18n.Get("Warn", lang), string(moderation.ActionWarnMenu)),
		),
		api.NewInlineKeyboardRow(
			api.NewInlineKeyboardButtonData(mark(i18n.Get("Mute", lang), cfg.Penalty == db.PenaltyMute), string(db.PenaltyMute)),
			api.NewInlineKeyboardButtonData(mark(i18n.Get("Ban", lang), cfg.Penalty == db.PenaltyBan), string(db.PenaltyBan)),
		),
		api.NewInlineKeyboardRow(
			modeButton(db.ModeWarn, i18n.Get("Warn mode", lang), cfg.Mode),
			modeButton(db.ModeMute, i18n.Get("Mute mode", lang), cfg.Mode),
			modeButton(db.ModeBan, i18n.Get("Ban mode", lang), cfg.Mode),
		),
		api.NewInlineKeyboardRow(moderation.CloseButton(lang)),
	)
	return &kb
}

func modeButton(mode db.Mode, label string, current db.Mode) api.InlineKeyboardButton {
	data := moderation.Action{Kind: moderation.ActionMode, Mode: mode}.String()
	return api.NewInlineKeyboardButtonData(mark(label, mode == current), data)
}

func limitKeyboard(selected int, lang string) *api.InlineKeyboardMarkup {
	row := make([]api.InlineKeyboardButton, 0, maxMenuLimit+1)
	for n := 0; n <= maxMenuLimit; n++ {
		label := strconv.Itoa(n)
		if n == selected {
			label = selectedMark
		}
		data := moderation.Action{Kind: moderation.ActionWarnLimit, Limit: n}.String()
		row = append(row, api.NewInlineKeyboardButtonData(label, data))
	}
	kb := api.NewInlineKeyboardMarkup(
		row,
		api.NewInlineKeyboardRow(
			api.NewInlineKeyboardButtonData(i18n.Get("Back", lang), string(moderation.ActionBack)),
			moderation.CloseButton(lang),
		),
	)
	return &kb
}

func (a *Admin) handleCallback(ctx context.Context, cb event.Callback) (bool, error) {
	action, err := moderation.ParseAction(cb.Data)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			return false, nil
		}
		return true, nil
	}
	switch action.Kind {
	case moderation.ActionClose, moderation.ActionBack, moderation.ActionWarnMenu,
		moderation.ActionPenalty, moderation.ActionWarnLimit, moderation.ActionMode:
	default:
		return true, nil
	}

	isAdmin, err := a.platform.IsAdmin(ctx, cb.ChatID, cb.From.ID)
	if err != nil {
		return false, pkgerrors.WithMessage(err, "check admin")
	}
	if !isAdmin {
		return false, a.platform.AnswerCallback(ctx, cb.ID, i18n.Get("You are not an administrator", a.language), true)
	}

	entry := a.getLogEntry().WithFields(log.Fields{
		"method":  "handleCallback",
		"chat_id": cb.ChatID,
		"action":  action.String(),
	})

	if action.Kind == moderation.ActionClose {
		if err := a.platform.DeleteMessage(ctx, cb.ChatID, cb.MessageID); err != nil {
			entry.WithField("error", err.Error()).Warn("cant delete menu")
		}
		return false, a.platform.AnswerCallback(ctx, cb.ID, "", false)
	}

	text, markup, err := a.applyMenuAction(ctx, cb.ChatID, action)
	if err != nil {
		return false, err
	}
	if err := a.platform.EditMessage(ctx, cb.ChatID, cb.MessageID, text, markup); err != nil {
		entry.WithField("error", err.Error()).Warn("cant edit menu")
	}
	return false, a.platform.AnswerCallback(ctx, cb.ID, "", false)
}

func (a *Admin) applyMenuAction(ctx context.Context, chatID int64, action moderation.Action) (string, *api.InlineKeyboardMarkup, error) {
	var update db.ConfigUpdate
	switch action.Kind {
	case moderation.ActionPenalty:
		update.Penalty = &action.Penalty
	case moderation.ActionWarnLimit:
		update.Limit = &action.Limit
	case moderation.ActionMode:
		update.Mode = &action.Mode
	}

	var (
		cfg *db.ChatConfig
		err error
	)
	if update.Mode == nil && update.Limit == nil && update.Penalty == nil {
		cfg, err = a.store.GetConfig(ctx, chatID)
	} else {
		cfg, err = a.store.UpdateConfig(ctx, chatID, update)
	}
	if err != nil {
		return "", nil, pkgerrors.WithMessage(err, "apply menu action")
	}

	switch action.Kind {
	case moderation.ActionWarnMenu:
		return i18n.Get("Set number of warnings:", a.language), limitKeyboard(cfg.Limit, a.language), nil
	case moderation.ActionWarnLimit:
		text := fmt.Sprintf(i18n.Get("Warning limit set to %d", a.language), cfg.Limit)
		return text, limitKeyboard(cfg.Limit, a.language), nil
	case moderation.ActionPenalty:
		return i18n.Get("Penalty selected", a.language) + "\n\n" + menuText(cfg, a.language), mainKeyboard(cfg, a.language), nil
	case moderation.ActionMode:
		return i18n.Get("Mode selected", a.language) + "\n\n" + menuText(cfg, a.language), mainKeyboard(cfg, a.language), nil
	}
	return menuText(cfg, a.language), mainKeyboard(cfg, a.language), nil
}
