package moderation

import (
	"fmt"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/vipmusic/guardbot/internal/db"
	"github.com/vipmusic/guardbot/internal/event"
	"github.com/vipmusic/guardbot/internal/i18n"
)

func button(text, data string) api.InlineKeyboardButton {
	return api.NewInlineKeyboardButtonData(text, data)
}

func CloseButton(lang string) api.InlineKeyboardButton {
	return button("🗑 "+i18n.Get("Close", lang), string(ActionClose))
}

func WarningKeyboard(userID int64, lang string) *api.InlineKeyboardMarkup {
	kb := api.NewInlineKeyboardMarkup(
		api.NewInlineKeyboardRow(
			button("❌ "+i18n.Get("Cancel warning", lang), UserAction(ActionCancelWarn, userID)),
			button("✅ "+i18n.Get("Whitelist", lang), UserAction(ActionWhitelist, userID)),
		),
		api.NewInlineKeyboardRow(CloseButton(lang)),
	)
	return &kb
}

// ReversalKeyboard offers undoing the applied penalty.
func ReversalKeyboard(penalty db.Penalty, userID int64, lang string) *api.InlineKeyboardMarkup {
	undo := button("🔊 "+i18n.Get("Unmute", lang), UserAction(ActionUnmute, userID))
	if penalty == db.PenaltyBan {
		undo = button("🔓 "+i18n.Get("Unban", lang), UserAction(ActionUnban, userID))
	}
	kb := api.NewInlineKeyboardMarkup(
		api.NewInlineKeyboardRow(undo),
		api.NewInlineKeyboardRow(CloseButton(lang)),
	)
	return &kb
}

// WhitelistKeyboard offers whitelisting a user who is not exempt.
func WhitelistKeyboard(userID int64, lang string) *api.InlineKeyboardMarkup {
	kb := api.NewInlineKeyboardMarkup(
		api.NewInlineKeyboardRow(
			button("✅ "+i18n.Get("Whitelist", lang), UserAction(ActionWhitelist, userID)),
			CloseButton(lang),
		),
	)
	return &kb
}

// UnwhitelistKeyboard offers reverting a whitelist entry.
func UnwhitelistKeyboard(userID int64, lang string) *api.InlineKeyboardMarkup {
	kb := api.NewInlineKeyboardMarkup(
		api.NewInlineKeyboardRow(
			button("🚫 "+i18n.Get("Unwhitelist", lang), UserAction(ActionUnwhitelist, userID)),
			CloseButton(lang),
		),
	)
	return &kb
}

func warningText(check Check, user event.User, count, limit int, lang string) string {
	var format string
	switch check {
	case CheckAds:
		format = i18n.Get("⚠️ %s, advertising is not allowed here. Warning %d/%d", lang)
	case CheckFlood:
		format = i18n.Get("⚠️ %s, flood detected. Warning %d/%d", lang)
	default:
		format = i18n.Get("⚠️ %s, please remove any links from your bio. Warning %d/%d", lang)
	}
	return fmt.Sprintf(format, user.Mention(), count, limit)
}

func reasonText(check Check, lang string) string {
	switch check {
	case CheckAds:
		return i18n.Get("advertising", lang)
	case CheckFlood:
		return i18n.Get("flooding", lang)
	}
	return i18n.Get("a link in bio", lang)
}

func penalizedText(penalty db.Penalty, check Check, user event.User, lang string) string {
	format := i18n.Get("🔇 %s has been muted for %s.", lang)
	if penalty == db.PenaltyBan {
		format = i18n.Get("🔨 %s has been banned for %s.", lang)
	}
	return fmt.Sprintf(format, user.Mention(), reasonText(check, lang))
}

func noPermissionText(penalty db.Penalty, lang string) string {
	if penalty == db.PenaltyBan {
		return i18n.Get("I don't have permission to ban users.", lang)
	}
	return i18n.Get("I don't have permission to mute users.", lang)
}

func removeBioPromptText(user event.User, lang string) string {
	return fmt.Sprintf(i18n.Get("%s, remove your bio link.", lang), user.Mention())
}
