package reactor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/iamwavecut/tool"
	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/vipmusic/guardbot/internal/db"
	apperrors "github.com/vipmusic/guardbot/internal/errors"
	"github.com/vipmusic/guardbot/internal/event"
	"github.com/vipmusic/guardbot/internal/handlers/moderation"
	"github.com/vipmusic/guardbot/internal/i18n"
)

type Mode string

const (
	ModeAll      Mode = "all"
	ModeTriggers Mode = "triggers"
	ModeOff      Mode = "off"
)

const (
	historyChats       = 4096
	disabledKeyPrefix  = "reactions_disabled:"
	disabledValue      = "1"
	enabledValue       = "0"
	defaultHistorySize = 6
)

type Platform interface {
	SetReaction(ctx context.Context, chatID int64, messageID int, emoji string) error
	SendMessage(ctx context.Context, chatID int64, replyTo int, text string, markup *api.InlineKeyboardMarkup) (int, error)
	EditMessage(ctx context.Context, chatID int64, messageID int, text string, markup *api.InlineKeyboardMarkup) error
	AnswerCallback(ctx context.Context, callbackID string, text string, alert bool) error
	IsAdmin(ctx context.Context, chatID, userID int64) (bool, error)
}

type Settings struct {
	Mode       Mode
	Emojis     []string
	Triggers   []string
	History    int
	HistoryTTL time.Duration
	Language   string
}

// Reactor puts a random emoji reaction on group messages.
type Reactor struct {
	store    db.KVStore
	platform Platform
	settings Settings
	triggers []string

	mu      sync.Mutex
	history *expirable.LRU[int64, []string]
	randInt func(min, max int) int
}

func NewReactor(store db.KVStore, platform Platform, settings Settings) (*Reactor, error) {
	switch settings.Mode {
	case ModeAll, ModeTriggers, ModeOff:
	default:
		return nil, fmt.Errorf("%w: reaction mode %q", apperrors.ErrInvalidInput, settings.Mode)
	}
	if settings.Mode != ModeOff && len(settings.Emojis) == 0 {
		return nil, fmt.Errorf("%w: no reaction emojis", apperrors.ErrInvalidInput)
	}
	if settings.History < 0 {
		settings.History = defaultHistorySize
	}
	if settings.HistoryTTL <= 0 {
		settings.HistoryTTL = time.Hour
	}

	triggers := make([]string, 0, len(settings.Triggers))
	for _, trigger := range settings.Triggers {
		if trigger = strings.ToLower(strings.TrimSpace(trigger)); trigger != "" {
			triggers = append(triggers, trigger)
		}
	}

	r := &Reactor{
		store:    store,
		platform: platform,
		settings: settings,
		triggers: triggers,
		history:  expirable.NewLRU[int64, []string](historyChats, nil, settings.HistoryTTL),
		randInt:  func(min, max int) int { return tool.RandInt(min, max) },
	}
	r.getLogEntry().WithField("mode", settings.Mode).Debug("created new reactor")
	return r, nil
}

func (r *Reactor) getLogEntry() *log.Entry {
	return log.WithField("object", "Reactor")
}

func (r *Reactor) Handle(ctx context.Context, ev event.Event) (bool, error) {
	switch ev := ev.(type) {
	case event.Message:
		if !ev.IsGroup() {
			return true, nil
		}
		if ev.IsCommand() {
			return r.handleCommand(ctx, ev)
		}
		return true, r.react(ctx, ev)
	case event.Callback:
		return r.handleCallback(ctx, ev)
	}
	return true, nil
}

func (r *Reactor) react(ctx context.Context, msg event.Message) error {
	if r.settings.Mode == ModeOff || msg.From.IsBot {
		return nil
	}
	if r.settings.Mode == ModeTriggers && !r.matchesTrigger(msg.Text) {
		return nil
	}
	enabled, err := r.Enabled(ctx, msg.ChatID)
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}

	emoji := r.Next(msg.ChatID)
	if err := r.platform.SetReaction(ctx, msg.ChatID, msg.MessageID, emoji); err != nil {
		r.getLogEntry().WithFields(log.Fields{
			"chat_id": msg.ChatID,
			"emoji":   emoji,
			"error":   err.Error(),
		}).Debug("cant set reaction")
	}
	return nil
}

func (r *Reactor) matchesTrigger(text string) bool {
	text = strings.ToLower(text)
	for _, trigger := range r.triggers {
		if strings.Contains(text, trigger) {
			return true
		}
	}
	return false
}

// Next picks an emoji that is not among the recent picks of the chat.
func (r *Reactor) Next(chatID int64) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	recent, _ := r.history.Get(chatID)
	available := make([]string, 0, len(r.settings.Emojis))
	for _, emoji := range r.settings.Emojis {
		if !tool.In(emoji, recent...) {
			available = append(available, emoji)
		}
	}
	if len(available) == 0 {
		recent = nil
		available = r.settings.Emojis
	}

	emoji := available[r.randInt(0, len(available))]
	recent = append(append([]string(nil), recent...), emoji)
	if len(recent) > r.settings.History {
		recent = recent[len(recent)-r.settings.History:]
	}
	r.history.Add(chatID, recent)
	return emoji
}

func disabledKey(chatID int64) string {
	return disabledKeyPrefix + strconv.FormatInt(chatID, 10)
}

// Enabled reports the per-chat switch, chats without a stored value are enabled.
func (r *Reactor) Enabled(ctx context.Context, chatID int64) (bool, error) {
	value, err := r.store.GetKV(ctx, disabledKey(chatID))
	if err != nil {
		return false, pkgerrors.WithMessage(err, "get reaction state")
	}
	return value != disabledValue, nil
}

func (r *Reactor) SetEnabled(ctx context.Context, chatID int64, enabled bool) error {
	value := disabledValue
	if enabled {
		value = enabledValue
	}
	return pkgerrors.WithMessage(r.store.SetKV(ctx, disabledKey(chatID), value), "set reaction state")
}

func (r *Reactor) statusText(enabled bool) string {
	if enabled {
		return i18n.Get("✅ Reactions are enabled in this chat.", r.settings.Language)
	}
	return i18n.Get("❌ Reactions are disabled in this chat.", r.settings.Language)
}

func (r *Reactor) keyboard() *api.InlineKeyboardMarkup {
	lang := r.settings.Language
	kb := api.NewInlineKeyboardMarkup(
		api.NewInlineKeyboardRow(
			api.NewInlineKeyboardButtonData("✅ "+i18n.Get("Enable", lang), string(moderation.ActionReactionOn)),
			api.NewInlineKeyboardButtonData("❌ "+i18n.Get("Disable", lang), string(moderation.ActionReactionOff)),
		),
		api.NewInlineKeyboardRow(moderation.CloseButton(lang)),
	)
	return &kb
}

func (r *Reactor) handleCommand(ctx context.Context, msg event.Message) (bool, error) {
	switch msg.Command {
	case "reaction", "reactionon", "reactionoff":
	default:
		return true, nil
	}
	isAdmin, err := r.platform.IsAdmin(ctx, msg.ChatID, msg.From.ID)
	if err != nil {
		return false, pkgerrors.WithMessage(err, "check admin")
	}
	if !isAdmin {
		_, err := r.platform.SendMessage(ctx, msg.ChatID, msg.MessageID, i18n.Get("Only admins can change reactions.", r.settings.Language), nil)
		return false, err
	}

	switch msg.Command {
	case "reactionon", "reactionoff":
		enabled := msg.Command == "reactionon"
		if err := r.SetEnabled(ctx, msg.ChatID, enabled); err != nil {
			return false, err
		}
		_, err := r.platform.SendMessage(ctx, msg.ChatID, msg.MessageID, r.statusText(enabled), nil)
		return false, err
	}

	enabled, err := r.Enabled(ctx, msg.ChatID)
	if err != nil {
		return false, err
	}
	_, err = r.platform.SendMessage(ctx, msg.ChatID, msg.MessageID, r.statusText(enabled), r.keyboard())
	return false, err
}

func (r *Reactor) handleCallback(ctx context.Context, cb event.Callback) (bool, error) {
	action, err := moderation.ParseAction(cb.Data)
	if err != nil {
		return !errors.Is(err, apperrors.ErrInvalidInput), nil
	}
	if action.Kind != moderation.ActionReactionOn && action.Kind != moderation.ActionReactionOff {
		return true, nil
	}

	isAdmin, err := r.platform.IsAdmin(ctx, cb.ChatID, cb.From.ID)
	if err != nil {
		return false, pkgerrors.WithMessage(err, "check admin")
	}
	if !isAdmin {
		return false, r.platform.AnswerCallback(ctx, cb.ID, i18n.Get("You are not an administrator", r.settings.Language), true)
	}

	enabled := action.Kind == moderation.ActionReactionOn
	if err := r.SetEnabled(ctx, cb.ChatID, enabled); err != nil {
		return false, err
	}
	if err := r.platform.EditMessage(ctx, cb.ChatID, cb.MessageID, r.statusText(enabled), r.keyboard()); err != nil {
		r.getLogEntry().WithField("error", err.Error()).Warn("cant edit reaction menu")
	}
	return false, r.platform.AnswerCallback(ctx, cb.ID, "", false)
}
