package moderation

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	apperrors "github.com/vipmusic/guardbot/internal/errors"
	"github.com/vipmusic/guardbot/internal/event"
	"github.com/vipmusic/guardbot/internal/i18n"
	"github.com/vipmusic/guardbot/internal/observability"
)

// HandleCallback serves the reversal controls attached to moderation notices.
func (e *Engine) HandleCallback(ctx context.Context, cb event.Callback) (bool, error) {
	entry := e.getLogEntry().WithFields(log.Fields{
		"method":  "HandleCallback",
		"chat_id": cb.ChatID,
		"data":    cb.Data,
	})

	action, err := ParseAction(cb.Data)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			entry.WithField("error", err.Error()).Debug("malformed callback")
			return false, nil
		}
		return true, nil
	}
	if !action.IsReversal() && action.Kind != ActionClose {
		return true, nil
	}

	isAdmin, err := e.platform.IsAdmin(ctx, cb.ChatID, cb.From.ID)
	if err != nil {
		return false, pkgerrors.WithMessage(err, "check admin")
	}
	if !isAdmin {
		return false, e.platform.AnswerCallback(ctx, cb.ID, i18n.Get("You are not an administrator", e.language), true)
	}

	if action.Kind == ActionClose {
		if err := e.platform.DeleteMessage(ctx, cb.ChatID, cb.MessageID); err != nil {
			entry.WithField("error", err.Error()).Warn("cant delete notice")
		}
		return false, e.platform.AnswerCallback(ctx, cb.ID, "", false)
	}

	text, err := e.Reverse(ctx, cb.ChatID, action)
	if errors.Is(err, apperrors.ErrNoPrivileges) {
		return false, e.platform.AnswerCallback(ctx, cb.ID, text, true)
	}
	if err != nil {
		return false, err
	}

	markup := WhitelistKeyboard(action.UserID, e.language)
	if action.Kind == ActionWhitelist {
		markup = UnwhitelistKeyboard(action.UserID, e.language)
	}
	if err := e.platform.EditMessage(ctx, cb.ChatID, cb.MessageID, text, markup); err != nil {
		entry.WithField("error", err.Error()).Warn("cant edit notice")
	}
	return false, e.platform.AnswerCallback(ctx, cb.ID, "", false)
}

// Reverse applies a reversal action and returns the notice text describing it.
// On ErrNoPrivileges the text explains the missing right.
func (e *Engine) Reverse(ctx context.Context, chatID int64, action Action) (string, error) {
	userID := action.UserID
	target := e.displayUser(ctx, chatID, userID)

	switch action.Kind {
	case ActionUnmute:
		err := e.platform.UnmuteMember(ctx, chatID, userID)
		observability.RecordAction("unmute", err)
		if errors.Is(err, apperrors.ErrNoPrivileges) {
			return i18n.Get("I don't have permission to unmute users.", e.language), err
		}
		if err != nil {
			return "", pkgerrors.WithMessage(err, "unmute")
		}
		if err := e.store.ResetWarnings(ctx, chatID, userID); err != nil {
			return "", pkgerrors.WithMessage(err, "reset warnings")
		}
		return fmt.Sprintf(i18n.Get("✅ %s has been unmuted.", e.language), target.Mention()), nil

	case ActionUnban:
		err := e.platform.UnbanMember(ctx, chatID, userID)
		observability.RecordAction("unban", err)
		if errors.Is(err, apperrors.ErrNoPrivileges) {
			return i18n.Get("I don't have permission to unban users.", e.language), err
		}
		if err != nil {
			return "", pkgerrors.WithMessage(err, "unban")
		}
		if err := e.store.ResetWarnings(ctx, chatID, userID); err != nil {
			return "", pkgerrors.WithMessage(err, "reset warnings")
		}
		return fmt.Sprintf(i18n.Get("✅ %s has been unbanned.", e.language), target.Mention()), nil

	case ActionCancelWarn:
		if err := e.store.ResetWarnings(ctx, chatID, userID); err != nil {
			return "", pkgerrors.WithMessage(err, "reset warnings")
		}
		return fmt.Sprintf(i18n.Get("✅ %s has no more warnings.", e.language), target.Mention()), nil

	case ActionWhitelist:
		if err := e.Whitelist(ctx, chatID, userID); err != nil {
			return "", err
		}
		return fmt.Sprintf(i18n.Get("✅ %s has been whitelisted.", e.language), target.Mention()), nil

	case ActionUnwhitelist:
		if err := e.store.RemoveWhitelist(ctx, chatID, userID); err != nil {
			return "", pkgerrors.WithMessage(err, "remove whitelist")
		}
		return fmt.Sprintf(i18n.Get("❌ %s has been removed from the whitelist.", e.language), target.Mention()), nil
	}
	return "", fmt.Errorf("%w: action %s", apperrors.ErrUnsupported, action.Kind)
}

// Whitelist exempts the user and clears the warnings they collected.
func (e *Engine) Whitelist(ctx context.Context, chatID, userID int64) error {
	if err := e.store.AddWhitelist(ctx, chatID, userID); err != nil {
		return pkgerrors.WithMessage(err, "add whitelist")
	}
	if err := e.store.ResetWarnings(ctx, chatID, userID); err != nil {
		return pkgerrors.WithMessage(err, "reset warnings")
	}
	return nil
}

func (e *Engine) displayUser(ctx context.Context, chatID, userID int64) event.User {
	name, err := e.platform.UserName(ctx, chatID, userID)
	if err != nil || name == "" {
		name = strconv.FormatInt(userID, 10)
	}
	return event.User{ID: userID, FirstName: name}
}
