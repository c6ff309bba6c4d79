package moderation

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/vipmusic/guardbot/internal/db"
	apperrors "github.com/vipmusic/guardbot/internal/errors"
	"github.com/vipmusic/guardbot/internal/event"
	"github.com/vipmusic/guardbot/internal/observability"
)

func penaltyForMode(mode db.Mode) db.Penalty {
	if mode == db.ModeBan {
		return db.PenaltyBan
	}
	return db.PenaltyMute
}

// enforce runs the violation pipeline of the given check.
func (e *Engine) enforce(ctx context.Context, check Check, msg event.Message) (*Result, error) {
	entry := e.getLogEntry().WithFields(log.Fields{
		"method":  "enforce",
		"check":   check,
		"chat_id": msg.ChatID,
		"user_id": msg.From.ID,
	})
	res := &Result{Check: check}

	replyTo := msg.MessageID
	if check != CheckFlood {
		err := e.platform.DeleteMessage(ctx, msg.ChatID, msg.MessageID)
		observability.RecordAction("delete", err)
		switch {
		case errors.Is(err, apperrors.ErrNoPrivileges):
			if check == CheckAds {
				entry.Debug("cant delete advertising, no rights")
				res.Verdict = VerdictNoRights
				return res, nil
			}
			if _, err := e.platform.SendMessage(ctx, msg.ChatID, msg.MessageID, removeBioPromptText(msg.From, e.language), nil); err != nil {
				return nil, pkgerrors.WithMessage(err, "send bio prompt")
			}
			res.Verdict = VerdictPrompted
			return res, nil
		case err != nil:
			return nil, pkgerrors.WithMessage(err, "delete message")
		}
		res.Deleted = true
		replyTo = 0
	}

	cfg, err := e.store.GetConfig(ctx, msg.ChatID)
	if err != nil {
		return nil, pkgerrors.WithMessage(err, "get config")
	}

	if cfg.Mode != db.ModeWarn {
		return e.enforceDirect(ctx, check, msg, penaltyForMode(cfg.Mode), replyTo, res)
	}

	count, err := e.store.IncrementWarning(ctx, msg.ChatID, msg.From.ID)
	if err != nil {
		return nil, pkgerrors.WithMessage(err, "increment warning")
	}
	res.Count = count
	res.Verdict = VerdictWarned

	noticeID, err := e.platform.SendMessage(ctx, msg.ChatID, replyTo, warningText(check, msg.From, count, cfg.Limit, e.language), WarningKeyboard(msg.From.ID, e.language))
	if err != nil {
		return nil, pkgerrors.WithMessage(err, "send warning")
	}
	entry.WithField("count", count).Debug("warning issued")

	if count < cfg.Limit {
		return res, nil
	}

	res.Penalty = cfg.Penalty
	err = e.applyPenalty(ctx, msg.ChatID, msg.From.ID, cfg.Penalty)
	switch {
	case err == nil:
		res.Verdict = VerdictPenalized
		if err := e.platform.EditMessage(ctx, msg.ChatID, noticeID, penalizedText(cfg.Penalty, check, msg.From, e.language), ReversalKeyboard(cfg.Penalty, msg.From.ID, e.language)); err != nil {
			entry.WithField("error", err.Error()).Warn("cant edit warning notice")
		}
	case errors.Is(err, apperrors.ErrNoPrivileges):
		res.Verdict = VerdictNoRights
		text := noPermissionText(cfg.Penalty, e.language)
		if check == CheckBio {
			text = removeBioPromptText(msg.From, e.language) + "\n" + text
		}
		if err := e.platform.EditMessage(ctx, msg.ChatID, noticeID, text, nil); err != nil {
			entry.WithField("error", err.Error()).Warn("cant edit warning notice")
		}
	default:
		return nil, pkgerrors.WithMessage(err, "apply penalty")
	}

	// Only bio warnings survive a threshold penalty.
	if check != CheckBio {
		if err := e.store.ResetWarnings(ctx, msg.ChatID, msg.From.ID); err != nil {
			return nil, pkgerrors.WithMessage(err, "reset warnings")
		}
		res.Count = 0
	}
	return res, nil
}

func (e *Engine) enforceDirect(ctx context.Context, check Check, msg event.Message, penalty db.Penalty, replyTo int, res *Result) (*Result, error) {
	res.Penalty = penalty
	err := e.applyPenalty(ctx, msg.ChatID, msg.From.ID, penalty)
	switch {
	case err == nil:
		res.Verdict = VerdictPenalized
		if _, err := e.platform.SendMessage(ctx, msg.ChatID, replyTo, penalizedText(penalty, check, msg.From, e.language), ReversalKeyboard(penalty, msg.From.ID, e.language)); err != nil {
			return nil, pkgerrors.WithMessage(err, "send penalty notice")
		}
	case errors.Is(err, apperrors.ErrNoPrivileges):
		res.Verdict = VerdictNoRights
		if _, err := e.platform.SendMessage(ctx, msg.ChatID, replyTo, noPermissionText(penalty, e.language), nil); err != nil {
			return nil, pkgerrors.WithMessage(err, "send no permission notice")
		}
	default:
		return nil, pkgerrors.WithMessage(err, "apply penalty")
	}
	return res, nil
}

func (e *Engine) applyPenalty(ctx context.Context, chatID, userID int64, penalty db.Penalty) error {
	var err error
	if penalty == db.PenaltyBan {
		err = e.platform.BanMember(ctx, chatID, userID)
	} else {
		err = e.platform.MuteMember(ctx, chatID, userID)
	}
	observability.RecordAction(string(penalty), err)
	return err
}
