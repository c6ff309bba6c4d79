package moderation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vipmusic/guardbot/internal/db"
	apperrors "github.com/vipmusic/guardbot/internal/errors"
)

type ActionKind string

const (
	ActionClose       ActionKind = "close"
	ActionBack        ActionKind = "back"
	ActionWarnMenu    ActionKind = "warn"
	ActionPenalty     ActionKind = "penalty"
	ActionWarnLimit   ActionKind = "warn_limit"
	ActionMode        ActionKind = "mode"
	ActionUnmute      ActionKind = "unmute"
	ActionUnban       ActionKind = "unban"
	ActionCancelWarn  ActionKind = "cancel_warn"
	ActionWhitelist   ActionKind = "whitelist"
	ActionUnwhitelist ActionKind = "unwhitelist"
	ActionReactionOn  ActionKind = "reaction_on"
	ActionReactionOff ActionKind = "reaction_off"
	ActionFlamesList  ActionKind = "flames_list"
)

// Action is a decoded callback token.
type Action struct {
	Kind    ActionKind
	UserID  int64
	Limit   int
	Mode    db.Mode
	Penalty db.Penalty
}

// IsReversal reports whether the action targets a moderated user.
func (a Action) IsReversal() bool {
	switch a.Kind {
	case ActionUnmute, ActionUnban, ActionCancelWarn, ActionWhitelist, ActionUnwhitelist:
		return true
	}
	return false
}

func (a Action) String() string {
	switch a.Kind {
	case ActionPenalty:
		return string(a.Penalty)
	case ActionWarnLimit:
		return "warn_" + strconv.Itoa(a.Limit)
	case ActionMode:
		return "mode_" + string(a.Mode)
	}
	if a.IsReversal() {
		return string(a.Kind) + "_" + strconv.FormatInt(a.UserID, 10)
	}
	return string(a.Kind)
}

// userPrefixes is ordered so that no prefix shadows a longer one.
var userPrefixes = []ActionKind{
	ActionUnwhitelist,
	ActionWhitelist,
	ActionCancelWarn,
	ActionUnmute,
	ActionUnban,
}

// ParseAction decodes callback data. Unknown tokens yield ErrUnsupported,
// known tokens with a malformed argument yield ErrInvalidInput.
func ParseAction(data string) (Action, error) {
	switch data {
	case string(ActionClose), string(ActionBack), string(ActionWarnMenu),
		string(ActionReactionOn), string(ActionReactionOff), string(ActionFlamesList):
		return Action{Kind: ActionKind(data)}, nil
	case string(db.PenaltyMute), string(db.PenaltyBan):
		return Action{Kind: ActionPenalty, Penalty: db.Penalty(data)}, nil
	}

	for _, kind := range userPrefixes {
		prefix := string(kind) + "_"
		if !strings.HasPrefix(data, prefix) {
			continue
		}
		userID, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
		if err != nil || userID <= 0 {
			return Action{}, fmt.Errorf("%w: callback %q", apperrors.ErrInvalidInput, data)
		}
		return Action{Kind: kind, UserID: userID}, nil
	}

	if rest, ok := strings.CutPrefix(data, "warn_"); ok {
		limit, err := strconv.Atoi(rest)
		if err != nil || limit < 0 {
			return Action{}, fmt.Errorf("%w: callback %q", apperrors.ErrInvalidInput, data)
		}
		return Action{Kind: ActionWarnLimit, Limit: limit}, nil
	}
	if rest, ok := strings.CutPrefix(data, "mode_"); ok {
		mode := db.Mode(rest)
		if !mode.Valid() {
			return Action{}, fmt.Errorf("%w: callback %q", apperrors.ErrInvalidInput, data)
		}
		return Action{Kind: ActionMode, Mode: mode}, nil
	}

	return Action{}, fmt.Errorf("%w: callback %q", apperrors.ErrUnsupported, data)
}

// UserAction builds the token for a reversal control.
func UserAction(kind ActionKind, userID int64) string {
	return Action{Kind: kind, UserID: userID}.String()
}
