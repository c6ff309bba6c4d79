package db

import (
	"fmt"

	apperrors "github.com/vipmusic/guardbot/internal/errors"
)

type Mode string

const (
	ModeWarn Mode = "warn"
	ModeMute Mode = "mute"
	ModeBan  Mode = "ban"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeWarn, ModeMute, ModeBan:
		return true
	}
	return false
}

type Penalty string

const (
	PenaltyMute Penalty = "mute"
	PenaltyBan  Penalty = "ban"
)

func (p Penalty) Valid() bool {
	return p == PenaltyMute || p == PenaltyBan
}

const DefaultLimit = 3

type ChatConfig struct {
	ChatID  int64   `db:"chat_id"`
	Mode    Mode    `db:"mode"`
	Limit   int     `db:"warn_limit"`
	Penalty Penalty `db:"penalty"`
}

func DefaultChatConfig(chatID int64) *ChatConfig {
	return &ChatConfig{
		ChatID:  chatID,
		Mode:    ModeWarn,
		Limit:   DefaultLimit,
		Penalty: PenaltyMute,
	}
}

// ConfigUpdate carries a partial change, nil fields are left untouched.
type ConfigUpdate struct {
	Mode    *Mode
	Limit   *int
	Penalty *Penalty
}

func (u ConfigUpdate) Validate() error {
	if u.Mode != nil && !u.Mode.Valid() {
		return fmt.Errorf("%w: mode %q", apperrors.ErrInvalidInput, *u.Mode)
	}
	if u.Limit != nil && *u.Limit < 0 {
		return fmt.Errorf("%w: limit %d", apperrors.ErrInvalidInput, *u.Limit)
	}
	if u.Penalty != nil && !u.Penalty.Valid() {
		return fmt.Errorf("%w: penalty %q", apperrors.ErrInvalidInput, *u.Penalty)
	}
	return nil
}

func (u ConfigUpdate) Apply(cfg *ChatConfig) {
	if u.Mode != nil {
		cfg.Mode = *u.Mode
	}
	if u.Limit != nil {
		cfg.Limit = *u.Limit
	}
	if u.Penalty != nil {
		cfg.Penalty = *u.Penalty
	}
}
