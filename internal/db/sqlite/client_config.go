package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/vipmusic/guardbot/internal/db"
)

func (c *sqliteClient) GetConfig(ctx context.Context, chatID int64) (*db.ChatConfig, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.getConfig(ctx, chatID)
}

func (c *sqliteClient) getConfig(ctx context.Context, chatID int64) (*db.ChatConfig, error) {
	defaults := db.DefaultChatConfig(chatID)
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO chat_config (chat_id, mode, warn_limit, penalty)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(chat_id) DO NOTHING
	`, defaults.ChatID, defaults.Mode, defaults.Limit, defaults.Penalty)
	if err != nil {
		return nil, errors.Wrap(err, "insert default config")
	}

	cfg := &db.ChatConfig{}
	err = c.db.GetContext(ctx, cfg, `
		SELECT chat_id, mode, warn_limit, penalty
		FROM chat_config
		WHERE chat_id = ?
	`, chatID)
	if err != nil {
		return nil, errors.Wrap(err, "select config")
	}
	return cfg, nil
}

func (c *sqliteClient) UpdateConfig(ctx context.Context, chatID int64, update db.ConfigUpdate) (*db.ChatConfig, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	cfg, err := c.getConfig(ctx, chatID)
	if err != nil {
		return nil, err
	}
	update.Apply(cfg)

	_, err = c.db.NamedExecContext(ctx, `
		INSERT INTO chat_config (chat_id, mode, warn_limit, penalty, updated_at)
		VALUES (:chat_id, :mode, :warn_limit, :penalty, datetime('now'))
		ON CONFLICT(chat_id) DO UPDATE SET
		mode = excluded.mode,
		warn_limit = excluded.warn_limit,
		penalty = excluded.penalty,
		updated_at = excluded.updated_at
	`, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "upsert config")
	}
	return cfg, nil
}
