package sqlite

import (
	"context"

	"github.com/pkg/errors"
)

func (c *sqliteClient) AddWhitelist(ctx context.Context, chatID, userID int64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO whitelist (chat_id, user_id, created_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(chat_id, user_id) DO NOTHING
	`, chatID, userID)
	if err != nil {
		return errors.Wrap(err, "add whitelist")
	}
	return nil
}

func (c *sqliteClient) RemoveWhitelist(ctx context.Context, chatID, userID int64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, err := c.db.ExecContext(ctx, `DELETE FROM whitelist WHERE chat_id = ? AND user_id = ?`, chatID, userID); err != nil {
		return errors.Wrap(err, "remove whitelist")
	}
	return nil
}

func (c *sqliteClient) IsWhitelisted(ctx context.Context, chatID, userID int64) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var count int
	err := c.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM whitelist WHERE chat_id = ? AND user_id = ?`, chatID, userID)
	if err != nil {
		return false, errors.Wrap(err, "check whitelist")
	}
	return count > 0, nil
}

func (c *sqliteClient) GetWhitelist(ctx context.Context, chatID int64) ([]int64, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	userIDs := make([]int64, 0)
	err := c.db.SelectContext(ctx, &userIDs, `
		SELECT user_id FROM whitelist
		WHERE chat_id = ?
		ORDER BY created_at, rowid
	`, chatID)
	if err != nil {
		return nil, errors.Wrap(err, "list whitelist")
	}
	return userIDs, nil
}
