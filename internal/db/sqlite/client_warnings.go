package sqlite

import (
	"context"
	"database/sql"
	"errors"

	pkgerrors "github.com/pkg/errors"
)

func (c *sqliteClient) IncrementWarning(ctx context.Context, chatID, userID int64) (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var count int
	err := c.db.GetContext(ctx, &count, `
		INSERT INTO warnings (chat_id, user_id, count, updated_at)
		VALUES (?, ?, 1, datetime('now'))
		ON CONFLICT(chat_id, user_id) DO UPDATE SET
		count = warnings.count + 1,
		updated_at = excluded.updated_at
		RETURNING count
	`, chatID, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "increment warning")
	}
	return count, nil
}

func (c *sqliteClient) ResetWarnings(ctx context.Context, chatID, userID int64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, err := c.db.ExecContext(ctx, `DELETE FROM warnings WHERE chat_id = ? AND user_id = ?`, chatID, userID); err != nil {
		return pkgerrors.Wrap(err, "reset warnings")
	}
	return nil
}

func (c *sqliteClient) GetWarningCount(ctx context.Context, chatID, userID int64) (int, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var count int
	err := c.db.GetContext(ctx, &count, `SELECT count FROM warnings WHERE chat_id = ? AND user_id = ?`, chatID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, pkgerrors.Wrap(err, "get warning count")
	}
	return count, nil
}
