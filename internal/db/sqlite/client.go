package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/vipmusic/guardbot/resources"
)

const dsnOptions = "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

type sqliteClient struct {
	db    *sqlx.DB
	mutex sync.RWMutex
}

func NewSQLiteClient(ctx context.Context, dir string, file string) (*sqliteClient, error) {
	entry := log.WithField("object", "sqliteClient").WithField("method", "NewSQLiteClient")

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "create db dir")
	}
	dbx, err := sqlx.ConnectContext(ctx, "sqlite", filepath.Join(dir, file)+dsnOptions)
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}
	dbx.SetMaxOpenConns(1)

	migrationsSource := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: resources.FS,
		Root:       "migrations",
	}
	n, err := migrate.ExecContext(ctx, dbx.DB, "sqlite3", migrationsSource, migrate.Up)
	if err != nil {
		_ = dbx.Close()
		return nil, errors.Wrap(err, "migrate up")
	}
	if n > 0 {
		entry.Infof("applied %d migrations", n)
	}

	return &sqliteClient{db: dbx}, nil
}

func (c *sqliteClient) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.db.Close()
}
