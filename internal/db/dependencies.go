package db

import "context"

type ConfigStore interface {
	GetConfig(ctx context.Context, chatID int64) (*ChatConfig, error)
	UpdateConfig(ctx context.Context, chatID int64, update ConfigUpdate) (*ChatConfig, error)
}

type WarningLedger interface {
	IncrementWarning(ctx context.Context, chatID, userID int64) (int, error)
	ResetWarnings(ctx context.Context, chatID, userID int64) error
	GetWarningCount(ctx context.Context, chatID, userID int64) (int, error)
}

type WhitelistRegistry interface {
	AddWhitelist(ctx context.Context, chatID, userID int64) error
	RemoveWhitelist(ctx context.Context, chatID, userID int64) error
	IsWhitelisted(ctx context.Context, chatID, userID int64) (bool, error)
	GetWhitelist(ctx context.Context, chatID int64) ([]int64, error)
}

type KVStore interface {
	GetKV(ctx context.Context, key string) (string, error)
	SetKV(ctx context.Context, key string, value string) error
}

type Client interface {
	ConfigStore
	WarningLedger
	WhitelistRegistry
	KVStore
	Close() error
}
