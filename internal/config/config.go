package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

const EnvPrefix = "GB_"

type (
	Config struct {
		TelegramAPIToken string   `env:"TOKEN,required"`
		DefaultLanguage  string   `env:"LANG,default=en"`
		EnabledHandlers  []string `env:"HANDLERS,default=moderation,admin,reactor,flames"`
		LogLevel         int      `env:"LOG_LEVEL,default=4"`
		DotPath          string   `env:"DOT_PATH,default=~/.guardbot"`
		DBFile           string   `env:"DB_FILE,default=bot.db"`
		Workers          int64    `env:"WORKERS,default=16"`
		Moderation       Moderation
		Reactor          Reactor
		Metrics          Metrics
	}

	Moderation struct {
		Checks        []string      `env:"CHECKS,default=bio,ads,flood"`
		URLPattern    string        `env:"BIO_URL_PATTERN"`
		AdPattern     string        `env:"AD_PATTERN"`
		FloodLimit    int           `env:"FLOOD_LIMIT,default=6"`
		FloodWindow   time.Duration `env:"FLOOD_WINDOW,default=7s"`
		AdminCacheTTL time.Duration `env:"ADMIN_CACHE_TTL,default=1m"`
	}

	Reactor struct {
		Mode       string        `env:"REACTION_MODE,default=all"`
		Emojis     []string      `env:"REACTION_EMOJIS,default=👍,❤,🔥,🥰,👏,😁,🎉,🤩,👌,😍,💯,⚡"`
		Triggers   []string      `env:"REACTION_TRIGGERS"`
		History    int           `env:"REACTION_HISTORY,default=6"`
		HistoryTTL time.Duration `env:"REACTION_HISTORY_TTL,default=1h"`
	}

	Metrics struct {
		Addr string `env:"METRICS_ADDR,default=:2112"`
	}
)

func (m Moderation) CheckEnabled(name string) bool {
	for _, check := range m.Checks {
		if check == name {
			return true
		}
	}
	return false
}

var (
	once         sync.Once
	globalConfig = &Config{}
	globalErr    error
)

// Process resolves the config from the given lookuper, keys are expected without prefix.
func Process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}
	envcfg := envconfig.Config{
		Lookuper: lookuper,
		Target:   cfg,
	}
	if err := envconfig.ProcessWith(ctx, &envcfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be positive, got %d", cfg.Workers)
	}
	if cfg.Moderation.FloodLimit < 1 {
		return nil, fmt.Errorf("flood limit must be positive, got %d", cfg.Moderation.FloodLimit)
	}
	switch cfg.Reactor.Mode {
	case "all", "triggers", "off":
	default:
		return nil, fmt.Errorf("unknown reaction mode %q", cfg.Reactor.Mode)
	}
	dotPath, err := homedir.Expand(cfg.DotPath)
	if err != nil {
		return nil, fmt.Errorf("expand dot path: %w", err)
	}
	cfg.DotPath = dotPath
	return cfg, nil
}

func Load() (Config, error) {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Trace("no .env file loaded")
		}
		cfg, err := Process(context.Background(), envconfig.PrefixLookuper(EnvPrefix, envconfig.OsLookuper()))
		if err != nil {
			globalErr = err
			return
		}
		log.Traceln("loaded config")
		globalConfig = cfg
	})
	return *globalConfig, globalErr
}

func Get() Config {
	cfg, err := Load()
	if err != nil {
		log.WithField("error", err.Error()).Error("cant load config")
	}
	return cfg
}
