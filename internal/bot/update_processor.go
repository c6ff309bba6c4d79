package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pborman/uuid"
	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	apperrors "github.com/vipmusic/guardbot/internal/errors"
	"github.com/vipmusic/guardbot/internal/event"
	"github.com/vipmusic/guardbot/internal/observability"
)

const (
	UpdateTimeout = 5 * time.Minute
)

type UpdateProcessor struct {
	enabled  []string
	handlers map[string]Handler
	now      func() time.Time
}

func NewUpdateProcessor(enabled []string) *UpdateProcessor {
	return &UpdateProcessor{
		enabled:  enabled,
		handlers: make(map[string]Handler),
		now:      time.Now,
	}
}

func (up *UpdateProcessor) Register(name string, handler Handler) {
	if handler == nil {
		return
	}
	up.handlers[name] = handler
}

// Chain returns the enabled handlers in configured order, unknown names are skipped.
func (up *UpdateProcessor) Chain() []string {
	chain := make([]string, 0, len(up.enabled))
	for _, name := range up.enabled {
		if _, ok := up.handlers[name]; !ok {
			log.WithField("object", "UpdateProcessor").Warnf("no registered handler: %s", name)
			continue
		}
		chain = append(chain, name)
	}
	return chain
}

func (up *UpdateProcessor) Process(ctx context.Context, u *api.Update) (err error) {
	entry := log.WithField("object", "UpdateProcessor").WithField("event_id", uuid.New())
	done := observability.StartUpdateProcessing()
	defer func() { done(err) }()

	ev, err := event.FromUpdate(u)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnsupported) || errors.Is(err, apperrors.ErrInvalidInput) {
			entry.WithField("reason", err.Error()).Trace("skipping update")
			return nil
		}
		return err
	}

	if msg, ok := ev.(event.Message); ok && up.now().Sub(msg.Date) > UpdateTimeout {
		entry.WithFields(log.Fields{
			"update_time": msg.Date,
			"age":         up.now().Sub(msg.Date),
		}).Debug("skipping outdated update")
		return nil
	}

	for _, name := range up.Chain() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		proceed, err := up.run(ctx, name, ev)
		if err != nil {
			return pkgerrors.WithMessage(err, "handling error")
		}
		if !proceed {
			entry.WithField("handler", name).Trace("not proceeding")
			return nil
		}
	}
	return nil
}

func (up *UpdateProcessor) run(ctx context.Context, name string, ev event.Event) (proceed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %s panicked: %v", name, r)
			proceed = false
		}
	}()
	return up.handlers[name].Handle(ctx, ev)
}

func GetUpdatesChans(ctx context.Context, bot *api.BotAPI, config api.UpdateConfig) (api.UpdatesChannel, chan error) {
	ch := make(chan api.Update, bot.Buffer)
	chErr := make(chan error, 1)

	go func() {
		defer close(ch)
		defer close(chErr)
		for {
			select {
			case <-ctx.Done():
				chErr <- ctx.Err()
				return
			default:
				updates, err := bot.GetUpdates(config)
				if err != nil {
					chErr <- err
					return
				}

				for _, update := range updates {
					if update.UpdateID >= config.Offset {
						config.Offset = update.UpdateID + 1
						select {
						case ch <- update:
						case <-ctx.Done():
							chErr <- ctx.Err()
							return
						}
					}
				}
			}
		}
	}()

	return ch, chErr
}
