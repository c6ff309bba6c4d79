package moderation

import (
	"context"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vipmusic/guardbot/internal/db"
	"github.com/vipmusic/guardbot/internal/event"
	"github.com/vipmusic/guardbot/internal/observability"
)

type Check string

const (
	CheckBio   Check = "bio"
	CheckAds   Check = "ads"
	CheckFlood Check = "flood"
)

type Verdict string

const (
	VerdictSkipped   Verdict = "skipped"
	VerdictExempt    Verdict = "exempt"
	VerdictClean     Verdict = "clean"
	VerdictPrompted  Verdict = "prompted"
	VerdictWarned    Verdict = "warned"
	VerdictPenalized Verdict = "penalized"
	VerdictNoRights  Verdict = "no_rights"
)

// Result describes what the engine did with one message.
type Result struct {
	Check   Check
	Verdict Verdict
	Count   int
	Penalty db.Penalty
	Deleted bool
}

type Store interface {
	db.ConfigStore
	db.WarningLedger
	db.WhitelistRegistry
}

// Platform is the subset of chat operations the engine drives.
type Platform interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	MuteMember(ctx context.Context, chatID, userID int64) error
	UnmuteMember(ctx context.Context, chatID, userID int64) error
	BanMember(ctx context.Context, chatID, userID int64) error
	UnbanMember(ctx context.Context, chatID, userID int64) error
	SendMessage(ctx context.Context, chatID int64, replyTo int, text string, markup *api.InlineKeyboardMarkup) (int, error)
	EditMessage(ctx context.Context, chatID int64, messageID int, text string, markup *api.InlineKeyboardMarkup) error
	AnswerCallback(ctx context.Context, callbackID string, text string, alert bool) error
	IsAdmin(ctx context.Context, chatID, userID int64) (bool, error)
	UserBio(ctx context.Context, userID int64) (string, error)
	UserName(ctx context.Context, chatID, userID int64) (string, error)
}

type Settings struct {
	Checks      []Check
	URLPattern  string
	AdPattern   string
	FloodLimit  int
	FloodWindow time.Duration
	Language    string
}

type Engine struct {
	store    Store
	platform Platform
	detector *Detector
	flood    *FloodTracker
	checks   map[Check]bool
	language string
	now      func() time.Time
}

func NewEngine(store Store, platform Platform, flood *FloodTracker, settings Settings) (*Engine, error) {
	detector, err := NewDetector(settings.URLPattern, settings.AdPattern)
	if err != nil {
		return nil, err
	}
	checks := make(map[Check]bool, len(settings.Checks))
	for _, check := range settings.Checks {
		switch check {
		case CheckBio, CheckAds, CheckFlood:
			checks[check] = true
		default:
			return nil, errors.Errorf("unknown check %q", check)
		}
	}
	if flood == nil && checks[CheckFlood] {
		flood = NewFloodTracker(settings.FloodLimit, settings.FloodWindow)
	}
	e := &Engine{
		store:    store,
		platform: platform,
		detector: detector,
		flood:    flood,
		checks:   checks,
		language: settings.Language,
		now:      time.Now,
	}
	e.getLogEntry().Debug("created new moderation engine")
	return e, nil
}

func (e *Engine) getLogEntry() *log.Entry {
	return log.WithField("object", "ModerationEngine")
}

// Handle makes the engine a link of the update chain.
func (e *Engine) Handle(ctx context.Context, ev event.Event) (bool, error) {
	switch ev := ev.(type) {
	case event.Message:
		res, err := e.CheckMessage(ctx, ev)
		if err != nil {
			return false, err
		}
		switch res.Verdict {
		case VerdictPrompted, VerdictWarned, VerdictPenalized, VerdictNoRights:
			return false, nil
		}
		return !res.Deleted, nil
	case event.Callback:
		return e.HandleCallback(ctx, ev)
	}
	return true, nil
}

// CheckMessage evaluates one group message and enforces the rules it breaks.
func (e *Engine) CheckMessage(ctx context.Context, msg event.Message) (res *Result, err error) {
	ctx, span := observability.Tracer().Start(ctx, "moderation.CheckMessage")
	defer func() {
		if res != nil {
			span.SetAttributes(
				attribute.String("check", string(res.Check)),
				attribute.String("verdict", string(res.Verdict)),
			)
		}
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	entry := e.getLogEntry().WithFields(log.Fields{
		"method":  "CheckMessage",
		"chat_id": msg.ChatID,
		"user_id": msg.From.ID,
	})

	if !msg.IsGroup() || msg.From.IsBot {
		return &Result{Verdict: VerdictSkipped}, nil
	}

	exempt, err := e.isExempt(ctx, msg.ChatID, msg.From.ID)
	if err != nil {
		return nil, err
	}
	if exempt {
		return &Result{Verdict: VerdictExempt}, nil
	}

	if e.checks[CheckFlood] && e.flood.Hit(msg.ChatID, msg.From.ID, e.now()) {
		e.flood.Clear(msg.ChatID, msg.From.ID)
		observability.RecordViolation(string(CheckFlood))
		entry.Info("flood detected")
		return e.enforce(ctx, CheckFlood, msg)
	}

	bioClean := false
	if e.checks[CheckBio] {
		bio, err := e.platform.UserBio(ctx, msg.From.ID)
		if err != nil {
			entry.WithField("error", err.Error()).Warn("cant fetch bio")
			return &Result{Check: CheckBio, Verdict: VerdictSkipped}, nil
		}
		if e.detector.HasLink(bio) {
			observability.RecordViolation(string(CheckBio))
			entry.Info("link in bio detected")
			return e.enforce(ctx, CheckBio, msg)
		}
		bioClean = true
	}

	if e.checks[CheckAds] && e.detector.IsAd(msg.Text) {
		observability.RecordViolation(string(CheckAds))
		entry.Info("advertising detected")
		return e.enforce(ctx, CheckAds, msg)
	}

	if bioClean {
		if err := e.store.ResetWarnings(ctx, msg.ChatID, msg.From.ID); err != nil {
			return nil, errors.WithMessage(err, "forgive warnings")
		}
	}
	return &Result{Verdict: VerdictClean}, nil
}

// isExempt consults the whitelist before the admin lookup.
func (e *Engine) isExempt(ctx context.Context, chatID, userID int64) (bool, error) {
	whitelisted, err := e.store.IsWhitelisted(ctx, chatID, userID)
	if err != nil {
		return false, errors.WithMessage(err, "check whitelist")
	}
	if whitelisted {
		return true, nil
	}
	isAdmin, err := e.platform.IsAdmin(ctx, chatID, userID)
	if err != nil {
		return false, errors.WithMessage(err, "check admin")
	}
	return isAdmin, nil
}
