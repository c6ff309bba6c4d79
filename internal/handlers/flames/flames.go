package flames

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamwavecut/tool"
	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/vipmusic/guardbot/internal/event"
	"github.com/vipmusic/guardbot/internal/handlers/moderation"
	"github.com/vipmusic/guardbot/internal/i18n"
)

const letters = "FLAMES"

type Outcome struct {
	Letter byte
	Emoji  string
}

var outcomes = map[byte]Outcome{
	'F': {'F', "💛"},
	'L': {'L', "❤️"},
	'A': {'A', "💖"},
	'M': {'M', "💍"},
	'E': {'E', "💔"},
	'S': {'S', "💜"},
}

func (o Outcome) Title(lang string) string {
	switch o.Letter {
	case 'F':
		return i18n.Get("Friends", lang)
	case 'L':
		return i18n.Get("Love", lang)
	case 'A':
		return i18n.Get("Affection", lang)
	case 'M':
		return i18n.Get("Marriage", lang)
	case 'E':
		return i18n.Get("Enemy", lang)
	}
	return i18n.Get("Siblings", lang)
}

func (o Outcome) Description(lang string) string {
	switch o.Letter {
	case 'F':
		return i18n.Get("A strong bond filled with laughter, trust and memories.", lang)
	case 'L':
		return i18n.Get("There is a spark between you both, a love story is forming.", lang)
	case 'A':
		return i18n.Get("You both care deeply for each other.", lang)
	case 'M':
		return i18n.Get("Destiny has already written your names together.", lang)
	case 'E':
		return i18n.Get("Clashing energies and fiery tempers, maybe not this time.", lang)
	}
	return i18n.Get("Teasing, caring and protective like siblings.", lang)
}

// remaining counts the letters left after cancelling the common ones pairwise.
func remaining(name1, name2 string) int {
	normalize := func(s string) []rune {
		return []rune(strings.ToLower(strings.ReplaceAll(s, " ", "")))
	}
	a, b := normalize(name1), normalize(name2)
	counts := make(map[rune]int, len(b))
	for _, r := range b {
		counts[r]++
	}
	common := 0
	for _, r := range a {
		if counts[r] > 0 {
			counts[r]--
			common++
		}
	}
	return len(a) + len(b) - 2*common
}

// Result runs the FLAMES elimination for two names.
func Result(name1, name2 string) Outcome {
	count := remaining(name1, name2)
	list := []byte(letters)
	for len(list) > 1 {
		index := count%len(list) - 1
		if index >= 0 {
			next := append([]byte(nil), list[index+1:]...)
			list = append(next, list[:index]...)
		} else {
			list = list[:len(list)-1]
		}
	}
	return outcomes[list[0]]
}

// StarBar renders a percentage as five stars.
func StarBar(percent int) string {
	filled := percent / 20
	if filled > 5 {
		filled = 5
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("★", filled) + strings.Repeat("✩", 5-filled)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

type Platform interface {
	SendMessage(ctx context.Context, chatID int64, replyTo int, text string, markup *api.InlineKeyboardMarkup) (int, error)
	AnswerCallback(ctx context.Context, callbackID string, text string, alert bool) error
}

type stat struct {
	emoji    string
	label    func(lang string) string
	min, max int
}

var stats = []stat{
	{"💞", func(lang string) string { return i18n.Get("Compatibility", lang) }, 60, 100},
	{"💓", func(lang string) string { return i18n.Get("Emotional bond", lang) }, 40, 100},
	{"🤞", func(lang string) string { return i18n.Get("Fun level", lang) }, 30, 100},
	{"✨", func(lang string) string { return i18n.Get("Communication", lang) }, 50, 100},
	{"💯", func(lang string) string { return i18n.Get("Trust", lang) }, 40, 100},
}

type Flames struct {
	platform Platform
	language string
	randInt  func(min, max int) int
}

func NewFlames(platform Platform, language string) *Flames {
	f := &Flames{
		platform: platform,
		language: language,
		randInt:  func(min, max int) int { return tool.RandInt(min, max) },
	}
	log.WithField("object", "Flames").Debug("created new flames handler")
	return f
}

func (f *Flames) Handle(ctx context.Context, ev event.Event) (bool, error) {
	switch ev := ev.(type) {
	case event.Message:
		if ev.Command != "flames" {
			return true, nil
		}
		return false, f.play(ctx, ev)
	case event.Callback:
		if ev.Data != string(moderation.ActionFlamesList) {
			return true, nil
		}
		if _, err := f.platform.SendMessage(ctx, ev.ChatID, ev.MessageID, f.meanings(), nil); err != nil {
			return false, pkgerrors.WithMessage(err, "send flames meanings")
		}
		return false, f.platform.AnswerCallback(ctx, ev.ID, "", false)
	}
	return true, nil
}

func (f *Flames) play(ctx context.Context, msg event.Message) error {
	name1, name2, _ := strings.Cut(strings.TrimSpace(msg.Args), " ")
	name2 = strings.TrimSpace(name2)
	if name1 == "" || name2 == "" {
		_, err := f.platform.SendMessage(ctx, msg.ChatID, msg.MessageID, i18n.Get("✨ Usage: `/flames Name1 Name2`", f.language), nil)
		return err
	}

	outcome := Result(name1, name2)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s *%s*\n\n", outcome.Emoji, outcome.Title(f.language))
	fmt.Fprintf(&sb, "💥 *%s ❣️ %s*\n",
		api.EscapeText(api.ModeMarkdown, titleCase(name1)),
		api.EscapeText(api.ModeMarkdown, titleCase(name2)),
	)
	for _, s := range stats {
		percent := f.randInt(s.min, s.max+1)
		fmt.Fprintf(&sb, "%s %s: *%d%%*\n%s\n", s.emoji, s.label(f.language), percent, StarBar(percent))
	}
	fmt.Fprintf(&sb, "\n🔥 %s", outcome.Description(f.language))

	kb := api.NewInlineKeyboardMarkup(api.NewInlineKeyboardRow(
		api.NewInlineKeyboardButtonData("🔻 "+i18n.Get("View all", f.language), string(moderation.ActionFlamesList)),
	))
	_, err := f.platform.SendMessage(ctx, msg.ChatID, msg.MessageID, sb.String(), &kb)
	return err
}

func (f *Flames) meanings() string {
	var sb strings.Builder
	sb.WriteString(i18n.Get("📜 FLAMES meaning:", f.language))
	sb.WriteString("\n\n")
	for i := 0; i < len(letters); i++ {
		o := outcomes[letters[i]]
		fmt.Fprintf(&sb, "%s %c - %s\n", o.Emoji, o.Letter, o.Title(f.language))
	}
	return sb.String()
}
