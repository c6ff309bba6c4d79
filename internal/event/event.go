package event

import (
	"fmt"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"

	apperrors "github.com/vipmusic/guardbot/internal/errors"
)

// Event is an inbound update the bot knows how to handle: Message or Callback.
type Event interface {
	Chat() int64
	Sender() User
	Validate() error
	isEvent()
}

type User struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
	IsBot     bool
}

func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}

// mentionReplacer keeps link text from closing the entity early, legacy
// markdown takes no escapes inside it.
var mentionReplacer = strings.NewReplacer("[", "(", "]", ")", "`", "'")

// Mention renders a markdown inline mention.
func (u User) Mention() string {
	return fmt.Sprintf("[%s](tg://user?id=%d)", mentionReplacer.Replace(u.FullName()), u.ID)
}

type Message struct {
	ChatID    int64
	ChatType  string
	ChatTitle string
	MessageID int
	ThreadID  int
	From      User
	Text      string
	Command   string
	Args      string
	ReplyTo   *User
	Date      time.Time
}

func (m Message) Chat() int64  { return m.ChatID }
func (m Message) Sender() User { return m.From }
func (Message) isEvent()       {}

func (m Message) IsGroup() bool {
	return m.ChatType == "group" || m.ChatType == "supergroup"
}

func (m Message) IsCommand() bool {
	return m.Command != ""
}

func (m Message) Validate() error {
	switch {
	case m.ChatID == 0:
		return fmt.Errorf("%w: message without chat", apperrors.ErrInvalidInput)
	case m.From.ID == 0:
		return fmt.Errorf("%w: message without sender", apperrors.ErrInvalidInput)
	case m.MessageID <= 0:
		return fmt.Errorf("%w: message id %d", apperrors.ErrInvalidInput, m.MessageID)
	}
	return nil
}

type Callback struct {
	ID        string
	ChatID    int64
	MessageID int
	From      User
	Data      string
}

func (c Callback) Chat() int64  { return c.ChatID }
func (c Callback) Sender() User { return c.From }
func (Callback) isEvent()       {}

func (c Callback) Validate() error {
	switch {
	case c.ID == "":
		return fmt.Errorf("%w: callback without id", apperrors.ErrInvalidInput)
	case c.From.ID == 0:
		return fmt.Errorf("%w: callback without sender", apperrors.ErrInvalidInput)
	case c.ChatID == 0 || c.MessageID <= 0:
		return fmt.Errorf("%w: callback without message", apperrors.ErrInvalidInput)
	case c.Data == "":
		return fmt.Errorf("%w: callback without data", apperrors.ErrInvalidInput)
	}
	return nil
}

// FromUpdate converts a raw update into a validated event.
func FromUpdate(u *api.Update) (Event, error) {
	if u == nil {
		return nil, fmt.Errorf("%w: nil update", apperrors.ErrInvalidInput)
	}

	var ev Event
	switch {
	case u.Message != nil:
		ev = messageFrom(u.Message)
	case u.CallbackQuery != nil:
		ev = callbackFrom(u.CallbackQuery)
	default:
		return nil, fmt.Errorf("%w: update %d", apperrors.ErrUnsupported, u.UpdateID)
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return ev, nil
}

func messageFrom(msg *api.Message) Message {
	m := Message{
		ChatID:    msg.Chat.ID,
		ChatType:  msg.Chat.Type,
		ChatTitle: msg.Chat.Title,
		MessageID: msg.MessageID,
		ThreadID:  msg.MessageThreadID,
		From:      userFrom(msg.From),
		Text:      strings.TrimSpace(msg.Text + " " + msg.Caption),
		Date:      time.Unix(int64(msg.Date), 0),
	}
	if msg.IsCommand() {
		m.Command = strings.ToLower(msg.Command())
		m.Args = strings.TrimSpace(msg.CommandArguments())
	}
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		replyTo := userFrom(msg.ReplyToMessage.From)
		m.ReplyTo = &replyTo
	}
	return m
}

func callbackFrom(cb *api.CallbackQuery) Callback {
	c := Callback{
		ID:   cb.ID,
		From: userFrom(cb.From),
		Data: cb.Data,
	}
	if cb.Message != nil {
		c.ChatID = cb.Message.Chat.ID
		c.MessageID = cb.Message.MessageID
	}
	return c
}

func userFrom(u *api.User) User {
	if u == nil {
		return User{}
	}
	return User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.UserName,
		IsBot:     u.IsBot,
	}
}
