package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	apperrors "github.com/vipmusic/guardbot/internal/errors"
	"github.com/vipmusic/guardbot/internal/event"
	"github.com/vipmusic/guardbot/internal/policy/permissions"
)

const adminCacheSize = 4096

// privilegeMarkers are fragments of Bot API errors caused by missing bot rights.
var privilegeMarkers = []string{
	"not enough rights",
	"chat_admin_required",
	"have no rights",
	"message can't be deleted",
	"user is an administrator",
	"can't remove chat owner",
	"method is available only for supergroups",
}

var ignoredMarkers = []string{
	"message to delete not found",
	"message is not modified",
}

type requester interface {
	Request(c api.Chattable) (*api.APIResponse, error)
	Send(c api.Chattable) (api.Message, error)
	GetChat(config api.ChatInfoConfig) (api.ChatFullInfo, error)
	GetChatMember(config api.GetChatMemberConfig) (api.ChatMember, error)
	MakeRequest(endpoint string, params api.Params) (*api.APIResponse, error)
}

type adminKey struct {
	chatID int64
	userID int64
}

// Operations wraps the Bot API calls used by the handlers.
type Operations struct {
	bot    requester
	admins *expirable.LRU[adminKey, bool]
}

func NewOperations(bot *api.BotAPI, adminCacheTTL time.Duration) *Operations {
	return newOperations(bot, adminCacheTTL)
}

func newOperations(bot requester, adminCacheTTL time.Duration) *Operations {
	return &Operations{
		bot:    bot,
		admins: expirable.NewLRU[adminKey, bool](adminCacheSize, nil, adminCacheTTL),
	}
}

// Classify maps Bot API failures to the shared error taxonomy.
func Classify(err error, action string) error {
	if err == nil {
		return nil
	}
	text := strings.ToLower(err.Error())
	for _, marker := range ignoredMarkers {
		if strings.Contains(text, marker) {
			return nil
		}
	}
	for _, marker := range privilegeMarkers {
		if strings.Contains(text, marker) {
			return errors.Wrap(apperrors.ErrNoPrivileges, action+": "+err.Error())
		}
	}
	return errors.Wrap(err, action)
}

func (o *Operations) getLogEntry() *log.Entry {
	return log.WithField("object", "telegram.Operations")
}

func (o *Operations) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := o.bot.Request(api.NewDeleteMessage(chatID, messageID))
	return Classify(err, "delete message")
}

func (o *Operations) MuteMember(ctx context.Context, chatID, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := o.bot.Request(api.RestrictChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{ChatID: chatID},
			UserID:     userID,
		},
		Permissions: &api.ChatPermissions{},

		UseIndependentChatPermissions: true,
	})
	return Classify(err, "restrict")
}

func (o *Operations) UnmuteMember(ctx context.Context, chatID, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := o.bot.Request(api.RestrictChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{ChatID: chatID},
			UserID:     userID,
		},
		Permissions: &api.ChatPermissions{
			CanSendMessages:       true,
			CanSendAudios:         true,
			CanSendDocuments:      true,
			CanSendPhotos:         true,
			CanSendVideos:         true,
			CanSendVideoNotes:     true,
			CanSendVoiceNotes:     true,
			CanSendPolls:          true,
			CanSendOtherMessages:  true,
			CanAddWebPagePreviews: true,
			CanInviteUsers:        true,
		},

		UseIndependentChatPermissions: true,
	})
	return Classify(err, "unrestrict")
}

func (o *Operations) BanMember(ctx context.Context, chatID, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := o.bot.Request(api.BanChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{ChatID: chatID},
			UserID:     userID,
		},
	})
	return Classify(err, "ban")
}

func (o *Operations) UnbanMember(ctx context.Context, chatID, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := o.bot.Request(api.UnbanChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{ChatID: chatID},
			UserID:     userID,
		},
		OnlyIfBanned: true,
	})
	return Classify(err, "unban")
}

// SendMessage posts a markdown message, replying to replyTo when it is set.
func (o *Operations) SendMessage(ctx context.Context, chatID int64, replyTo int, text string, markup *api.InlineKeyboardMarkup) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := api.NewMessage(chatID, text)
	msg.ParseMode = api.ModeMarkdown
	msg.LinkPreviewOptions.IsDisabled = true
	if replyTo > 0 {
		msg.ReplyParameters = api.ReplyParameters{
			ChatID:                   chatID,
			MessageID:                replyTo,
			AllowSendingWithoutReply: true,
		}
	}
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	sent, err := o.bot.Send(msg)
	if err != nil {
		return 0, Classify(err, "send message")
	}
	return sent.MessageID, nil
}

func (o *Operations) EditMessage(ctx context.Context, chatID int64, messageID int, text string, markup *api.InlineKeyboardMarkup) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	edit := api.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = api.ModeMarkdown
	edit.LinkPreviewOptions.IsDisabled = true
	edit.ReplyMarkup = markup
	_, err := o.bot.Send(edit)
	return Classify(err, "edit message")
}

func (o *Operations) AnswerCallback(ctx context.Context, callbackID string, text string, alert bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := api.NewCallback(callbackID, text)
	if alert {
		cfg = api.NewCallbackWithAlert(callbackID, text)
	}
	_, err := o.bot.Request(cfg)
	return Classify(err, "answer callback")
}

// UserBio returns the profile bio; the Bot API only exposes it through getChat.
func (o *Operations) UserBio(ctx context.Context, userID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	info, err := o.bot.GetChat(api.ChatInfoConfig{
		ChatConfig: api.ChatConfig{ChatID: userID},
	})
	if err != nil {
		return "", Classify(err, "get chat")
	}
	return info.Bio, nil
}

// ResolveUser looks up a user by numeric id or @username.
func (o *Operations) ResolveUser(ctx context.Context, chatID int64, arg string) (event.User, error) {
	if err := ctx.Err(); err != nil {
		return event.User{}, err
	}
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return event.User{}, apperrors.ErrNotFound
	}

	if userID, err := strconv.ParseInt(arg, 10, 64); err == nil {
		member, err := o.bot.GetChatMember(api.GetChatMemberConfig{
			ChatConfigWithUser: api.ChatConfigWithUser{
				ChatConfig: api.ChatConfig{ChatID: chatID},
				UserID:     userID,
			},
		})
		if err != nil || member.User == nil {
			o.getLogEntry().WithField("user_id", userID).Debug("cant resolve member by id")
			return event.User{}, fmt.Errorf("%w: user %d", apperrors.ErrNotFound, userID)
		}
		return userFrom(member.User), nil
	}

	username := "@" + strings.TrimPrefix(arg, "@")
	info, err := o.bot.GetChat(api.ChatInfoConfig{
		ChatConfig: api.ChatConfig{SuperGroupUsername: username},
	})
	if err != nil || info.Type != "private" {
		o.getLogEntry().WithField("username", username).Debug("cant resolve user by username")
		return event.User{}, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, username)
	}
	return event.User{
		ID:        info.ID,
		FirstName: info.FirstName,
		LastName:  info.LastName,
		Username:  info.UserName,
	}, nil
}

// UserName returns a display name for a chat member, empty when the user is unknown.
func (o *Operations) UserName(ctx context.Context, chatID, userID int64) (string, error) {
	user, err := o.ResolveUser(ctx, chatID, strconv.FormatInt(userID, 10))
	if err != nil {
		return "", err
	}
	return user.FullName(), nil
}

func (o *Operations) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key := adminKey{chatID: chatID, userID: userID}
	if isAdmin, ok := o.admins.Get(key); ok {
		return isAdmin, nil
	}
	member, err := o.bot.GetChatMember(api.GetChatMemberConfig{
		ChatConfigWithUser: api.ChatConfigWithUser{
			ChatConfig: api.ChatConfig{ChatID: chatID},
			UserID:     userID,
		},
	})
	if err != nil {
		return false, errors.Wrap(err, "get chat member")
	}
	isAdmin := permissions.IsAdmin(&member)
	o.admins.Add(key, isAdmin)
	return isAdmin, nil
}

func (o *Operations) SetReaction(ctx context.Context, chatID int64, messageID int, emoji string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := api.Params{}
	params.AddNonZero64("chat_id", chatID)
	params.AddNonZero("message_id", messageID)
	if err := params.AddInterface("reaction", []api.ReactionType{{Type: "emoji", Emoji: emoji}}); err != nil {
		return errors.Wrap(err, "encode reaction")
	}
	_, err := o.bot.MakeRequest("setMessageReaction", params)
	return Classify(err, "set reaction")
}

func userFrom(u *api.User) event.User {
	return event.User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.UserName,
		IsBot:     u.IsBot,
	}
}
