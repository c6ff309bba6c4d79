package moderation

import (
	"context"
	"sync"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/vipmusic/guardbot/internal/db"
	apperrors "github.com/vipmusic/guardbot/internal/errors"
)

type memberKey struct{ chatID, userID int64 }

type memStore struct {
	mu        sync.Mutex
	configs   map[int64]*db.ChatConfig
	warnings  map[memberKey]int
	whitelist map[int64][]int64
}

func newMemStore() *memStore {
	return &memStore{
		configs:   map[int64]*db.ChatConfig{},
		warnings:  map[memberKey]int{},
		whitelist: map[int64][]int64{},
	}
}

func (s *memStore) GetConfig(ctx context.Context, chatID int64) (*db.ChatConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[chatID]
	if !ok {
		cfg = db.DefaultChatConfig(chatID)
		s.configs[chatID] = cfg
	}
	copied := *cfg
	return &copied, nil
}

func (s *memStore) UpdateConfig(ctx context.Context, chatID int64, update db.ConfigUpdate) (*db.ChatConfig, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	cfg, _ := s.GetConfig(ctx, chatID)
	update.Apply(cfg)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[chatID] = cfg
	copied := *cfg
	return &copied, nil
}

func (s *memStore) IncrementWarning(ctx context.Context, chatID, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings[memberKey{chatID, userID}]++
	return s.warnings[memberKey{chatID, userID}], nil
}

func (s *memStore) ResetWarnings(ctx context.Context, chatID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.warnings, memberKey{chatID, userID})
	return nil
}

func (s *memStore) GetWarningCount(ctx context.Context, chatID, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.warnings[memberKey{chatID, userID}], nil
}

func (s *memStore) AddWhitelist(ctx context.Context, chatID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.whitelist[chatID] {
		if id == userID {
			return nil
		}
	}
	s.whitelist[chatID] = append(s.whitelist[chatID], userID)
	return nil
}

func (s *memStore) RemoveWhitelist(ctx context.Context, chatID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.whitelist[chatID][:0]
	for _, id := range s.whitelist[chatID] {
		if id != userID {
			kept = append(kept, id)
		}
	}
	s.whitelist[chatID] = kept
	return nil
}

func (s *memStore) IsWhitelisted(ctx context.Context, chatID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.whitelist[chatID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) GetWhitelist(ctx context.Context, chatID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.whitelist[chatID]...), nil
}

type sentMessage struct {
	chatID  int64
	replyTo int
	text    string
	markup  *api.InlineKeyboardMarkup
}

type editedMessage struct {
	messageID int
	text      string
	markup    *api.InlineKeyboardMarkup
}

type answer struct {
	text  string
	alert bool
}

type fakePlatform struct {
	admins    map[int64]bool
	bios      map[int64]string
	names     map[int64]string
	bioErr    error
	deleteErr error
	muteErr   error
	banErr    error
	unmuteErr error

	deleted    []int
	muted      []int64
	banned     []int64
	unmuted    []int64
	unbanned   []int64
	sent       []sentMessage
	edited     []editedMessage
	answers    []answer
	bioCalls   int
	adminCalls int
	nextID     int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		admins: map[int64]bool{},
		bios:   map[int64]string{},
		names:  map[int64]string{},
		nextID: 1000,
	}
}

func (p *fakePlatform) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if p.deleteErr != nil {
		return p.deleteErr
	}
	p.deleted = append(p.deleted, messageID)
	return nil
}

func (p *fakePlatform) MuteMember(ctx context.Context, chatID, userID int64) error {
	if p.muteErr != nil {
		return p.muteErr
	}
	p.muted = append(p.muted, userID)
	return nil
}

func (p *fakePlatform) UnmuteMember(ctx context.Context, chatID, userID int64) error {
	if p.unmuteErr != nil {
		return p.unmuteErr
	}
	p.unmuted = append(p.unmuted, userID)
	return nil
}

func (p *fakePlatform) BanMember(ctx context.Context, chatID, userID int64) error {
	if p.banErr != nil {
		return p.banErr
	}
	p.banned = append(p.banned, userID)
	return nil
}

func (p *fakePlatform) UnbanMember(ctx context.Context, chatID, userID int64) error {
	p.unbanned = append(p.unbanned, userID)
	return nil
}

func (p *fakePlatform) SendMessage(ctx context.Context, chatID int64, replyTo int, text string, markup *api.InlineKeyboardMarkup) (int, error) {
	p.nextID++
	p.sent = append(p.sent, sentMessage{chatID: chatID, replyTo: replyTo, text: text, markup: markup})
	return p.nextID, nil
}

func (p *fakePlatform) EditMessage(ctx context.Context, chatID int64, messageID int, text string, markup *api.InlineKeyboardMarkup) error {
	p.edited = append(p.edited, editedMessage{messageID: messageID, text: text, markup: markup})
	return nil
}

func (p *fakePlatform) AnswerCallback(ctx context.Context, callbackID string, text string, alert bool) error {
	p.answers = append(p.answers, answer{text: text, alert: alert})
	return nil
}

func (p *fakePlatform) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	p.adminCalls++
	return p.admins[userID], nil
}

func (p *fakePlatform) UserBio(ctx context.Context, userID int64) (string, error) {
	p.bioCalls++
	if p.bioErr != nil {
		return "", p.bioErr
	}
	return p.bios[userID], nil
}

func (p *fakePlatform) UserName(ctx context.Context, chatID, userID int64) (string, error) {
	name, ok := p.names[userID]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return name, nil
}

func callbackData(markup *api.InlineKeyboardMarkup) []string {
	if markup == nil {
		return nil
	}
	var out []string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil {
				out = append(out, *btn.CallbackData)
			}
		}
	}
	return out
}
