package moderation

import (
	"context"
	"strings"
	"testing"

	"github.com/vipmusic/guardbot/internal/event"
)

const adminID = int64(1)

func callback(data string, from int64) event.Callback {
	return event.Callback{
		ID:        "cb-1",
		ChatID:    testChat,
		MessageID: 900,
		From:      event.User{ID: from, FirstName: "Admin"},
		Data:      data,
	}
}

func TestCallbackRequiresAdmin(t *testing.T) {
	t.Parallel()

	engine, store, platform := newTestEngine(t)
	for i := 0; i < 2; i++ {
		_, _ = store.IncrementWarning(context.Background(), testChat, testUser)
	}

	proceed, err := engine.HandleCallback(context.Background(), callback("unmute_7", 42))
	if err != nil {
		t.Fatalf("handle callback: %v", err)
	}
	if proceed {
		t.Fatalf("reversal callbacks must not continue the chain")
	}
	if len(platform.unmuted) != 0 || warningCount(t, store) != 2 {
		t.Fatalf("non-admin must not change anything")
	}
	if len(platform.answers) != 1 || !platform.answers[0].alert || platform.answers[0].text != "You are not an administrator" {
		t.Fatalf("unexpected answers %#v", platform.answers)
	}
}

func TestUnmuteResetsWarnings(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, store, platform := newTestEngine(t)
	platform.admins[adminID] = true
	platform.names[testUser] = "Spammer"
	for i := 0; i < 3; i++ {
		_, _ = store.IncrementWarning(ctx, testChat, testUser)
	}

	if _, err := engine.HandleCallback(ctx, callback("unmute_7", adminID)); err != nil {
		t.Fatalf("handle callback: %v", err)
	}
	if len(platform.unmuted) != 1 || platform.unmuted[0] != testUser {
		t.Fatalf("expected unmute, got %v", platform.unmuted)
	}
	if got := warningCount(t, store); got != 0 {
		t.Fatalf("expected warnings reset, got %d", got)
	}
	if len(platform.edited) != 1 || platform.edited[0].messageID != 900 {
		t.Fatalf("expected notice edit, got %#v", platform.edited)
	}
	if !strings.Contains(platform.edited[0].text, "[Spammer](tg://user?id=7) has been unmuted") {
		t.Fatalf("unexpected text %q", platform.edited[0].text)
	}
	if !contains(callbackData(platform.edited[0].markup), "whitelist_7") {
		t.Fatalf("expected whitelist control, got %v", callbackData(platform.edited[0].markup))
	}
}

func TestUnbanFallsBackToUserID(t *testing.T) {
	t.Parallel()

	engine, _, platform := newTestEngine(t)
	platform.admins[adminID] = true

	if _, err := engine.HandleCallback(context.Background(), callback("unban_7", adminID)); err != nil {
		t.Fatalf("handle callback: %v", err)
	}
	if len(platform.unbanned) != 1 {
		t.Fatalf("expected unban, got %v", platform.unbanned)
	}
	if !strings.Contains(platform.edited[0].text, "[7](tg://user?id=7) has been unbanned") {
		t.Fatalf("unexpected text %q", platform.edited[0].text)
	}
}

func TestWhitelistCallbacks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, store, platform := newTestEngine(t)
	platform.admins[adminID] = true
	_, _ = store.IncrementWarning(ctx, testChat, testUser)

	if _, err := engine.HandleCallback(ctx, callback("whitelist_7", adminID)); err != nil {
		t.Fatalf("whitelist callback: %v", err)
	}
	ok, _ := store.IsWhitelisted(ctx, testChat, testUser)
	if !ok || warningCount(t, store) != 0 {
		t.Fatalf("expected whitelisted user without warnings")
	}
	if !contains(callbackData(platform.edited[0].markup), "unwhitelist_7") {
		t.Fatalf("expected unwhitelist control, got %v", callbackData(platform.edited[0].markup))
	}

	if _, err := engine.HandleCallback(ctx, callback("unwhitelist_7", adminID)); err != nil {
		t.Fatalf("unwhitelist callback: %v", err)
	}
	ok, _ = store.IsWhitelisted(ctx, testChat, testUser)
	if ok {
		t.Fatalf("expected whitelist entry removed")
	}
	if !strings.Contains(platform.edited[1].text, "has been removed from the whitelist") {
		t.Fatalf("unexpected text %q", platform.edited[1].text)
	}
}

func TestCancelWarnCallback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, store, platform := newTestEngine(t)
	platform.admins[adminID] = true
	_, _ = store.IncrementWarning(ctx, testChat, testUser)

	if _, err := engine.HandleCallback(ctx, callback("cancel_warn_7", adminID)); err != nil {
		t.Fatalf("handle callback: %v", err)
	}
	if warningCount(t, store) != 0 {
		t.Fatalf("expected warnings cleared")
	}
	if !strings.Contains(platform.edited[0].text, "has no more warnings") {
		t.Fatalf("unexpected text %q", platform.edited[0].text)
	}
}

func TestUnmuteWithoutRightsAlerts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine, store, platform := newTestEngine(t)
	platform.admins[adminID] = true
	platform.unmuteErr = errNoRights
	_, _ = store.IncrementWarning(ctx, testChat, testUser)

	if _, err := engine.HandleCallback(ctx, callback("unmute_7", adminID)); err != nil {
		t.Fatalf("handle callback: %v", err)
	}
	if len(platform.edited) != 0 || warningCount(t, store) != 1 {
		t.Fatalf("failed unmute must not change state")
	}
	if len(platform.answers) != 1 || !platform.answers[0].alert || platform.answers[0].text != "I don't have permission to unmute users." {
		t.Fatalf("unexpected answers %#v", platform.answers)
	}
}

func TestCloseDeletesNotice(t *testing.T) {
	t.Parallel()

	engine, _, platform := newTestEngine(t)
	platform.admins[adminID] = true

	if _, err := engine.HandleCallback(context.Background(), callback("close", adminID)); err != nil {
		t.Fatalf("handle callback: %v", err)
	}
	if len(platform.deleted) != 1 || platform.deleted[0] != 900 {
		t.Fatalf("expected notice deleted, got %v", platform.deleted)
	}
}

func TestForeignCallbacksPassThrough(t *testing.T) {
	t.Parallel()

	engine, _, platform := newTestEngine(t)
	for _, data := range []string{"warn_3", "mode_ban", "reaction_on", "something"} {
		proceed, err := engine.HandleCallback(context.Background(), callback(data, adminID))
		if err != nil {
			t.Fatalf("%s: %v", data, err)
		}
		if !proceed {
			t.Fatalf("%s must be left to other handlers", data)
		}
	}
	if platform.adminCalls != 0 || len(platform.answers) != 0 {
		t.Fatalf("foreign callbacks must not be touched")
	}

	proceed, err := engine.HandleCallback(context.Background(), callback("unmute_x", adminID))
	if err != nil || proceed {
		t.Fatalf("malformed reversal must be dropped, proceed=%v err=%v", proceed, err)
	}
}
