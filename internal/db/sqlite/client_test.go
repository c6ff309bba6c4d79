package sqlite

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/vipmusic/guardbot/internal/db"
	apperrors "github.com/vipmusic/guardbot/internal/errors"
)

func newTestClient(t *testing.T) *sqliteClient {
	t.Helper()
	client, err := NewSQLiteClient(context.Background(), t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGetConfigCreatesDefaults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t)

	cfg, err := client.GetConfig(ctx, -1001234567890)
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	want := db.DefaultChatConfig(-1001234567890)
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("unexpected config: got %#v want %#v", cfg, want)
	}

	again, err := client.GetConfig(ctx, -1001234567890)
	if err != nil {
		t.Fatalf("get config again: %v", err)
	}
	if !reflect.DeepEqual(again, want) {
		t.Fatalf("unexpected config on second read: %#v", again)
	}
}

func TestUpdateConfigKeepsUnsetFields(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t)

	limit := 5
	if _, err := client.UpdateConfig(ctx, 42, db.ConfigUpdate{Limit: &limit}); err != nil {
		t.Fatalf("update limit: %v", err)
	}
	penalty := db.PenaltyBan
	if _, err := client.UpdateConfig(ctx, 42, db.ConfigUpdate{Penalty: &penalty}); err != nil {
		t.Fatalf("update penalty: %v", err)
	}

	cfg, err := client.GetConfig(ctx, 42)
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if cfg.Mode != db.ModeWarn || cfg.Limit != 5 || cfg.Penalty != db.PenaltyBan {
		t.Fatalf("unexpected config: %#v", cfg)
	}
}

func TestUpdateConfigRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t)

	mode := db.Mode("kick")
	if _, err := client.UpdateConfig(ctx, 1, db.ConfigUpdate{Mode: &mode}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for mode, got %v", err)
	}
	limit := -1
	if _, err := client.UpdateConfig(ctx, 1, db.ConfigUpdate{Limit: &limit}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for limit, got %v", err)
	}

	cfg, err := client.GetConfig(ctx, 1)
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if !reflect.DeepEqual(cfg, db.DefaultChatConfig(1)) {
		t.Fatalf("config changed after rejected update: %#v", cfg)
	}
}

func TestIncrementWarningSequence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t)

	for want := 1; want <= 4; want++ {
		got, err := client.IncrementWarning(ctx, 10, 20)
		if err != nil {
			t.Fatalf("increment warning: %v", err)
		}
		if got != want {
			t.Fatalf("unexpected count: got %d want %d", got, want)
		}
	}

	other, err := client.GetWarningCount(ctx, 11, 20)
	if err != nil {
		t.Fatalf("get warning count: %v", err)
	}
	if other != 0 {
		t.Fatalf("warnings leaked across chats: %d", other)
	}
}

func TestIncrementWarningConcurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t)

	const workers = 16
	results := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			count, err := client.IncrementWarning(ctx, 1, 2)
			if err != nil {
				t.Errorf("increment warning: %v", err)
				return
			}
			results <- count
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int]struct{}, workers)
	for count := range results {
		if _, dup := seen[count]; dup {
			t.Fatalf("duplicate count returned: %d", count)
		}
		seen[count] = struct{}{}
	}
	for i := 1; i <= workers; i++ {
		if _, ok := seen[i]; !ok {
			t.Fatalf("missing count %d in %v", i, seen)
		}
	}

	total, err := client.GetWarningCount(ctx, 1, 2)
	if err != nil {
		t.Fatalf("get warning count: %v", err)
	}
	if total != workers {
		t.Fatalf("lost updates: got %d want %d", total, workers)
	}
}

func TestResetWarningsRestartsCount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t)

	if err := client.ResetWarnings(ctx, 5, 6); err != nil {
		t.Fatalf("reset absent warnings: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := client.IncrementWarning(ctx, 5, 6); err != nil {
			t.Fatalf("increment warning: %v", err)
		}
	}
	if err := client.ResetWarnings(ctx, 5, 6); err != nil {
		t.Fatalf("reset warnings: %v", err)
	}
	count, err := client.IncrementWarning(ctx, 5, 6)
	if err != nil {
		t.Fatalf("increment after reset: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1 after reset, got %d", count)
	}
}

func TestWhitelistLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t)

	if err := client.RemoveWhitelist(ctx, 1, 99); err != nil {
		t.Fatalf("remove absent whitelist: %v", err)
	}
	for _, user := range []int64{30, 10, 20, 10} {
		if err := client.AddWhitelist(ctx, 1, user); err != nil {
			t.Fatalf("add whitelist %d: %v", user, err)
		}
	}
	if err := client.AddWhitelist(ctx, 2, 30); err != nil {
		t.Fatalf("add whitelist other chat: %v", err)
	}

	list, err := client.GetWhitelist(ctx, 1)
	if err != nil {
		t.Fatalf("get whitelist: %v", err)
	}
	if !reflect.DeepEqual(list, []int64{30, 10, 20}) {
		t.Fatalf("unexpected whitelist order: %v", list)
	}

	if err := client.RemoveWhitelist(ctx, 1, 10); err != nil {
		t.Fatalf("remove whitelist: %v", err)
	}
	ok, err := client.IsWhitelisted(ctx, 1, 10)
	if err != nil {
		t.Fatalf("is whitelisted: %v", err)
	}
	if ok {
		t.Fatalf("expected user to be removed")
	}
	ok, err = client.IsWhitelisted(ctx, 2, 30)
	if err != nil {
		t.Fatalf("is whitelisted other chat: %v", err)
	}
	if !ok {
		t.Fatalf("expected other chat entry to stay")
	}

	empty, err := client.GetWhitelist(ctx, 3)
	if err != nil {
		t.Fatalf("get empty whitelist: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty whitelist, got %v", empty)
	}
}

func TestKVRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t)

	value, err := client.GetKV(ctx, "missing")
	if err != nil {
		t.Fatalf("get missing key: %v", err)
	}
	if value != "" {
		t.Fatalf("expected empty value, got %q", value)
	}
	if err := client.SetKV(ctx, "k", "one"); err != nil {
		t.Fatalf("set kv: %v", err)
	}
	if err := client.SetKV(ctx, "k", "two"); err != nil {
		t.Fatalf("overwrite kv: %v", err)
	}
	value, err = client.GetKV(ctx, "k")
	if err != nil {
		t.Fatalf("get kv: %v", err)
	}
	if value != "two" {
		t.Fatalf("unexpected value: %q", value)
	}
}
