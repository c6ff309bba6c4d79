package permissions

import (
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"
)

func TestIsAdmin(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		member *api.ChatMember
		admin  bool
	}{
		{name: "nil", member: nil},
		{name: "creator", member: &api.ChatMember{Status: "creator"}, admin: true},
		{name: "admin without rights", member: &api.ChatMember{Status: "administrator"}, admin: true},
		{name: "admin with rights", member: &api.ChatMember{Status: "administrator", CanRestrictMembers: true}, admin: true},
		{name: "member", member: &api.ChatMember{Status: "member"}},
		{name: "left", member: &api.ChatMember{Status: "left"}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsAdmin(tc.member); got != tc.admin {
				t.Fatalf("IsAdmin: got %v want %v", got, tc.admin)
			}
		})
	}
}
