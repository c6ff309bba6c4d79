package permissions

import api "github.com/OvyFlash/telegram-bot-api"

// IsAdmin reports whether the member is the chat creator or an administrator.
func IsAdmin(member *api.ChatMember) bool {
	if member == nil {
		return false
	}
	return member.IsCreator() || member.IsAdministrator()
}
