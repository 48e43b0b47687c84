package util

import (
	"regexp"
)

var (
	uuidRegex     = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	roomNameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)
)

func IsValidUUID(s string) bool {
	if s == "" {
		return false
	}
	return uuidRegex.MatchString(s)
}

// IsValidRoomName reports whether s is 3-50 characters from
// [A-Za-z0-9_-].
func IsValidRoomName(s string) bool {
	return roomNameRegex.MatchString(s)
}
