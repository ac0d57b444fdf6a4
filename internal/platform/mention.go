package platform

import "regexp"

var mentionRe = regexp.MustCompile(`^<@!?([0-9]+)>$`)

// Mention renders a user id as a mention token.
func Mention(userID string) string {
	return "<@" + userID + ">"
}

// ParseMention extracts the user id from a mention token like <@123> or
// <@!123>. It reports false for anything else.
func ParseMention(token string) (string, bool) {
	m := mentionRe.FindStringSubmatch(token)
	if m == nil {
		return "", false
	}
	return m[1], true
}
