package chat

import (
	"strings"

	"github.com/forPelevin/gomoji"
)

// AllowedEmoji is the reaction allow-list in display order.
var AllowedEmoji = []string{"👍", "❤️", "😂", "😮", "😢"}

func allowedIndex(emoji string) int {
	for i, e := range AllowedEmoji {
		if e == emoji {
			return i
		}
	}
	// Accept the bare heart without the variation selector.
	if emoji == "❤" {
		return 1
	}
	return -1
}

// IsAllowedEmoji reports whether emoji may be used as a reaction.
func IsAllowedEmoji(emoji string) bool {
	return allowedIndex(strings.TrimSpace(emoji)) >= 0
}

// canonicalEmoji returns the allow-list spelling of emoji, or a validation
// error naming why it was rejected.
func canonicalEmoji(emoji string) (string, error) {
	emoji = strings.TrimSpace(emoji)
	if i := allowedIndex(emoji); i >= 0 {
		return AllowedEmoji[i], nil
	}
	if emoji == "" {
		return "", invalid("emoji is required")
	}
	if len(gomoji.FindAll(emoji)) == 0 {
		return "", invalid("%q is not an emoji", emoji)
	}
	return "", invalid("emoji %s is not supported, use one of %s", emoji, strings.Join(AllowedEmoji, " "))
}
