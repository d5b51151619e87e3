package chat

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxBodyLength is the longest message body kept, in characters.
const MaxBodyLength = 2000

var (
	scriptBlock   = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	scriptTag     = regexp.MustCompile(`(?i)</?script\b[^>]*>`)
	jsURL         = regexp.MustCompile(`(?i)javascript\s*:`)
	inlineHandler = regexp.MustCompile(`(?i)(<[a-z][^>]*?)\s+on[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
)

// Sanitize strips script blocks, javascript: URLs and inline on*= event
// handler attributes, trims surrounding space and truncates to MaxBodyLength.
func Sanitize(body string) string {
	s := scriptBlock.ReplaceAllString(body, "")
	s = scriptTag.ReplaceAllString(s, "")
	s = jsURL.ReplaceAllString(s, "")
	s = stripHandlers(s)
	s = strings.TrimSpace(s)
	return truncate(s, MaxBodyLength)
}

// stripHandlers removes on*= attributes from tags only. Each pass drops one
// attribute per tag, so it repeats until the text stops changing.
func stripHandlers(s string) string {
	for {
		next := inlineHandler.ReplaceAllString(s, "$1")
		if next == s {
			return s
		}
		s = next
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// preview shortens s to at most n characters for notification text.
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
