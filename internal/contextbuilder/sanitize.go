package contextbuilder

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// directiveInjection matches lines that look like a system-prompt directive
// smuggled into retrieved content, e.g. "### System:" or "SYSTEM:" at the
// start of a line.
var directiveInjection = regexp.MustCompile(`(?mi)^\s*(#{1,6}\s*)?(system|assistant|user)\s*:`)

// secretLike matches common API-key and token shapes so they never reach a
// prompt even if they leak into requirements or retrieved text by accident.
var secretLike = regexp.MustCompile(`(?i)(sk-[a-z0-9]{10,}|api[_-]?key\s*[:=]\s*\S+|bearer\s+[a-z0-9._-]{10,}|aiza[a-z0-9_-]{20,})`)

const redacted = "[redacted]"

// Sanitize strips directive-injection attempts and secret-like substrings,
// then truncates to maxChars at a UTF-8 boundary, appending an explicit
// "[truncated]" marker when truncation occurred.
func Sanitize(s string, maxChars int) string {
	s = directiveInjection.ReplaceAllString(s, "[filtered]:")
	s = secretLike.ReplaceAllString(s, redacted)
	return truncate(s, maxChars)
}

// truncate cuts s to at most maxChars runes, always landing on a valid
// UTF-8 boundary, and appends "[truncated]" if anything was cut.
func truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}

	var b strings.Builder
	count := 0
	for _, r := range s {
		if count >= maxChars {
			break
		}
		b.WriteRune(r)
		count++
	}
	b.WriteString(" [truncated]")
	return b.String()
}
