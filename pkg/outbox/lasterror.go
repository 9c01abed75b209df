package outbox

import "unicode/utf8"

// lastError renders err for the last_error column, cut to at most limit bytes on a rune
// boundary.
func lastError(err error, limit int) string {
	if err == nil || limit <= 0 {
		return ""
	}
	s := err.Error()
	if len(s) <= limit {
		return s
	}
	n := limit
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
