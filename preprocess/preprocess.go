package preprocess

import "strings"

// EmptyPlaceholder is fed to the taggers instead of an empty document; the
// models cannot handle zero length input.
const EmptyPlaceholder = "lorem ipsum dolor sit amet"

const DefaultMaxWordLen = 50

// Line breaks become zero-width non-joiners so sentence offsets stay usable,
// everything else becomes a plain space. CRLF must run before LF.
var replacements = []struct {
	name string
	old  string
	new  string
}{
	{"CRLF", "\r\n", "‌"},
	{"line break", "\n", "‌"},
	{"tab", "\t", " "},
	{"no-break space", " ", " "},
	{"vertical tab", "\x0b", " "},
	{"form feed", "\x0c", " "},
}

// Sanitize replaces control characters the taggers choke on. It returns the
// cleaned text plus the names of the substitutions that fired, for logging.
func Sanitize(text string) (string, []string) {
	var applied []string
	for _, replacement := range replacements {
		if !strings.Contains(text, replacement.old) {
			continue
		}
		text = strings.ReplaceAll(text, replacement.old, replacement.new)
		applied = append(applied, replacement.name)
	}
	return text, applied
}

// TruncateLongWords cuts space-delimited tokens down to maxWordLen
// characters and reports how many tokens were cut.
func TruncateLongWords(text string, maxWordLen int) (string, int) {
	if maxWordLen <= 0 {
		maxWordLen = DefaultMaxWordLen
	}
	tokens := strings.Split(text, " ")
	truncated := 0
	for idx, token := range tokens {
		runes := []rune(token)
		if len(runes) > maxWordLen {
			tokens[idx] = string(runes[:maxWordLen])
			truncated++
		}
	}
	if truncated == 0 {
		return text, 0
	}
	return strings.Join(tokens, " "), truncated
}

// OrPlaceholder substitutes the fixed placeholder for empty input.
func OrPlaceholder(text string) string {
	if len(text) == 0 {
		return EmptyPlaceholder
	}
	return text
}
