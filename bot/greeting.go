package bot

import (
	"regexp"
	"strings"
)

// greetings are matched as the whole message, ignoring surrounding
// punctuation, so "quantum hello world" still runs a search. Farewells get
// the same friendly reply rather than a pointless index search.
var greetings = []string{
	"hi",
	"hello",
	"hey",
	"yo",
	"howdy",
	"greetings",
	"good morning",
	"good afternoon",
	"good evening",
	"what's up",
	"whats up",
	"sup",
	"bye",
	"goodbye",
	"see you",
	"take care",
}

var greetingPattern = compileGreetingPattern()

func compileGreetingPattern() *regexp.Regexp {
	quoted := make([]string, 0, len(greetings))
	for _, greeting := range greetings {
		quoted = append(quoted, regexp.QuoteMeta(greeting))
	}
	return regexp.MustCompile(`^[\W_]*(?:` + strings.Join(quoted, "|") + `)[\W_]*$`)
}

// IsGreeting reports whether the message is a plain greeting rather than a
// search query.
func IsGreeting(text string) bool {
	return greetingPattern.MatchString(strings.ToLower(strings.TrimSpace(text)))
}
