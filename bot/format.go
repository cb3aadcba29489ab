package bot

import (
	"strings"
	"unicode/utf8"

	"github.com/paperlab/querybot/service/vector"
)

// maxSummaryChars bounds how much of a stored summary goes into a reply.
const maxSummaryChars = 400

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeHTML escapes the characters Telegram's HTML parse mode treats
// specially.
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}

// FormatMatch renders a search match as a Telegram HTML message: bold title,
// truncated summary and a source link when the stored link is a URL.
func FormatMatch(match *vector.Match) string {
	title := match.Metadata["title"]
	summary := match.Metadata["summary"]
	link := match.Metadata["link"]

	if title == "" {
		title = "Untitled"
	}
	summary = truncate(summary, maxSummaryChars)

	var b strings.Builder
	b.WriteString("<b>")
	b.WriteString(EscapeHTML(title))
	b.WriteString("</b>")
	if summary != "" {
		b.WriteString("\n\n")
		b.WriteString(EscapeHTML(summary))
	}
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		b.WriteString("\n\n")
		b.WriteString(`<a href="` + EscapeHTML(link) + `">Read the full article</a>`)
	}
	return b.String()
}

// truncate cuts text at a rune boundary at most limit bytes in; splitting a
// multi-byte rune would feed Telegram invalid UTF-8.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit] + "..."
}
