package notify

import (
	"net/url"
	"strings"
)

// WhatsAppLink builds a wa.me deep link with the message pre-filled. The number
// may be written with +, spaces or dashes; only digits are kept.
func WhatsAppLink(number, text string) string {
	var digits strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return "https://wa.me/" + digits.String() + "?text=" + EncodeURIComponent(text)
}

var uriComponentFix = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent escapes like the browser function: spaces become %20, not +,
// and !'()* stay literal.
func EncodeURIComponent(s string) string {
	return uriComponentFix.Replace(url.QueryEscape(s))
}
