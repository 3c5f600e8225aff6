package fetch

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// IsHTML reports whether the result looks like an HTML page rather than an API payload.
func (r *Result) IsHTML() bool {
	if strings.Contains(strings.ToLower(r.ContentType), "text/html") {
		return true
	}
	head := bytes.TrimSpace(r.Body)
	if len(head) > 64 {
		head = head[:64]
	}
	lower := strings.ToLower(string(head))
	return strings.HasPrefix(lower, "<!doctype html") || strings.HasPrefix(lower, "<html")
}

// loginMarkers are lowercase fragments that identify a sign-in page.
var loginMarkers = []string{"log in", "login", "sign in", "signin"}

// IsLoginPage reports whether html is a sign-in page: it has a password field,
// or its title or main heading mentions logging in.
func IsLoginPage(html []byte) bool {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return false
	}

	if doc.Find(`input[type="password"], form[action*="login"], form[action*="signin"]`).Length() > 0 {
		return true
	}

	heading := strings.ToLower(doc.Find("title").First().Text() + " " + doc.Find("h1").First().Text())
	for _, m := range loginMarkers {
		if strings.Contains(heading, m) {
			return true
		}
	}
	return false
}

// PageTitle returns the trimmed <title> text of html, or "" if there is none.
func PageTitle(html []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return ""
	}
	return cleanWhitespace(doc.Find("title").First().Text())
}

func cleanWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
