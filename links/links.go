// Package links derives article identifiers from URLs and prepares the raw
// hrefs found on a listing page for article extraction.
package links

import (
	"log"
	"net/url"
	"regexp"
	"strings"
)

// TrailingNavLinkCount is the number of navigation links the listing page
// appends after its article links. The value is tied to the current markup
// of news.mail.ru and must be revisited whenever that footer changes.
const TrailingNavLinkCount = 13

// MinIDDigits is the shortest digit run accepted as an article identifier.
const MinIDDigits = 6

// idPattern matches either "/<digits>" followed by "/" or the end of the
// string, or "-<digits>" anywhere. Only the digit run is captured.
var idPattern = regexp.MustCompile(`/(\d{6,})(?:/|$)|-(\d{6,})`)

// ExtractID returns the leftmost numeric article identifier in link. The
// second return value is false when link contains no identifier.
func ExtractID(link string) (string, bool) {
	m := idPattern.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return m[2], true
}

// Normalize prefixes baseOrigin to every link that does not start with
// "https", except for the last trailing entries which are left untouched.
// The slice is modified in place and returned. Applying Normalize twice
// prefixes relative links twice.
func Normalize(links []string, baseOrigin string, trailing int) []string {
	for i := 0; i < len(links)-trailing; i++ {
		if !strings.HasPrefix(links[i], "https") {
			links[i] = baseOrigin + links[i]
		}
	}
	return links
}

// TrimTrailing drops the last trailing entries from links. When the list is
// shorter than the trailing block nothing can be an article link, so an
// empty slice is returned and a warning is logged.
func TrimTrailing(links []string, trailing int) []string {
	if trailing <= 0 {
		return links
	}
	if len(links) < trailing {
		log.Printf("WARN: Found %d links, fewer than the %d trailing navigation links expected; listing markup may have changed", len(links), trailing)
		return []string{}
	}
	return links[:len(links)-trailing]
}

// Absolute prefixes baseOrigin to every link that has no URL scheme. Unlike
// Normalize it accepts http links and leaves no trailing block, which suits
// feeds whose item links are normally absolute already.
func Absolute(links []string, baseOrigin string) []string {
	for i, link := range links {
		u, err := url.Parse(link)
		if err == nil && u.IsAbs() {
			continue
		}
		links[i] = baseOrigin + link
	}
	return links
}
