// Package listing discovers article links, either from the portal's listing
// page or from its RSS/Atom feed.
package listing

import (
	"bytes"
	"context"
	"log"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/mmcdole/gofeed"
	"github.com/pevans/newsgrab/fetch"
	"golang.org/x/net/html"
)

// LinkQuery selects the href of the element enclosing every span whose class
// looks like an article teaser. It follows the current news.mail.ru markup
// and is kept exactly as the site requires.
const LinkQuery = `//span[contains(@class, 'item') or contains(@class, 'cell') or contains(@class, 'link__text')]//../@href`

// Fetcher retrieves and parses an HTML page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*html.Node, error)
}

// Getter retrieves a raw response body.
type Getter interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
}

// Links fetches the listing page at url and returns the discovered hrefs in
// document order. Duplicates are kept. Failures are logged and produce an
// empty result.
func Links(ctx context.Context, f Fetcher, url string) []string {
	doc, err := f.Fetch(ctx, url)
	if err != nil {
		log.Printf("ERROR: Failed to fetch listing page %s: %v", url, err)
		return []string{}
	}
	return FromDocument(doc)
}

// anchorQuery selects the elements LinkQuery reads its hrefs from.
var anchorQuery = strings.TrimSuffix(LinkQuery, "/@href")

// FromDocument evaluates LinkQuery against a parsed listing page. Each
// enclosing element contributes its href once, however many matching spans it
// holds. Distinct elements with equal hrefs are all kept.
func FromDocument(doc *html.Node) []string {
	nodes, err := htmlquery.QueryAll(doc, anchorQuery)
	if err != nil {
		log.Printf("ERROR: Failed to evaluate listing query: %v", err)
		return []string{}
	}

	seen := make(map[*html.Node]bool, len(nodes))
	hrefs := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if seen[n] {
			continue
		}
		seen[n] = true

		// Spans with nested markup are parents too; they carry no href
		href, ok := hrefAttr(n)
		if !ok {
			continue
		}
		hrefs = append(hrefs, href)
	}
	return hrefs
}

// hrefAttr reports the href attribute of n, distinguishing an empty href from
// a missing one.
func hrefAttr(n *html.Node) (string, bool) {
	if n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == "href" {
			return a.Val, true
		}
	}
	return "", false
}

// FeedLinks fetches an RSS or Atom feed and returns the item links in feed
// order. Items without a link are ignored. Failures are logged and produce
// an empty result.
func FeedLinks(ctx context.Context, g Getter, url string) []string {
	resp, err := g.Get(ctx, url)
	if err != nil {
		log.Printf("ERROR: Failed to fetch feed %s: %v", url, err)
		return []string{}
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(resp.Body))
	if err != nil {
		log.Printf("ERROR: Failed to parse feed %s: %v", url, err)
		return []string{}
	}

	links := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		links = append(links, link)
	}
	return links
}
