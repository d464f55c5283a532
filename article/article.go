// Package article turns article links into records holding the article ID,
// title and body paragraphs.
package article

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/newsgrab/links"
	"golang.org/x/net/html"
)

// Placeholders stored when a page has no title or no paragraph text, so every
// row of the output table has the same shape.
const (
	NoTitle = "Нет заголовка"
	NoText  = "Нет текста статьи"
)

// Record is one extracted article.
type Record struct {
	ID         string   `json:"_id"`
	Title      string   `json:"title"`
	Paragraphs []string `json:"article"`
	URL        string   `json:"url"`
}

// Fetcher retrieves and parses an HTML page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*html.Node, error)
}

// Extractor fetches article pages one at a time and builds records.
type Extractor struct {
	fetcher  Fetcher
	progress io.Writer

	// Skipped counts links dropped during the last Extract call.
	Skipped int
}

// NewExtractor creates an extractor. Progress lines are written to progress
// when it is non-nil.
func NewExtractor(f Fetcher, progress io.Writer) *Extractor {
	if progress == nil {
		progress = io.Discard
	}
	return &Extractor{
		fetcher:  f,
		progress: progress,
	}
}

// Extract processes urls in order and returns one record per article page
// that could be fetched. Links without an ID and pages that fail to load are
// logged and skipped; the remaining links are still processed. A cancelled
// context stops the loop and returns the records gathered so far.
func (e *Extractor) Extract(ctx context.Context, urls []string) []Record {
	records := []Record{}
	e.Skipped = 0

	for i, link := range urls {
		if ctx.Err() != nil {
			log.Printf("WARN: Extraction interrupted after %d of %d links: %v", i, len(urls), ctx.Err())
			break
		}

		if record, ok := e.extractOne(ctx, link); ok {
			records = append(records, record)
		} else {
			e.Skipped++
		}

		fmt.Fprintf(e.progress, "\rОбработана статья %d из %d", i+1, len(urls))
	}
	fmt.Fprintln(e.progress)

	return records
}

func (e *Extractor) extractOne(ctx context.Context, link string) (Record, bool) {
	id, ok := links.ExtractID(link)
	if !ok {
		log.Printf("WARN: Could not extract ID from link: %s", link)
		return Record{}, false
	}

	doc, err := e.fetcher.Fetch(ctx, link)
	if err != nil {
		log.Printf("WARN: Skipping article %s (%s): %v", id, link, err)
		return Record{}, false
	}

	record := FromDocument(doc, id)
	record.URL = link
	return record, true
}

// FromDocument reads the title and paragraphs of the article with the given
// ID. Only content inside the div whose data-article-id equals id is used;
// missing content is replaced by NoTitle and NoText.
func FromDocument(doc *html.Node, id string) Record {
	scope := goquery.NewDocumentFromNode(doc).Find(fmt.Sprintf("div[data-article-id=%q]", id))

	record := Record{
		ID:    id,
		Title: NoTitle,
	}

	for _, text := range ownText(scope.Find("h1")) {
		if t := strings.TrimSpace(text); t != "" {
			record.Title = t
			break
		}
	}

	for _, text := range ownText(scope.Find("p")) {
		if strings.TrimSpace(text) == "" {
			continue
		}
		record.Paragraphs = append(record.Paragraphs, strings.ReplaceAll(text, "\u00a0", " "))
	}
	if len(record.Paragraphs) == 0 {
		record.Paragraphs = []string{NoText}
	}

	return record
}

// ownText returns the text nodes that are direct children of the selected
// elements, in document order. Text inside nested elements such as links or
// emphasis is not included.
func ownText(sel *goquery.Selection) []string {
	var texts []string
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "#text" {
			texts = append(texts, s.Nodes[0].Data)
		}
	})
	return texts
}
