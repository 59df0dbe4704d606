package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/bidintel/bidwatch/scrape/internal/store"
)

// Documents collects PDF links from a detail or document-preview page.
// Relative hrefs are resolved against pageURL; the filename comes from
// the link text or, failing that, the URL's last path segment.
func Documents(doc *goquery.Document, pageURL string) []store.Document {
	base, _ := url.Parse(pageURL)

	var docs []store.Document
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || !strings.Contains(strings.ToLower(href), ".pdf") {
			return
		}

		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				href = base.ResolveReference(ref).String()
			}
		}
		if seen[href] {
			return
		}
		seen[href] = true

		filename := strings.TrimSpace(a.Text())
		if filename == "" {
			if i := strings.LastIndex(href, "/"); i >= 0 {
				filename = href[i+1:]
			}
		}

		docs = append(docs, store.Document{
			Filename:     filename,
			DocumentURL:  href,
			DocumentType: GuessDocumentType(filename),
		})
	})
	return docs
}

// docTypeKeywords maps filename fragments to document types, checked in
// order.
var docTypeKeywords = []struct {
	keywords []string
	docType  string
}{
	{[]string{"bid_notice", "notice"}, "Bid Notice"},
	{[]string{"technical", "specs"}, "Technical Specifications"},
	{[]string{"terms", "tor"}, "Terms of Reference"},
	{[]string{"bill", "boq"}, "Bill of Quantities"},
	{[]string{"drawing", "plan"}, "Drawings/Plans"},
	{[]string{"supplement", "amendment"}, "Supplement/Amendment"},
}

// GuessDocumentType classifies a document by filename keywords.
func GuessDocumentType(filename string) string {
	lower := strings.ToLower(filename)
	for _, entry := range docTypeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.docType
			}
		}
	}
	return "Document"
}
