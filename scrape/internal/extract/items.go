package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/bidintel/bidwatch/scrape/internal/store"
)

// LineItems parses the table following the "Line Item Details" heading.
// Columns: item no, UNSPSC code, lot name, lot description, quantity,
// unit of measure. A missing table or heading yields an empty slice.
func LineItems(doc *goquery.Document) []store.LineItem {
	var table *html.Node
	doc.Find("b,th,td,label,span,div,h1,h2,h3,p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		// Match the heading itself, not a container that happens to
		// wrap both the heading and unrelated tables.
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if !strings.Contains(text, "Line Item Details") || len(text) > 60 {
			return true
		}
		table = nextTable(sel.Get(0))
		return table == nil
	})
	if table == nil {
		return nil
	}

	var items []store.LineItem
	doc.FindNodes(table).Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			// Header row.
			return
		}
		cols := row.Find("td")
		if cols.Length() < 6 {
			return
		}
		cell := func(j int) string {
			return strings.Join(strings.Fields(cols.Eq(j).Text()), " ")
		}
		items = append(items, store.LineItem{
			ItemNumber:     ParseInt(cell(0)),
			UNSPSCCode:     cell(1),
			LotName:        cell(2),
			LotDescription: cell(3),
			Quantity:       ParseMoney(cell(4)),
			UnitOfMeasure:  cell(5),
		})
	})
	return items
}

// nextTable walks forward in document order from n and returns the first
// table element, or nil.
func nextTable(n *html.Node) *html.Node {
	for cur := next(n); cur != nil; cur = next(cur) {
		if cur.Type == html.ElementNode && cur.Data == "table" {
			return cur
		}
	}
	return nil
}

// next is a depth-first successor: children, then siblings, then the
// siblings of ancestors.
func next(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}
