// Package index walks the portal's paginated listing pages and turns
// their rows into lightweight summaries: the natural key, the detail
// URL, and whatever coarse fields the listing already carries. Detail
// extraction then fills (or confirms) the rest.
package index

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/bidintel/bidwatch/scrape/internal/extract"
)

const (
	// Portal paths. The misspelling in the opportunities path is the
	// portal's own.
	AwardIndexPath  = "/Indexes/viewMoreAward"
	NoticeIndexPath = "/BulletinBoard/view_more_current_oppourtunities"

	awardDetailTemplate = "/Indexes/viewAwardNotice/%s/MORE"

	// Stable sort keeps page N meaning the same rows across a run, which
	// is what makes resuming from StartPage coherent.
	awardSortDirection = "Awards.award_date desc"
)

var pageOfRe = regexp.MustCompile(`Page\s+\d+\s+of\s+(\d+)`)

// NoticeRow is one bid notice listing row.
type NoticeRow struct {
	ReferenceNumber string
	Title           string
	Classification  string
	ProcuringEntity string
	Status          string
	PublishDate     *int64
	ClosingDate     *int64
	URL             string
}

// AwardRow is one award listing row.
type AwardRow struct {
	AwardNoticeNumber  string
	BidReferenceNumber string
	Title              string
	Awardee            string
	AwardDate          *int64
	URL                string
}

// Filters narrows a listing index by publish date and classification.
// Date values accept DD-MMM-YYYY plus the keywords TODAY, YESTERDAY and
// AUTO; AUTO means yesterday for the from-bound and today for the
// to-bound, giving a rolling daily window.
type Filters struct {
	PublishDateFrom  string
	PublishDateTo    string
	Classification   string
	BusinessCategory string
}

// ResolveDate expands a filter date keyword at the given reference time.
// offsetDays is the AUTO offset (-1 for from-bounds, 0 for to-bounds).
func ResolveDate(value string, offsetDays int, now time.Time) string {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "":
		return ""
	case "TODAY":
		return now.Format("02-Jan-2006")
	case "YESTERDAY":
		return now.AddDate(0, 0, -1).Format("02-Jan-2006")
	case "AUTO":
		return now.AddDate(0, 0, offsetDays).Format("02-Jan-2006")
	default:
		return strings.TrimSpace(value)
	}
}

func (f Filters) query(now time.Time) url.Values {
	q := url.Values{}
	if v := ResolveDate(f.PublishDateFrom, -1, now); v != "" {
		q.Set("searchPublishDateFrom", v)
	}
	if v := ResolveDate(f.PublishDateTo, 0, now); v != "" {
		q.Set("searchPublishDateTo", v)
	}
	if f.Classification != "" {
		q.Set("searchClassification", f.Classification)
	}
	if f.BusinessCategory != "" {
		// The parameter name carries the portal's own misspelling.
		q.Set("searchBussinessCategory", f.BusinessCategory)
	}
	return q
}

// AwardPageURL builds the award index URL for one page, sorted by award
// date descending.
func AwardPageURL(base string, page int, f Filters) string {
	q := f.query(time.Now())
	q.Set("page", fmt.Sprintf("%d", page))
	q.Set("direction", awardSortDirection)
	return strings.TrimRight(base, "/") + AwardIndexPath + "?" + q.Encode()
}

// NoticePageURL builds the opportunities index URL for one page.
func NoticePageURL(base string, page int, f Filters) string {
	q := f.query(time.Now())
	q.Set("page", fmt.Sprintf("%d", page))
	return strings.TrimRight(base, "/") + NoticeIndexPath + "?" + q.Encode()
}

// PageCount reads the total page count from the "Page X of N" paginator.
// Pages without a paginator count as a single page.
func PageCount(htmlSrc string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc))
	if err != nil {
		return 1
	}
	text := doc.Find("div.paginator p").First().Text()
	if text == "" {
		text = doc.Find("div.paginator").First().Text()
	}
	if m := pageOfRe.FindStringSubmatch(text); m != nil {
		if v := extract.ParseInt(m[1]); v != nil && *v > 0 {
			return int(*v)
		}
	}
	return 1
}

// ParseAwards extracts award rows from an index page. The first cell
// holds the award notice number link; the next four are bid reference,
// title, awardee, and award date. Rows without a link are skipped.
func ParseAwards(htmlSrc, base string) []AwardRow {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc))
	if err != nil {
		return nil
	}

	var rows []AwardRow
	doc.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		link := tr.Find("td:nth-of-type(1) a").First()
		if link.Length() == 0 {
			return
		}
		number := strings.TrimSpace(link.Text())
		if number == "" {
			return
		}

		href, _ := link.Attr("href")
		detailURL := resolveURL(base, href)
		if detailURL == "" {
			detailURL = strings.TrimRight(base, "/") + fmt.Sprintf(awardDetailTemplate, number)
		}

		cell := func(n int) string {
			return strings.TrimSpace(tr.Find(fmt.Sprintf("td:nth-of-type(%d)", n)).First().Text())
		}
		rows = append(rows, AwardRow{
			AwardNoticeNumber:  number,
			BidReferenceNumber: cell(2),
			Title:              cell(3),
			Awardee:            cell(4),
			AwardDate:          extract.ParseDate(cell(5)),
			URL:                detailURL,
		})
	})
	return rows
}

// ParseNotices extracts bid notice rows from an opportunities page. The
// listing marks its cells with data-label attributes.
func ParseNotices(htmlSrc, base string) []NoticeRow {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc))
	if err != nil {
		return nil
	}

	var rows []NoticeRow
	doc.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		link := tr.Find(`td[data-label="Bid Notice Reference Number"] a`).First()
		if link.Length() == 0 {
			return
		}
		ref := strings.TrimSpace(link.Text())
		if ref == "" {
			return
		}
		href, _ := link.Attr("href")

		cell := func(label string) string {
			return strings.TrimSpace(tr.Find(fmt.Sprintf(`td[data-label=%q]`, label)).First().Text())
		}
		rows = append(rows, NoticeRow{
			ReferenceNumber: ref,
			Title:           cell("Notice Title"),
			Classification:  cell("Classification"),
			ProcuringEntity: cell("Agency Name"),
			Status:          cell("Status"),
			PublishDate:     extract.ParseDate(cell("Publish Date")),
			ClosingDate:     extract.ParseDate(cell("Due Date")),
			URL:             resolveURL(base, href),
		})
	})
	return rows
}

func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}
