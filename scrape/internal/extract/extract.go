// Package extract turns portal detail pages into structured records.
//
// Detail pages follow a <label>Field: </label><br>VALUE pattern; the
// field tables in fields.go declare which labels feed which record
// fields, and the generic walker below does the anchoring. Extraction
// only fails when the natural key is missing: any other field that
// cannot be parsed is left null and the record is kept.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/bidintel/bidwatch/scrape/internal/store"
)

// ErrNoNaturalKey means the page yielded no reference number; the record
// cannot be stored and the caller should count an error, not a row.
var ErrNoNaturalKey = errors.New("extract: natural key not found")

var (
	wsRe       = regexp.MustCompile(`\s+`)
	emailRe    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	downloadRe = regexp.MustCompile(`(?i)Downloaded:\s*(\d+)`)
)

func normalize(s string) string {
	return strings.ToLower(wsRe.ReplaceAllString(strings.TrimSpace(s), " "))
}

// collect anchors every FieldDef on the page's <label> elements. When a
// label text matches candidates from several defs, the longest candidate
// wins, so "Awardee Address" never feeds the plain "Awardee" field.
func collect(doc *goquery.Document, defs []FieldDef) map[string]string {
	out := make(map[string]string, len(defs))

	doc.Find("label").Each(func(_ int, sel *goquery.Selection) {
		text := sel.Text()
		norm := normalize(text)

		var best *FieldDef
		bestLen := 0
		for i := range defs {
			def := &defs[i]
			for _, cand := range def.Labels {
				cn := normalize(cand)
				if strings.HasPrefix(norm, cn) && len(cn) > bestLen {
					best = def
					bestLen = len(cn)
				}
			}
		}
		if best == nil {
			return
		}
		if _, done := out[best.Name]; done {
			return
		}

		var value string
		if best.ValueRe != nil {
			if m := best.ValueRe.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
				value = strings.TrimSpace(m[1])
			}
		}
		if value == "" {
			value = textAfter(sel.Get(0))
		}
		if value != "" {
			out[best.Name] = value
		}
	})
	return out
}

// textAfter returns the first non-empty text following a label node,
// skipping <br> separators and stopping at nothing else: the portal puts
// the value either in a bare text node or in the next inline element.
func textAfter(n *html.Node) string {
	for sib := n.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type == html.ElementNode && sib.Data == "br" {
			continue
		}
		var text string
		switch sib.Type {
		case html.TextNode:
			text = sib.Data
		case html.ElementNode:
			text = nodeText(sib)
		default:
			continue
		}
		if t := strings.TrimSpace(wsRe.ReplaceAllString(text, " ")); t != "" {
			return t
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// pageTitle reads the bold heading the portal renders above the detail
// table.
func pageTitle(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("center.verdhana_fourteenpx b").First().Text())
}

// pageDescription finds the Description cell and collapses its wrapped
// content to a single line.
func pageDescription(doc *goquery.Document) string {
	var desc string
	doc.Find("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		if !strings.Contains(td.Text(), "Description:") {
			return true
		}
		if div := td.Find("div.wrapped-long-string1").First(); div.Length() > 0 {
			desc = strings.Join(strings.Fields(div.Text()), " ")
			return false
		}
		return true
	})
	return desc
}

// ExtractNotice parses a bid notice detail page. pageURL is stored on
// the record and anchors relative document links.
func ExtractNotice(htmlSrc, pageURL string) (*store.Notice, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc))
	if err != nil {
		return nil, fmt.Errorf("extract: parse html: %w", err)
	}

	vals := collect(doc, noticeFields)
	if vals["reference_number"] == "" {
		return nil, ErrNoNaturalKey
	}

	n := &store.Notice{
		ReferenceNumber:  vals["reference_number"],
		Status:           vals["status"],
		ControlNumber:    vals["control_number"],
		Title:            pageTitle(doc),
		Description:      pageDescription(doc),
		Classification:   vals["classification"],
		Category:         vals["category"],
		ProcurementMode:  vals["procurement_mode"],
		ProcurementRules: vals["procurement_rules"],
		LotType:          vals["lot_type"],
		FundingSource:    vals["funding_source"],
		ApprovedBudget:   ParseMoney(vals["approved_budget"]),
		BidFormFee:       ParseMoney(vals["bid_form_fee"]),
		BidValidityDays:  ParseInt(vals["bid_validity_days"]),
		PublishDate:      ParseDate(vals["publish_date"]),
		ClosingDate:      ParseDate(vals["closing_date"]),
		DateCreated:      ParseDate(vals["date_created"]),
		DateLastUpdated:  ParseDate(vals["date_last_updated"]),
		DeliveryPeriod:   vals["delivery_period"],
		DeliveryLocation: vals["delivery_location"],
		AgencyAddress:    vals["agency_address"],
		ProcuringEntity:  vals["procuring_entity"],
		ContactPerson:    vals["contact_person"],
		ContactEmail:     emailRe.FindString(doc.Text()),
		ContactPhone:     vals["contact_phone"],
		CreatedBy:        vals["created_by"],
		URL:              pageURL,
		LineItems:        LineItems(doc),
		Documents:        Documents(doc, pageURL),
	}
	// Listing rows only surface published notices, so an unlabelled
	// status on the detail page means published.
	if n.Status == "" {
		n.Status = "Published"
	}
	if m := downloadRe.FindStringSubmatch(doc.Text()); m != nil {
		if v := ParseInt(m[1]); v != nil {
			n.DownloadCount = int(*v)
		}
	}
	return n, nil
}

// ExtractAward parses an award notice detail page.
func ExtractAward(htmlSrc, pageURL string) (*store.Award, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc))
	if err != nil {
		return nil, fmt.Errorf("extract: parse html: %w", err)
	}

	vals := collect(doc, awardFields)
	if vals["award_notice_number"] == "" {
		return nil, ErrNoNaturalKey
	}

	a := &store.Award{
		AwardNoticeNumber:       vals["award_notice_number"],
		BidReferenceNumber:      vals["bid_reference_number"],
		ControlNumber:           vals["control_number"],
		AwardTitle:              pageTitle(doc),
		AwardType:               vals["award_type"],
		AwardDate:               ParseDate(vals["award_date"]),
		AwardeeName:             vals["awardee_name"],
		AwardeeAddress:          vals["awardee_address"],
		AwardeeContactPerson:    vals["awardee_contact_person"],
		AwardeeCorporateTitle:   vals["awardee_corporate_title"],
		ApprovedBudget:          ParseMoney(vals["approved_budget"]),
		ContractAmount:          ParseMoney(vals["contract_amount"]),
		ContractNumber:          vals["contract_number"],
		ContractEffectivityDate: ParseDate(vals["contract_effectivity_date"]),
		ContractEndDate:         ParseDate(vals["contract_end_date"]),
		PeriodOfContract:        vals["period_of_contract"],
		ProceedDate:             ParseDate(vals["proceed_date"]),
		ProcurementMode:         vals["procurement_mode"],
		Classification:          vals["classification"],
		Category:                vals["category"],
		ProcurementRules:        vals["procurement_rules"],
		FundingSource:           vals["funding_source"],
		ProcuringEntity:         vals["procuring_entity"],
		AgencyAddress:           vals["agency_address"],
		DeliveryLocation:        vals["delivery_location"],
		PublishDate:             ParseDate(vals["publish_date"]),
		DateCreated:             ParseDate(vals["date_created"]),
		DateLastUpdated:         ParseDate(vals["date_last_updated"]),
		Description:             pageDescription(doc),
		CreatedBy:               vals["created_by"],
		URL:                     pageURL,
		LineItems:               LineItems(doc),
		Documents:               Documents(doc, pageURL),
	}
	return a, nil
}
