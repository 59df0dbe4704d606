package extract

import (
	"math"
	"testing"
)

const noticeHTML = `<html><body>
<label>Notice Reference Number :7297</label>
<center class="verdhana_fourteenpx"><b>Purchase of Meals for Training Sessions</b></center>
<table><tr><td><b>Description:</b>
  <div class="wrapped-long-string1">Supply   and delivery of
  packed meals for quarterly training.</div></td></tr></table>
<label>Status :</label>&nbsp;Open<br>
<label>Control Number: </label><br>25011520108<br>
<label>Classification: </label><br>Goods<br><br>
<label>Business Category: </label><br>Restaurants and catering<br>
<label>Procurement Mode: </label><br>Public Bidding<br>
<label>Applicable Procurement Rules: </label><br>Implementing Rules and Regulations<br>
<label>Lot Type: </label><br>Single Lot<br>
<label>Funding Source: </label><br>Regular Agency Fund (01000000)<br>
<label>Approved Budget of the Contract: </label><br>PHP 1,375,000.00<br>
<label>Bid Form Fee: </label><br>500.00<br>
<label>Bid Validity Period: </label><br>120 Day(s)<br>
<label>Published Date: </label><br>13-Nov-2025 12:00 AM<br>
<label>Closing Date:</label><br>  20-Nov-2025 12:00 PM<br>
<label>Date Created: </label><br>12-Nov-2025<br>
<label>Delivery Period: </label><br>30 Day(s)<br>
<label>Delivery Location: </label><br>Cavite<br>
<label>Address: </label>Bacoor Government Center<br>Bayanan, Bacoor, Cavite<br>
<label>Client Agency: </label><br>CITY GOVERNMENT OF BACOOR<br>
<label>Contact Person: </label><br>Fatima San Diego<br>
<label>Created By: </label><br>BAC Secretariat<br>
<p>Reach us at bac.secretariat@bacoor.gov.ph. Downloaded: 42</p>
<b>Line Item Details</b>
<table>
<tr><th>Item No.</th><th>UNSPSC</th><th>Lot Name</th><th>Description</th><th>Qty</th><th>UOM</th></tr>
<tr><td>1</td><td>90101600</td><td>Packed Meals</td><td>AM snacks and lunch</td><td>1,500</td><td>pax</td></tr>
<tr><td>2</td><td>90101601</td><td>Catering</td><td>Venue catering</td><td>12</td><td>lot</td></tr>
</table>
<a target="_blank" href="/portal_documents/bid_notice_documents/1762836649_25750220105pr.pdf">bid_notice_7297.pdf</a>
</body></html>`

func TestExtractNotice(t *testing.T) {
	n, err := ExtractNotice(noticeHTML, "https://philgeps.gov.ph/tenders/viewBidNotice/7297")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if n.ReferenceNumber != "7297" {
		t.Errorf("reference = %q, want 7297", n.ReferenceNumber)
	}
	if n.Title != "Purchase of Meals for Training Sessions" {
		t.Errorf("title = %q", n.Title)
	}
	if n.Description != "Supply and delivery of packed meals for quarterly training." {
		t.Errorf("description = %q", n.Description)
	}
	if n.Status != "Open" {
		t.Errorf("status = %q", n.Status)
	}
	if n.ControlNumber != "25011520108" {
		t.Errorf("control number = %q", n.ControlNumber)
	}
	if n.Classification != "Goods" || n.Category != "Restaurants and catering" {
		t.Errorf("classification/category = %q/%q", n.Classification, n.Category)
	}
	if n.ApprovedBudget == nil || *n.ApprovedBudget != 1375000 {
		t.Errorf("budget = %v", n.ApprovedBudget)
	}
	if n.BidFormFee == nil || *n.BidFormFee != 500 {
		t.Errorf("bid form fee = %v", n.BidFormFee)
	}
	if n.BidValidityDays == nil || *n.BidValidityDays != 120 {
		t.Errorf("validity = %v", n.BidValidityDays)
	}
	if n.PublishDate == nil {
		t.Error("publish date not parsed")
	}
	if n.ProcuringEntity != "CITY GOVERNMENT OF BACOOR" {
		t.Errorf("procuring entity = %q", n.ProcuringEntity)
	}
	if n.ContactEmail != "bac.secretariat@bacoor.gov.ph" {
		t.Errorf("email = %q", n.ContactEmail)
	}
	if n.DownloadCount != 42 {
		t.Errorf("downloads = %d", n.DownloadCount)
	}

	if len(n.LineItems) != 2 {
		t.Fatalf("line items = %d, want 2", len(n.LineItems))
	}
	it := n.LineItems[0]
	if it.ItemNumber == nil || *it.ItemNumber != 1 {
		t.Errorf("item number = %v", it.ItemNumber)
	}
	if it.UNSPSCCode != "90101600" || it.LotName != "Packed Meals" {
		t.Errorf("item = %+v", it)
	}
	if it.Quantity == nil || *it.Quantity != 1500 {
		t.Errorf("quantity = %v", it.Quantity)
	}

	if len(n.Documents) != 1 {
		t.Fatalf("documents = %d, want 1", len(n.Documents))
	}
	d := n.Documents[0]
	if d.DocumentURL != "https://philgeps.gov.ph/portal_documents/bid_notice_documents/1762836649_25750220105pr.pdf" {
		t.Errorf("doc url = %q", d.DocumentURL)
	}
	if d.DocumentType != "Bid Notice" {
		t.Errorf("doc type = %q", d.DocumentType)
	}
}

func TestExtractNoticeMissingKey(t *testing.T) {
	_, err := ExtractNotice(`<html><body><label>Status :</label>Open</body></html>`, "")
	if err != ErrNoNaturalKey {
		t.Errorf("err = %v, want ErrNoNaturalKey", err)
	}
}

const awardHTML = `<html><body>
<label>Award Notice Number :AW-4410</label>
<label>Notice Reference Number :7297</label>
<center class="verdhana_fourteenpx"><b>Purchase of Meals for Training Sessions</b></center>
<label>Award Type: </label><br>Notice of Award<br>
<label>Award Date: </label><br>05-Dec-2025<br>
<label>Awardee Name: </label><br>Acme Trading Corp.<br>
<label>Awardee Address: </label><br>123 Rizal Ave, Manila<br>
<label>Approved Budget of the Contract: </label><br>1,375,000.00<br>
<label>Contract Amount: </label><br>PHP 750,000.00<br>
<label>Period of Contract: </label><br>30 Day(s)<br>
<label>Client Agency: </label><br>CITY GOVERNMENT OF BACOOR<br>
</body></html>`

func TestExtractAward(t *testing.T) {
	a, err := ExtractAward(awardHTML, "https://philgeps.gov.ph/Indexes/viewAwardNotice/4410/MORE")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if a.AwardNoticeNumber != "AW-4410" {
		t.Errorf("award number = %q", a.AwardNoticeNumber)
	}
	if a.BidReferenceNumber != "7297" {
		t.Errorf("bid ref = %q", a.BidReferenceNumber)
	}
	if a.AwardeeName != "Acme Trading Corp." {
		t.Errorf("awardee = %q", a.AwardeeName)
	}
	// Longest-label matching must keep the address out of the name field.
	if a.AwardeeAddress != "123 Rizal Ave, Manila" {
		t.Errorf("awardee address = %q", a.AwardeeAddress)
	}
	if a.ContractAmount == nil || *a.ContractAmount != 750000 {
		t.Errorf("contract amount = %v", a.ContractAmount)
	}

	sav := a.SavingsAmount()
	if sav == nil || *sav != 625000 {
		t.Errorf("savings = %v", sav)
	}
	pct := a.SavingsPercentage()
	if pct == nil || math.Abs(*pct-45.4545) > 0.001 {
		t.Errorf("savings pct = %v", pct)
	}
}

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in   string
		want *float64
	}{
		{"PHP 1,375,000.00", f(1375000)},
		{"70,000.00", f(70000)},
		{"500.00", f(500)},
		{"1500", f(1500)},
		{"", nil},
		{"N/A", nil},
		// Mangled thousands grouping must not yield a wrong number.
		{"PHP 1,2", nil},
		{"12,34.00", nil},
	}
	for _, c := range cases {
		got := ParseMoney(c.in)
		switch {
		case c.want == nil && got != nil:
			t.Errorf("ParseMoney(%q) = %v, want nil", c.in, *got)
		case c.want != nil && (got == nil || *got != *c.want):
			t.Errorf("ParseMoney(%q) = %v, want %v", c.in, got, *c.want)
		}
	}
}

func f(v float64) *float64 { return &v }

func TestParseDate(t *testing.T) {
	if ParseDate("13-Nov-2025 12:00 AM") == nil {
		t.Error("long form not parsed")
	}
	if ParseDate("13-Nov-2025") == nil {
		t.Error("short form not parsed")
	}
	if ParseDate("2025-11-13 08:30:00") == nil {
		t.Error("ISO form not parsed")
	}
	if ParseDate("11/13/2025") == nil {
		t.Error("slash form not parsed")
	}
	if got := ParseDate("not a date"); got != nil {
		t.Errorf("garbage parsed to %v", *got)
	}
	if got := ParseDate(""); got != nil {
		t.Error("empty parsed")
	}

	// Short and long forms of the same day agree on the midnight value.
	a := ParseDate("13-Nov-2025 12:00 AM")
	b := ParseDate("13-Nov-2025")
	if a == nil || b == nil || *a != *b {
		t.Errorf("midnight mismatch: %v vs %v", a, b)
	}
}

func TestParseInt(t *testing.T) {
	if got := ParseInt("120 Day(s)"); got == nil || *got != 120 {
		t.Errorf("got %v, want 120", got)
	}
	if ParseInt("no digits") != nil {
		t.Error("garbage parsed")
	}
}

func TestGuessDocumentType(t *testing.T) {
	cases := map[string]string{
		"bid_notice_7297.pdf":   "Bid Notice",
		"technical_specs.pdf":   "Technical Specifications",
		"tor_consulting.pdf":    "Terms of Reference",
		"boq_roadworks.pdf":     "Bill of Quantities",
		"site_plan.pdf":         "Drawings/Plans",
		"amendment_1.pdf":       "Supplement/Amendment",
		"1762836649_misc.pdf":   "Document",
	}
	for in, want := range cases {
		if got := GuessDocumentType(in); got != want {
			t.Errorf("GuessDocumentType(%q) = %q, want %q", in, got, want)
		}
	}
}
