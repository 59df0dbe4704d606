package extract

import "regexp"

// Kind selects the conversion applied to a raw field value.
type Kind string

const (
	Text  Kind = "text"
	Money Kind = "money"
	Date  Kind = "date"
	Int   Kind = "int"
)

// FieldDef declares one label-anchored field. Labels are candidate label
// texts, matched case-insensitively after whitespace normalisation; the
// first label that matches wins. ValueRe, when set, captures the value
// from the label's own text ("Notice Reference Number :7297") before the
// sibling-text fallback is tried.
type FieldDef struct {
	Name    string
	Kind    Kind
	Labels  []string
	ValueRe *regexp.Regexp
}

var trailingNumberRe = regexp.MustCompile(`:\s*([A-Za-z0-9-]+)\s*$`)

// noticeFields covers the bid notice detail page. Title, description,
// contact email, and download count don't follow the label pattern and
// are handled separately.
var noticeFields = []FieldDef{
	{Name: "reference_number", Kind: Text, Labels: []string{"Notice Reference Number"}, ValueRe: trailingNumberRe},
	{Name: "status", Kind: Text, Labels: []string{"Status"}},
	{Name: "control_number", Kind: Text, Labels: []string{"Control Number"}},
	{Name: "approved_budget", Kind: Money, Labels: []string{"Approved Budget"}},
	{Name: "bid_form_fee", Kind: Money, Labels: []string{"Bid Form Fee", "Bid Supplement Form Fee"}},
	{Name: "classification", Kind: Text, Labels: []string{"Classification"}},
	{Name: "category", Kind: Text, Labels: []string{"Business Category"}},
	{Name: "procurement_mode", Kind: Text, Labels: []string{"Procurement Mode"}},
	{Name: "procurement_rules", Kind: Text, Labels: []string{"Applicable Procurement Rules"}},
	{Name: "lot_type", Kind: Text, Labels: []string{"Lot Type"}},
	{Name: "funding_source", Kind: Text, Labels: []string{"Funding Source"}},
	{Name: "publish_date", Kind: Date, Labels: []string{"Published Date", "Publish Date"}},
	{Name: "closing_date", Kind: Date, Labels: []string{"Closing Date"}},
	{Name: "date_created", Kind: Date, Labels: []string{"Date Created"}},
	{Name: "date_last_updated", Kind: Date, Labels: []string{"Date Last Updated"}},
	{Name: "bid_validity_days", Kind: Int, Labels: []string{"Bid Validity Period"}},
	{Name: "delivery_period", Kind: Text, Labels: []string{"Delivery Period"}},
	{Name: "delivery_location", Kind: Text, Labels: []string{"Delivery Location", "Project Location"}},
	{Name: "agency_address", Kind: Text, Labels: []string{"Address"}},
	{Name: "procuring_entity", Kind: Text, Labels: []string{"Client Agency"}},
	{Name: "contact_person", Kind: Text, Labels: []string{"Contact Person"}},
	{Name: "contact_phone", Kind: Text, Labels: []string{"Contact Number", "Telephone", "Phone"}},
	{Name: "created_by", Kind: Text, Labels: []string{"Created By"}},
}

// awardFields covers the award notice detail page.
var awardFields = []FieldDef{
	{Name: "award_notice_number", Kind: Text, Labels: []string{"Award Notice Number"}, ValueRe: trailingNumberRe},
	{Name: "bid_reference_number", Kind: Text, Labels: []string{"Notice Reference Number", "Bid Reference Number"}, ValueRe: trailingNumberRe},
	{Name: "control_number", Kind: Text, Labels: []string{"Control Number"}},
	{Name: "award_type", Kind: Text, Labels: []string{"Award Type"}},
	{Name: "award_date", Kind: Date, Labels: []string{"Award Date"}},
	{Name: "awardee_name", Kind: Text, Labels: []string{"Awardee Name", "Awardee"}},
	{Name: "awardee_address", Kind: Text, Labels: []string{"Awardee Address"}},
	{Name: "awardee_contact_person", Kind: Text, Labels: []string{"Contact Person"}},
	{Name: "awardee_corporate_title", Kind: Text, Labels: []string{"Corporate Title"}},
	{Name: "approved_budget", Kind: Money, Labels: []string{"Approved Budget"}},
	{Name: "contract_amount", Kind: Money, Labels: []string{"Contract Amount", "Award Amount", "Awarded Price"}},
	{Name: "contract_number", Kind: Text, Labels: []string{"Contract Number", "Contract No"}},
	{Name: "contract_effectivity_date", Kind: Date, Labels: []string{"Contract Effectivity Date"}},
	{Name: "contract_end_date", Kind: Date, Labels: []string{"Contract End Date"}},
	{Name: "period_of_contract", Kind: Text, Labels: []string{"Period of Contract"}},
	{Name: "proceed_date", Kind: Date, Labels: []string{"Proceed Date", "Notice to Proceed Date"}},
	{Name: "procurement_mode", Kind: Text, Labels: []string{"Procurement Mode"}},
	{Name: "classification", Kind: Text, Labels: []string{"Classification"}},
	{Name: "category", Kind: Text, Labels: []string{"Business Category"}},
	{Name: "procurement_rules", Kind: Text, Labels: []string{"Applicable Procurement Rules"}},
	{Name: "funding_source", Kind: Text, Labels: []string{"Funding Source"}},
	{Name: "procuring_entity", Kind: Text, Labels: []string{"Client Agency", "Procuring Entity"}},
	{Name: "agency_address", Kind: Text, Labels: []string{"Address"}},
	{Name: "delivery_location", Kind: Text, Labels: []string{"Delivery Location", "Project Location"}},
	{Name: "publish_date", Kind: Date, Labels: []string{"Published Date", "Publish Date"}},
	{Name: "date_created", Kind: Date, Labels: []string{"Date Created"}},
	{Name: "date_last_updated", Kind: Date, Labels: []string{"Date Last Updated"}},
	{Name: "created_by", Kind: Text, Labels: []string{"Created By"}},
}
