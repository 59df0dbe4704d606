package store

// Notice is an open procurement opportunity. The natural key is
// ReferenceNumber; every other field is best-effort and may be empty/nil
// when the source page did not yield a parseable value.
type Notice struct {
	ID               string `json:"id"`
	ReferenceNumber  string `json:"reference_number"`
	Status           string `json:"status"`
	ControlNumber    string `json:"control_number"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Classification   string `json:"classification"`
	Category         string `json:"category"`
	ProcurementMode  string `json:"procurement_mode"`
	ProcurementRules string `json:"procurement_rules"`
	LotType          string `json:"lot_type"`
	FundingSource    string `json:"funding_source"`

	ApprovedBudget  *float64 `json:"approved_budget,omitempty"`
	BidFormFee      *float64 `json:"bid_form_fee,omitempty"`
	BidValidityDays *int64   `json:"bid_validity_days,omitempty"`

	PublishDate     *int64 `json:"publish_date,omitempty"` // epoch ms
	ClosingDate     *int64 `json:"closing_date,omitempty"`
	DateCreated     *int64 `json:"date_created,omitempty"`
	DateLastUpdated *int64 `json:"date_last_updated,omitempty"`

	DeliveryPeriod   string `json:"delivery_period"`
	DeliveryLocation string `json:"delivery_location"`
	AgencyAddress    string `json:"agency_address"`
	ProcuringEntity  string `json:"procuring_entity"`
	ContactPerson    string `json:"contact_person"`
	ContactEmail     string `json:"contact_email"`
	ContactPhone     string `json:"contact_phone"`
	CreatedBy        string `json:"created_by"`
	DownloadCount    int    `json:"download_count"`
	URL              string `json:"url"`

	ScrapedAt int64 `json:"scraped_at"`
	UpdatedAt int64 `json:"updated_at"`

	LineItems []LineItem `json:"line_items"`
	Documents []Document `json:"documents"`
}

// Award is a completed procurement: who won and for how much. The natural
// key is AwardNoticeNumber. BidReferenceNumber links back to the
// originating notice; the link is informational, not enforced — the
// referenced notice may not exist locally.
type Award struct {
	ID                    string `json:"id"`
	AwardNoticeNumber     string `json:"award_notice_number"`
	BidReferenceNumber    string `json:"bid_reference_number"`
	ControlNumber         string `json:"control_number"`
	AwardTitle            string `json:"award_title"`
	AwardType             string `json:"award_type"`
	AwardDate             *int64 `json:"award_date,omitempty"`
	AwardeeName           string `json:"awardee_name"`
	AwardeeAddress        string `json:"awardee_address"`
	AwardeeContactPerson  string `json:"awardee_contact_person"`
	AwardeeCorporateTitle string `json:"awardee_corporate_title"`

	ApprovedBudget *float64 `json:"approved_budget,omitempty"`
	ContractAmount *float64 `json:"contract_amount,omitempty"`

	ContractNumber          string `json:"contract_number"`
	ContractEffectivityDate *int64 `json:"contract_effectivity_date,omitempty"`
	ContractEndDate         *int64 `json:"contract_end_date,omitempty"`
	PeriodOfContract        string `json:"period_of_contract"`
	ProceedDate             *int64 `json:"proceed_date,omitempty"`

	ProcurementMode  string `json:"procurement_mode"`
	Classification   string `json:"classification"`
	Category         string `json:"category"`
	ProcurementRules string `json:"procurement_rules"`
	FundingSource    string `json:"funding_source"`
	ProcuringEntity  string `json:"procuring_entity"`
	AgencyAddress    string `json:"agency_address"`
	DeliveryLocation string `json:"delivery_location"`

	PublishDate     *int64 `json:"publish_date,omitempty"`
	DateCreated     *int64 `json:"date_created,omitempty"`
	DateLastUpdated *int64 `json:"date_last_updated,omitempty"`

	Description string `json:"description"`
	CreatedBy   string `json:"created_by"`
	URL         string `json:"url"`

	ScrapedAt int64 `json:"scraped_at"`
	UpdatedAt int64 `json:"updated_at"`

	LineItems []LineItem `json:"line_items"`
	Documents []Document `json:"documents"`
}

// SavingsAmount returns approved budget minus contract amount, or nil when
// either input is missing or the contract amount is zero. A zero amount is
// an unparsed or unpublished price, not a free contract. Computed at read
// time so a later correction to either field can never leave a stale
// derived value.
func (a *Award) SavingsAmount() *float64 {
	if a.ApprovedBudget == nil || a.ContractAmount == nil || *a.ContractAmount == 0 {
		return nil
	}
	v := *a.ApprovedBudget - *a.ContractAmount
	return &v
}

// SavingsPercentage returns the savings as a percentage of the approved
// budget, or nil when inputs are missing or the budget is not positive.
func (a *Award) SavingsPercentage() *float64 {
	s := a.SavingsAmount()
	if s == nil || *a.ApprovedBudget <= 0 {
		return nil
	}
	v := *s / *a.ApprovedBudget * 100
	return &v
}

// LineItem is one quantity/description row from the "Line Item Details"
// table. Line items have no independent identity: Upsert* replaces them
// wholesale.
type LineItem struct {
	ItemNumber     *int64   `json:"item_number,omitempty"`
	UNSPSCCode     string   `json:"unspsc_code"`
	LotName        string   `json:"lot_name"`
	LotDescription string   `json:"lot_description"`
	Quantity       *float64 `json:"quantity,omitempty"`
	UnitOfMeasure  string   `json:"unit_of_measure"`
}

// Document is one document reference (typically a PDF link) attached to a
// record.
type Document struct {
	Filename     string `json:"filename"`
	DocumentURL  string `json:"document_url"`
	DocumentType string `json:"document_type"`
}

// RunLog is one row per scraping execution, retained indefinitely.
type RunLog struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"` // "notices" | "awards"
	StartedAt  int64  `json:"started_at"`
	EndedAt    int64  `json:"ended_at"`
	DurationMs int64  `json:"duration_ms"`
	Attempted  int    `json:"attempted"`
	NewRecords int    `json:"new_records"`
	Skipped    int    `json:"skipped"`
	Errors     int    `json:"errors"`
	Success    bool   `json:"success"`
	Notes      string `json:"notes"`
}

// NoticeFilter narrows QueryNotices. Zero values mean "no constraint".
type NoticeFilter struct {
	DateFrom       *int64
	DateTo         *int64
	MinBudget      *float64
	MaxBudget      *float64
	Classification string
	Category       string
	Status         string
	Search         string // substring over title and description
	Limit          int
	Offset         int
}

// AwardFilter narrows QueryAwards. Zero values mean "no constraint".
type AwardFilter struct {
	DateFrom        *int64
	DateTo          *int64
	MinBudget       *float64
	MaxBudget       *float64
	MinAmount       *float64
	MaxAmount       *float64
	Classification  string
	Category        string
	Awardee         string
	ProcuringEntity string
	Search          string // substring over title and description
	Limit           int
	Offset          int
}

// Stats holds aggregate counters over the full store, consumed by the
// dashboard's trend analytics.
type Stats struct {
	Notices             int     `json:"notices"`
	Awards              int     `json:"awards"`
	Runs                int     `json:"runs"`
	TotalABC            float64 `json:"total_abc"`
	TotalContractAmount float64 `json:"total_contract_amount"`
	TotalSavings        float64 `json:"total_savings"`
	AvgSavingsPct       float64 `json:"avg_savings_pct"`
	UniqueAwardees      int     `json:"unique_awardees"`
}
