package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const awardCols = `id, award_notice_number, bid_reference_number, control_number,
	award_title, award_type, award_date,
	awardee_name, awardee_address, awardee_contact_person, awardee_corporate_title,
	approved_budget, contract_amount,
	contract_number, contract_effectivity_date, contract_end_date, period_of_contract, proceed_date,
	procurement_mode, classification, category, procurement_rules, funding_source,
	procuring_entity, agency_address, delivery_location,
	publish_date, date_created, date_last_updated,
	description, created_by, url, scraped_at, updated_at`

// AwardExists reports whether an awarded contract with the given award
// notice number is already stored, without loading the row.
func (s *Store) AwardExists(ctx context.Context, awardNoticeNumber string) (bool, error) {
	var one int
	err := s.DB.QueryRowContext(ctx,
		`SELECT 1 FROM awarded_contracts WHERE award_notice_number = ? LIMIT 1`,
		awardNoticeNumber).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: award exists: %w", err)
	}
	return true, nil
}

// UpsertAward inserts an awarded contract or updates the row holding the
// same award notice number, replacing its children, all in one
// transaction.
func (s *Store) UpsertAward(ctx context.Context, a *Award) error {
	if a.AwardNoticeNumber == "" {
		return ErrMissingNaturalKey
	}

	now := time.Now().UnixMilli()
	if a.ScrapedAt == 0 {
		a.ScrapedAt = now
	}
	a.UpdatedAt = now

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	var existingID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM awarded_contracts WHERE award_notice_number = ?`,
		a.AwardNoticeNumber).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO awarded_contracts (`+awardCols+`)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			a.ID, a.AwardNoticeNumber, a.BidReferenceNumber, a.ControlNumber,
			a.AwardTitle, a.AwardType, a.AwardDate,
			a.AwardeeName, a.AwardeeAddress, a.AwardeeContactPerson, a.AwardeeCorporateTitle,
			a.ApprovedBudget, a.ContractAmount,
			a.ContractNumber, a.ContractEffectivityDate, a.ContractEndDate, a.PeriodOfContract, a.ProceedDate,
			a.ProcurementMode, a.Classification, a.Category, a.ProcurementRules, a.FundingSource,
			a.ProcuringEntity, a.AgencyAddress, a.DeliveryLocation,
			a.PublishDate, a.DateCreated, a.DateLastUpdated,
			a.Description, a.CreatedBy, a.URL, a.ScrapedAt, a.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("store: insert award %s: %w", a.AwardNoticeNumber, err)
		}
	case err != nil:
		return fmt.Errorf("store: lookup award: %w", err)
	default:
		a.ID = existingID
		_, err = tx.ExecContext(ctx,
			`UPDATE awarded_contracts SET bid_reference_number=?, control_number=?,
			award_title=?, award_type=?, award_date=?,
			awardee_name=?, awardee_address=?, awardee_contact_person=?, awardee_corporate_title=?,
			approved_budget=?, contract_amount=?,
			contract_number=?, contract_effectivity_date=?, contract_end_date=?, period_of_contract=?, proceed_date=?,
			procurement_mode=?, classification=?, category=?, procurement_rules=?, funding_source=?,
			procuring_entity=?, agency_address=?, delivery_location=?,
			publish_date=?, date_created=?, date_last_updated=?,
			description=?, created_by=?, url=?, updated_at=?
			WHERE id=?`,
			a.BidReferenceNumber, a.ControlNumber,
			a.AwardTitle, a.AwardType, a.AwardDate,
			a.AwardeeName, a.AwardeeAddress, a.AwardeeContactPerson, a.AwardeeCorporateTitle,
			a.ApprovedBudget, a.ContractAmount,
			a.ContractNumber, a.ContractEffectivityDate, a.ContractEndDate, a.PeriodOfContract, a.ProceedDate,
			a.ProcurementMode, a.Classification, a.Category, a.ProcurementRules, a.FundingSource,
			a.ProcuringEntity, a.AgencyAddress, a.DeliveryLocation,
			a.PublishDate, a.DateCreated, a.DateLastUpdated,
			a.Description, a.CreatedBy, a.URL, a.UpdatedAt, a.ID,
		)
		if err != nil {
			return fmt.Errorf("store: update award %s: %w", a.AwardNoticeNumber, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM award_line_items WHERE award_id=?`, a.ID); err != nil {
			return fmt.Errorf("store: clear award items: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM award_documents WHERE award_id=?`, a.ID); err != nil {
			return fmt.Errorf("store: clear award documents: %w", err)
		}
	}

	for _, item := range a.LineItems {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO award_line_items (id, award_id, item_number, unspsc_code,
			lot_name, lot_description, quantity, unit_of_measure)
			VALUES (?,?,?,?,?,?,?,?)`,
			uuid.NewString(), a.ID, item.ItemNumber, item.UNSPSCCode,
			item.LotName, item.LotDescription, item.Quantity, item.UnitOfMeasure,
		)
		if err != nil {
			return fmt.Errorf("store: insert award item: %w", err)
		}
	}
	for _, doc := range a.Documents {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO award_documents (id, award_id, filename, document_url, document_type)
			VALUES (?,?,?,?,?)`,
			uuid.NewString(), a.ID, doc.Filename, doc.DocumentURL, doc.DocumentType,
		)
		if err != nil {
			return fmt.Errorf("store: insert award document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit award %s: %w", a.AwardNoticeNumber, err)
	}
	return nil
}

// GetAward retrieves one awarded contract (with children) by award notice
// number. Returns nil when not found.
func (s *Store) GetAward(ctx context.Context, awardNoticeNumber string) (*Award, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+awardCols+` FROM awarded_contracts WHERE award_notice_number = ?`,
		awardNoticeNumber)

	a, err := scanAward(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := s.loadAwardChildren(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// AwardsByBidReference returns all awarded contracts cross-referencing the
// given bid notice reference number — who won a given opportunity.
func (s *Store) AwardsByBidReference(ctx context.Context, bidReferenceNumber string) ([]*Award, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+awardCols+` FROM awarded_contracts
		WHERE bid_reference_number = ? ORDER BY award_date DESC`,
		bidReferenceNumber)
	if err != nil {
		return nil, fmt.Errorf("store: awards by bid reference: %w", err)
	}
	defer rows.Close()

	var awards []*Award
	for rows.Next() {
		a, err := scanAward(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan award: %w", err)
		}
		awards = append(awards, a)
	}
	return awards, rows.Err()
}

func (s *Store) loadAwardChildren(ctx context.Context, a *Award) error {
	items, err := s.loadLineItems(ctx,
		`SELECT item_number, unspsc_code, lot_name, lot_description, quantity, unit_of_measure
		FROM award_line_items WHERE award_id = ? ORDER BY item_number`, a.ID)
	if err != nil {
		return fmt.Errorf("store: award items: %w", err)
	}
	a.LineItems = items

	docs, err := s.loadDocuments(ctx,
		`SELECT filename, document_url, document_type
		FROM award_documents WHERE award_id = ?`, a.ID)
	if err != nil {
		return fmt.Errorf("store: award documents: %w", err)
	}
	a.Documents = docs
	return nil
}

func scanAward(row scanner) (*Award, error) {
	var a Award
	err := row.Scan(
		&a.ID, &a.AwardNoticeNumber, &a.BidReferenceNumber, &a.ControlNumber,
		&a.AwardTitle, &a.AwardType, &a.AwardDate,
		&a.AwardeeName, &a.AwardeeAddress, &a.AwardeeContactPerson, &a.AwardeeCorporateTitle,
		&a.ApprovedBudget, &a.ContractAmount,
		&a.ContractNumber, &a.ContractEffectivityDate, &a.ContractEndDate, &a.PeriodOfContract, &a.ProceedDate,
		&a.ProcurementMode, &a.Classification, &a.Category, &a.ProcurementRules, &a.FundingSource,
		&a.ProcuringEntity, &a.AgencyAddress, &a.DeliveryLocation,
		&a.PublishDate, &a.DateCreated, &a.DateLastUpdated,
		&a.Description, &a.CreatedBy, &a.URL, &a.ScrapedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
