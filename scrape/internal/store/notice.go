package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const noticeCols = `id, reference_number, status, control_number, title, description,
	classification, category, procurement_mode, procurement_rules, lot_type, funding_source,
	approved_budget, bid_form_fee, bid_validity_days,
	publish_date, closing_date, date_created, date_last_updated,
	delivery_period, delivery_location, agency_address, procuring_entity,
	contact_person, contact_email, contact_phone, created_by, download_count, url,
	scraped_at, updated_at`

// NoticeExists reports whether a notice with the given reference number is
// already stored. It never loads the row: this check runs once per scraped
// item and is the skip short-circuit on the hot path.
func (s *Store) NoticeExists(ctx context.Context, referenceNumber string) (bool, error) {
	var one int
	err := s.DB.QueryRowContext(ctx,
		`SELECT 1 FROM bid_notices WHERE reference_number = ? LIMIT 1`,
		referenceNumber).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: notice exists: %w", err)
	}
	return true, nil
}

// UpsertNotice inserts a notice or updates the row holding the same
// reference number. The record and its children are written in one
// transaction; line items and documents are replaced wholesale because
// they carry no identity of their own.
func (s *Store) UpsertNotice(ctx context.Context, n *Notice) error {
	if n.ReferenceNumber == "" {
		return ErrMissingNaturalKey
	}

	now := time.Now().UnixMilli()
	if n.ScrapedAt == 0 {
		n.ScrapedAt = now
	}
	n.UpdatedAt = now

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	var existingID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM bid_notices WHERE reference_number = ?`,
		n.ReferenceNumber).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO bid_notices (`+noticeCols+`)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			n.ID, n.ReferenceNumber, n.Status, n.ControlNumber, n.Title, n.Description,
			n.Classification, n.Category, n.ProcurementMode, n.ProcurementRules, n.LotType, n.FundingSource,
			n.ApprovedBudget, n.BidFormFee, n.BidValidityDays,
			n.PublishDate, n.ClosingDate, n.DateCreated, n.DateLastUpdated,
			n.DeliveryPeriod, n.DeliveryLocation, n.AgencyAddress, n.ProcuringEntity,
			n.ContactPerson, n.ContactEmail, n.ContactPhone, n.CreatedBy, n.DownloadCount, n.URL,
			n.ScrapedAt, n.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("store: insert notice %s: %w", n.ReferenceNumber, err)
		}
	case err != nil:
		return fmt.Errorf("store: lookup notice: %w", err)
	default:
		n.ID = existingID
		_, err = tx.ExecContext(ctx,
			`UPDATE bid_notices SET status=?, control_number=?, title=?, description=?,
			classification=?, category=?, procurement_mode=?, procurement_rules=?, lot_type=?, funding_source=?,
			approved_budget=?, bid_form_fee=?, bid_validity_days=?,
			publish_date=?, closing_date=?, date_created=?, date_last_updated=?,
			delivery_period=?, delivery_location=?, agency_address=?, procuring_entity=?,
			contact_person=?, contact_email=?, contact_phone=?, created_by=?, download_count=?, url=?,
			updated_at=?
			WHERE id=?`,
			n.Status, n.ControlNumber, n.Title, n.Description,
			n.Classification, n.Category, n.ProcurementMode, n.ProcurementRules, n.LotType, n.FundingSource,
			n.ApprovedBudget, n.BidFormFee, n.BidValidityDays,
			n.PublishDate, n.ClosingDate, n.DateCreated, n.DateLastUpdated,
			n.DeliveryPeriod, n.DeliveryLocation, n.AgencyAddress, n.ProcuringEntity,
			n.ContactPerson, n.ContactEmail, n.ContactPhone, n.CreatedBy, n.DownloadCount, n.URL,
			n.UpdatedAt, n.ID,
		)
		if err != nil {
			return fmt.Errorf("store: update notice %s: %w", n.ReferenceNumber, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM notice_line_items WHERE notice_id=?`, n.ID); err != nil {
			return fmt.Errorf("store: clear notice items: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM notice_documents WHERE notice_id=?`, n.ID); err != nil {
			return fmt.Errorf("store: clear notice documents: %w", err)
		}
	}

	for _, item := range n.LineItems {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO notice_line_items (id, notice_id, item_number, unspsc_code,
			lot_name, lot_description, quantity, unit_of_measure)
			VALUES (?,?,?,?,?,?,?,?)`,
			uuid.NewString(), n.ID, item.ItemNumber, item.UNSPSCCode,
			item.LotName, item.LotDescription, item.Quantity, item.UnitOfMeasure,
		)
		if err != nil {
			return fmt.Errorf("store: insert notice item: %w", err)
		}
	}
	for _, doc := range n.Documents {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO notice_documents (id, notice_id, filename, document_url, document_type)
			VALUES (?,?,?,?,?)`,
			uuid.NewString(), n.ID, doc.Filename, doc.DocumentURL, doc.DocumentType,
		)
		if err != nil {
			return fmt.Errorf("store: insert notice document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit notice %s: %w", n.ReferenceNumber, err)
	}
	return nil
}

// GetNotice retrieves one notice (with children) by reference number.
// Returns nil when not found.
func (s *Store) GetNotice(ctx context.Context, referenceNumber string) (*Notice, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+noticeCols+` FROM bid_notices WHERE reference_number = ?`,
		referenceNumber)

	n, err := scanNotice(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := s.loadNoticeChildren(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Store) loadNoticeChildren(ctx context.Context, n *Notice) error {
	items, err := s.loadLineItems(ctx,
		`SELECT item_number, unspsc_code, lot_name, lot_description, quantity, unit_of_measure
		FROM notice_line_items WHERE notice_id = ? ORDER BY item_number`, n.ID)
	if err != nil {
		return fmt.Errorf("store: notice items: %w", err)
	}
	n.LineItems = items

	docs, err := s.loadDocuments(ctx,
		`SELECT filename, document_url, document_type
		FROM notice_documents WHERE notice_id = ?`, n.ID)
	if err != nil {
		return fmt.Errorf("store: notice documents: %w", err)
	}
	n.Documents = docs
	return nil
}

func (s *Store) loadLineItems(ctx context.Context, query, parentID string) ([]LineItem, error) {
	rows, err := s.DB.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []LineItem
	for rows.Next() {
		var it LineItem
		if err := rows.Scan(&it.ItemNumber, &it.UNSPSCCode, &it.LotName,
			&it.LotDescription, &it.Quantity, &it.UnitOfMeasure); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) loadDocuments(ctx context.Context, query, parentID string) ([]Document, error) {
	rows, err := s.DB.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.Filename, &d.DocumentURL, &d.DocumentType); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNotice(row scanner) (*Notice, error) {
	var n Notice
	err := row.Scan(
		&n.ID, &n.ReferenceNumber, &n.Status, &n.ControlNumber, &n.Title, &n.Description,
		&n.Classification, &n.Category, &n.ProcurementMode, &n.ProcurementRules, &n.LotType, &n.FundingSource,
		&n.ApprovedBudget, &n.BidFormFee, &n.BidValidityDays,
		&n.PublishDate, &n.ClosingDate, &n.DateCreated, &n.DateLastUpdated,
		&n.DeliveryPeriod, &n.DeliveryLocation, &n.AgencyAddress, &n.ProcuringEntity,
		&n.ContactPerson, &n.ContactEmail, &n.ContactPhone, &n.CreatedBy, &n.DownloadCount, &n.URL,
		&n.ScrapedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
