package store

import "database/sql"

// Schema is the complete bidwatch schema. Timestamps are epoch
// milliseconds; money is REAL in PHP. Nullable columns mean "field not
// extractable from the page", never a partially-parsed value.
const Schema = `
-- Open procurement opportunities
CREATE TABLE IF NOT EXISTS bid_notices (
    id                  TEXT PRIMARY KEY,
    reference_number    TEXT NOT NULL UNIQUE,
    status              TEXT NOT NULL DEFAULT '',
    control_number      TEXT NOT NULL DEFAULT '',
    title               TEXT NOT NULL DEFAULT '',
    description         TEXT NOT NULL DEFAULT '',
    classification      TEXT NOT NULL DEFAULT '',
    category            TEXT NOT NULL DEFAULT '',
    procurement_mode    TEXT NOT NULL DEFAULT '',
    procurement_rules   TEXT NOT NULL DEFAULT '',
    lot_type            TEXT NOT NULL DEFAULT '',
    funding_source      TEXT NOT NULL DEFAULT '',
    approved_budget     REAL,
    bid_form_fee        REAL,
    bid_validity_days   INTEGER,
    publish_date        INTEGER,
    closing_date        INTEGER,
    date_created        INTEGER,
    date_last_updated   INTEGER,
    delivery_period     TEXT NOT NULL DEFAULT '',
    delivery_location   TEXT NOT NULL DEFAULT '',
    agency_address      TEXT NOT NULL DEFAULT '',
    procuring_entity    TEXT NOT NULL DEFAULT '',
    contact_person      TEXT NOT NULL DEFAULT '',
    contact_email       TEXT NOT NULL DEFAULT '',
    contact_phone       TEXT NOT NULL DEFAULT '',
    created_by          TEXT NOT NULL DEFAULT '',
    download_count      INTEGER NOT NULL DEFAULT 0,
    url                 TEXT NOT NULL DEFAULT '',
    scraped_at          INTEGER NOT NULL,
    updated_at          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notices_status  ON bid_notices(status);
CREATE INDEX IF NOT EXISTS idx_notices_publish ON bid_notices(publish_date DESC);
CREATE INDEX IF NOT EXISTS idx_notices_closing ON bid_notices(closing_date DESC);

-- Completed procurements: who won and for how much
CREATE TABLE IF NOT EXISTS awarded_contracts (
    id                        TEXT PRIMARY KEY,
    award_notice_number       TEXT NOT NULL UNIQUE,
    bid_reference_number      TEXT NOT NULL DEFAULT '',
    control_number            TEXT NOT NULL DEFAULT '',
    award_title               TEXT NOT NULL DEFAULT '',
    award_type                TEXT NOT NULL DEFAULT '',
    award_date                INTEGER,
    awardee_name              TEXT NOT NULL DEFAULT '',
    awardee_address           TEXT NOT NULL DEFAULT '',
    awardee_contact_person    TEXT NOT NULL DEFAULT '',
    awardee_corporate_title   TEXT NOT NULL DEFAULT '',
    approved_budget           REAL,
    contract_amount           REAL,
    contract_number           TEXT NOT NULL DEFAULT '',
    contract_effectivity_date INTEGER,
    contract_end_date         INTEGER,
    period_of_contract        TEXT NOT NULL DEFAULT '',
    proceed_date              INTEGER,
    procurement_mode          TEXT NOT NULL DEFAULT '',
    classification            TEXT NOT NULL DEFAULT '',
    category                  TEXT NOT NULL DEFAULT '',
    procurement_rules         TEXT NOT NULL DEFAULT '',
    funding_source            TEXT NOT NULL DEFAULT '',
    procuring_entity          TEXT NOT NULL DEFAULT '',
    agency_address            TEXT NOT NULL DEFAULT '',
    delivery_location         TEXT NOT NULL DEFAULT '',
    publish_date              INTEGER,
    date_created              INTEGER,
    date_last_updated         INTEGER,
    description               TEXT NOT NULL DEFAULT '',
    created_by                TEXT NOT NULL DEFAULT '',
    url                       TEXT NOT NULL DEFAULT '',
    scraped_at                INTEGER NOT NULL,
    updated_at                INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_awards_bid_ref ON awarded_contracts(bid_reference_number);
CREATE INDEX IF NOT EXISTS idx_awards_date    ON awarded_contracts(award_date DESC);
CREATE INDEX IF NOT EXISTS idx_awards_awardee ON awarded_contracts(awardee_name);
CREATE INDEX IF NOT EXISTS idx_awards_amount  ON awarded_contracts(contract_amount);

-- Line items, owned by exactly one parent
CREATE TABLE IF NOT EXISTS notice_line_items (
    id              TEXT PRIMARY KEY,
    notice_id       TEXT NOT NULL REFERENCES bid_notices(id) ON DELETE CASCADE,
    item_number     INTEGER,
    unspsc_code     TEXT NOT NULL DEFAULT '',
    lot_name        TEXT NOT NULL DEFAULT '',
    lot_description TEXT NOT NULL DEFAULT '',
    quantity        REAL,
    unit_of_measure TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_notice_items_parent ON notice_line_items(notice_id);

CREATE TABLE IF NOT EXISTS award_line_items (
    id              TEXT PRIMARY KEY,
    award_id        TEXT NOT NULL REFERENCES awarded_contracts(id) ON DELETE CASCADE,
    item_number     INTEGER,
    unspsc_code     TEXT NOT NULL DEFAULT '',
    lot_name        TEXT NOT NULL DEFAULT '',
    lot_description TEXT NOT NULL DEFAULT '',
    quantity        REAL,
    unit_of_measure TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_award_items_parent ON award_line_items(award_id);

-- Document references (PDF links on the detail/preview page)
CREATE TABLE IF NOT EXISTS notice_documents (
    id            TEXT PRIMARY KEY,
    notice_id     TEXT NOT NULL REFERENCES bid_notices(id) ON DELETE CASCADE,
    filename      TEXT NOT NULL DEFAULT '',
    document_url  TEXT NOT NULL,
    document_type TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_notice_docs_parent ON notice_documents(notice_id);

CREATE TABLE IF NOT EXISTS award_documents (
    id            TEXT PRIMARY KEY,
    award_id      TEXT NOT NULL REFERENCES awarded_contracts(id) ON DELETE CASCADE,
    filename      TEXT NOT NULL DEFAULT '',
    document_url  TEXT NOT NULL,
    document_type TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_award_docs_parent ON award_documents(award_id);

-- One row per scraping execution, written at run end, never mutated
CREATE TABLE IF NOT EXISTS run_log (
    id           TEXT PRIMARY KEY,
    kind         TEXT NOT NULL,
    started_at   INTEGER NOT NULL,
    ended_at     INTEGER NOT NULL,
    duration_ms  INTEGER NOT NULL,
    attempted    INTEGER NOT NULL DEFAULT 0,
    new_records  INTEGER NOT NULL DEFAULT 0,
    skipped      INTEGER NOT NULL DEFAULT 0,
    errors       INTEGER NOT NULL DEFAULT 0,
    success      INTEGER NOT NULL DEFAULT 0,
    notes        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_run_log_time ON run_log(started_at DESC);
`

// ApplySchema creates all tables and indexes on the given database.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
