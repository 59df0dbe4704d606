package store

import (
	"context"
	"fmt"
)

// GetStats computes aggregate figures over the whole store. Savings are
// derived per award inside SQL so the figures stay consistent with
// Award.SavingsAmount: both inputs must be present, a zero contract
// amount never counts, and the percentage only counts awards with a
// positive approved budget.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	var st Stats

	err := s.DB.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM bid_notices),
		(SELECT COUNT(*) FROM awarded_contracts),
		(SELECT COUNT(*) FROM run_log),
		(SELECT COALESCE(SUM(approved_budget), 0) FROM awarded_contracts WHERE approved_budget IS NOT NULL),
		(SELECT COALESCE(SUM(contract_amount), 0) FROM awarded_contracts WHERE contract_amount IS NOT NULL),
		(SELECT COALESCE(SUM(approved_budget - contract_amount), 0) FROM awarded_contracts
			WHERE approved_budget IS NOT NULL AND contract_amount IS NOT NULL AND contract_amount != 0),
		(SELECT COALESCE(AVG((approved_budget - contract_amount) / approved_budget * 100), 0)
			FROM awarded_contracts
			WHERE approved_budget IS NOT NULL AND contract_amount IS NOT NULL AND contract_amount != 0
			AND approved_budget > 0),
		(SELECT COUNT(DISTINCT awardee_name) FROM awarded_contracts WHERE awardee_name != '')
	`).Scan(&st.Notices, &st.Awards, &st.Runs,
		&st.TotalABC, &st.TotalContractAmount, &st.TotalSavings,
		&st.AvgSavingsPct, &st.UniqueAwardees)
	if err != nil {
		return nil, fmt.Errorf("store: stats: %w", err)
	}
	return &st, nil
}
