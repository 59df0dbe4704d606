package store

import (
	"context"
	"fmt"
	"strings"
)

const defaultQueryLimit = 100

// QueryNotices returns a page of notices matching the filter plus the
// total count of matches, newest closing date first. Children are not
// loaded; list views don't need them.
func (s *Store) QueryNotices(ctx context.Context, f NoticeFilter) ([]*Notice, int, error) {
	var conds []string
	var args []any

	if f.DateFrom != nil {
		conds = append(conds, `(publish_date >= ? OR closing_date >= ?)`)
		args = append(args, *f.DateFrom, *f.DateFrom)
	}
	if f.DateTo != nil {
		conds = append(conds, `(publish_date <= ? OR closing_date <= ?)`)
		args = append(args, *f.DateTo, *f.DateTo)
	}
	if f.MinBudget != nil {
		conds = append(conds, `approved_budget >= ?`)
		args = append(args, *f.MinBudget)
	}
	if f.MaxBudget != nil {
		conds = append(conds, `approved_budget <= ?`)
		args = append(args, *f.MaxBudget)
	}
	if f.Classification != "" {
		conds = append(conds, `classification LIKE ?`)
		args = append(args, "%"+f.Classification+"%")
	}
	if f.Category != "" {
		conds = append(conds, `category LIKE ?`)
		args = append(args, "%"+f.Category+"%")
	}
	if f.Status != "" {
		conds = append(conds, `status LIKE ?`)
		args = append(args, "%"+f.Status+"%")
	}
	if f.Search != "" {
		conds = append(conds, `(title LIKE ? OR description LIKE ?)`)
		pat := "%" + f.Search + "%"
		args = append(args, pat, pat)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bid_notices`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count notices: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	pageArgs := append(append([]any{}, args...), limit, f.Offset)

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+noticeCols+` FROM bid_notices`+where+
			` ORDER BY closing_date DESC LIMIT ? OFFSET ?`, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: query notices: %w", err)
	}
	defer rows.Close()

	var notices []*Notice
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("store: scan notice: %w", err)
		}
		notices = append(notices, n)
	}
	return notices, total, rows.Err()
}

// QueryAwards returns a page of awarded contracts matching the filter plus
// the total count of matches, newest award first.
func (s *Store) QueryAwards(ctx context.Context, f AwardFilter) ([]*Award, int, error) {
	var conds []string
	var args []any

	if f.DateFrom != nil {
		conds = append(conds, `award_date >= ?`)
		args = append(args, *f.DateFrom)
	}
	if f.DateTo != nil {
		conds = append(conds, `award_date <= ?`)
		args = append(args, *f.DateTo)
	}
	if f.MinBudget != nil {
		conds = append(conds, `approved_budget >= ?`)
		args = append(args, *f.MinBudget)
	}
	if f.MaxBudget != nil {
		conds = append(conds, `approved_budget <= ?`)
		args = append(args, *f.MaxBudget)
	}
	if f.MinAmount != nil {
		conds = append(conds, `contract_amount >= ?`)
		args = append(args, *f.MinAmount)
	}
	if f.MaxAmount != nil {
		conds = append(conds, `contract_amount <= ?`)
		args = append(args, *f.MaxAmount)
	}
	if f.Classification != "" {
		conds = append(conds, `classification LIKE ?`)
		args = append(args, "%"+f.Classification+"%")
	}
	if f.Category != "" {
		conds = append(conds, `category LIKE ?`)
		args = append(args, "%"+f.Category+"%")
	}
	if f.Awardee != "" {
		conds = append(conds, `awardee_name LIKE ?`)
		args = append(args, "%"+f.Awardee+"%")
	}
	if f.ProcuringEntity != "" {
		conds = append(conds, `procuring_entity LIKE ?`)
		args = append(args, "%"+f.ProcuringEntity+"%")
	}
	if f.Search != "" {
		conds = append(conds, `(award_title LIKE ? OR description LIKE ?)`)
		pat := "%" + f.Search + "%"
		args = append(args, pat, pat)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM awarded_contracts`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count awards: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	pageArgs := append(append([]any{}, args...), limit, f.Offset)

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+awardCols+` FROM awarded_contracts`+where+
			` ORDER BY award_date DESC LIMIT ? OFFSET ?`, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: query awards: %w", err)
	}
	defer rows.Close()

	var awards []*Award
	for rows.Next() {
		a, err := scanAward(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("store: scan award: %w", err)
		}
		awards = append(awards, a)
	}
	return awards, total, rows.Err()
}
