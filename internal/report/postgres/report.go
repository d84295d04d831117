package postgres

import (
	"context"
	"time"

	"github.com/chronotracker/chronotracker-api/internal/core/status"
	"github.com/chronotracker/chronotracker-api/internal/core/worktime"
	"github.com/chronotracker/chronotracker-api/internal/report"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Reader runs the reporting queries as plain SQL over the tables the
// repositories write. It never mutates.
type Reader struct {
	db *sqlx.DB
}

func NewReader(db *sqlx.DB) report.Reader {
	return &Reader{db: db}
}

type spanRow struct {
	EntryDate time.Time          `db:"entry_date"`
	StartTime worktime.TimeOfDay `db:"start_time"`
	EndTime   worktime.TimeOfDay `db:"end_time"`
}

type amountRow struct {
	Status status.Status   `db:"status"`
	Amount decimal.Decimal `db:"amount"`
}

const collaboratorSpansQuery = `
SELECT entry_date, start_time, end_time
FROM time_entries
WHERE collaborator_id = ? AND entry_date >= ? AND entry_date <= ?`

const activitySpansQuery = `
SELECT entry_date, start_time, end_time
FROM time_entries
WHERE activity_id = ?`

func (r *Reader) CollaboratorSpans(ctx context.Context, collaboratorID int64, rng worktime.Range) ([]report.Span, error) {
	var rows []spanRow
	query := r.db.Rebind(collaboratorSpansQuery)
	if err := r.db.SelectContext(ctx, &rows, query, collaboratorID, rng.From.Time(), rng.To.Time()); err != nil {
		return nil, err
	}
	return toSpans(rows), nil
}

func (r *Reader) ActivitySpans(ctx context.Context, activityID int64) ([]report.Span, error) {
	var rows []spanRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(activitySpansQuery), activityID); err != nil {
		return nil, err
	}
	return toSpans(rows), nil
}

func (r *Reader) ExpenseAmounts(ctx context.Context, collaboratorID int64, statuses []status.Status) ([]report.Amount, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, s.String())
	}

	query, args, err := sqlx.In(`SELECT status, amount FROM expenses WHERE collaborator_id = ? AND status IN (?)`, collaboratorID, values)
	if err != nil {
		return nil, err
	}

	var rows []amountRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	out := make([]report.Amount, 0, len(rows))
	for _, row := range rows {
		out = append(out, report.Amount{Status: row.Status, Amount: row.Amount})
	}
	return out, nil
}

func toSpans(rows []spanRow) []report.Span {
	out := make([]report.Span, 0, len(rows))
	for _, row := range rows {
		out = append(out, report.Span{
			Date:  worktime.DateOf(row.EntryDate),
			Start: row.StartTime,
			End:   row.EndTime,
		})
	}
	return out
}
