package report

import (
	"context"
	"log/slog"
	"math"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/core/status"
	"github.com/chronotracker/chronotracker-api/internal/core/worktime"
	"github.com/shopspring/decimal"
)

type Reader interface {
	CollaboratorSpans(ctx context.Context, collaboratorID int64, rng worktime.Range) ([]Span, error)
	ActivitySpans(ctx context.Context, activityID int64) ([]Span, error)
	ExpenseAmounts(ctx context.Context, collaboratorID int64, statuses []status.Status) ([]Amount, error)
}

// BudgetSource returns horas_previstas for an activity.
type BudgetSource interface {
	BudgetedHours(ctx context.Context, activityID int64) (float64, error)
}

type Service struct {
	reader  Reader
	budgets BudgetSource
	logger  *slog.Logger
}

func NewService(reader Reader, budgets BudgetSource, logger *slog.Logger) *Service {
	return &Service{
		reader:  reader,
		budgets: budgets,
		logger:  logger,
	}
}

// HoursForPeriod sums the worked hours of every entry dated inside rng,
// whatever its approval status.
func (s *Service) HoursForPeriod(ctx context.Context, actor internal.Actor, collaboratorID int64, rng worktime.Range) (*HoursSummary, error) {
	if err := s.authorize(actor, collaboratorID); err != nil {
		return nil, err
	}
	if err := validateRange(rng); err != nil {
		return nil, err
	}

	spans, err := s.reader.CollaboratorSpans(ctx, collaboratorID, rng)
	if err != nil {
		s.logger.Error("failed to read entries for period", "error", err, "collaborator_id", collaboratorID)
		return nil, internal.NewInternalError("failed to compute hours", err)
	}

	var total float64
	for _, sp := range spans {
		total += sp.Hours()
	}
	return &HoursSummary{
		CollaboratorID: collaboratorID,
		From:           rng.From,
		To:             rng.To,
		Hours:          round2(total),
		Entries:        len(spans),
	}, nil
}

// BudgetProgress counts every collaborator's entries on the activity, in
// any status.
func (s *Service) BudgetProgress(ctx context.Context, activityID int64) (*BudgetProgress, error) {
	budget, err := s.budgets.BudgetedHours(ctx, activityID)
	if err != nil {
		return nil, err
	}

	spans, err := s.reader.ActivitySpans(ctx, activityID)
	if err != nil {
		s.logger.Error("failed to read entries for activity", "error", err, "activity_id", activityID)
		return nil, internal.NewInternalError("failed to compute budget progress", err)
	}

	var logged float64
	for _, sp := range spans {
		logged += sp.Hours()
	}
	return computeProgress(activityID, round2(logged), budget), nil
}

func computeProgress(activityID int64, logged, budget float64) *BudgetProgress {
	p := &BudgetProgress{
		ActivityID:    activityID,
		LoggedHours:   logged,
		BudgetedHours: budget,
	}
	if budget <= 0 {
		p.Overrun = logged > 0
		return p
	}
	p.Percent = round2(logged * 100 / budget)
	p.DisplayPercent = math.Min(p.Percent, 100)
	p.Overrun = logged > budget
	return p
}

// ExpenseTotals sums approved and pending claims; rejected ones are left out.
func (s *Service) ExpenseTotals(ctx context.Context, actor internal.Actor, collaboratorID int64) (*ExpenseTotals, error) {
	if err := s.authorize(actor, collaboratorID); err != nil {
		return nil, err
	}

	amounts, err := s.reader.ExpenseAmounts(ctx, collaboratorID, []status.Status{status.Approved, status.Pending})
	if err != nil {
		s.logger.Error("failed to read expense amounts", "error", err, "collaborator_id", collaboratorID)
		return nil, internal.NewInternalError("failed to compute expense totals", err)
	}

	totals := &ExpenseTotals{
		CollaboratorID: collaboratorID,
		Approved:       decimal.Zero,
		Pending:        decimal.Zero,
	}
	for _, a := range amounts {
		switch a.Status {
		case status.Approved:
			totals.Approved = totals.Approved.Add(a.Amount)
		case status.Pending:
			totals.Pending = totals.Pending.Add(a.Amount)
		}
	}
	return totals, nil
}

// HoursBreakdown splits HoursForPeriod into one bucket per day or per ISO
// week (Monday start). Every bucket in the range is present, empty or not.
func (s *Service) HoursBreakdown(ctx context.Context, actor internal.Actor, collaboratorID int64, rng worktime.Range, groupBy GroupBy) (*HoursBreakdown, error) {
	if err := s.authorize(actor, collaboratorID); err != nil {
		return nil, err
	}
	if err := validateRange(rng); err != nil {
		return nil, err
	}
	if groupBy == "" {
		groupBy = GroupByDay
	}
	if groupBy != GroupByDay && groupBy != GroupByWeek {
		return nil, internal.NewValidationFieldError("group_by", "group_by must be day or week", internal.ErrCodeInvalidFilter)
	}

	spans, err := s.reader.CollaboratorSpans(ctx, collaboratorID, rng)
	if err != nil {
		s.logger.Error("failed to read entries for breakdown", "error", err, "collaborator_id", collaboratorID)
		return nil, internal.NewInternalError("failed to compute hours breakdown", err)
	}

	bucketOf := func(d worktime.Date) worktime.Date {
		if groupBy == GroupByWeek {
			return d.StartOfWeek()
		}
		return d
	}
	step := 1
	if groupBy == GroupByWeek {
		step = 7
	}

	sums := make(map[worktime.Date]float64)
	var total float64
	for _, sp := range spans {
		h := sp.Hours()
		sums[bucketOf(sp.Date)] += h
		total += h
	}

	out := &HoursBreakdown{
		CollaboratorID: collaboratorID,
		GroupBy:        groupBy,
		From:           rng.From,
		To:             rng.To,
		Buckets:        []Bucket{},
		Total:          round2(total),
	}
	for d := bucketOf(rng.From); !d.After(rng.To); d = d.AddDays(step) {
		out.Buckets = append(out.Buckets, Bucket{Start: d, Hours: round2(sums[d])})
	}
	return out, nil
}

func (s *Service) authorize(actor internal.Actor, collaboratorID int64) error {
	if !actor.CanSee(collaboratorID) {
		s.logger.Warn("report refused", "actor_id", actor.ID, "collaborator_id", collaboratorID)
		return internal.ErrPermissionDenied
	}
	return nil
}

func validateRange(rng worktime.Range) error {
	if err := rng.Validate(); err != nil {
		return internal.NewValidationFieldError("range", err.Error(), internal.ErrCodeInvalidFilter)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
