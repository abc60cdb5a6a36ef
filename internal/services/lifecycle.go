package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"hearth/internal/core"
	"hearth/internal/events"
	"hearth/internal/log"
	"hearth/internal/storage"
)

// Month seeding sources.
const (
	SourceTemplate = "template"
	SourcePrevious = "previous-month"
)

// EventPublisher pushes ledger change notifications. Implementations must
// tolerate being called on the request path; failures are logged, never
// returned to the caller.
type EventPublisher interface {
	Publish(ctx context.Context, event *events.LedgerEvent) error
}

// Lifecycle creates, replaces and deletes whole budget months.
type Lifecycle struct {
	repo      *storage.Repository
	reports   *Reports
	publisher EventPublisher
	logger    *slog.Logger
}

func NewLifecycle(repo *storage.Repository, reports *Reports, publisher EventPublisher) *Lifecycle {
	return &Lifecycle{
		repo:      repo,
		reports:   reports,
		publisher: publisher,
		logger:    log.With(log.ComponentLifecycle),
	}
}

// InitMonth seeds a month from the template set or from another month's
// expenses. The balance row is created only if absent, with the registry's
// default salary; an existing row is never touched. Returns the number of
// expense rows copied, which may be zero.
func (s *Lifecycle) InitMonth(ctx context.Context, householdID int64, target core.Month, source string, from core.Month) (int, error) {
	settings, err := s.repo.LoadSettings(ctx, householdID)
	if err != nil {
		return 0, fmt.Errorf("load settings: %w", err)
	}

	if _, err := s.repo.InitBalance(ctx, householdID, target, settings.DefaultSalary); err != nil {
		return 0, err
	}

	seeds, err := s.seedRows(ctx, householdID, target, source, from)
	if err != nil {
		return 0, err
	}

	copied, err := s.repo.InsertExpenses(ctx, householdID, seeds)
	if err != nil {
		return 0, err
	}

	s.reports.Invalidate(householdID, target)
	s.publish(ctx, events.KindMonthInitialized, householdID, target, copied)

	s.logger.InfoContext(ctx, "initialized month",
		log.FieldHousehold, householdID,
		log.FieldMonth, target,
		"source", source,
		log.FieldCount, copied)
	return copied, nil
}

// seedRows builds fresh unpaid expense copies for the target month. Each
// copy gets a new identity; name, amount, category, payer, vendor and
// expected day carry over verbatim.
func (s *Lifecycle) seedRows(ctx context.Context, householdID int64, target core.Month, source string, from core.Month) ([]core.Expense, error) {
	switch source {
	case SourceTemplate:
		templates, err := s.repo.ListTemplates(ctx, householdID)
		if err != nil {
			return nil, err
		}
		seeds := make([]core.Expense, 0, len(templates))
		for _, t := range templates {
			seeds = append(seeds, core.Expense{
				Month:       target,
				Name:        t.Name,
				Amount:      t.Amount,
				Category:    t.Category,
				Who:         t.Who,
				Vendor:      t.Vendor,
				ExpectedDay: t.ExpectedDay,
			})
		}
		return seeds, nil

	case SourcePrevious:
		if from == "" {
			return nil, core.ErrMissingSource
		}
		previous, err := s.repo.ExpensesByMonth(ctx, householdID, from)
		if err != nil {
			return nil, err
		}
		seeds := make([]core.Expense, 0, len(previous))
		for _, e := range previous {
			seeds = append(seeds, core.Expense{
				Month:       target,
				Name:        e.Name,
				Amount:      e.Amount,
				Category:    e.Category,
				Who:         e.Who,
				Vendor:      e.Vendor,
				ExpectedDay: e.ExpectedDay,
			})
		}
		return seeds, nil

	default:
		return nil, core.ErrUnknownSource
	}
}

// DeleteMonth removes a month's expenses and its balance row. Returns the
// number of expense rows removed.
func (s *Lifecycle) DeleteMonth(ctx context.Context, householdID int64, month core.Month) (int64, error) {
	removed, err := s.repo.DeleteMonth(ctx, householdID, month)
	if err != nil {
		return 0, err
	}

	s.reports.Invalidate(householdID, month)
	s.publish(ctx, events.KindMonthDeleted, householdID, month, int(removed))

	s.logger.InfoContext(ctx, "deleted month",
		log.FieldHousehold, householdID,
		log.FieldMonth, month,
		log.FieldCount, removed)
	return removed, nil
}

// SyncMonth overwrites a month with a client snapshot: balance amount and
// salary via upsert, then the full expense list verbatim with the client's
// identities preserved. A full overwrite, never a merge.
func (s *Lifecycle) SyncMonth(ctx context.Context, householdID int64, month core.Month, amount, salary decimal.Decimal, expenses []core.Expense) error {
	if err := s.repo.UpsertBalanceAmount(ctx, householdID, month, amount); err != nil {
		return err
	}
	if err := s.repo.UpsertBalanceSalary(ctx, householdID, month, salary); err != nil {
		return err
	}
	if err := s.repo.ReplaceMonth(ctx, householdID, month, expenses); err != nil {
		return err
	}

	s.reports.Invalidate(householdID, month)
	s.publish(ctx, events.KindMonthSynced, householdID, month, len(expenses))

	s.logger.InfoContext(ctx, "synced month",
		log.FieldHousehold, householdID,
		log.FieldMonth, month,
		log.FieldCount, len(expenses))
	return nil
}

// publish is fire-and-forget: a broker failure never fails the ledger
// write that triggered it.
func (s *Lifecycle) publish(ctx context.Context, kind string, householdID int64, month core.Month, count int) {
	if s.publisher == nil {
		return
	}
	event := events.NewLedgerEvent(kind, householdID, string(month))
	event.Count = count
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "publish ledger event", log.FieldError, err, "kind", kind)
	}
}
