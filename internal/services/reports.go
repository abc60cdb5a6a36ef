package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"hearth/internal/cache"
	"hearth/internal/core"
	"hearth/internal/log"
	"hearth/internal/storage"
)

const topExpenseCount = 5

type reportKey struct {
	householdID int64
	year        int
}

// Reports is the dashboard aggregation engine. One call folds a fiscal
// window's expense and balance row-sets entirely in memory, so the reported
// total always equals the sum of its own breakdown.
type Reports struct {
	repo   *storage.Repository
	cache  *cache.LRU[reportKey, core.YearReport]
	logger *slog.Logger
}

func NewReports(repo *storage.Repository) *Reports {
	return &Reports{
		repo:   repo,
		cache:  cache.NewLRU[reportKey, core.YearReport](64, 5*time.Minute),
		logger: log.With(log.ComponentReport),
	}
}

// YearReport aggregates the fiscal window starting in April of the given
// year. An empty window yields zeroes, never an error.
func (s *Reports) YearReport(ctx context.Context, householdID int64, year int) (core.YearReport, error) {
	key := reportKey{householdID: householdID, year: year}
	if report, ok := s.cache.Get(key); ok {
		return report, nil
	}

	months := core.FiscalWindow(year)

	var (
		expenses []core.Expense
		balances []core.MonthlyBalance
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.repo.ExpensesInMonths(gctx, householdID, months)
		return err
	})
	g.Go(func() error {
		var err error
		balances, err = s.repo.BalancesInMonths(gctx, householdID, months)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.YearReport{}, fmt.Errorf("fetch window rows: %w", err)
	}

	report := fold(year, expenses, balances)
	s.cache.Set(key, report)

	s.logger.InfoContext(ctx, "built year report",
		log.FieldHousehold, householdID,
		log.FieldYear, year,
		log.FieldCount, len(expenses))
	return report, nil
}

// Invalidate drops the cached report covering the given month.
func (s *Reports) Invalidate(householdID int64, month core.Month) {
	s.cache.Delete(reportKey{householdID: householdID, year: core.FiscalYearOf(month)})
}

// InvalidateAll drops every cached report. Used after label renames, which
// touch an unbounded set of months.
func (s *Reports) InvalidateAll() {
	s.cache.Purge()
}

// fold computes every dashboard figure from the two row-sets in one pass
// over the expenses. Expense totals are absolute values of the stored
// signed amounts; income is reported as stored.
func fold(year int, expenses []core.Expense, balances []core.MonthlyBalance) core.YearReport {
	report := core.YearReport{
		Year:              year,
		TotalIncome:       decimal.Zero,
		TotalExpenses:     decimal.Zero,
		CategoryBreakdown: []core.CategoryTotal{},
		MonthlyTrend:      []core.MonthPoint{},
		CategoryTrend:     []core.CategoryPoint{},
		WhoBreakdown:      []core.WhoTotal{},
		TopExpenses:       []core.TopExpense{},
	}

	income := make(map[core.Month]decimal.Decimal, len(balances))
	for _, b := range balances {
		income[b.Month] = b.Salary
		report.TotalIncome = report.TotalIncome.Add(b.Salary)
	}

	byCategory := make(map[string]decimal.Decimal)
	byMonth := make(map[core.Month]decimal.Decimal)
	byMonthCategory := make(map[core.Month]map[string]decimal.Decimal)
	byWho := make(map[string]decimal.Decimal)

	for _, e := range expenses {
		amount := e.Amount.Abs()
		byCategory[e.Category] = byCategory[e.Category].Add(amount)
		byMonth[e.Month] = byMonth[e.Month].Add(amount)
		if byMonthCategory[e.Month] == nil {
			byMonthCategory[e.Month] = make(map[string]decimal.Decimal)
		}
		byMonthCategory[e.Month][e.Category] = byMonthCategory[e.Month][e.Category].Add(amount)
		byWho[e.Who] = byWho[e.Who].Add(amount)
	}

	for category, total := range byCategory {
		report.CategoryBreakdown = append(report.CategoryBreakdown, core.CategoryTotal{
			Category: category, Total: total,
		})
		report.TotalExpenses = report.TotalExpenses.Add(total)
	}
	sort.Slice(report.CategoryBreakdown, func(i, j int) bool {
		return report.CategoryBreakdown[i].Total.GreaterThan(report.CategoryBreakdown[j].Total)
	})

	// Months with no expenses are omitted from the trend, not zero-filled.
	for _, month := range core.FiscalWindow(year) {
		total, ok := byMonth[month]
		if !ok {
			continue
		}
		report.MonthlyTrend = append(report.MonthlyTrend, core.MonthPoint{
			Month:    month,
			Expenses: total,
			Income:   income[month],
		})

		categories := make([]string, 0, len(byMonthCategory[month]))
		for category := range byMonthCategory[month] {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			report.CategoryTrend = append(report.CategoryTrend, core.CategoryPoint{
				Month:    month,
				Category: category,
				Total:    byMonthCategory[month][category],
			})
		}
	}

	for who, total := range byWho {
		report.WhoBreakdown = append(report.WhoBreakdown, core.WhoTotal{Who: who, Total: total})
	}
	sort.Slice(report.WhoBreakdown, func(i, j int) bool {
		return report.WhoBreakdown[i].Total.GreaterThan(report.WhoBreakdown[j].Total)
	})

	sorted := make([]core.Expense, len(expenses))
	copy(sorted, expenses)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Amount.Abs().GreaterThan(sorted[j].Amount.Abs())
	})
	for i := 0; i < len(sorted) && i < topExpenseCount; i++ {
		e := sorted[i]
		report.TopExpenses = append(report.TopExpenses, core.TopExpense{
			Name:     e.Name,
			Amount:   e.Amount.Abs(),
			Month:    e.Month,
			Category: e.Category,
		})
	}

	return report
}
