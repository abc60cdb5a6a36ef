package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hearth/internal/core"
	"hearth/internal/log"
	"hearth/internal/storage"
)

// RolloverProcessor initializes the current month from templates for every
// household that has not opened it yet. It runs on a ticker in the worker
// and checks once on start.
type RolloverProcessor struct {
	repo      *storage.Repository
	lifecycle *Lifecycle
	interval  time.Duration
	logger    *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewRolloverProcessor(repo *storage.Repository, lifecycle *Lifecycle, interval time.Duration) *RolloverProcessor {
	return &RolloverProcessor{
		repo:      repo,
		lifecycle: lifecycle,
		interval:  interval,
		logger:    log.With(log.ComponentWorker),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the processing loop.
func (p *RolloverProcessor) Start(ctx context.Context) {
	go p.run(ctx)
}

// Stop signals the loop to exit and waits for it to drain.
func (p *RolloverProcessor) Stop() {
	close(p.stopCh)
	<-p.doneCh
}

func (p *RolloverProcessor) run(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)

	for {
		select {
		case <-ticker.C:
			p.tick(ctx)
		case <-p.stopCh:
			p.logger.Info("rollover processor stopping")
			return
		case <-ctx.Done():
			return
		}
	}
}

// tick opens the current month for any household still missing its balance
// row. Households already open, even by a manual write, are skipped.
func (p *RolloverProcessor) tick(ctx context.Context) {
	current := core.MonthOf(time.Now())

	households, err := p.repo.ListHouseholdIDs(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "list households", log.FieldError, err)
		return
	}

	for _, householdID := range households {
		_, err := p.repo.GetBalance(ctx, householdID, current)
		if err == nil {
			continue
		}
		if !errors.Is(err, core.ErrNotFound) {
			p.logger.ErrorContext(ctx, "check month", log.FieldError, err,
				log.FieldHousehold, householdID, log.FieldMonth, current)
			continue
		}

		copied, err := p.lifecycle.InitMonth(ctx, householdID, current, SourceTemplate, "")
		if err != nil {
			p.logger.ErrorContext(ctx, "auto-init month", log.FieldError, err,
				log.FieldHousehold, householdID, log.FieldMonth, current)
			continue
		}
		p.logger.InfoContext(ctx, "auto-initialized month",
			log.FieldHousehold, householdID,
			log.FieldMonth, current,
			log.FieldCount, copied)
	}
}
