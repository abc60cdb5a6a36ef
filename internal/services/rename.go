package services

import (
	"context"
	"log/slog"
	"strings"

	"hearth/internal/core"
	"hearth/internal/events"
	"hearth/internal/log"
	"hearth/internal/storage"
)

// Rename propagates a category or payer label change across the settings
// registry, historical expenses, and templates.
type Rename struct {
	repo      *storage.Repository
	reports   *Reports
	publisher EventPublisher
	logger    *slog.Logger
}

func NewRename(repo *storage.Repository, reports *Reports, publisher EventPublisher) *Rename {
	return &Rename{
		repo:      repo,
		reports:   reports,
		publisher: publisher,
		logger:    log.With(log.ComponentRename),
	}
}

// RenameResult reports what a propagation touched.
type RenameResult struct {
	RegistryChanged bool  `json:"registry_changed"`
	RowsRenamed     int64 `json:"rows_renamed"`
}

// Rename replaces oldLabel with newLabel in the registry list for the kind
// and rewrites every matching historical row, unconditionally across all
// months. A label absent from the registry still rewrites matching rows;
// the registry is simply left as it was. Re-running after success is a
// no-op.
func (s *Rename) Rename(ctx context.Context, householdID int64, kind, oldLabel, newLabel string) (RenameResult, error) {
	oldLabel = strings.TrimSpace(oldLabel)
	newLabel = strings.TrimSpace(newLabel)
	if oldLabel == "" || newLabel == "" {
		return RenameResult{}, core.ErrEmptyLabel
	}
	if _, err := core.LabelColumn(kind); err != nil {
		return RenameResult{}, err
	}

	changed, err := s.repo.RenameInRegistry(ctx, householdID, kind, oldLabel, newLabel)
	if err != nil {
		return RenameResult{}, err
	}

	renamed, err := s.repo.RenameLabelRows(ctx, householdID, kind, oldLabel, newLabel)
	if err != nil {
		return RenameResult{}, err
	}

	// Renames touch an unbounded set of months.
	s.reports.InvalidateAll()

	if s.publisher != nil && (changed || renamed > 0) {
		event := events.NewLedgerEvent(events.KindLabelRenamed, householdID, "")
		event.Count = int(renamed)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.ErrorContext(ctx, "publish rename event", log.FieldError, err)
		}
	}

	s.logger.InfoContext(ctx, "propagated rename",
		log.FieldHousehold, householdID,
		"kind", kind,
		"registry_changed", changed,
		log.FieldCount, renamed)
	return RenameResult{RegistryChanged: changed, RowsRenamed: renamed}, nil
}
