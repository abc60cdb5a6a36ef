package events

import (
	"encoding/json"
	"time"
)

// Ledger event kinds.
const (
	KindMonthInitialized = "month.initialized"
	KindMonthDeleted     = "month.deleted"
	KindMonthSynced      = "month.synced"
	KindExpenseChanged   = "expense.changed"
	KindLabelRenamed     = "label.renamed"
)

// LedgerEvent notifies workers that ledger state changed for one household
// month.
type LedgerEvent struct {
	Kind        string    `json:"kind"`
	HouseholdID int64     `json:"household_id"`
	Month       string    `json:"month,omitempty"`
	Count       int       `json:"count,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewLedgerEvent(kind string, householdID int64, month string) *LedgerEvent {
	return &LedgerEvent{
		Kind:        kind,
		HouseholdID: householdID,
		Month:       month,
		Timestamp:   time.Now().UTC(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
