package models

import "time"

// License is one persisted purchase of a monitored item. Amount keeps
// Ko-fi's decimal-string form verbatim.
type License struct {
	ID            string
	TransactionID string
	ItemName      string
	Amount        string
	DeviceID      string
	Email         string
	PurchaseDate  time.Time
}

// HasIdentity reports whether the record carries at least one way to
// attribute the purchase. Records without identity are never persisted.
func (l *License) HasIdentity() bool {
	return l.DeviceID != "" || l.Email != ""
}
