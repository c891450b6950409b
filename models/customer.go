package models

import "time"

// CustomerEmail aggregates every monitored purchase seen for one email
// address. TransactionIDs grows as a deduplicated set and is never
// truncated; LastPurchase is overwritten on each purchase.
type CustomerEmail struct {
	Email          string
	LastPurchase   time.Time
	TransactionIDs []string
}

// AddTransaction records a transaction id, keeping the set free of
// duplicates. Adding an id already present is a no-op.
func (c *CustomerEmail) AddTransaction(id string) {
	for _, existing := range c.TransactionIDs {
		if existing == id {
			return
		}
	}
	c.TransactionIDs = append(c.TransactionIDs, id)
}
