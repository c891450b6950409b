package metrics

import "go.uber.org/atomic"

// Process-wide counters surfaced by the health endpoint.
var (
	WebhooksReceived = atomic.NewInt64(0)
	PurchasesStored  = atomic.NewInt64(0)
	PurchasesSkipped = atomic.NewInt64(0)
	NotifyFailures   = atomic.NewInt64(0)
)

type Snapshot struct {
	WebhooksReceived int64 `json:"webhooks_received"`
	PurchasesStored  int64 `json:"purchases_stored"`
	PurchasesSkipped int64 `json:"purchases_skipped"`
	NotifyFailures   int64 `json:"notify_failures"`
}

func Current() Snapshot {
	return Snapshot{
		WebhooksReceived: WebhooksReceived.Load(),
		PurchasesStored:  PurchasesStored.Load(),
		PurchasesSkipped: PurchasesSkipped.Load(),
		NotifyFailures:   NotifyFailures.Load(),
	}
}
