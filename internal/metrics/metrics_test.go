package metrics

import "testing"

func TestCurrentReflectsCounters(t *testing.T) {
	before := Current()

	WebhooksReceived.Inc()
	PurchasesStored.Inc()
	PurchasesSkipped.Inc()
	NotifyFailures.Inc()

	after := Current()

	if after.WebhooksReceived != before.WebhooksReceived+1 {
		t.Errorf("Expected webhooks_received to increment")
	}
	if after.PurchasesStored != before.PurchasesStored+1 {
		t.Errorf("Expected purchases_stored to increment")
	}
	if after.PurchasesSkipped != before.PurchasesSkipped+1 {
		t.Errorf("Expected purchases_skipped to increment")
	}
	if after.NotifyFailures != before.NotifyFailures+1 {
		t.Errorf("Expected notify_failures to increment")
	}
}
