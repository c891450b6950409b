package models

import (
	"encoding/json"
	"fmt"
)

// KofiEvent is the purchase payload Ko-fi embeds as a JSON string in the
// webhook's `data` field. Every field is optional; absent fields decode
// to zero values.
type KofiEvent struct {
	MessageID         string     `json:"message_id"`
	Type              string     `json:"type"`
	FromName          string     `json:"from_name"`
	Message           string     `json:"message"`
	Amount            Amount     `json:"amount"`
	Currency          string     `json:"currency"`
	Email             string     `json:"email"`
	KofiTransactionID string     `json:"kofi_transaction_id"`
	TierName          string     `json:"tier_name"`
	FromURL           string     `json:"from_url"`
	ShopItems         []ShopItem `json:"shop_items"`
}

// Amount keeps Ko-fi's decimal-string form. Payloads carry it as a
// string ("5.00") or occasionally as a bare number (5.00); both decode,
// the numeric literal kept verbatim.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = Amount(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a string or number: %w", err)
	}
	*a = Amount(n.String())
	return nil
}

type ShopItem struct {
	DirectLinkCode string `json:"direct_link_code"`
	VariationName  string `json:"variation_name"`
	Quantity       int    `json:"quantity"`
}

// ItemCode returns the identifier used to decide whether a purchase is
// monitored: the first shop item's direct link code, falling back to the
// tier name for subscription payments.
func (e *KofiEvent) ItemCode() string {
	if len(e.ShopItems) > 0 && e.ShopItems[0].DirectLinkCode != "" {
		return e.ShopItems[0].DirectLinkCode
	}
	return e.TierName
}
