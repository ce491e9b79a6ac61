package models

import "encoding/json"

// Quote stream event types exchanged over the live quote channel.
const (
	QuoteEventUpdate    = "quote_update"
	QuoteEventError     = "error"
	QuoteEventSubscribe = "subscribe_payment"
)

// QuoteMessage is the wire envelope for quote stream frames, both directions.
type QuoteMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// QuoteSubscription is the subscribe_payment payload: the token pair and
// amount the channel should stream refreshed quotes for.
type QuoteSubscription struct {
	FromTokenAddress string `json:"fromTokenAddress"`
	ToTokenAddress   string `json:"toTokenAddress"`
	UserTokenAmount  string `json:"userTokenAmount"`
	FromChainID      int64  `json:"fromChainId"`
	ToChainID        int64  `json:"toChainId"`
}
