package models

import "time"

// FeeStrategy says which side of the sale absorbs the settlement fees.
type FeeStrategy string

const (
	FeeStrategyBuyer  FeeStrategy = "buyer"
	FeeStrategySeller FeeStrategy = "seller"
)

// Token describes the seller's preferred settlement token.
type Token struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address,omitempty"`
	ChainID  int64  `json:"chainId"`
	Decimals int32  `json:"decimals,omitempty"`
}

// PaymentTerms is the payment record resolved from a payment identifier.
// It is immutable once loaded; a reload replaces the whole value.
type PaymentTerms struct {
	PaymentID            string      `json:"paymentId"`
	Title                string      `json:"title"`
	Description          string      `json:"description"`
	Amount               string      `json:"amount"`
	Currency             string      `json:"currency"`
	UserCurrency         string      `json:"userCurrency"`
	SellerAddress        string      `json:"sellerAddress"`
	SellerPreferredToken Token       `json:"sellerPreferredToken"`
	UserWalletChain      int64       `json:"userWalletChain"`
	FeeStrategy          FeeStrategy `json:"feeStrategy"`
	MerchantName         string      `json:"merchantName,omitempty"`
	MerchantAvatar       string      `json:"merchantAvatar,omitempty"`
	ImageURI             string      `json:"imageUri,omitempty"`
}

// ResultStatus is the terminal status of a payment attempt.
type ResultStatus string

const (
	ResultCompleted ResultStatus = "completed"
	ResultPending   ResultStatus = "pending"
	ResultFailed    ResultStatus = "failed"
)

// PaymentResult is created exactly once per successful execution and never
// mutated afterwards.
type PaymentResult struct {
	PaymentID       string         `json:"paymentId"`
	TransactionHash string         `json:"transactionHash"`
	Amount          string         `json:"amount"`
	Currency        string         `json:"currency"`
	Status          ResultStatus   `json:"status"`
	Timestamp       time.Time      `json:"timestamp"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// PaymentStatus is the backend's view of a payment, as reported by the
// status polling endpoint.
type PaymentStatus struct {
	Status          string         `json:"status"`
	TransactionHash string         `json:"transactionHash,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}
