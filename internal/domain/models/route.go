package models

// FeeBreakdown splits an estimated fee into its components.
type FeeBreakdown struct {
	BridgeFee  float64 `json:"bridgeFee"`
	GasFee     float64 `json:"gasFee"`
	Commission float64 `json:"ourCommission"`
}

// FeeEstimate is the provider-side fee estimate for a route.
type FeeEstimate struct {
	BaseFee       float64      `json:"baseFee"`
	PercentageFee float64      `json:"percentageFee"`
	TotalFee      float64      `json:"totalFee"`
	Breakdown     FeeBreakdown `json:"breakdown"`
}

// GasFees carries a gas amount with its payer attribution.
type GasFees struct {
	Amount float64     `json:"amount"`
	PaidBy FeeStrategy `json:"paidBy"`
}

// BuyerFees is the buyer-facing cost breakdown for a route.
type BuyerFees struct {
	ServiceFee     float64 `json:"serviceFee"`
	GasFees        GasFees `json:"gasFees"`
	BridgeFees     float64 `json:"bridgeFees"`
	TotalCost      float64 `json:"totalCost"`
	SellerReceives float64 `json:"sellerReceives"`
}

// Route is a candidate cross-chain settlement path. Routes are immutable
// value objects; a discovery call replaces the whole candidate set.
type Route struct {
	ID               string      `json:"id"`
	Provider         string      `json:"provider"`
	Bridge           string      `json:"bridge"`
	Service          string      `json:"service"`
	FromChainID      int64       `json:"fromChainId"`
	ToChainID        int64       `json:"toChainId"`
	FromAmount       string      `json:"fromAmount"`
	ToAmount         string      `json:"toAmount"`
	FromToken        string      `json:"fromToken"`
	FromTokenAddress string      `json:"fromTokenAddress"`
	ToToken          string      `json:"toToken"`
	ToTokenAddress   string      `json:"toTokenAddress"`
	EstimatedTime    int64       `json:"estimatedTime"` // seconds
	EstimatedFee     FeeEstimate `json:"estimatedFee"`
	BuyerFees        BuyerFees   `json:"buyerFees"`
	IsOptimal        bool        `json:"isOptimal"`
	IsReal           bool        `json:"isReal"`
	DataSource       string      `json:"dataSource"`
}

// RouteQuery is the discovery request sent to the backend.
type RouteQuery struct {
	FromChainID int64  `json:"fromChainId" validate:"required,gt=0"`
	ToChainID   int64  `json:"toChainId" validate:"required,gt=0"`
	FromToken   string `json:"fromToken" validate:"required"`
	ToToken     string `json:"toToken" validate:"required"`
	Amount      string `json:"amount" validate:"required,number"`
	UserAddress string `json:"userAddress,omitempty"`
}

// RouteDiscovery is the backend's answer to a RouteQuery. An empty Routes
// slice is a valid, non-error result.
type RouteDiscovery struct {
	Routes           []Route `json:"routes"`
	RecommendedRoute *Route  `json:"recommendedRoute,omitempty"`
}
