package routesim

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/apppayai/payflow/internal/domain/models"
	"github.com/apppayai/payflow/pkg/currency"
)

// Synthetic bridge profiles the simulator quotes against. Fees are display
// estimates; the amounts stay exact decimals.
var profiles = []struct {
	provider      string
	bridge        string
	service       string
	baseFee       float64
	percentageFee float64
	gasFee        float64
	estimatedTime int64
}{
	{"lifi", "stargate", "swap-bridge", 0.50, 0.30, 1.20, 180},
	{"socket", "hop", "bridge", 0.25, 0.20, 0.90, 300},
	{"squid", "axelar", "swap-bridge", 0.75, 0.45, 1.60, 120},
}

const commissionPct = 0.15

// Generate produces a synthetic candidate set for a discovery query. The
// cheapest route is flagged optimal, matching how the hosted backend ranks.
func Generate(query *models.RouteQuery) []models.Route {
	amount, err := currency.Parse(query.Amount)
	if err != nil {
		return []models.Route{}
	}

	routes := make([]models.Route, 0, len(profiles))
	bestIndex := 0
	bestCost := decimal.Zero

	for i, p := range profiles {
		bridgeFee := currency.FeeTotal(amount, p.baseFee, p.percentageFee)
		commission := currency.ApplyPercentage(amount, commissionPct)
		gasFee := decimal.NewFromFloat(p.gasFee)
		totalFee := bridgeFee.Add(commission).Add(gasFee)

		toAmount := amount.Sub(totalFee)
		if toAmount.IsNegative() {
			toAmount = decimal.Zero
		}

		route := models.Route{
			ID:               uuid.New().String(),
			Provider:         p.provider,
			Bridge:           p.bridge,
			Service:          p.service,
			FromChainID:      query.FromChainID,
			ToChainID:        query.ToChainID,
			FromAmount:       currency.Format(amount),
			ToAmount:         currency.Format(toAmount),
			FromToken:        query.FromToken,
			FromTokenAddress: tokenAddress(query.FromToken, query.FromChainID),
			ToToken:          query.ToToken,
			ToTokenAddress:   tokenAddress(query.ToToken, query.ToChainID),
			EstimatedTime:    p.estimatedTime,
			EstimatedFee: models.FeeEstimate{
				BaseFee:       p.baseFee,
				PercentageFee: p.percentageFee,
				TotalFee:      totalFee.InexactFloat64(),
				Breakdown: models.FeeBreakdown{
					BridgeFee:  bridgeFee.InexactFloat64(),
					GasFee:     p.gasFee,
					Commission: commission.InexactFloat64(),
				},
			},
			BuyerFees: models.BuyerFees{
				ServiceFee: commission.InexactFloat64(),
				GasFees: models.GasFees{
					Amount: p.gasFee,
					PaidBy: models.FeeStrategyBuyer,
				},
				BridgeFees:     bridgeFee.InexactFloat64(),
				TotalCost:      amount.Add(totalFee).InexactFloat64(),
				SellerReceives: amount.InexactFloat64(),
			},
			IsReal:     false,
			DataSource: "simulated",
		}

		if i == 0 || totalFee.LessThan(bestCost) {
			bestIndex = i
			bestCost = totalFee
		}

		routes = append(routes, route)
	}

	routes[bestIndex].IsOptimal = true

	return routes
}

// Known settlement token addresses per chain; unknown pairs settle as
// native assets and carry no contract address.
var tokenAddresses = map[string]map[int64]string{
	"USDC": {
		1:     "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		137:   "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
		8453:  "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		42161: "0xaf88d065e77c8cC2239327C5EDb3A432268e5831",
	},
	"USDT": {
		1:   "0xdAC17F958D2ee523a2206206994597C13D831ec7",
		137: "0xc2132D05D31c914a87C6611C10748AEb04B58e8F",
	},
}

func tokenAddress(symbol string, chainID int64) string {
	if byChain, ok := tokenAddresses[symbol]; ok {
		return byChain[chainID]
	}
	return ""
}
