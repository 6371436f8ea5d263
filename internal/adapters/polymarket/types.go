package polymarket

// Raw DTOs for the Gamma, CLOB and data APIs. Only used inside this
// package; conversion to domain entities lives in mapping.go.

// gammaMarket is one market from GET {gamma}/markets. Gamma returns some
// numeric fields as JSON strings.
type gammaMarket struct {
	ConditionID         string  `json:"conditionId"`
	Question            string  `json:"question"`
	OutcomePrices       string  `json:"outcomePrices"` // e.g. `["0.45", "0.55"]`
	EndDateISO          string  `json:"endDateIso"`
	Liquidity           string  `json:"liquidity"`
	Active              bool    `json:"active"`
	Closed              bool    `json:"closed"`
	UMAResolutionStatus string  `json:"umaResolutionStatus"`
	OrderMinSize        float64 `json:"orderMinSize"`
	TakerBaseFee        float64 `json:"takerBaseFee"`
}

// dataPosition is one row from GET {data}/positions.
type dataPosition struct {
	ConditionID string  `json:"conditionId"`
	Outcome     string  `json:"outcome"` // "Yes" | "No"
	Size        float64 `json:"size"`
}

// orderRequest is the body of POST {clob}/order. The full CLOB order is
// EIP-712 signed; the adapter sends the prepared payload and lets the
// CLOB validate it.
type orderRequest struct {
	Market    string  `json:"market"` // condition id
	Side      string  `json:"side"`   // BUY | SELL
	Outcome   string  `json:"outcome"`
	Amount    float64 `json:"amount"` // collateral units
	OrderType string  `json:"orderType"`
}

// orderResponse is the CLOB's acknowledgment of a submitted order.
type orderResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderID"`
	Status  string `json:"status"` // live | matched | delayed | unmatched
	Error   string `json:"errorMsg"`
}

// balanceResponse is GET {clob}/balance-allowance.
type balanceResponse struct {
	Balance string `json:"balance"` // USDC with 6 decimals, as string
}
