package manifold

// Wire types for the Manifold v0 API. Only the fields the adapter reads.

type apiMarket struct {
	ID             string  `json:"id"`
	Question       string  `json:"question"`
	OutcomeType    string  `json:"outcomeType"` // adapter only accepts BINARY
	Probability    float64 `json:"probability"`
	CloseTime      int64   `json:"closeTime"` // epoch millis
	IsResolved     bool    `json:"isResolved"`
	Resolution     string  `json:"resolution"` // YES | NO | MKT | CANCEL
	TotalLiquidity float64 `json:"totalLiquidity"`
}

type apiBetResponse struct {
	BetID    string  `json:"betId"`
	Shares   float64 `json:"shares"`
	IsFilled bool    `json:"isFilled"`
}

type apiUser struct {
	ID      string  `json:"id"`
	Balance float64 `json:"balance"`
}

type apiContractMetric struct {
	UserID      string             `json:"userId"`
	TotalShares map[string]float64 `json:"totalShares"` // keyed YES / NO
}
