package omen

// Subgraph DTOs. Market metadata and resolutions come from the Omen
// subgraph on The Graph; only trading and balances touch the chain.

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// subgraphMarket is one fixedProductMarketMaker entity. The subgraph
// returns big numbers as decimal strings.
type subgraphMarket struct {
	ID                         string   `json:"id"`
	Title                      string   `json:"title"`
	Outcomes                   []string `json:"outcomes"`
	OutcomeTokenMarginalPrices []string `json:"outcomeTokenMarginalPrices"`
	Fee                        string   `json:"fee"` // wei fraction, 2e16 = 2%
	OpeningTimestamp           string   `json:"openingTimestamp"`
	ScaledLiquidityParameter   string   `json:"scaledLiquidityParameter"`
	IsPendingArbitration       bool     `json:"isPendingArbitration"`
	CurrentAnswer              string   `json:"currentAnswer"` // bytes32 hex, empty while open
	AnswerFinalizedTimestamp   string   `json:"answerFinalizedTimestamp"`
}

type marketsResponse struct {
	Data struct {
		Markets []subgraphMarket `json:"fixedProductMarketMakers"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type marketResponse struct {
	Data struct {
		Market *subgraphMarket `json:"fixedProductMarketMaker"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// subgraphPosition is one marketPositions row for a user.
type subgraphPosition struct {
	OutcomeIndex string `json:"outcomeIndex"`
	NetQuantity  string `json:"netQuantity"` // wei
}

type positionsResponse struct {
	Data struct {
		Positions []subgraphPosition `json:"marketPositions"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// graphResponse lets the client surface subgraph-level errors uniformly.
type graphResponse interface {
	graphErrors() []graphQLError
}

func (r *marketsResponse) graphErrors() []graphQLError   { return r.Errors }
func (r *marketResponse) graphErrors() []graphQLError    { return r.Errors }
func (r *positionsResponse) graphErrors() []graphQLError { return r.Errors }
