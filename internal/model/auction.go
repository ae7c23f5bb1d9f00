package model

// RTBBid is one simulated bid. Amount is a CPM and never negative.
type RTBBid struct {
	Bidder   string  `json:"bidder"`
	Amount   float64 `json:"amount"`
	Interest string  `json:"interest"`
}

// RTBSimulationResult is the outcome of one simulated auction.
type RTBSimulationResult struct {
	// Bids is ordered by Amount, highest first.
	Bids []RTBBid `json:"bids"`

	// Winner is Bids[0].
	Winner RTBBid `json:"winner"`
}

// Valuation is the monetary part of a report.
type Valuation struct {
	// Persona is the category the auction was keyed on.
	Persona Persona `json:"persona"`

	// Winner is the highest bid.
	Winner RTBBid `json:"winner"`

	// Bidders is every bid, highest first.
	Bidders []RTBBid `json:"bidders"`

	// AverageCPM is the mean of all bid amounts.
	AverageCPM float64 `json:"averageCPM"`

	// AnnualValue extrapolates AverageCPM over a year of browsing.
	AnnualValue float64 `json:"annualValue"`
}
