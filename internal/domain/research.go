package domain

import "time"

// Verdict is the closed set of LLM analyst recommendations.
type Verdict string

const (
	VerdictBuy  Verdict = "BUY"
	VerdictSell Verdict = "SELL"
	VerdictHold Verdict = "HOLD"
)

// ResearchResult is the LLM's verdict on a candidate signal or held position.
type ResearchResult struct {
	Symbol       string
	Verdict      Verdict
	Confidence   float64 // (0, 1]
	Reasoning    string
	EntryQuality string // e.g. "excellent", "good", "marginal"
	Timestamp    time.Time
}

// TwitterConfirmation records whether breaking-news confirmation agreed with
// the thesis for a held symbol.
type TwitterConfirmation struct {
	Symbol       string
	Confirmed    bool
	Contradicted bool
	Timestamp    time.Time
}

// StalenessResult is the derived staleness score for a held position
// (spec.md 4.5).
type StalenessResult struct {
	Symbol    string
	Score     float64
	IsStale   bool
	Reasons   []string
	Timestamp time.Time
}

// PremarketPlan is the cached pre-market analysis executed once per day in
// the 09:25-09:29 window and run at market open (spec.md 4.1 step 6/9).
type PremarketPlan struct {
	GeneratedAt time.Time
	Candidates  []PremarketCandidate
}

// PremarketCandidate is a single buy/sell intent produced by the pre-market
// analysis pass.
type PremarketCandidate struct {
	Symbol     string
	Verdict    Verdict
	Confidence float64
	Reasoning  string
}

// SocialHistoryPoint is one sample of a held symbol's social volume/sentiment
// trajectory, used by staleness's social-decay term.
type SocialHistoryPoint struct {
	Timestamp time.Time
	Volume    float64
	Sentiment float64
}
