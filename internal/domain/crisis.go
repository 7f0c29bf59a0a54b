package domain

import "time"

// CrisisLevel is the 0-3 severity score derived from macro indicators.
type CrisisLevel int

const (
	CrisisNormal    CrisisLevel = 0
	CrisisElevated  CrisisLevel = 1
	CrisisHighAlert CrisisLevel = 2
	CrisisFull      CrisisLevel = 3
)

func (l CrisisLevel) String() string {
	switch l {
	case CrisisElevated:
		return "elevated"
	case CrisisHighAlert:
		return "high_alert"
	case CrisisFull:
		return "full_crisis"
	default:
		return "normal"
	}
}

// CrisisIndicators is the snapshot of macro inputs scored each crisis check.
// StocksAbove200MA is permanently unsourced per spec.md 9 and must be
// tolerated as nil everywhere it is read.
type CrisisIndicators struct {
	VIX              *float64
	HYSpread         *float64
	YieldCurve2Y10Y  *float64
	TED              *float64
	BTCPrice         *float64
	BTCWeeklyPct     *float64
	USDTPeg          *float64
	DXY              *float64
	USDJPY           *float64
	KRE              *float64
	KREWeeklyPct     *float64
	GoldSilverRatio  *float64
	SilverWeeklyPct  *float64
	StocksAbove200MA *float64
	FedBalanceSheet  *float64
	FedChangePct     *float64
	LastUpdated      time.Time
}

// CrisisState is the level machine's durable state (spec.md 3).
type CrisisState struct {
	Level                   CrisisLevel
	Indicators              CrisisIndicators
	TriggeredIndicators     []string
	PausedUntil             *time.Time
	LastLevelChange         time.Time
	PositionsClosedInCrisis []string
	ManualOverride          bool
}

// PositionMultiplier returns the position-sizing multiplier for the level,
// per spec.md 4.6.
func (l CrisisLevel) PositionMultiplier() float64 {
	switch l {
	case CrisisElevated:
		return 0.5
	case CrisisHighAlert, CrisisFull:
		return 0.0
	default:
		return 1.0
	}
}
