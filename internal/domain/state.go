package domain

import (
	"sort"
	"time"
)

// LogCap is the size of the in-memory log ring buffer (spec.md 3).
const LogCap = 500

// LogEntry is one row of the logs ring buffer, the primary user-visible
// feedback surface (spec.md 7).
type LogEntry struct {
	Timestamp time.Time
	Level     string
	Message   string
}

// AgentState is the single mutable object the actor owns exclusively.
// External callers only ever observe it through the admin interface
// (spec.md 3) — nothing outside internal/actor should hold a writable
// reference to it.
type AgentState struct {
	Config  Config
	Enabled bool

	SignalCache []Signal

	PositionEntries map[string]*PositionEntry
	SocialHistory   map[string][]SocialHistoryPoint

	SignalResearch       map[string]ResearchResult
	PositionResearch     map[string]ResearchResult
	StalenessAnalysis    map[string]StalenessResult
	TwitterConfirmations map[string]TwitterConfirmation

	TwitterDailyReads int
	TwitterDailyReset time.Time
	PremarketPlan     *PremarketPlan

	OptionPositions map[string]*OptionPosition

	DexSignals          []DexSignal
	DexPositions        map[string]*DexPosition
	DexTradeHistory     []DexTradeRecord
	DexRealizedPnLSOL   float64
	DexPaperBalanceSOL  float64
	DexPortfolioHistory []DexPortfolioSnapshot

	DexMaxConsecutiveLosses  int
	DexCurrentLossStreak     int
	DexMaxDrawdownPct        float64 // all-time running maximum, never reset
	DexCurrentDrawdownPct    float64 // current episode, zeroed on a new high
	DexMaxDrawdownDurationMs int64
	DexDrawdownStartTime     *time.Time
	DexPeakBalance           float64
	DexPeakValue             float64
	DexDrawdownPaused        bool

	DexRecentStopLosses    []RecentStopLoss
	DexCircuitBreakerUntil *time.Time

	DexStopLossCooldowns map[string]StopLossCooldown

	CrisisState CrisisState

	LastDataGather   time.Time
	LastAnalyst      time.Time
	LastResearch     time.Time
	LastHeldResearch time.Time
	LastDexScan      time.Time
	LastCrisisCheck  time.Time

	Logs []LogEntry

	CostTracker *CostTracker
}

// DexSignal is one scanned candidate token, as returned by the DEX provider
// and carried in AgentState for the duration of the tick that scanned it.
type DexSignal struct {
	TokenAddress    string
	Symbol          string
	Name            string
	URL             string
	PriceUSD        float64
	PriceChange5m   *float64
	PriceChange6h   float64
	PriceChange24h  float64
	Volume24h       float64
	Liquidity       float64
	AgeHours        float64
	AgeDays         float64
	MomentumScore   float64
	LegitimacyScore float64
	Tier            Tier
	DexID           string
}

// NewAgentState returns a freshly initialized state using the given config,
// with the DEX paper balance seeded from config and every map allocated so
// callers never have to nil-check before writing.
func NewAgentState(cfg Config) *AgentState {
	return &AgentState{
		Config:               cfg,
		Enabled:              cfg.Enabled,
		PositionEntries:      make(map[string]*PositionEntry),
		SocialHistory:        make(map[string][]SocialHistoryPoint),
		SignalResearch:       make(map[string]ResearchResult),
		PositionResearch:     make(map[string]ResearchResult),
		StalenessAnalysis:    make(map[string]StalenessResult),
		TwitterConfirmations: make(map[string]TwitterConfirmation),
		DexPositions:         make(map[string]*DexPosition),
		DexStopLossCooldowns: make(map[string]StopLossCooldown),
		OptionPositions:      make(map[string]*OptionPosition),
		DexPaperBalanceSOL:   cfg.DexStartingBalanceSOL,
		DexPeakBalance:       cfg.DexStartingBalanceSOL,
		DexPeakValue:         cfg.DexStartingBalanceSOL,
		CostTracker:          NewCostTracker(),
	}
}

// AppendLog pushes a log line, evicting the oldest entry once the ring
// buffer cap is exceeded.
func (s *AgentState) AppendLog(level, message string) {
	s.Logs = append(s.Logs, LogEntry{Timestamp: time.Now(), Level: level, Message: message})
	if len(s.Logs) > LogCap {
		s.Logs = s.Logs[len(s.Logs)-LogCap:]
	}
}

// TrimSignalCache drops signals older than the TTL and keeps only the
// SignalCacheCap most sentiment-extreme entries (spec.md 4.2).
func (s *AgentState) TrimSignalCache(now time.Time) {
	fresh := make([]Signal, 0, len(s.SignalCache))
	for _, sig := range s.SignalCache {
		if sig.Fresh(now) {
			fresh = append(fresh, sig)
		}
	}
	if len(fresh) > SignalCacheCap {
		sort.Slice(fresh, func(i, j int) bool {
			return fresh[i].AbsSentiment() > fresh[j].AbsSentiment()
		})
		fresh = fresh[:SignalCacheCap]
	}
	s.SignalCache = fresh
}
